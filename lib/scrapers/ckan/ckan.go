// Package ckan is a minimal client for CKAN-style open data portals.
// Success and failure share a 200 status, discriminated by a `success`
// boolean in the body.
package ckan

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"vicstats-backend/lib/restyutil"
	"vicstats-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/ckan")

type Client struct {
	http *resty.Client
}

type ClientOptions struct {
	BaseUrl string
	Timeout time.Duration
	Capture restyutil.CaptureOutput
}

func NewClient(opts ClientOptions) *Client {
	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	telemetry.InstrumentResty(client, "scrapers/ckan/http")
	restyutil.CaptureClient(client, opts.Capture)

	return &Client{http: client}
}

type datastoreSearchResponse struct {
	Success bool `json:"success"`
	Result  struct {
		Total int `json:"total"`
	} `json:"result"`
}

// returns the total number of records in a datastore resource without
// fetching any of them
func (c *Client) DatastoreTotal(ctx context.Context, resourceId string) (int, error) {
	ctx, span := tracer.Start(ctx, "DatastoreTotal")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("resource_id", resourceId).
		SetQueryParam("limit", "0").
		Get("api/3/action/datastore_search")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch datastore_search")
		return 0, err
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		err = fmt.Errorf("ckan datastore_search: status %d: %s", res.StatusCode(), res.String())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	var body datastoreSearchResponse
	err = json.Unmarshal(res.Body(), &body)
	if err != nil {
		err = fmt.Errorf("ckan datastore_search: malformed response: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	if !body.Success {
		err = fmt.Errorf("ckan datastore_search: success=false: %s", res.String())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	return body.Result.Total, nil
}
