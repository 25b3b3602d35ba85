// Package viccontent speaks to the structured content source backing the
// health authority's website. It is a generic JSON:API paragraph store:
// every published statistic lives as one addressable record, and the server
// supports sparse fieldsets plus an IN filter on record ids, so a batch of
// statistics can be pulled with a single filtered request.
package viccontent

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

var tracer = otel.Tracer("scrapers/viccontent")

type Client struct {
	http *resty.Client
}

type ClientOptions struct {
	BaseUrl string
	// zero means no client-side timeout
	Timeout time.Duration
	// optional raw payload capture for development sampling
	Capture restyutil.CaptureOutput
}

func NewClient(opts ClientOptions) *Client {
	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetHeader("accept", "application/vnd.api+json")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	telemetry.InstrumentResty(client, "scrapers/viccontent/http")
	restyutil.CaptureClient(client, opts.Capture)

	return &Client{http: client}
}

// one statistic as published by the content source: the record id is
// the only addressing information the source exposes, values are always
// pre-formatted display strings
type Record struct {
	Id    string
	Value string
}

type resourceObject struct {
	Id         string                     `json:"id"`
	Attributes map[string]json.RawMessage `json:"attributes"`
}

type envelope struct {
	Data   json.RawMessage   `json:"data"`
	Errors []json.RawMessage `json:"errors"`
}

func decodeEnvelope(resource string, res *resty.Response) (json.RawMessage, error) {
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		return nil, fmt.Errorf(
			"viccontent %s: status %d: %s",
			resource, res.StatusCode(), res.String(),
		)
	}
	var env envelope
	err := json.Unmarshal(res.Body(), &env)
	if err != nil {
		return nil, fmt.Errorf("viccontent %s: malformed response: %w", resource, err)
	}
	if len(env.Errors) > 0 {
		raw, _ := json.Marshal(env.Errors)
		return nil, fmt.Errorf("viccontent %s: error envelope: %s", resource, raw)
	}
	return env.Data, nil
}

func attributeString(obj resourceObject, field string) (string, error) {
	raw, ok := obj.Attributes[field]
	if !ok {
		return "", fmt.Errorf("record '%s' is missing attribute '%s'", obj.Id, field)
	}
	var value string
	err := json.Unmarshal(raw, &value)
	if err != nil {
		// numeric attributes come through as bare json scalars
		return string(raw), nil
	}
	return value, nil
}

func (c *Client) GetRecords(ctx context.Context, q RecordQuery) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "GetRecords")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(q.values()).
		Get(q.Resource)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch records")
		return nil, err
	}

	data, err := decodeEnvelope(q.Resource, res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var objects []resourceObject
	err = json.Unmarshal(data, &objects)
	if err != nil {
		err = fmt.Errorf("viccontent %s: malformed data: %w", q.Resource, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	records := make([]Record, len(objects))
	for i, obj := range objects {
		value, err := attributeString(obj, q.ValueField)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("viccontent %s: %w", q.Resource, err)
		}
		records[i] = Record{Id: obj.Id, Value: value}
	}
	return records, nil
}

// fetches a single free-text field off the first entity of a resource,
// typically an HTML-bearing blob a marker gets regex-extracted from later
func (c *Client) GetTextField(ctx context.Context, q TextQuery) (string, error) {
	ctx, span := tracer.Start(ctx, "GetTextField")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(q.values()).
		Get(q.Resource)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch text field")
		return "", err
	}

	data, err := decodeEnvelope(q.Resource, res)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	obj, err := firstResource(data)
	if err != nil {
		err = fmt.Errorf("viccontent %s: %w", q.Resource, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	value, err := attributeString(obj, q.Field)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("viccontent %s: %w", q.Resource, err)
	}
	return value, nil
}

// the data member is a single object for entity endpoints and an array
// for collection endpoints, tolerate both
func firstResource(data json.RawMessage) (resourceObject, error) {
	var objects []resourceObject
	err := json.Unmarshal(data, &objects)
	if err == nil {
		if len(objects) == 0 {
			return resourceObject{}, fmt.Errorf("empty data array")
		}
		return objects[0], nil
	}

	var object resourceObject
	err = json.Unmarshal(data, &object)
	if err != nil {
		return resourceObject{}, fmt.Errorf("malformed data: %w", err)
	}
	return object, nil
}
