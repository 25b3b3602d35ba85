// Package homepage scrapes the health authority's public website for the
// few markers the structured content source doesn't carry.
package homepage

import (
	"bytes"
	"context"
	"fmt"
	"time"
	"vicstats-backend/lib/htmlutil"
	"vicstats-backend/lib/restyutil"
	"vicstats-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/homepage")

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
	// the site sits behind a CDN challenge that rejects default Go clients
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}

	telemetry.InstrumentResty(client, "scrapers/homepage/http")
	restyutil.CaptureClient(client, opts.Capture)

	return &Client{http: client}
}

// fetches a page and returns the normalized text content of the first node
// matching the selector
func (c *Client) GetText(ctx context.Context, path, selector string) (string, error) {
	ctx, span := tracer.Start(ctx, "GetText")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch page")
		return "", err
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		err = fmt.Errorf("homepage %s: status %d", path, res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse page")
		return "", err
	}

	sel := doc.Find(selector)
	if len(sel.Nodes) == 0 {
		err = fmt.Errorf("homepage %s: selector '%s' matched nothing", path, selector)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	return htmlutil.NormalizeText(htmlutil.GetText(sel.Nodes[0])), nil
}
