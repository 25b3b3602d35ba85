// Package covidstats resolves a caller's field selection into the minimal
// set of upstream lookups, runs them concurrently and reassembles the
// results into one response tree.
package covidstats

import (
	"context"
	"time"
	"vicstats-backend/lib/restyutil"
	"vicstats-backend/lib/scrapers/ckan"
	"vicstats-backend/lib/scrapers/homepage"
	"vicstats-backend/lib/scrapers/viccontent"
	"vicstats-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("services/covidstats")

// Response is the nested result returned to the caller. Section and field
// keys mirror the selection that produced them; unrequested leaves are
// absent rather than null. Values are display strings except the exposure
// count, which is an integer.
type Response struct {
	Stats map[Section]map[string]any `json:"stats"`
}

type Options struct {
	Content  *viccontent.Client
	Homepage *homepage.Client
	Ckan     *ckan.Client

	DosesCsvUrl        string
	DosesRegion        string
	ExposureResourceId string
	HomepageSelector   string

	// applied to the doses feed client; the scraper clients carry their own
	Timeout time.Duration
	Capture restyutil.CaptureOutput
}

type Service struct {
	content  *viccontent.Client
	homepage *homepage.Client
	ckan     *ckan.Client
	feed     *resty.Client
	opts     Options
}

func NewService(opts Options) Service {
	if opts.DosesRegion == "" {
		opts.DosesRegion = "VIC"
	}
	if opts.HomepageSelector == "" {
		opts.HomepageSelector = ".ch-covid-stats__updated"
	}

	feed := resty.New()
	if opts.Timeout > 0 {
		feed.SetTimeout(opts.Timeout)
	}
	telemetry.InstrumentResty(feed, "services/covidstats/feed")
	restyutil.CaptureClient(feed, opts.Capture)

	return Service{
		content:  opts.Content,
		homepage: opts.Homepage,
		ckan:     opts.Ckan,
		feed:     feed,
		opts:     opts,
	}
}

// Query answers one field selection. It narrows the selection to the
// minimal demand, fetches only what that demand requires and merges the
// results; any upstream failure fails the whole request, there is no
// partial response.
func (s Service) Query(ctx context.Context, sel Selection) (Response, error) {
	ctx, span := tracer.Start(ctx, "Query")
	defer span.End()

	return s.aggregate(ctx, analyzeSelection(sel))
}
