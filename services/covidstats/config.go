package covidstats

import (
	"time"
	"vicstats-backend/lib/restyutil"
	"vicstats-backend/lib/scrapers/ckan"
	"vicstats-backend/lib/scrapers/homepage"
	"vicstats-backend/lib/scrapers/viccontent"
)

// UpstreamConfig is the checked-in shape of the service's upstream
// endpoints, shared by every binary that constructs the service.
type UpstreamConfig struct {
	ContentBaseUrl     string `json:"content_base_url"`
	HomepageUrl        string `json:"homepage_url"`
	HomepageSelector   string `json:"homepage_selector"`
	DosesCsvUrl        string `json:"doses_csv_url"`
	CkanBaseUrl        string `json:"ckan_base_url"`
	ExposureResourceId string `json:"exposure_resource_id"`
	// upstream request timeout in seconds, 0 disables it
	TimeoutSeconds int `json:"timeout_seconds"`
}

// NewServiceFromConfig builds the upstream clients off one config block.
// `capture` can be nil, in which case no payloads are dumped.
func NewServiceFromConfig(cfg UpstreamConfig, capture restyutil.CaptureOutput) Service {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	return NewService(Options{
		Content: viccontent.NewClient(viccontent.ClientOptions{
			BaseUrl: cfg.ContentBaseUrl,
			Timeout: timeout,
			Capture: capture,
		}),
		Homepage: homepage.NewClient(homepage.ClientOptions{
			BaseUrl: cfg.HomepageUrl,
			Timeout: timeout,
			Capture: capture,
		}),
		Ckan: ckan.NewClient(ckan.ClientOptions{
			BaseUrl: cfg.CkanBaseUrl,
			Timeout: timeout,
			Capture: capture,
		}),
		DosesCsvUrl:        cfg.DosesCsvUrl,
		ExposureResourceId: cfg.ExposureResourceId,
		HomepageSelector:   cfg.HomepageSelector,
		Timeout:            timeout,
		Capture:            capture,
	})
}
