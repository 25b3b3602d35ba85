package covidstats

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
	"vicstats-backend/lib/scrapers/ckan"
	"vicstats-backend/lib/scrapers/homepage"
	"vicstats-backend/lib/scrapers/viccontent"
	"vicstats-backend/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// records the id filters of every batched stat fetch the fake content
// source receives
type contentCalls struct {
	mu    sync.Mutex
	calls [][]string
}

func (c *contentCalls) note(ids []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, ids)
}

func (c *contentCalls) all() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

const weeklyReportBlob = `<p>Week ending Friday 16 September 2022</p>` +
	`<p>Updated:&nbsp;16 September 2022 2:30 pm</p>`

func jsonApiRecord(id, field, value string) string {
	return fmt.Sprintf(`{"id":%q,"attributes":{%q:%q}}`, id, field, value)
}

// the fake content source answers the batched stat fetch with
// "value:<stat>" for every requested id, plus the two marker resources
func fakeContent(calls *contentCalls, statStatus int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.api+json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/paragraph/daily_update"):
			ids := r.URL.Query()["filter[id-filter][condition][value][]"]
			calls.note(ids)

			if statStatus != http.StatusOK {
				w.WriteHeader(statStatus)
				fmt.Fprint(w, `{"errors":[{"title":"upstream exploded"}]}`)
				return
			}

			records := make([]string, len(ids))
			for i, id := range ids {
				ref := recordIndex[id]
				records[i] = jsonApiRecord(id, "field_statistic", "value:"+ref.Stat)
			}
			fmt.Fprintf(w, `{"data":[%s]}`, strings.Join(records, ","))
		case strings.HasSuffix(r.URL.Path, "/paragraph/weekly_report"):
			fmt.Fprintf(w, `{"data":[%s]}`, jsonApiRecord(
				"blob-1", "field_paragraph_body", weeklyReportBlob,
			))
		case strings.HasSuffix(r.URL.Path, "/paragraph/vaccine_data"):
			fmt.Fprintf(w, `{"data":[%s]}`, jsonApiRecord(
				"blob-2", "field_updated", "2022-09-16T11:00:00+10:00",
			))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func fakeHomepage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>`+
			`<div class="updated-marker">Data last updated 16 September 2022 9:05 am</div>`+
			`</body></html>`)
	}
}

func fakeCkan(success bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !success {
			fmt.Fprint(w, `{"success":false,"error":{"message":"not found"}}`)
			return
		}
		fmt.Fprint(w, `{"success":true,"result":{"total":42}}`)
	}
}

func fakeDoses() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Join([]string{
			"date,region,third_dose_rate",
			"2022-09-14,VIC,62.10",
			"2022-09-15,VIC,62.45",
			"",
		}, "\r\n"))
	}
}

type fakes struct {
	content  http.Handler
	homepage http.Handler
	ckan     http.Handler
	doses    http.Handler
}

func setupService(t *testing.T, f fakes) (Service, *contentCalls) {
	cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name: "services/covidstats",
	})
	t.Cleanup(cleanup)

	calls := &contentCalls{}
	if f.content == nil {
		f.content = fakeContent(calls, http.StatusOK)
	}
	if f.homepage == nil {
		f.homepage = fakeHomepage()
	}
	if f.ckan == nil {
		f.ckan = fakeCkan(true)
	}
	if f.doses == nil {
		f.doses = fakeDoses()
	}

	contentSrv := httptest.NewServer(f.content)
	t.Cleanup(contentSrv.Close)
	homeSrv := httptest.NewServer(f.homepage)
	t.Cleanup(homeSrv.Close)
	ckanSrv := httptest.NewServer(f.ckan)
	t.Cleanup(ckanSrv.Close)
	dosesSrv := httptest.NewServer(f.doses)
	t.Cleanup(dosesSrv.Close)

	service := NewService(Options{
		Content: viccontent.NewClient(viccontent.ClientOptions{
			BaseUrl: contentSrv.URL,
			Timeout: time.Second * 5,
		}),
		Homepage: homepage.NewClient(homepage.ClientOptions{
			BaseUrl: homeSrv.URL,
			Timeout: time.Second * 5,
		}),
		Ckan: ckan.NewClient(ckan.ClientOptions{
			BaseUrl: ckanSrv.URL,
			Timeout: time.Second * 5,
		}),
		DosesCsvUrl:        dosesSrv.URL + "/doses.csv",
		ExposureResourceId: "exposure-resource",
		HomepageSelector:   ".updated-marker",
		Timeout:            time.Second * 5,
	})
	return service, calls
}

func TestQuerySingleStat(t *testing.T) {
	service, calls := setupService(t, fakes{})

	res, err := service.Query(context.Background(), Selection{
		"stats": Selection{
			"weekly": Selection{
				"totalDeaths": Selection{},
			},
		},
	})
	require.NoError(t, err)

	// exactly one batched call, filtered to exactly the one record id
	require.Equal(t, [][]string{
		{sectionStats[SectionWeekly]["totalDeaths"]},
	}, calls.all())

	// and nothing but the requested field in the response
	expected := Response{
		Stats: map[Section]map[string]any{
			SectionWeekly: {
				"totalDeaths": "value:totalDeaths",
			},
		},
	}
	diff := cmp.Diff(expected, res)
	require.Empty(t, diff)
}

func TestQueryMarkersOnly(t *testing.T) {
	service, calls := setupService(t, fakes{})

	res, err := service.Query(context.Background(), Selection{
		"stats": Selection{
			"weekly": Selection{
				"updated": Selection{},
				"week":    Selection{},
			},
			"vaccine": Selection{
				"updated": Selection{},
			},
			"vaccineTotals": Selection{
				"updated": Selection{},
			},
		},
	})
	require.NoError(t, err)

	// zero stat fields selected means zero batched calls
	require.Empty(t, calls.all())

	expected := Response{
		Stats: map[Section]map[string]any{
			SectionWeekly: {
				"updated": "2022-09-16T14:30:00+10:00",
				"week":    "16 September 2022",
			},
			SectionVaccine: {
				"updated": "2022-09-16T11:00:00+10:00",
			},
			SectionVaccineTotals: {
				"updated": "2022-09-16T09:05:00+10:00",
			},
		},
	}
	diff := cmp.Diff(expected, res)
	require.Empty(t, diff)
}

func TestQueryHomepageMarkerWrapped(t *testing.T) {
	// the home page markup sometimes wraps the marker text across lines;
	// the line break must read as a word boundary, not vanish
	service, _ := setupService(t, fakes{
		homepage: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html><body><div class=\"updated-marker\">Data last\nupdated 16 September 2022 9:05 am</div></body></html>")
		}),
	})

	res, err := service.Query(context.Background(), Selection{
		"stats": Selection{
			"vaccineTotals": Selection{
				"updated": Selection{},
			},
		},
	})
	require.NoError(t, err)
	require.Equal(t,
		"2022-09-16T09:05:00+10:00",
		res.Stats[SectionVaccineTotals]["updated"],
	)
}

func TestQueryFeedSections(t *testing.T) {
	service, _ := setupService(t, fakes{})

	res, err := service.Query(context.Background(), Selection{
		"stats": Selection{
			"doses": Selection{
				"updated":   Selection{},
				"todayRate": Selection{},
				"delta":     Selection{},
			},
			"exposure": Selection{
				"count": Selection{},
			},
		},
	})
	require.NoError(t, err)

	expected := Response{
		Stats: map[Section]map[string]any{
			SectionDoses: {
				"updated":   "2022-09-15",
				"todayRate": "62.45",
				"delta":     "0.35",
			},
			SectionExposure: {
				"count": 42,
			},
		},
	}
	diff := cmp.Diff(expected, res)
	require.Empty(t, diff)
}

func TestQueryJoinFailure(t *testing.T) {
	// the batched fetch fails while every marker source succeeds; the whole
	// request must fail with no partial response tree
	calls := &contentCalls{}
	service, _ := setupService(t, fakes{
		content: fakeContent(calls, http.StatusInternalServerError),
	})

	res, err := service.Query(context.Background(), Selection{
		"stats": Selection{
			"weekly": Selection{
				"updated":  Selection{},
				"newCases": Selection{},
			},
			"vaccine": Selection{
				"updated": Selection{},
			},
		},
	})
	require.Error(t, err)
	require.Empty(t, res.Stats)
}

func TestQueryCkanShapeFailure(t *testing.T) {
	service, _ := setupService(t, fakes{ckan: fakeCkan(false)})

	_, err := service.Query(context.Background(), Selection{
		"stats": Selection{
			"exposure": Selection{
				"count": Selection{},
			},
		},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "success=false")
}

func TestQueryEmptySelection(t *testing.T) {
	service, calls := setupService(t, fakes{})

	res, err := service.Query(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, calls.all())
	require.Empty(t, res.Stats)
}

func TestNewServiceFromConfig(t *testing.T) {
	cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name: "services/covidstats",
	})
	t.Cleanup(cleanup)

	calls := &contentCalls{}
	contentSrv := httptest.NewServer(fakeContent(calls, http.StatusOK))
	t.Cleanup(contentSrv.Close)
	homeSrv := httptest.NewServer(fakeHomepage())
	t.Cleanup(homeSrv.Close)
	ckanSrv := httptest.NewServer(fakeCkan(true))
	t.Cleanup(ckanSrv.Close)
	dosesSrv := httptest.NewServer(fakeDoses())
	t.Cleanup(dosesSrv.Close)

	service := NewServiceFromConfig(UpstreamConfig{
		ContentBaseUrl:     contentSrv.URL,
		HomepageUrl:        homeSrv.URL,
		HomepageSelector:   ".updated-marker",
		DosesCsvUrl:        dosesSrv.URL + "/doses.csv",
		CkanBaseUrl:        ckanSrv.URL,
		ExposureResourceId: "exposure-resource",
		TimeoutSeconds:     5,
	}, nil)

	res, err := service.Query(context.Background(), Selection{
		"stats": Selection{
			"weekly":   Selection{"totalDeaths": Selection{}},
			"exposure": Selection{"count": Selection{}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "value:totalDeaths", res.Stats[SectionWeekly]["totalDeaths"])
	require.Equal(t, 42, res.Stats[SectionExposure]["count"])
}

func TestHandler(t *testing.T) {
	service, _ := setupService(t, fakes{})

	path, handler := NewHandler(service)
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	res, err := http.Post(
		srv.URL+"/v1/query",
		"application/json",
		strings.NewReader(`{"select":{"stats":{"weekly":{"totalDeaths":true}}}}`),
	)
	require.NoError(t, err)
	defer res.Body.Close()

	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))

	var body struct {
		Stats map[string]map[string]any `json:"stats"`
	}
	err = json.NewDecoder(res.Body).Decode(&body)
	require.NoError(t, err)
	require.Equal(t, map[string]map[string]any{
		"weekly": {"totalDeaths": "value:totalDeaths"},
	}, body.Stats)
}
