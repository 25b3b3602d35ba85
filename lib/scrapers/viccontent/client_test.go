package viccontent

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordQueryValues(t *testing.T) {
	q := RecordQuery{
		Resource:   "paragraph/daily_update",
		Type:       "paragraph--daily_update",
		ValueField: "field_statistic",
		Ids:        []string{"id-a", "id-b"},
	}

	v := q.values()
	require.Equal(t, "id", v.Get("filter[id-filter][condition][path]"))
	require.Equal(t, "IN", v.Get("filter[id-filter][condition][operator]"))
	require.Equal(t,
		[]string{"id-a", "id-b"},
		v["filter[id-filter][condition][value][]"],
	)
	require.Equal(t,
		"id,field_statistic",
		v.Get("fields[paragraph--daily_update]"),
	)
}

func TestTextQueryValues(t *testing.T) {
	q := TextQuery{
		Resource: "paragraph/weekly_report",
		Type:     "paragraph--weekly_report",
		Field:    "field_paragraph_body",
	}
	require.Equal(t, url.Values{
		"fields[paragraph--weekly_report]": {"field_paragraph_body"},
	}, q.values())
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(ClientOptions{
		BaseUrl: srv.URL,
		Timeout: time.Second * 5,
	})
}

func TestGetRecords(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/paragraph/daily_update", r.URL.Path)
		require.Equal(t, "application/vnd.api+json", r.Header.Get("accept"))
		require.Equal(t,
			[]string{"id-a", "id-b"},
			r.URL.Query()["filter[id-filter][condition][value][]"],
		)

		w.Header().Set("Content-Type", "application/vnd.api+json")
		fmt.Fprint(w, `{"data":[
			{"id":"id-a","attributes":{"field_statistic":"1,234"}},
			{"id":"id-b","attributes":{"field_statistic":42}}
		]}`)
	})

	records, err := client.GetRecords(context.Background(), RecordQuery{
		Resource:   "paragraph/daily_update",
		Type:       "paragraph--daily_update",
		ValueField: "field_statistic",
		Ids:        []string{"id-a", "id-b"},
	})
	require.NoError(t, err)
	require.Equal(t, []Record{
		{Id: "id-a", Value: "1,234"},
		{Id: "id-b", Value: "42"},
	}, records)
}

func TestGetRecordsErrorEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors":[{"title":"filter path not allowed"}]}`)
	})

	_, err := client.GetRecords(context.Background(), RecordQuery{
		Resource:   "paragraph/daily_update",
		Type:       "paragraph--daily_update",
		ValueField: "field_statistic",
		Ids:        []string{"id-a"},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "error envelope")
}

func TestGetRecordsStatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.GetRecords(context.Background(), RecordQuery{
		Resource:   "paragraph/daily_update",
		Type:       "paragraph--daily_update",
		ValueField: "field_statistic",
		Ids:        []string{"id-a"},
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 503")
}

func TestGetTextFieldObjectData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":{"id":"blob-1","attributes":{"field_updated":"2022-09-16T11:00:00+10:00"}}}`)
	})

	value, err := client.GetTextField(context.Background(), TextQuery{
		Resource: "paragraph/vaccine_data",
		Type:     "paragraph--vaccine_data",
		Field:    "field_updated",
	})
	require.NoError(t, err)
	require.Equal(t, "2022-09-16T11:00:00+10:00", value)
}

func TestGetTextFieldMissingAttribute(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[{"id":"blob-1","attributes":{}}]}`)
	})

	_, err := client.GetTextField(context.Background(), TextQuery{
		Resource: "paragraph/vaccine_data",
		Type:     "paragraph--vaccine_data",
		Field:    "field_updated",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing attribute")
}

func TestGetTextFieldEmptyData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	})

	_, err := client.GetTextField(context.Background(), TextQuery{
		Resource: "paragraph/weekly_report",
		Type:     "paragraph--weekly_report",
		Field:    "field_paragraph_body",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty data")
}
