package viccontent

import (
	"fmt"
	"net/url"
	"strings"
)

// a filtered batch fetch over a paragraph collection endpoint
type RecordQuery struct {
	// resource path relative to the api base, e.g. "paragraph/daily_update"
	Resource string
	// json:api resource type, e.g. "paragraph--daily_update", used to key
	// the sparse fieldset
	Type string
	// attribute holding the statistic's display value
	ValueField string
	// upstream record ids to filter to. the source bills per item
	// filtered, so this list must stay minimal.
	Ids []string
}

// the json:api convention encodes nested filter/fieldset objects as
// bracketed query string keys
func (q RecordQuery) values() url.Values {
	v := url.Values{}
	v.Set("filter[id-filter][condition][path]", "id")
	v.Set("filter[id-filter][condition][operator]", "IN")
	for _, id := range q.Ids {
		v.Add("filter[id-filter][condition][value][]", id)
	}
	v.Set(
		fmt.Sprintf("fields[%s]", q.Type),
		strings.Join([]string{"id", q.ValueField}, ","),
	)
	return v
}

// a single-entity fetch of one attribute
type TextQuery struct {
	Resource string
	Type     string
	Field    string
}

func (q TextQuery) values() url.Values {
	v := url.Values{}
	v.Set(fmt.Sprintf("fields[%s]", q.Type), q.Field)
	return v
}
