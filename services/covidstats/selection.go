package covidstats

import (
	"encoding/json"
	"fmt"
)

// Selection is the tree of output field names a caller asked for, mirroring
// the response tree's shape. The transport layer is responsible for
// producing it; the resolver never sees the query language it came from.
// A leaf is an entry with an empty (or nil) sub-selection.
type Selection map[string]Selection

// accepts both `"field": true` and `"field": {...}` leaves; false and null
// drop the field entirely
func (s *Selection) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	err := json.Unmarshal(data, &raw)
	if err != nil {
		return err
	}

	out := Selection{}
	for name, value := range raw {
		switch string(value) {
		case "true":
			out[name] = Selection{}
			continue
		case "false", "null":
			continue
		}

		var sub Selection
		err := json.Unmarshal(value, &sub)
		if err != nil {
			return fmt.Errorf("field '%s': %w", name, err)
		}
		out[name] = sub
	}

	*s = out
	return nil
}

// per-section demand derived from a selection: which marker lookups are
// needed and which stats must be resolved
type sectionDemand struct {
	updated bool
	week    bool
	// content-backed stat identifiers, resolved by the batched fetch
	stats map[string]bool
	// feed-backed leaves (csv / open data portal), resolved per section
	feed map[string]bool
}

type demand map[Section]sectionDemand

// walks the requested-field tree once and narrows it to the minimal set of
// upstream lookups. unknown leaves are ignored so schema evolution on either
// side can't fail a request; selecting nothing yields an empty demand.
func analyzeSelection(sel Selection) demand {
	out := demand{}

	for name, sub := range sel["stats"] {
		section := Section(name)
		if !knownSection(section) {
			continue
		}

		bucket := sectionStats[section]
		feedBucket := sectionFeedStats[section]

		d := sectionDemand{
			stats: map[string]bool{},
			feed:  map[string]bool{},
		}
		for leaf := range sub {
			switch leaf {
			case "updated":
				d.updated = true
			case "week":
				d.week = true
			default:
				if _, ok := bucket[leaf]; ok {
					d.stats[leaf] = true
				} else if feedBucket[leaf] {
					d.feed[leaf] = true
				}
				// anything else is a field we don't know, skip it
			}
		}
		out[section] = d
	}

	return out
}

func (d sectionDemand) empty() bool {
	return !d.updated && !d.week && len(d.stats) == 0 && len(d.feed) == 0
}

// the record ids the batched content fetch must filter to, across all
// sections of the demand
func (d demand) recordIds() []string {
	var ids []string
	for section, sd := range d {
		bucket := sectionStats[section]
		for stat := range sd.stats {
			ids = append(ids, bucket[stat])
		}
	}
	return ids
}
