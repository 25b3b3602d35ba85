package covidstats

import "vicstats-backend/lib/scrapers/viccontent"

// Section names one group of statistics in the response tree. Every stat
// identifier belongs to exactly one section, and each section has exactly
// one source for its last-updated marker.
type Section string

const (
	// weekly report page statistics
	SectionWeekly Section = "weekly"
	// vaccination percentage statistics
	SectionVaccine Section = "vaccine"
	// vaccination total statistics
	SectionVaccineTotals Section = "vaccineTotals"
	// third-dose rates derived from the flat CSV feed
	SectionDoses Section = "doses"
	// exposure site count from the open data portal
	SectionExposure Section = "exposure"
)

// stat identifier -> upstream record id, grouped by section. hand-maintained
// against the paragraphs the content team publishes; ids are stable across
// republishes of the same statistic.
var sectionStats = map[Section]map[string]string{
	SectionWeekly: {
		"newCases":      "5997cd3e-8336-4bde-b4cf-a3cb5d9b50e4",
		"totalCases":    "2b14655e-b6e7-478b-b72a-e11b4a0d2f9d",
		"newDeaths":     "8cf93a3a-0c25-42d2-b0b1-2476c10b8eb3",
		"totalDeaths":   "c9391f7a-2a5b-4d8e-9d55-4a78b31e83d7",
		"hospitalCases": "f7f1a84c-93bf-4a6f-ae27-0d4ff5d92c52",
		"icuCases":      "a4f727d1-65cb-4d27-8e2a-3a9c23f4e8b1",
	},
	SectionVaccine: {
		"oneDosePercent":   "d3e4c2b9-1f06-4b7c-922e-8e71c2a64f35",
		"twoDosePercent":   "0a8b64cd-74e2-44a8-a52c-5cf2b4d981e6",
		"threeDosePercent": "6d1e9f20-b38a-4c61-9f44-71e0d2a8c5b3",
	},
	SectionVaccineTotals: {
		"totalDoses": "e52a871f-40dc-4b93-b8e5-92d5c3f6a014",
		"dailyDoses": "1bc2d7e8-a9f3-45d0-8b67-cd40e91f2a58",
	},
}

// leaves resolved by a feed-specific call instead of the batched content
// fetch
var sectionFeedStats = map[Section]map[string]bool{
	SectionDoses: {
		"todayRate": true,
		"delta":     true,
	},
	SectionExposure: {
		"count": true,
	},
}

type statRef struct {
	Section Section
	Stat    string
}

// reverse index of the identifier bijection: upstream record id -> stat.
// record ids are unique across all sections so a single flat lookup routes
// any batched result into the right section.
var recordIndex = buildRecordIndex()

func buildRecordIndex() map[string]statRef {
	index := map[string]statRef{}
	for section, stats := range sectionStats {
		for stat, recordId := range stats {
			if _, exists := index[recordId]; exists {
				panic("duplicate upstream record id: " + recordId)
			}
			index[recordId] = statRef{Section: section, Stat: stat}
		}
	}
	return index
}

func knownSection(section Section) bool {
	if _, ok := sectionStats[section]; ok {
		return true
	}
	_, ok := sectionFeedStats[section]
	return ok
}

// every content-backed statistic lives in the same paragraph collection,
// one filtered request fetches any subset of them
var statRecordQuery = viccontent.RecordQuery{
	Resource:   "paragraph/daily_update",
	Type:       "paragraph--daily_update",
	ValueField: "field_statistic",
}

// weekly report blob carrying both the updated timestamp and the reporting
// week label as free text
var weeklyReportQuery = viccontent.TextQuery{
	Resource: "paragraph/weekly_report",
	Type:     "paragraph--weekly_report",
	Field:    "field_paragraph_body",
}

// the vaccination page publishes its updated date as a plain structured
// field, no text extraction needed
var vaccineUpdatedQuery = viccontent.TextQuery{
	Resource: "paragraph/vaccine_data",
	Type:     "paragraph--vaccine_data",
	Field:    "field_updated",
}

// FullSelection selects every known field in every section. The harvest
// tooling uses it to exercise the entire schema in one query.
func FullSelection() Selection {
	stats := Selection{}
	for section, bucket := range sectionStats {
		sel := Selection{"updated": Selection{}}
		for stat := range bucket {
			sel[stat] = Selection{}
		}
		stats[string(section)] = sel
	}
	for section, bucket := range sectionFeedStats {
		sel, ok := stats[string(section)]
		if !ok {
			sel = Selection{}
			stats[string(section)] = sel
		}
		for leaf := range bucket {
			sel[leaf] = Selection{}
		}
	}
	stats[string(SectionWeekly)]["week"] = Selection{}
	stats[string(SectionDoses)]["updated"] = Selection{}
	return Selection{"stats": stats}
}
