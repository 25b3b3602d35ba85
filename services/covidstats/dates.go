package covidstats

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"
	"vicstats-backend/lib/timezone"
)

var referenceMonths = []string{
	"january",
	"february",
	"march",
	"april",
	"may",
	"june",
	"july",
	"august",
	"september",
	"october",
	"november",
	"december",
}

func parseMonth(text string) time.Month {
	text = strings.ToLower(text)
	for i, month := range referenceMonths {
		if strings.Contains(month, text) {
			return time.January + time.Month(i)
		}
	}
	return -1
}

// upstream blobs come HTML-escaped and sprinkled with non-breaking space
// variants depending on which editor last touched the page
func normalizeMarkerText(text string) string {
	text = html.UnescapeString(text)
	text = strings.ReplaceAll(text, " ", " ")
	return text
}

// marker parsers are named per upstream text format; a regex that fails to
// match means the upstream format changed, which is a hard failure

// weekly report blob variant: "Updated: 16 September 2022 2:30 pm".
// the day is occasionally dropped by the content editor, in which case it
// defaults to the 1st of the month.
var weeklyUpdatedRegex = regexp.MustCompile(
	`(?i)updated:?\s*(\d{1,2})?\s*([A-Za-z]+)\s+(\d{4})\s+(\d{1,2}):(\d{2})\s*([ap]m)`,
)

func parseWeeklyUpdated(text string) (time.Time, error) {
	return parseUpdatedMatch(weeklyUpdatedRegex, text)
}

// home page variant: "Data last updated 16 September 2022 9:05 am"
var homepageUpdatedRegex = regexp.MustCompile(
	`(?i)data\s+(?:last\s+)?updated:?\s*(\d{1,2})?\s*([A-Za-z]+)\s+(\d{4})\s+(\d{1,2}):(\d{2})\s*([ap]m)`,
)

func parseHomepageUpdated(text string) (time.Time, error) {
	return parseUpdatedMatch(homepageUpdatedRegex, text)
}

func parseUpdatedMatch(pattern *regexp.Regexp, text string) (time.Time, error) {
	text = normalizeMarkerText(text)

	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, fmt.Errorf("no updated timestamp found in %q", text)
	}

	day := 1
	if m[1] != "" {
		parsed, err := strconv.Atoi(m[1])
		if err != nil {
			return time.Time{}, err
		}
		day = parsed
	}

	month := parseMonth(m[2])
	if month < time.January {
		return time.Time{}, fmt.Errorf("unknown month %q in %q", m[2], text)
	}

	year, err := strconv.Atoi(m[3])
	if err != nil {
		return time.Time{}, err
	}
	hour, err := strconv.Atoi(m[4])
	if err != nil {
		return time.Time{}, err
	}
	minute, err := strconv.Atoi(m[5])
	if err != nil {
		return time.Time{}, err
	}

	// 12-hour clock -> 24-hour
	meridiem := strings.ToLower(m[6])
	if meridiem == "pm" && hour != 12 {
		hour += 12
	}
	if meridiem == "am" && hour == 12 {
		hour = 0
	}

	return time.Date(year, month, day, hour, minute, 0, 0, timezone.Location), nil
}

// "Week ending Friday 16 September 2022" -> "16 September 2022"
var weekEndingRegex = regexp.MustCompile(
	`(?i)week ending\s+(?:[A-Za-z]+\s+)?(\d{1,2}\s+[A-Za-z]+\s+\d{4})`,
)

func parseWeekLabel(text string) (string, error) {
	text = normalizeMarkerText(text)

	m := weekEndingRegex.FindStringSubmatch(text)
	if m == nil {
		return "", fmt.Errorf("no week label found in %q", text)
	}
	return m[1], nil
}
