package covidstats

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/codes"
)

// the doses feed is a flat CSV published nationally:
//
//	date,region,third_dose_rate
//	2022-09-14,VIC,62.10
//	2022-09-15,VIC,62.45
//
// rows are appended daily per region, CRLF separated, newest last
const (
	dosesDateColumn   = 0
	dosesRegionColumn = 1
	dosesRateColumn   = 2
	dosesColumnCount  = 3

	// how many trailing feed rows to scan for the region's last two entries
	dosesTailRows = 32
)

type dosesResult struct {
	// date of the newest row, used as the section's updated marker
	updated string
	// the feed's own formatting is passed through untouched
	todayRate string
	// day-over-day change, two decimal places
	delta string
}

func (s Service) fetchDoses(ctx context.Context) (dosesResult, error) {
	ctx, span := tracer.Start(ctx, "fetchDoses")
	defer span.End()

	res, err := s.feed.R().
		SetContext(ctx).
		Get(s.opts.DosesCsvUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch doses feed")
		return dosesResult{}, err
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		err = fmt.Errorf("doses feed: status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dosesResult{}, err
	}

	result, err := parseDosesFeed(res.String(), s.opts.DosesRegion)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dosesResult{}, err
	}
	return result, nil
}

func parseDosesFeed(body, region string) (dosesResult, error) {
	lines := strings.Split(body, "\r\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > dosesTailRows {
		lines = lines[len(lines)-dosesTailRows:]
	}

	var rows [][]string
	for _, line := range lines {
		columns := strings.Split(line, ",")
		if len(columns) < dosesColumnCount {
			continue
		}
		if strings.TrimSpace(columns[dosesRegionColumn]) != region {
			continue
		}
		rows = append(rows, columns)
	}
	if len(rows) < 2 {
		return dosesResult{}, fmt.Errorf(
			"doses feed: need at least 2 rows for region '%s', got %d",
			region, len(rows),
		)
	}

	yesterday := rows[len(rows)-2]
	today := rows[len(rows)-1]

	delta, err := doseRateDelta(
		yesterday[dosesRateColumn],
		today[dosesRateColumn],
	)
	if err != nil {
		return dosesResult{}, fmt.Errorf("doses feed: %w", err)
	}

	return dosesResult{
		updated:   strings.TrimSpace(today[dosesDateColumn]),
		todayRate: strings.TrimSpace(today[dosesRateColumn]),
		delta:     delta,
	}, nil
}

// the feed sometimes pre-formats rates as percentages; those still parse
// numerically for the delta while the display value passes through as-is
func parseDoseRate(value string) (float64, error) {
	value = strings.TrimSpace(value)
	value = strings.TrimSuffix(value, "%")
	return strconv.ParseFloat(value, 64)
}

func doseRateDelta(yesterday, today string) (string, error) {
	yesterdayRate, err := parseDoseRate(yesterday)
	if err != nil {
		return "", fmt.Errorf("malformed rate %q: %w", yesterday, err)
	}
	todayRate, err := parseDoseRate(today)
	if err != nil {
		return "", fmt.Errorf("malformed rate %q: %w", today, err)
	}
	return fmt.Sprintf("%.2f", todayRate-yesterdayRate), nil
}
