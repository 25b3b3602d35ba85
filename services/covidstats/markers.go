package covidstats

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/codes"
)

// the weekly report page carries both markers in one free-text blob, so a
// single fetch serves 'updated' and 'week' even when both were demanded
type weeklyMarker struct {
	updated string
	week    string
}

func (s Service) fetchWeeklyMarker(ctx context.Context) (weeklyMarker, error) {
	ctx, span := tracer.Start(ctx, "fetchWeeklyMarker")
	defer span.End()

	text, err := s.content.GetTextField(ctx, weeklyReportQuery)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch weekly report blob")
		return weeklyMarker{}, err
	}

	updated, err := parseWeeklyUpdated(text)
	if err != nil {
		err = fmt.Errorf("weekly marker: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return weeklyMarker{}, err
	}
	week, err := parseWeekLabel(text)
	if err != nil {
		err = fmt.Errorf("weekly marker: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return weeklyMarker{}, err
	}

	return weeklyMarker{
		updated: updated.Format(time.RFC3339),
		week:    week,
	}, nil
}

// the vaccination page publishes its updated date as a structured field,
// passed through as-is
func (s Service) fetchVaccineMarker(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "fetchVaccineMarker")
	defer span.End()

	value, err := s.content.GetTextField(ctx, vaccineUpdatedQuery)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch vaccine updated field")
		return "", err
	}
	return value, nil
}

// the totals marker only exists as a text node on the home page
func (s Service) fetchVaccineTotalsMarker(ctx context.Context) (string, error) {
	ctx, span := tracer.Start(ctx, "fetchVaccineTotalsMarker")
	defer span.End()

	text, err := s.homepage.GetText(ctx, "/", s.opts.HomepageSelector)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch home page marker")
		return "", err
	}

	updated, err := parseHomepageUpdated(text)
	if err != nil {
		err = fmt.Errorf("vaccine totals marker: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}
	return updated.Format(time.RFC3339), nil
}

func (s Service) fetchExposureCount(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "fetchExposureCount")
	defer span.End()

	count, err := s.ckan.DatastoreTotal(ctx, s.opts.ExposureResourceId)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch exposure site count")
		return 0, err
	}
	return count, nil
}
