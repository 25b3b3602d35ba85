package covidstats

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel/codes"
)

// collector guards the response tree and the first upstream failure while
// the fan-out goroutines run
type collector struct {
	mu       sync.Mutex
	stats    map[Section]map[string]any
	firstErr error
	failed   chan struct{}
	failOnce sync.Once
}

func newCollector() *collector {
	return &collector{
		stats:  map[Section]map[string]any{},
		failed: make(chan struct{}),
	}
}

func (c *collector) set(section Section, field string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sec, ok := c.stats[section]
	if !ok {
		sec = map[string]any{}
		c.stats[section] = sec
	}
	sec[field] = value
}

func (c *collector) fail(err error) {
	c.mu.Lock()
	if c.firstErr == nil {
		c.firstErr = err
	}
	c.mu.Unlock()
	c.failOnce.Do(func() { close(c.failed) })
}

func (c *collector) err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.firstErr
}

// dispatches every upstream lookup the demand requires concurrently and
// merges the results into the response tree. fields nobody asked for never
// get a key, not even a null one.
func (s Service) aggregate(ctx context.Context, d demand) (Response, error) {
	ctx, span := tracer.Start(ctx, "aggregate")
	defer span.End()

	out := newCollector()
	wg := &sync.WaitGroup{}

	if wd := d[SectionWeekly]; wd.updated || wd.week {
		wg.Add(1)
		go func() {
			defer wg.Done()
			marker, err := s.fetchWeeklyMarker(ctx)
			if err != nil {
				out.fail(err)
				return
			}
			if wd.updated {
				out.set(SectionWeekly, "updated", marker.updated)
			}
			if wd.week {
				out.set(SectionWeekly, "week", marker.week)
			}
		}()
	}

	if vd := d[SectionVaccine]; vd.updated {
		wg.Add(1)
		go func() {
			defer wg.Done()
			updated, err := s.fetchVaccineMarker(ctx)
			if err != nil {
				out.fail(err)
				return
			}
			out.set(SectionVaccine, "updated", updated)
		}()
	}

	if td := d[SectionVaccineTotals]; td.updated {
		wg.Add(1)
		go func() {
			defer wg.Done()
			updated, err := s.fetchVaccineTotalsMarker(ctx)
			if err != nil {
				out.fail(err)
				return
			}
			out.set(SectionVaccineTotals, "updated", updated)
		}()
	}

	if dd := d[SectionDoses]; dd.updated || len(dd.feed) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := s.fetchDoses(ctx)
			if err != nil {
				out.fail(err)
				return
			}
			if dd.updated {
				out.set(SectionDoses, "updated", result.updated)
			}
			if dd.feed["todayRate"] {
				out.set(SectionDoses, "todayRate", result.todayRate)
			}
			if dd.feed["delta"] {
				out.set(SectionDoses, "delta", result.delta)
			}
		}()
	}

	if ed := d[SectionExposure]; ed.feed["count"] {
		wg.Add(1)
		go func() {
			defer wg.Done()
			count, err := s.fetchExposureCount(ctx)
			if err != nil {
				out.fail(err)
				return
			}
			out.set(SectionExposure, "count", count)
		}()
	}

	// at most one batched call resolves every content-backed stat demanded
	// across all sections; an empty union issues no call at all
	ids := d.recordIds()
	if len(ids) > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			query := statRecordQuery
			query.Ids = ids
			records, err := s.content.GetRecords(ctx, query)
			if err != nil {
				out.fail(err)
				return
			}
			// record ids are globally unique so one lookup routes each
			// value into its section without per-section filtering
			for _, record := range records {
				ref, ok := recordIndex[record.Id]
				if !ok {
					slog.WarnContext(ctx, "batched fetch returned unknown record id", "id", record.Id)
					continue
				}
				out.set(ref.Section, ref.Stat, record.Value)
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	// all-or-nothing join: the first failure aborts the request while any
	// stragglers finish into a tree that gets thrown away
	select {
	case <-out.failed:
	case <-done:
	}

	if err := out.err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Response{}, err
	}

	return Response{Stats: out.stats}, nil
}
