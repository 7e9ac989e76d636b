package report

import (
	"context"
	"fmt"
	"time"

	"github.com/dojolog/dojolog/pkg/entry"
	"github.com/dojolog/dojolog/pkg/rhythm"
	"github.com/dojolog/dojolog/pkg/timerange"
	log "github.com/sirupsen/logrus"
)

// EntryReader is the read-only slice of the log store the reporting facade
// consumes. Entries come back ordered by date ascending, at most one per
// date; the facade never writes.
type EntryReader interface {
	FindRange(ctx context.Context, from time.Time, to time.Time) ([]entry.DayEntry, error)
}

type Service interface {
	BuildReport(ctx context.Context, window rhythm.Window, comparison *rhythm.Window, opts rhythm.CompareOptions) (Report, error)
	BuildWeeklyReport(ctx context.Context, rangeType timerange.RangeType, anchor time.Time, activity *entry.ActivityType) (WeeklyReport, error)
}

type ServiceImpl struct {
	entries    EntryReader
	aggregator *rhythm.Aggregator
}

func NewService(entries EntryReader, aggregator *rhythm.Aggregator) *ServiceImpl {
	return &ServiceImpl{entries: entries, aggregator: aggregator}
}

// BuildReport aggregates the requested window and, when a comparison window
// is supplied, one comparison per tracked metric. Stateless: identical
// inputs over an unchanged store produce identical reports.
func (s *ServiceImpl) BuildReport(ctx context.Context, window rhythm.Window, comparison *rhythm.Window, opts rhythm.CompareOptions) (Report, error) {
	primaryEntries, err := s.entries.FindRange(ctx, window.Start, window.End)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read entries for %s: %w", window, err)
	}

	report := Report{
		Window:  window,
		Primary: s.aggregator.Aggregate(primaryEntries, window),
	}

	if comparison == nil {
		return report, nil
	}

	comparisonEntries, err := s.entries.FindRange(ctx, comparison.Start, comparison.End)
	if err != nil {
		return Report{}, fmt.Errorf("failed to read entries for %s: %w", comparison, err)
	}
	comparisonAgg := s.aggregator.Aggregate(comparisonEntries, *comparison)
	report.Comparison = &comparisonAgg

	// The comparison window is the baseline; the primary window is current.
	report.Comparisons = rhythm.CompareAll(comparisonAgg, report.Primary, opts)

	log.Debugf("built report for %s against %s (%d + %d entries)",
		window, comparison, len(primaryEntries), len(comparisonEntries))
	return report, nil
}

// BuildWeeklyReport resolves a canonical range around the anchor and reduces
// it into ISO-week summaries, each carrying deltas against the previous
// week. The first week's deltas are undefined: there is nothing before it
// inside the range, and missing data stays missing.
func (s *ServiceImpl) BuildWeeklyReport(ctx context.Context, rangeType timerange.RangeType, anchor time.Time, activity *entry.ActivityType) (WeeklyReport, error) {
	window, err := timerange.Resolve(rangeType, anchor)
	if err != nil {
		return WeeklyReport{}, err
	}

	entries, err := s.entries.FindRange(ctx, window.Start, window.End)
	if err != nil {
		return WeeklyReport{}, fmt.Errorf("failed to read entries for %s: %w", window, err)
	}
	if activity != nil {
		entries = filterByActivity(entries, *activity)
	}

	weekly := WeeklyReport{Range: rangeType, Window: window}

	var previous *rhythm.Aggregate
	for start := window.Start; !start.After(window.End); start = start.AddDate(0, 0, 7) {
		week, err := rhythm.NewWindow(start, start.AddDate(0, 0, 6))
		if err != nil {
			return WeeklyReport{}, err
		}
		agg := s.aggregator.Aggregate(entries, week)

		baseline := previous
		if baseline == nil {
			// An empty aggregate over the preceding week keeps the delta
			// machinery honest: comparisons come back insufficient-data.
			empty := s.aggregator.Aggregate(nil, week.Previous())
			baseline = &empty
		}

		deltas := make(map[rhythm.MetricKind]rhythm.Comparison, len(WeeklyDeltaKinds))
		for _, kind := range WeeklyDeltaKinds {
			cmp, err := rhythm.Compare(*baseline, agg, kind, rhythm.CompareOptions{})
			if err != nil {
				return WeeklyReport{}, err
			}
			deltas[kind] = cmp
		}

		weekly.Weeks = append(weekly.Weeks, WeekSummary{
			WeekID:    timerange.WeekID(week.Start),
			Window:    week,
			Aggregate: agg,
			Deltas:    deltas,
		})
		prev := agg
		previous = &prev
	}

	return weekly, nil
}

func filterByActivity(entries []entry.DayEntry, activity entry.ActivityType) []entry.DayEntry {
	filtered := make([]entry.DayEntry, 0, len(entries))
	for _, e := range entries {
		if e.Activity == activity {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
