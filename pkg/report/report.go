package report

import (
	"github.com/dojolog/dojolog/pkg/rhythm"
	"github.com/dojolog/dojolog/pkg/timerange"
)

// Report is the derived output for one requested window, optionally set
// against a comparison window. It is recomputed from raw entries on every
// request and never cached or persisted.
type Report struct {
	Window      rhythm.Window
	Primary     rhythm.Aggregate
	Comparison  *rhythm.Aggregate
	Comparisons map[rhythm.MetricKind]rhythm.Comparison
}

// WeekSummary is one ISO week of a weekly series, with deltas against the
// immediately preceding week.
type WeekSummary struct {
	WeekID    string
	Window    rhythm.Window
	Aggregate rhythm.Aggregate
	Deltas    map[rhythm.MetricKind]rhythm.Comparison
}

// WeeklyReport is a chronological series of week summaries over a canonical
// range.
type WeeklyReport struct {
	Range  timerange.RangeType
	Window rhythm.Window
	Weeks  []WeekSummary
}

// WeeklyDeltaKinds are the metrics a weekly series tracks week over week.
var WeeklyDeltaKinds = []rhythm.MetricKind{
	rhythm.MetricSessionCount,
	rhythm.MetricTotalVolume,
	rhythm.MetricTotalLoad,
	rhythm.MetricHardSessions,
}
