package rhythm

import (
	"github.com/dojolog/dojolog/internal/utils"
	"github.com/dojolog/dojolog/pkg/entry"
	"github.com/dojolog/dojolog/pkg/load"
	log "github.com/sirupsen/logrus"
)

// HardRPEThreshold is the RPE at which a session counts as hard.
const HardRPEThreshold = 7

// Aggregate is the derived summary of one window. It is ephemeral: built
// fresh from raw entries on every request and never persisted.
//
// Every numeric field is a tagged Metric. A window without a single entry
// yields an entirely undefined aggregate, not zeros.
type Aggregate struct {
	Window     Window
	EntryCount int

	TotalLoad          Metric
	UndefinedLoadCount int
	TotalVolume        Metric
	SessionCount       Metric
	ActiveDays         Metric
	RestDays           Metric
	UnloggedDays       Metric
	RestRatio          Metric

	AvgRPE       Metric
	HardSessions Metric

	LongestActiveStreak Metric
	LongestRestStreak   Metric
	MaxGapDays          Metric

	SessionsByActivity map[entry.ActivityType]int
}

// Metric returns the aggregate field named by kind.
func (a Aggregate) Metric(kind MetricKind) (Metric, error) {
	switch kind {
	case MetricTotalLoad:
		return a.TotalLoad, nil
	case MetricTotalVolume:
		return a.TotalVolume, nil
	case MetricSessionCount:
		return a.SessionCount, nil
	case MetricActiveDays:
		return a.ActiveDays, nil
	case MetricRestDays:
		return a.RestDays, nil
	case MetricUnloggedDays:
		return a.UnloggedDays, nil
	case MetricRestRatio:
		return a.RestRatio, nil
	case MetricAvgRPE:
		return a.AvgRPE, nil
	case MetricHardSessions:
		return a.HardSessions, nil
	case MetricLongestActiveStreak:
		return a.LongestActiveStreak, nil
	case MetricLongestRestStreak:
		return a.LongestRestStreak, nil
	case MetricMaxGapDays:
		return a.MaxGapDays, nil
	}
	return Metric{}, ErrUnknownMetric
}

type Aggregator struct {
	calc *load.Calculator
}

func NewAggregator(calc *load.Calculator) *Aggregator {
	return &Aggregator{calc: calc}
}

// Aggregate reduces the entries falling inside the window into an Aggregate.
//
// The window is walked day by day in calendar order. Days split into three
// categories: active (non-rest entry), rest (rest entry), and unlogged (no
// entry). Unlogged days count toward the rest-ratio denominator but are
// never implicit rest days, and they break both kinds of streak.
func (a *Aggregator) Aggregate(entries []entry.DayEntry, window Window) Aggregate {
	byDate := make(map[string]entry.DayEntry)
	for _, e := range entries {
		if window.Contains(utils.DateOf(e.Date)) {
			byDate[e.Date.Format(entry.DateFormat)] = e
		}
	}

	if len(byDate) == 0 {
		log.Tracef("no entries in window %s, aggregate is undefined", window)
		return undefinedAggregate(window)
	}

	agg := Aggregate{
		Window:             window,
		EntryCount:         len(byDate),
		SessionsByActivity: make(map[entry.ActivityType]int),
	}

	var (
		totalLoad        float64
		definedLoadCount int
		volume           int
		sessions         int
		activeDays       int
		restDays         int
		unloggedDays     int
		rpeSum           int
		rpeCount         int
		hardSessions     int

		activeStreak, longestActive int
		restStreak, longestRest     int
		gap, longestGap             int
	)

	for day := window.Start; !day.After(window.End); day = day.AddDate(0, 0, 1) {
		e, logged := byDate[day.Format(entry.DateFormat)]
		if !logged {
			unloggedDays++
			gap++
			if gap > longestGap {
				longestGap = gap
			}
			// An unlogged day is neither rest nor active.
			activeStreak = 0
			restStreak = 0
			continue
		}
		gap = 0

		volume += e.DurationMinutes

		lv := a.calc.Compute(e)
		if lv.Defined {
			totalLoad += lv.Amount
			definedLoadCount++
		} else {
			agg.UndefinedLoadCount++
		}

		if e.Activity.IsRest() {
			restDays++
			restStreak++
			if restStreak > longestRest {
				longestRest = restStreak
			}
			activeStreak = 0
			continue
		}

		activeDays++
		sessions++
		agg.SessionsByActivity[e.Activity]++
		activeStreak++
		if activeStreak > longestActive {
			longestActive = activeStreak
		}
		restStreak = 0

		if e.RPE != nil {
			rpeSum += *e.RPE
			rpeCount++
			if *e.RPE >= HardRPEThreshold {
				hardSessions++
			}
		}
	}

	agg.TotalVolume = DefinedMetric(float64(volume))
	agg.SessionCount = DefinedMetric(float64(sessions))
	agg.ActiveDays = DefinedMetric(float64(activeDays))
	agg.RestDays = DefinedMetric(float64(restDays))
	agg.UnloggedDays = DefinedMetric(float64(unloggedDays))
	agg.RestRatio = DefinedMetric(float64(restDays) / float64(window.Days()))
	agg.LongestActiveStreak = DefinedMetric(float64(longestActive))
	agg.LongestRestStreak = DefinedMetric(float64(longestRest))
	agg.MaxGapDays = DefinedMetric(float64(longestGap))

	// Total load stays defined as long as one entry contributed a computable
	// load; the skipped-entry count travels with it so callers can flag
	// partial coverage.
	if definedLoadCount > 0 {
		agg.TotalLoad = DefinedMetric(totalLoad)
	} else {
		agg.TotalLoad = UndefinedMetric(ReasonMissingRPE)
	}

	if rpeCount > 0 {
		agg.AvgRPE = DefinedMetric(float64(rpeSum) / float64(rpeCount))
		agg.HardSessions = DefinedMetric(float64(hardSessions))
	} else {
		agg.AvgRPE = UndefinedMetric(ReasonMissingRPE)
		agg.HardSessions = UndefinedMetric(ReasonMissingRPE)
	}

	return agg
}

func undefinedAggregate(window Window) Aggregate {
	return Aggregate{
		Window:              window,
		TotalLoad:           UndefinedMetric(ReasonNoEntries),
		TotalVolume:         UndefinedMetric(ReasonNoEntries),
		SessionCount:        UndefinedMetric(ReasonNoEntries),
		ActiveDays:          UndefinedMetric(ReasonNoEntries),
		RestDays:            UndefinedMetric(ReasonNoEntries),
		UnloggedDays:        UndefinedMetric(ReasonNoEntries),
		RestRatio:           UndefinedMetric(ReasonNoEntries),
		AvgRPE:              UndefinedMetric(ReasonNoEntries),
		HardSessions:        UndefinedMetric(ReasonNoEntries),
		LongestActiveStreak: UndefinedMetric(ReasonNoEntries),
		LongestRestStreak:   UndefinedMetric(ReasonNoEntries),
		MaxGapDays:          UndefinedMetric(ReasonNoEntries),
		SessionsByActivity:  map[entry.ActivityType]int{},
	}
}
