package rhythm

import (
	"errors"
	"fmt"
)

var ErrUnknownMetric = errors.New("unknown metric kind")

// Reason explains why a metric or comparison is undefined.
type Reason string

const (
	// ReasonNoEntries marks metrics over a window without a single entry.
	ReasonNoEntries Reason = "no-entries"
	// ReasonMissingRPE marks load-derived metrics with no RPE coverage.
	ReasonMissingRPE Reason = "missing-rpe"
	// ReasonInsufficientData marks comparisons with an undefined input.
	ReasonInsufficientData Reason = "insufficient-data"
	// ReasonSpanMismatch marks raw comparisons across unequal window spans.
	ReasonSpanMismatch Reason = "span-mismatch"
	// ReasonZeroBaseline marks percent changes against a zero baseline.
	ReasonZeroBaseline Reason = "zero-baseline"
)

// Metric is a tagged derived value: either a defined magnitude or an
// explicit undefined marker with a reason. Undefined is never encoded as a
// sentinel number, so it cannot leak into arithmetic unnoticed.
type Metric struct {
	Defined bool
	Amount  float64
	Reason  Reason
}

func DefinedMetric(amount float64) Metric {
	return Metric{Defined: true, Amount: amount}
}

func UndefinedMetric(reason Reason) Metric {
	return Metric{Reason: reason}
}

// MetricKind names the aggregate fields a Comparison can be requested for.
type MetricKind string

const (
	MetricTotalLoad           MetricKind = "totalLoad"
	MetricTotalVolume         MetricKind = "totalVolume"
	MetricSessionCount        MetricKind = "sessionCount"
	MetricActiveDays          MetricKind = "activeDays"
	MetricRestDays            MetricKind = "restDays"
	MetricUnloggedDays        MetricKind = "unloggedDays"
	MetricRestRatio           MetricKind = "restRatio"
	MetricAvgRPE              MetricKind = "avgRpe"
	MetricHardSessions        MetricKind = "hardSessions"
	MetricLongestActiveStreak MetricKind = "longestActiveStreak"
	MetricLongestRestStreak   MetricKind = "longestRestStreak"
	MetricMaxGapDays          MetricKind = "maxGapDays"
)

// MetricKinds lists every comparable metric, in report order.
var MetricKinds = []MetricKind{
	MetricTotalLoad,
	MetricTotalVolume,
	MetricSessionCount,
	MetricActiveDays,
	MetricRestDays,
	MetricUnloggedDays,
	MetricRestRatio,
	MetricAvgRPE,
	MetricHardSessions,
	MetricLongestActiveStreak,
	MetricLongestRestStreak,
	MetricMaxGapDays,
}

func ParseMetricKind(s string) (MetricKind, error) {
	for _, k := range MetricKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}
