package rhythm

import (
	log "github.com/sirupsen/logrus"
)

// CompareOptions tunes comparison validity rules.
type CompareOptions struct {
	// RateNormalized compares per-day rates instead of raw totals, which
	// makes windows of unequal span comparable. Raw comparison across
	// unequal spans is always rejected.
	RateNormalized bool
}

// Comparison is the outcome of comparing one metric across two aggregates.
// Delta and PercentChange stay undefined (with a reason) whenever the
// comparison is invalid; an undefined input is never substituted with zero,
// an average, or an interpolation.
type Comparison struct {
	Kind          MetricKind
	Baseline      Metric
	Current       Metric
	Delta         Metric
	PercentChange Metric
}

// Compare compares metric kind between baseline a and current b.
//
// The comparison is valid only when both aggregates define the metric and
// both windows cover an equal calendar span. With RateNormalized set,
// unequal spans are compared as per-day rates instead of being rejected.
func Compare(a Aggregate, b Aggregate, kind MetricKind, opts CompareOptions) (Comparison, error) {
	baseline, err := a.Metric(kind)
	if err != nil {
		return Comparison{}, err
	}
	current, err := b.Metric(kind)
	if err != nil {
		return Comparison{}, err
	}

	cmp := Comparison{Kind: kind, Baseline: baseline, Current: current}

	if !baseline.Defined || !current.Defined {
		log.Tracef("comparison of %s invalid: baseline defined=%t, current defined=%t",
			kind, baseline.Defined, current.Defined)
		cmp.Delta = UndefinedMetric(ReasonInsufficientData)
		cmp.PercentChange = UndefinedMetric(ReasonInsufficientData)
		return cmp, nil
	}

	baseAmount := baseline.Amount
	currentAmount := current.Amount

	if a.Window.Days() != b.Window.Days() {
		if !opts.RateNormalized {
			cmp.Delta = UndefinedMetric(ReasonSpanMismatch)
			cmp.PercentChange = UndefinedMetric(ReasonSpanMismatch)
			return cmp, nil
		}
		baseAmount /= float64(a.Window.Days())
		currentAmount /= float64(b.Window.Days())
	}

	cmp.Delta = DefinedMetric(currentAmount - baseAmount)
	if baseAmount != 0 {
		cmp.PercentChange = DefinedMetric((currentAmount - baseAmount) / baseAmount)
	} else {
		cmp.PercentChange = UndefinedMetric(ReasonZeroBaseline)
	}
	return cmp, nil
}

// CompareAll compares every tracked metric across two aggregates.
func CompareAll(a Aggregate, b Aggregate, opts CompareOptions) map[MetricKind]Comparison {
	comparisons := make(map[MetricKind]Comparison, len(MetricKinds))
	for _, kind := range MetricKinds {
		cmp, err := Compare(a, b, kind, opts)
		if err != nil {
			// MetricKinds only holds known kinds.
			continue
		}
		comparisons[kind] = cmp
	}
	return comparisons
}
