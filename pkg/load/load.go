// Package load derives a scalar training load from a day entry.
//
// Load is duration-weighted perceived effort: durationMinutes * f(rpe),
// where f is a strictly increasing policy function over RPE 1..10. An entry
// whose effort is unknown has no load at all; the undefined state must
// propagate to callers instead of collapsing to zero.
package load

import (
	"errors"
	"fmt"

	"github.com/dojolog/dojolog/pkg/entry"
)

var ErrUnknownWeighting = errors.New("unknown load weighting")

// Value is a tagged training-load value. The zero Value is undefined.
type Value struct {
	Defined bool
	Amount  float64
}

func Defined(amount float64) Value {
	return Value{Defined: true, Amount: amount}
}

func Undefined() Value {
	return Value{}
}

// Weighting selects the f(rpe) policy.
type Weighting string

const (
	// WeightingLinear is f(rpe) = rpe, the journal's historical formula.
	WeightingLinear Weighting = "linear"
	// WeightingSquared is f(rpe) = rpe*rpe, emphasising hard sessions.
	WeightingSquared Weighting = "squared"
)

func ParseWeighting(s string) (Weighting, error) {
	switch Weighting(s) {
	case WeightingLinear, WeightingSquared:
		return Weighting(s), nil
	case "":
		return WeightingLinear, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownWeighting, s)
}

type Calculator struct {
	weighting Weighting
}

func NewCalculator(weighting Weighting) *Calculator {
	return &Calculator{weighting: weighting}
}

// Compute returns the training load of a single entry.
//
// Rest days carry a defined load of zero regardless of duration. A non-rest
// entry without an explicit RPE has an undefined load; it is never treated
// as zero.
func (c *Calculator) Compute(e entry.DayEntry) Value {
	if e.Activity.IsRest() {
		return Defined(0)
	}
	if e.RPE == nil {
		return Undefined()
	}
	return Defined(float64(e.DurationMinutes) * c.weight(*e.RPE))
}

func (c *Calculator) weight(rpe int) float64 {
	if c.weighting == WeightingSquared {
		return float64(rpe * rpe)
	}
	return float64(rpe)
}
