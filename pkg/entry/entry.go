package entry

import (
	"errors"
	"fmt"
	"time"
)

// DateFormat is the canonical on-wire and on-disk form of a journal date.
const DateFormat = "2006-01-02"

var (
	ErrNotFound      = errors.New("entry not found")
	ErrDuplicateDate = errors.New("an entry already exists for this date")
	ErrInvalidRange  = errors.New("invalid date range")

	ErrUnknownActivity  = errors.New("unknown activity type")
	ErrInvalidRPE       = errors.New("rpe must be between 1 and 10")
	ErrRestWithRPE      = errors.New("rest days cannot carry an rpe")
	ErrInvalidEnergy    = errors.New("energy level must be between 1 and 5")
	ErrUnknownEmphasis  = errors.New("unknown session emphasis")
	ErrNegativeDuration = errors.New("duration cannot be negative")
)

// ActivityType is the closed set of loggable activities. A rest day is
// itself an entry, distinct from a day with no entry at all.
type ActivityType string

const (
	Karate   ActivityType = "karate"
	Strength ActivityType = "strength"
	Running  ActivityType = "running"
	Rowing   ActivityType = "rowing"
	Cardio   ActivityType = "cardio"
	Rest     ActivityType = "rest"
)

// ActivityTypes lists all valid activity types in display order.
var ActivityTypes = []ActivityType{Karate, Strength, Running, Rowing, Cardio, Rest}

func ParseActivityType(s string) (ActivityType, error) {
	for _, a := range ActivityTypes {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownActivity, s)
}

func (a ActivityType) IsRest() bool {
	return a == Rest
}

// Emphasis describes what a session focused on. Optional.
type Emphasis string

const (
	EmphasisNone      Emphasis = ""
	EmphasisTechnical Emphasis = "technical"
	EmphasisPhysical  Emphasis = "physical"
	EmphasisMixed     Emphasis = "mixed"
)

func ParseEmphasis(s string) (Emphasis, error) {
	switch Emphasis(s) {
	case EmphasisNone, EmphasisTechnical, EmphasisPhysical, EmphasisMixed:
		return Emphasis(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEmphasis, s)
}

// DayEntry is one calendar day's record. At most one entry exists per date.
// RPE is never derived or defaulted: nil means the athlete did not supply
// it, which is distinct from zero.
type DayEntry struct {
	ID              int
	UID             string
	Date            time.Time
	Activity        ActivityType
	DurationMinutes int
	RPE             *int
	EnergyLevel     *int
	Emphasis        Emphasis
	Notes           string
	UpdatedAt       time.Time
	Deleted         bool
}

// Validate rejects malformed entries. Values are never clamped or coerced:
// effort is explicit or absent.
func (e DayEntry) Validate() error {
	if _, err := ParseActivityType(string(e.Activity)); err != nil {
		return err
	}
	if e.DurationMinutes < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeDuration, e.DurationMinutes)
	}
	if e.RPE != nil {
		if e.Activity.IsRest() {
			return ErrRestWithRPE
		}
		if *e.RPE < 1 || *e.RPE > 10 {
			return fmt.Errorf("%w: %d", ErrInvalidRPE, *e.RPE)
		}
	}
	if e.EnergyLevel != nil && (*e.EnergyLevel < 1 || *e.EnergyLevel > 5) {
		return fmt.Errorf("%w: %d", ErrInvalidEnergy, *e.EnergyLevel)
	}
	if _, err := ParseEmphasis(string(e.Emphasis)); err != nil {
		return err
	}
	return nil
}
