// Package timerange resolves the journal's canonical reporting ranges into
// concrete windows. Month-based ranges are widened outward to ISO week
// boundaries (Monday..Sunday) so weekly bucketing never cuts a week in half.
package timerange

import (
	"errors"
	"fmt"
	"time"

	"github.com/dojolog/dojolog/internal/utils"
	"github.com/dojolog/dojolog/pkg/rhythm"
)

var ErrUnknownRange = errors.New("unknown time range")

type RangeType string

const (
	Week       RangeType = "1w"
	Month      RangeType = "1m"
	ThreeMonth RangeType = "3m"
	SixMonth   RangeType = "6m"
)

func ParseRangeType(s string) (RangeType, error) {
	switch RangeType(s) {
	case Week, Month, ThreeMonth, SixMonth:
		return RangeType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRange, s)
}

// Resolve returns the window the range type spans around the anchor date.
func Resolve(rangeType RangeType, anchor time.Time) (rhythm.Window, error) {
	anchor = utils.DateOf(anchor)

	switch rangeType {
	case Week:
		start := isoWeekStart(anchor)
		return rhythm.NewWindow(start, start.AddDate(0, 0, 6))
	case Month:
		return monthsWindow(anchor, 0)
	case ThreeMonth:
		return monthsWindow(anchor, 2)
	case SixMonth:
		return monthsWindow(anchor, 5)
	}
	return rhythm.Window{}, fmt.Errorf("%w: %q", ErrUnknownRange, rangeType)
}

// monthsWindow spans from the first day of the month monthsBack before the
// anchor's month through the last day of the anchor's month, widened to ISO
// week bounds.
func monthsWindow(anchor time.Time, monthsBack int) (rhythm.Window, error) {
	firstOfStartMonth := time.Date(anchor.Year(), anchor.Month()-time.Month(monthsBack), 1, 0, 0, 0, 0, time.UTC)
	lastOfAnchorMonth := time.Date(anchor.Year(), anchor.Month()+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	start := isoWeekStart(firstOfStartMonth)
	end := isoWeekStart(lastOfAnchorMonth).AddDate(0, 0, 6)
	return rhythm.NewWindow(start, end)
}

// isoWeekStart returns the Monday of the ISO week containing d.
func isoWeekStart(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

// WeekID formats the ISO week identifier of a date, e.g. "2025-W02".
func WeekID(d time.Time) string {
	year, week := d.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}
