package timerange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestParseRangeType(t *testing.T) {
	for _, valid := range []string{"1w", "1m", "3m", "6m"} {
		got, err := ParseRangeType(valid)
		require.NoError(t, err)
		assert.Equal(t, RangeType(valid), got)
	}

	_, err := ParseRangeType("2w")
	assert.ErrorIs(t, err, ErrUnknownRange)
}

func TestResolve_WeekIsMondayAligned(t *testing.T) {
	// 2025-01-08 is a Wednesday; its ISO week runs Mon 06 .. Sun 12.
	window, err := Resolve(Week, date(2025, time.January, 8))

	require.NoError(t, err)
	assert.Equal(t, date(2025, time.January, 6), window.Start)
	assert.Equal(t, date(2025, time.January, 12), window.End)
	assert.Equal(t, 7, window.Days())
}

func TestResolve_WeekAnchoredOnMondayAndSunday(t *testing.T) {
	monday := date(2025, time.January, 6)
	sunday := date(2025, time.January, 12)

	fromMonday, err := Resolve(Week, monday)
	require.NoError(t, err)
	fromSunday, err := Resolve(Week, sunday)
	require.NoError(t, err)

	assert.Equal(t, fromMonday, fromSunday)
	assert.Equal(t, monday, fromMonday.Start)
}

func TestResolve_MonthWidensToISOWeeks(t *testing.T) {
	// January 2025 starts on a Wednesday and ends on a Friday: the window
	// stretches back to Mon 2024-12-30 and forward to Sun 2025-02-02.
	window, err := Resolve(Month, date(2025, time.January, 15))

	require.NoError(t, err)
	assert.Equal(t, date(2024, time.December, 30), window.Start)
	assert.Equal(t, date(2025, time.February, 2), window.End)
	assert.Equal(t, 0, window.Days()%7, "month windows must hold whole weeks")
}

func TestResolve_ThreeMonthSpansBackwards(t *testing.T) {
	window, err := Resolve(ThreeMonth, date(2025, time.March, 15))

	require.NoError(t, err)
	// January..March 2025 widened: Mon 2024-12-30 .. Sun 2025-04-06.
	assert.Equal(t, date(2024, time.December, 30), window.Start)
	assert.Equal(t, date(2025, time.April, 6), window.End)
	assert.Equal(t, 0, window.Days()%7)
}

func TestResolve_SixMonthCrossesYearBoundary(t *testing.T) {
	window, err := Resolve(SixMonth, date(2025, time.February, 10))

	require.NoError(t, err)
	// September 2024..February 2025. Sep 1 2024 is a Sunday, so the window
	// starts the preceding Monday, Aug 26.
	assert.Equal(t, date(2024, time.August, 26), window.Start)
	assert.Equal(t, date(2025, time.March, 2), window.End)
	assert.Equal(t, 0, window.Days()%7)
}

func TestResolve_UnknownRange(t *testing.T) {
	_, err := Resolve(RangeType("1y"), date(2025, time.January, 8))

	assert.ErrorIs(t, err, ErrUnknownRange)
}

func TestWeekID(t *testing.T) {
	assert.Equal(t, "2025-W02", WeekID(date(2025, time.January, 8)))
	// Jan 1 2025 falls in ISO week 1 of 2025.
	assert.Equal(t, "2025-W01", WeekID(date(2025, time.January, 1)))
	// Dec 30 2024 is a Monday belonging to ISO week 1 of 2025.
	assert.Equal(t, "2025-W01", WeekID(date(2024, time.December, 30)))
}
