package rhythm

import (
	"errors"
	"fmt"
	"time"

	"github.com/dojolog/dojolog/internal/utils"
	"github.com/dojolog/dojolog/pkg/entry"
)

var ErrInvalidWindow = errors.New("invalid window")

// Window is an inclusive, contiguous calendar date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds a window over [start, end]. Both bounds are truncated to
// calendar days; a window ending before it starts is a caller error.
func NewWindow(start time.Time, end time.Time) (Window, error) {
	start = utils.DateOf(start)
	end = utils.DateOf(end)
	if end.Before(start) {
		return Window{}, fmt.Errorf("%w: end %s before start %s",
			ErrInvalidWindow, end.Format(entry.DateFormat), start.Format(entry.DateFormat))
	}
	return Window{Start: start, End: end}, nil
}

// Days is the calendar span of the window, counting both endpoints.
func (w Window) Days() int {
	return int(w.End.Sub(w.Start).Hours()/24) + 1
}

func (w Window) Contains(date time.Time) bool {
	return !date.Before(w.Start) && !date.After(w.End)
}

// Previous returns the window of equal span immediately preceding this one.
func (w Window) Previous() Window {
	days := w.Days()
	return Window{
		Start: w.Start.AddDate(0, 0, -days),
		End:   w.End.AddDate(0, 0, -days),
	}
}

func (w Window) String() string {
	return w.Start.Format(entry.DateFormat) + ".." + w.End.Format(entry.DateFormat)
}
