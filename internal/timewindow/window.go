// Package timewindow clamps usage query windows against the metering
// provider's "no future data" rule.
package timewindow

import (
	"errors"
	"time"

	"github.com/billingbridge/usagebridge/internal/clock"
)

// ErrInvalidWindow marks a window with a missing endpoint or start after end.
var ErrInvalidWindow = errors.New("invalid_window")

// Window is a caller-supplied [start, end) query range. Endpoints are
// pointers because the inbound boundary tolerates absent dates.
type Window struct {
	Start *time.Time
	End   *time.Time
}

// Validate rejects nil endpoints and inverted ranges. Clamping is the
// sanitizer's job; ordering is the caller's.
func (w Window) Validate() error {
	if w.Start == nil || w.End == nil {
		return ErrInvalidWindow
	}
	if w.Start.After(*w.End) {
		return ErrInvalidWindow
	}
	return nil
}

// Sanitize clamps t so it never exceeds the current instant. A future start
// collapses to the start of the current day, a future end to now; anything
// already in the past is returned unchanged.
func Sanitize(clk clock.Clock, t time.Time, isStart bool) time.Time {
	now := clk.Now()
	if !t.After(now) {
		return t
	}
	if isStart {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	}
	return now
}

// Sanitized returns the window with both endpoints clamped. Validate must
// have passed first.
func (w Window) Sanitized(clk clock.Clock) (start, end time.Time) {
	start = Sanitize(clk, *w.Start, true)
	end = Sanitize(clk, *w.End, false)
	return start, end
}
