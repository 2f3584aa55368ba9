package timewindow

import (
	"testing"
	"time"

	"github.com/billingbridge/usagebridge/internal/clock"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2023, 4, 15, 13, 45, 30, 0, time.UTC)

func TestSanitizeIsIdentityForPastTimes(t *testing.T) {
	clk := clock.NewFakeClock(now)

	past := now.Add(-48 * time.Hour)
	assert.Equal(t, past, Sanitize(clk, past, true))
	assert.Equal(t, past, Sanitize(clk, past, false))
	assert.Equal(t, now, Sanitize(clk, now, true))
	assert.Equal(t, now, Sanitize(clk, now, false))
}

func TestSanitizeClampsFutureStartToStartOfDay(t *testing.T) {
	clk := clock.NewFakeClock(now)

	future := now.Add(72 * time.Hour)
	got := Sanitize(clk, future, true)
	assert.Equal(t, time.Date(2023, 4, 15, 0, 0, 0, 0, time.UTC), got)
}

func TestSanitizeClampsFutureEndToNow(t *testing.T) {
	clk := clock.NewFakeClock(now)

	future := now.Add(time.Minute)
	assert.Equal(t, now, Sanitize(clk, future, false))
}

func TestValidate(t *testing.T) {
	start := now.Add(-time.Hour)
	end := now

	tests := []struct {
		name    string
		window  Window
		wantErr error
	}{
		{"valid", Window{Start: &start, End: &end}, nil},
		{"nil start", Window{End: &end}, ErrInvalidWindow},
		{"nil end", Window{Start: &start}, ErrInvalidWindow},
		{"inverted", Window{Start: &end, End: &start}, ErrInvalidWindow},
		{"equal endpoints", Window{Start: &start, End: &start}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.window.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSanitizedClampsBothEndpoints(t *testing.T) {
	clk := clock.NewFakeClock(now)

	start := now.Add(time.Hour)
	end := now.Add(2 * time.Hour)
	w := Window{Start: &start, End: &end}

	gotStart, gotEnd := w.Sanitized(clk)
	assert.Equal(t, time.Date(2023, 4, 15, 0, 0, 0, 0, time.UTC), gotStart)
	assert.Equal(t, now, gotEnd)
}
