package rate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProfile(t *testing.T) {
	tests := []struct {
		name    string
		initial string
		target  string
		ramp    string
		err     string
	}{
		{"target only", "", "60/hour", "", ""},
		{"full ramp", "10/hour", "60/hour", "10/hour", ""},
		{"missing target", "10/hour", "", "", "target_rate is required"},
		{"bad initial", "nope", "60/hour", "", "invalid initial_rate"},
		{"bad ramp", "10/hour", "60/hour", "x", "invalid ramp_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseProfile(tt.initial, tt.target, tt.ramp)
			if tt.err != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.err)
				return
			}
			require.NoError(t, err)
			if tt.initial == "" {
				assert.Equal(t, p.Target, p.Initial)
			}
		})
	}
}

// A job ramping from 10/hour to 60/hour at 10/hour per hour must pass through
// the intermediate hourly rates and hold at the target from hour five on.
func TestProfileRampUp(t *testing.T) {
	p, err := ParseProfile("10/hour", "60/hour", "10/hour")
	require.NoError(t, err)

	perHour := func(elapsed time.Duration) float64 {
		return p.At(elapsed) * 3600
	}
	assert.InDelta(t, 10, perHour(0), 1e-9)
	assert.InDelta(t, 20, perHour(time.Hour), 1e-9)
	assert.InDelta(t, 35, perHour(150*time.Minute), 1e-9)
	assert.InDelta(t, 60, perHour(5*time.Hour), 1e-9)
	assert.InDelta(t, 60, perHour(12*time.Hour), 1e-9)
}

func TestProfileRampDown(t *testing.T) {
	p, err := ParseProfile("60/hour", "10/hour", "25/hour")
	require.NoError(t, err)

	perHour := func(elapsed time.Duration) float64 {
		return p.At(elapsed) * 3600
	}
	assert.InDelta(t, 60, perHour(0), 1e-9)
	assert.InDelta(t, 35, perHour(time.Hour), 1e-9)
	assert.InDelta(t, 10, perHour(2*time.Hour), 1e-9)
	assert.InDelta(t, 10, perHour(10*time.Hour), 1e-9)
}

// The rate must be monotonic over elapsed time and never leave the band
// between the initial and target rates.
func TestProfileMonotonicAndBounded(t *testing.T) {
	p, err := ParseProfile("5/minute", "2/s", "30/minute")
	require.NoError(t, err)

	initial := p.Initial.PerSecond()
	target := p.Target.PerSecond()
	prev := p.At(0)
	for elapsed := time.Second; elapsed < time.Hour; elapsed += 7 * time.Second {
		r := p.At(elapsed)
		assert.GreaterOrEqual(t, r, prev)
		assert.GreaterOrEqual(t, r, initial)
		assert.LessOrEqual(t, r, target)
		prev = r
	}
}

func TestProfileNoRamp(t *testing.T) {
	p, err := ParseProfile("", "30/minute", "")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, p.At(0), 1e-9)
	assert.InDelta(t, 0.5, p.At(24*time.Hour), 1e-9)
}

func TestProfileDelay(t *testing.T) {
	p, err := ParseProfile("", "2/s", "")
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, p.Delay(0))
}
