package rate

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Rate is a transfer rate expressed as a count of transfers per period,
// parsed from the "<count>/<unit>" shorthand used in job configuration,
// e.g. "60/hour" or "2/s".
type Rate struct {
	Count  float64
	Period time.Duration
}

var periods = map[string]time.Duration{
	"s":      time.Second,
	"sec":    time.Second,
	"second": time.Second,
	"m":      time.Minute,
	"min":    time.Minute,
	"minute": time.Minute,
	"h":      time.Hour,
	"hour":   time.Hour,
}

// Parse parses the "<count>/<unit>" shorthand. The unit can be one of
// s/sec/second, m/min/minute, h/hour. A count of zero or less is a
// configuration error, never a silent infinite delay.
func Parse(s string) (Rate, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "/", 2)
	if len(parts) != 2 {
		return Rate{}, fmt.Errorf("invalid rate format '%s', expected <count>/<unit>", s)
	}
	count, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Rate{}, fmt.Errorf("invalid rate count in '%s': %v", s, err)
	}
	if count <= 0 {
		return Rate{}, fmt.Errorf("rate count must be greater than zero in '%s'", s)
	}
	period, ok := periods[strings.ToLower(strings.TrimSpace(parts[1]))]
	if !ok {
		return Rate{}, fmt.Errorf("unsupported rate period in '%s'", s)
	}
	return Rate{Count: count, Period: period}, nil
}

// PerSecond converts the rate to transfers per second.
func (r Rate) PerSecond() float64 {
	return r.Count / r.Period.Seconds()
}

func (r Rate) String() string {
	var unit string
	switch r.Period {
	case time.Second:
		unit = "second"
	case time.Minute:
		unit = "minute"
	default:
		unit = "hour"
	}
	return fmt.Sprintf("%g/%s", r.Count, unit)
}

// IsZero reports whether the rate is unset.
func (r Rate) IsZero() bool {
	return r.Count == 0
}
