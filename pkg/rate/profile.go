package rate

import (
	"fmt"
	"time"
)

// Profile describes how a job's dispatch rate evolves over the life of a run.
// With no ramp the job runs at Target from the start. With a ramp, the rate
// starts at Initial and moves toward Target by Ramp's count per its period,
// holding at Target once reached.
type Profile struct {
	Initial Rate
	Target  Rate
	Ramp    *Rate
}

// ParseProfile builds a profile from the configured shorthand strings.
// initial and ramp may be empty when no ramp is wanted.
func ParseProfile(initial, target, ramp string) (Profile, error) {
	var (
		p   Profile
		err error
	)
	if target == "" {
		return p, fmt.Errorf("target_rate is required")
	}
	if p.Target, err = Parse(target); err != nil {
		return p, fmt.Errorf("invalid target_rate: %v", err)
	}
	if initial != "" {
		if p.Initial, err = Parse(initial); err != nil {
			return p, fmt.Errorf("invalid initial_rate: %v", err)
		}
	} else {
		p.Initial = p.Target
	}
	if ramp != "" {
		r, err := Parse(ramp)
		if err != nil {
			return p, fmt.Errorf("invalid ramp_rate: %v", err)
		}
		p.Ramp = &r
	}
	return p, nil
}

// Validate checks that the profile can pace a job.
func (p Profile) Validate() error {
	if p.Initial.PerSecond() <= 0 {
		return fmt.Errorf("initial_rate must be greater than zero")
	}
	if p.Target.PerSecond() <= 0 {
		return fmt.Errorf("target_rate must be greater than zero")
	}
	if p.Ramp != nil && p.Ramp.PerSecond() <= 0 {
		return fmt.Errorf("ramp_rate must be greater than zero")
	}
	return nil
}

// At returns the instantaneous dispatch rate in transfers per second after
// the given elapsed run time. The result is monotonic between the initial
// and target rates and holds at the target once the ramp completes; it never
// exceeds the bound of the two. At is pure: the same elapsed time and
// profile always produce the same rate.
func (p Profile) At(elapsed time.Duration) float64 {
	target := p.Target.PerSecond()
	if p.Ramp == nil {
		return target
	}
	initial := p.Initial.PerSecond()
	// the ramp is a change of Count per Period, applied per Period of elapsed
	// time, e.g. "10/hour" raises the rate by 10 files/hour every hour
	slope := p.Ramp.PerSecond() / p.Ramp.Period.Seconds()
	var r float64
	if target >= initial {
		r = initial + slope*elapsed.Seconds()
		if r > target {
			r = target
		}
	} else {
		r = initial - slope*elapsed.Seconds()
		if r < target {
			r = target
		}
	}
	return r
}

// Delay returns the pacing delay before the next dispatch at the given
// elapsed run time.
func (p Profile) Delay(elapsed time.Duration) time.Duration {
	return time.Duration(float64(time.Second) / p.At(elapsed))
}
