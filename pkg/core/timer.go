package core

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
)

// TimerOptions configure when load runs fire. Once runs immediately and
// exactly one time. Cron takes a standard five-field cron expression. Begin
// delays the first run, either "+MM" minutes from now or an "HHMM" wall-clock
// time. Frequency repeats every N minutes when no cron is set.
type TimerOptions struct {
	Once      bool
	Cron      string
	Begin     string
	Frequency int
}

type Update struct {
	// Last signals that no more updates will come; perform this run and end.
	Last bool
}

var (
	beginDelayRe = regexp.MustCompile(`^\+([0-9]+)$`)
	beginClockRe = regexp.MustCompile(`^([0-9][0-9])([0-9][0-9])$`)
)

func sendTimer(c chan Update, last bool) {
	// non-blocking write so a slow consumer never stalls the schedule
	select {
	case c <- Update{Last: last}:
	default:
	}
}

// Timer starts a schedule based on the options and signals each run via the
// returned channel. The channel closes when no further runs will fire.
func Timer(opts TimerOptions) (<-chan Update, error) {
	now := time.Now()
	delay, err := firstDelay(opts, now)
	if err != nil {
		return nil, err
	}

	time.Sleep(delay)

	// one slot so the first update is never lost to a consumer that has not
	// reached the channel yet
	c := make(chan Update, 1)
	go func(opts TimerOptions) {
		defer close(c)

		if opts.Once {
			sendTimer(c, true)
			return
		}

		for {
			lastRun := time.Now()
			sendTimer(c, false)

			var delay time.Duration
			if opts.Cron != "" {
				delay, _ = waitForCron(opts.Cron, time.Now())
			} else {
				// measure from the last start, not the last finish, so a long
				// run does not push the schedule; always wait at least one
				// full frequency
				diff := int(time.Since(lastRun).Minutes())
				if diff == 0 {
					diff += opts.Frequency
				}
				passed := diff % opts.Frequency
				delay = time.Duration(opts.Frequency-passed) * time.Minute
			}
			time.Sleep(delay)
		}
	}(opts)
	return c, nil
}

// firstDelay computes how long to wait before the first run.
func firstDelay(opts TimerOptions, now time.Time) (time.Duration, error) {
	switch {
	case opts.Cron != "":
		delay, err := waitForCron(opts.Cron, now)
		if err != nil {
			return 0, fmt.Errorf("invalid cron format '%s': %v", opts.Cron, err)
		}
		return delay, nil
	case opts.Begin != "":
		if parts := beginDelayRe.FindStringSubmatch(opts.Begin); len(parts) > 1 {
			mins, err := strconv.Atoi(parts[1])
			if err != nil {
				return 0, fmt.Errorf("invalid format for begin delay '%s': %v", opts.Begin, err)
			}
			return time.Duration(mins) * time.Minute, nil
		}
		if parts := beginClockRe.FindStringSubmatch(opts.Begin); len(parts) > 2 {
			hour, err := strconv.Atoi(parts[1])
			if err != nil {
				return 0, fmt.Errorf("invalid format for begin delay '%s': %v", opts.Begin, err)
			}
			minute, err := strconv.Atoi(parts[2])
			if err != nil {
				return 0, fmt.Errorf("invalid format for begin delay '%s': %v", opts.Begin, err)
			}
			target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, now.Second(), now.Nanosecond(), now.Location())
			if !target.After(now) {
				target = target.Add(24 * time.Hour)
			}
			return target.Sub(now), nil
		}
		return 0, fmt.Errorf("invalid format for begin delay '%s'", opts.Begin)
	default:
		return 0, nil
	}
}

// waitForCron computes the duration until the cron expression next matches,
// allowing a match at the current instant.
func waitForCron(cronExpr string, from time.Time) (time.Duration, error) {
	sched, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return 0, err
	}
	next := sched.Next(from.Add(-1 * time.Nanosecond))
	return next.Sub(from), nil
}
