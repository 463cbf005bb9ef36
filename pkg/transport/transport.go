package transport

import (
	"context"
	"errors"
	"time"
)

// Status is the locally-observed outcome of a single transfer attempt.
// The values match the statuses used by the tracking stores, with ERROR
// added for infrastructure-caused abandonment (shutdown, cancellation),
// distinct from destination-caused FAILED.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
	StatusTimeout Status = "TIMEOUT"
	StatusError   Status = "ERROR"
)

// Identity tags one attempt with the job's identity and a fresh correlation
// uuid, used for request tagging and later reconciliation against the
// tracking stores.
type Identity struct {
	Job      string
	Username string
	Filename string
	UUID     string
}

// Outcome is the local result of one attempt. Err carries detail for
// FAILED/TIMEOUT/ERROR and is nil on success.
type Outcome struct {
	Status   Status
	Duration time.Duration
	Err      error
}

// Transport sends one file to the configured destination. Implementations
// must be safe for many concurrent callers; any connection or session reuse
// is per transport instance, which the runner scopes per job.
type Transport interface {
	Send(ctx context.Context, filePath string, id Identity) Outcome
	Protocol() string
}

// Classify maps a transfer error to an attempt status: a context deadline is
// a TIMEOUT, cancellation (shutdown grace expired) is an ERROR, anything
// else is a destination-caused FAILED.
func Classify(err error) Status {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return StatusTimeout
	case errors.Is(err, context.Canceled):
		return StatusError
	default:
		return StatusFailed
	}
}

// RunWithDeadline invokes fn in its own goroutine and waits for it, the
// context, or the per-attempt timeout, whichever comes first. It is used by
// transports whose underlying libraries do not take a context; an abandoned
// fn keeps running in the background until its own I/O fails.
func RunWithDeadline(ctx context.Context, timeout time.Duration, fn func() Outcome) Outcome {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	start := time.Now()
	done := make(chan Outcome, 1)
	go func() {
		done <- fn()
	}()
	select {
	case out := <-done:
		return out
	case <-ctx.Done():
		return Outcome{Status: Classify(ctx.Err()), Duration: time.Since(start), Err: ctx.Err()}
	}
}
