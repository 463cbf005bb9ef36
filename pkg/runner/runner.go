package runner

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	xrate "golang.org/x/time/rate"

	"github.com/filehose/filehose/pkg/config"
	"github.com/filehose/filehose/pkg/rate"
	"github.com/filehose/filehose/pkg/transport"
)

const (
	emptyDirWait = time.Second
	listErrWait  = 5 * time.Second
)

// Runner drives one job: it drains the job's directory repeatedly, paces
// dispatch with the job's ramp profile, and keeps at most the configured
// number of attempts in flight. A slow or failing destination degrades this
// job's effective rate but never blocks another runner.
type Runner struct {
	name      string
	username  string
	directory string
	cap       int
	loop      bool
	profile   rate.Profile
	grace     time.Duration
	transport transport.Transport
	logger    *log.Entry

	counters Counters
}

func New(job *config.Job, tr transport.Transport, grace time.Duration, logger *log.Entry) *Runner {
	common := job.Common()
	return &Runner{
		name:      job.Name,
		username:  common.Username,
		directory: common.Directory,
		cap:       common.Cap(),
		loop:      common.LoopForever(),
		profile:   common.Profile(),
		grace:     grace,
		transport: tr,
		logger:    logger.WithField("job", job.Name),
	}
}

// Name returns the job name the runner was built for.
func (r *Runner) Name() string {
	return r.name
}

// Username returns the job identity used for request tagging.
func (r *Runner) Username() string {
	return r.username
}

// Protocol returns the transport protocol in use.
func (r *Runner) Protocol() string {
	return r.transport.Protocol()
}

// Counts returns a snapshot of the runner's attempt counters.
func (r *Runner) Counts() Snapshot {
	return r.counters.Snapshot()
}

// Run dispatches transfers until the context is cancelled or, when looping
// is off, until the directory has been drained once. Pacing is dispatch-rate:
// the limiter is waited on before each dispatch regardless of how long the
// previous attempt takes. On cancellation no new dispatch starts; in-flight
// attempts get the grace period before they are abandoned and counted as
// ERROR.
func (r *Runner) Run(ctx context.Context) {
	r.logger.Infof("starting job at %s", r.profile.Target)

	start := time.Now()
	limiter := xrate.NewLimiter(xrate.Limit(r.profile.At(0)), 1)
	sem := make(chan struct{}, r.cap)
	var wg sync.WaitGroup

	// attempts outlive the dispatch context by the grace period, so they
	// hang off an uncancelled parent with their own cancel
	attemptCtx, cancelAttempts := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelAttempts()

dispatch:
	for {
		files, err := r.listFiles()
		if err != nil {
			r.logger.Errorf("failed to list directory %s: %v", r.directory, err)
			if !r.sleep(ctx, listErrWait) {
				break dispatch
			}
			continue
		}
		if len(files) == 0 {
			if !r.loop {
				break dispatch
			}
			if !r.sleep(ctx, emptyDirWait) {
				break dispatch
			}
			continue
		}

		for _, file := range files {
			// recompute the ramped rate before every pacing wait
			limiter.SetLimit(xrate.Limit(r.profile.At(time.Since(start))))
			if err := limiter.Wait(ctx); err != nil {
				break dispatch
			}
			// a full in-flight set delays the dispatch until a slot
			// frees; it is never dropped
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				break dispatch
			}
			wg.Add(1)
			go func(path string) {
				defer wg.Done()
				defer func() { <-sem }()
				r.attempt(attemptCtx, path)
			}(file)
		}
		if !r.loop {
			break dispatch
		}
	}

	// shutdown: give in-flight attempts the grace period, then cancel them
	timer := time.AfterFunc(r.grace, cancelAttempts)
	wg.Wait()
	timer.Stop()
	r.logger.Infof("job finished: %+v", r.counters.Snapshot())
}

func (r *Runner) attempt(ctx context.Context, path string) {
	id := transport.Identity{
		Job:      r.name,
		Username: r.username,
		Filename: filepath.Base(path),
		UUID:     uuid.New().String(),
	}
	out := r.transport.Send(ctx, path, id)
	r.counters.Record(out.Status)
	if out.Err != nil {
		r.logger.WithField("uuid", id.UUID).Debugf("file %s transfer %s (took %v): %v", id.Filename, out.Status, out.Duration, out.Err)
	} else {
		r.logger.WithField("uuid", id.UUID).Debugf("file %s transfer %s (took %v)", id.Filename, out.Status, out.Duration)
	}
}

// listFiles returns the job's files in stable directory listing order.
func (r *Runner) listFiles() ([]string, error) {
	entries, err := os.ReadDir(r.directory)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, filepath.Join(r.directory, e.Name()))
	}
	return files, nil
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-ctx.Done():
		return false
	}
}
