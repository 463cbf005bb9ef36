package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/filehose/filehose/pkg/runner"
	"github.com/filehose/filehose/pkg/transport"
	"github.com/filehose/filehose/pkg/util"
)

// Run executes one load run: a runner per enabled job, all driven until the
// duration elapses or the context is cancelled, then the per-job counters are
// merged into one summary.
func (e *Executor) Run(ctx context.Context, opts RunOptions) (results RunResults, err error) {
	results = RunResults{Run: opts.Run, Start: time.Now()}
	defer func() { results.End = time.Now() }()

	logger := e.Logger.WithField("run", opts.Run.String())
	logger.Level = e.Logger.Level

	tracer := util.GetTracerFromContext(ctx)
	ctx, span := tracer.Start(ctx, "run")
	defer span.End()

	grace := opts.Grace
	if grace <= 0 {
		grace = defaultGrace
	}

	var runners []*runner.Runner
	for i := range opts.Jobs {
		job := &opts.Jobs[i]
		if !job.Enabled {
			logger.Debugf("skipping disabled job %s", job.Name)
			continue
		}
		tr, err := transport.New(job)
		if err != nil {
			return results, fmt.Errorf("job %s: %v", job.Name, err)
		}
		runners = append(runners, runner.New(job, tr, grace, logger))
	}
	if len(runners) == 0 {
		return results, fmt.Errorf("no enabled jobs to run")
	}

	runCtx := ctx
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	logger.Infof("beginning run with %d jobs", len(runners))
	var wg sync.WaitGroup
	for _, r := range runners {
		wg.Add(1)
		go func(r *runner.Runner) {
			defer wg.Done()
			r.Run(runCtx)
		}(r)
	}
	wg.Wait()

	for _, r := range runners {
		counts := r.Counts()
		results.Jobs = append(results.Jobs, JobResults{
			Name:     r.Name(),
			Username: r.Username(),
			Protocol: r.Protocol(),
			Counts:   counts,
		})
		results.Total = results.Total.Add(counts)
	}
	logger.Infof("run complete: %+v", results.Total)
	return results, nil
}
