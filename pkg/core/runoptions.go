package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/filehose/filehose/pkg/config"
)

const defaultGrace = 30 * time.Second

// RunOptions control one load run across all enabled jobs.
type RunOptions struct {
	// Jobs are the configured jobs; disabled ones are skipped.
	Jobs []config.Job
	// Duration is how long to drive load; zero means until cancelled.
	Duration time.Duration
	// Grace bounds how long in-flight attempts may finish after the run
	// ends before they are abandoned and counted as ERROR.
	Grace time.Duration
	// Run identifies this run in logs and traces.
	Run uuid.UUID
}
