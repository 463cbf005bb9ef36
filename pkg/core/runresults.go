package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/filehose/filehose/pkg/runner"
)

// JobResults is one job's share of a run summary.
type JobResults struct {
	Name     string          `json:"name"`
	Username string          `json:"username"`
	Protocol string          `json:"protocol"`
	Counts   runner.Snapshot `json:"counts"`
}

// RunResults is the merged summary of one load run.
type RunResults struct {
	Run   uuid.UUID       `json:"run"`
	Start time.Time       `json:"start"`
	End   time.Time       `json:"end"`
	Total runner.Snapshot `json:"total"`
	Jobs  []JobResults    `json:"jobs"`
}
