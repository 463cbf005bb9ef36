package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/filehose/filehose/pkg/config"
	"github.com/filehose/filehose/pkg/tracking"
)

// ReportOptions control one reconciliation report.
type ReportOptions struct {
	// Ingress and Egress are the two tracking stores to reconcile.
	Ingress tracking.Connection
	Egress  tracking.Connection
	// From and To bound the report window on record start time, inclusive.
	From time.Time
	To   time.Time
	// Jobs are the configured jobs; their usernames drive unpaired severity
	// and the per-user attribution.
	Jobs []config.Job
	// Query reads records from a store. Defaults to tracking.Query; tests
	// substitute in-memory record sets.
	Query tracking.QueryFunc
	// Run identifies this report in logs and traces.
	Run uuid.UUID
}
