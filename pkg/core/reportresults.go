package core

import (
	"time"

	"github.com/filehose/filehose/pkg/reconcile"
	"github.com/filehose/filehose/pkg/stats"
)

// ReportResults is a complete reconciliation report: every transaction in the
// window paired or explained, plus the derived statistics. It is only
// produced when both stores were read successfully.
type ReportResults struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	IngressCount int `json:"ingressCount"`
	EgressCount  int `json:"egressCount"`

	Reconciliation reconcile.Result `json:"reconciliation"`
	Stats          stats.Report     `json:"stats"`
}
