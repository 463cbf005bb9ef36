package core

import (
	"context"
	"fmt"
	"time"

	"github.com/filehose/filehose/pkg/reconcile"
	"github.com/filehose/filehose/pkg/stats"
	"github.com/filehose/filehose/pkg/tracking"
	"github.com/filehose/filehose/pkg/util"
)

// Report reads both tracking stores for the window, correlates the two record
// sets and computes the statistics. A failure to read either store is fatal;
// no partial report is ever produced.
func (e *Executor) Report(ctx context.Context, opts ReportOptions) (results ReportResults, err error) {
	results = ReportResults{Start: time.Now(), From: opts.From, To: opts.To}
	defer func() { results.End = time.Now() }()

	logger := e.Logger.WithField("run", opts.Run.String())
	logger.Level = e.Logger.Level

	tracer := util.GetTracerFromContext(ctx)
	ctx, span := tracer.Start(ctx, "report")
	defer span.End()

	query := opts.Query
	if query == nil {
		query = tracking.Query
	}

	logger.Infof("beginning report for window %s to %s", opts.From.Format(time.RFC3339), opts.To.Format(time.RFC3339))
	ingress, err := query(ctx, opts.Ingress, opts.From, opts.To)
	if err != nil {
		return results, fmt.Errorf("failed to read ingress store: %v", err)
	}
	egress, err := query(ctx, opts.Egress, opts.From, opts.To)
	if err != nil {
		return results, fmt.Errorf("failed to read egress store: %v", err)
	}
	results.IngressCount = len(ingress)
	results.EgressCount = len(egress)
	logger.Debugf("read %d ingress and %d egress records", len(ingress), len(egress))

	knownUsers := make(map[string]bool, len(opts.Jobs))
	for _, j := range opts.Jobs {
		if common := j.Common(); common != nil {
			knownUsers[common.Username] = true
		}
	}

	results.Reconciliation = reconcile.Correlate(ingress, egress, knownUsers)
	results.Stats = stats.Aggregate(results.Reconciliation.Paired, opts.Jobs)

	logger.Infof("report complete: %d paired, %d unpaired ingress, %d unpaired egress, %d anomalies",
		len(results.Reconciliation.Paired),
		len(results.Reconciliation.UnpairedIngress),
		len(results.Reconciliation.UnpairedEgress),
		len(results.Reconciliation.Anomalies))
	return results, nil
}
