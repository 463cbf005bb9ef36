package stats

import (
	"sort"
	"time"

	"github.com/filehose/filehose/pkg/config"
	"github.com/filehose/filehose/pkg/reconcile"
)

// DurationStats summarizes the durations of a group of paired transactions.
// It only exists when at least one pair had a measurable duration; an empty
// group reports no data rather than zeros.
type DurationStats struct {
	Min time.Duration `json:"min"`
	Max time.Duration `json:"max"`
	Avg time.Duration `json:"avg"`
}

// Group is the metric set computed for a set of paired transactions. The
// egress status is authoritative: SuccessRate is the percentage of pairs
// whose egress side reported SUCCESS, always within [0, 100].
type Group struct {
	Total       int            `json:"total"`
	Succeeded   int            `json:"succeeded"`
	Failed      int            `json:"failed"`
	TimedOut    int            `json:"timedOut"`
	SuccessRate float64        `json:"successRate"`
	Duration    *DurationStats `json:"duration"`
}

// UserGroup is the per-username breakdown. Job names the JobConfig the
// username belongs to; it is empty for traffic that paired correctly but
// matches no configured job, which is reported unattributed rather than
// treated as an error.
type UserGroup struct {
	Username string `json:"username"`
	Job      string `json:"job,omitempty"`
	Group
}

type Report struct {
	Overall Group       `json:"overall"`
	PerUser []UserGroup `json:"perUser"`
}

// Aggregate computes overall and per-username metrics from the paired
// transactions. Pure and single-pass per grouping; no I/O.
func Aggregate(pairs []reconcile.Pair, jobs []config.Job) Report {
	jobByUser := make(map[string]string, len(jobs))
	for _, j := range jobs {
		if common := j.Common(); common != nil {
			jobByUser[common.Username] = j.Name
		}
	}

	byUser := make(map[string][]reconcile.Pair)
	for _, p := range pairs {
		byUser[p.Username] = append(byUser[p.Username], p)
	}
	usernames := make([]string, 0, len(byUser))
	for u := range byUser {
		usernames = append(usernames, u)
	}
	sort.Strings(usernames)

	report := Report{Overall: compute(pairs)}
	for _, u := range usernames {
		report.PerUser = append(report.PerUser, UserGroup{
			Username: u,
			Job:      jobByUser[u],
			Group:    compute(byUser[u]),
		})
	}
	return report
}

func compute(pairs []reconcile.Pair) Group {
	g := Group{Total: len(pairs)}
	var (
		sum      time.Duration
		measured int
		min, max time.Duration
	)
	for _, p := range pairs {
		switch p.EgressStatus {
		case "SUCCESS":
			g.Succeeded++
		case "FAILED":
			g.Failed++
		case "TIMEOUT":
			g.TimedOut++
		}
		if p.Duration == nil {
			continue
		}
		d := *p.Duration
		if measured == 0 || d < min {
			min = d
		}
		if measured == 0 || d > max {
			max = d
		}
		sum += d
		measured++
	}
	if g.Total > 0 {
		g.SuccessRate = float64(g.Succeeded) / float64(g.Total) * 100
	}
	if measured > 0 {
		g.Duration = &DurationStats{
			Min: min,
			Max: max,
			Avg: sum / time.Duration(measured),
		}
	}
	return g
}
