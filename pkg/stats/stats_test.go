package stats

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filehose/filehose/pkg/config"
	"github.com/filehose/filehose/pkg/reconcile"
)

func pair(username, status string, d *time.Duration) reconcile.Pair {
	return reconcile.Pair{
		UUID:         username + "-" + status,
		Username:     username,
		EgressStatus: status,
		Duration:     d,
	}
}

func dur(d time.Duration) *time.Duration {
	return &d
}

func testJobs(t *testing.T) []config.Job {
	t.Helper()
	c, err := config.Load(strings.NewReader(`
jobs:
  - name: alice-upload
    type: http
    enabled: true
    config:
      username: alice
      directory: /d
      url: http://x
      target_rate: 1/s
  - name: bob-upload
    type: sftp
    enabled: true
    config:
      username: bob
      directory: /d
      host: h
      password: p
      target_rate: 1/s
`))
	require.NoError(t, err)
	return c.Jobs
}

func TestAggregateSuccessRate(t *testing.T) {
	var pairs []reconcile.Pair
	for i := 0; i < 8; i++ {
		pairs = append(pairs, pair("alice", "SUCCESS", dur(time.Duration(i+1)*time.Second)))
	}
	pairs = append(pairs,
		pair("alice", "FAILED", dur(time.Second)),
		pair("alice", "TIMEOUT", nil),
	)

	report := Aggregate(pairs, testJobs(t))

	assert.Equal(t, 10, report.Overall.Total)
	assert.Equal(t, 8, report.Overall.Succeeded)
	assert.Equal(t, 1, report.Overall.Failed)
	assert.Equal(t, 1, report.Overall.TimedOut)
	assert.InDelta(t, 80.0, report.Overall.SuccessRate, 1e-9)
}

func TestAggregateDurations(t *testing.T) {
	pairs := []reconcile.Pair{
		pair("alice", "SUCCESS", dur(2*time.Second)),
		pair("alice", "SUCCESS", dur(6*time.Second)),
		pair("alice", "SUCCESS", dur(4*time.Second)),
		// a pair without an end time contributes no duration
		pair("alice", "TIMEOUT", nil),
	}

	report := Aggregate(pairs, testJobs(t))
	require.NotNil(t, report.Overall.Duration)
	assert.Equal(t, 2*time.Second, report.Overall.Duration.Min)
	assert.Equal(t, 6*time.Second, report.Overall.Duration.Max)
	assert.Equal(t, 4*time.Second, report.Overall.Duration.Avg)
}

// An empty group reports no duration data rather than zeros.
func TestAggregateNoMeasuredDurations(t *testing.T) {
	pairs := []reconcile.Pair{
		pair("alice", "TIMEOUT", nil),
		pair("alice", "FAILED", nil),
	}
	report := Aggregate(pairs, testJobs(t))
	assert.Nil(t, report.Overall.Duration)
	assert.Equal(t, 0.0, report.Overall.SuccessRate)
}

func TestAggregateEmpty(t *testing.T) {
	report := Aggregate(nil, testJobs(t))
	assert.Equal(t, 0, report.Overall.Total)
	assert.Equal(t, 0.0, report.Overall.SuccessRate)
	assert.Nil(t, report.Overall.Duration)
	assert.Empty(t, report.PerUser)
}

func TestAggregatePerUser(t *testing.T) {
	pairs := []reconcile.Pair{
		pair("alice", "SUCCESS", dur(time.Second)),
		pair("alice", "FAILED", dur(time.Second)),
		pair("bob", "SUCCESS", dur(2*time.Second)),
		// paired traffic with no matching job stays a valid separate group
		pair("zed", "SUCCESS", dur(3*time.Second)),
	}

	report := Aggregate(pairs, testJobs(t))
	require.Len(t, report.PerUser, 3)

	// sorted by username
	assert.Equal(t, "alice", report.PerUser[0].Username)
	assert.Equal(t, "alice-upload", report.PerUser[0].Job)
	assert.Equal(t, 2, report.PerUser[0].Total)
	assert.InDelta(t, 50.0, report.PerUser[0].SuccessRate, 1e-9)

	assert.Equal(t, "bob", report.PerUser[1].Username)
	assert.Equal(t, "bob-upload", report.PerUser[1].Job)

	assert.Equal(t, "zed", report.PerUser[2].Username)
	assert.Empty(t, report.PerUser[2].Job)
	assert.Equal(t, 1, report.PerUser[2].Total)
}
