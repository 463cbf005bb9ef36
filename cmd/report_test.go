package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/filehose/filehose/pkg/core"
	"github.com/filehose/filehose/pkg/reconcile"
	"github.com/filehose/filehose/pkg/stats"
)

func testReportResults() core.ReportResults {
	return core.ReportResults{
		IngressCount: 1,
		EgressCount:  1,
		Reconciliation: reconcile.Result{
			Paired: []reconcile.Pair{{UUID: "uuid-1", Username: "alice", EgressStatus: "SUCCESS"}},
		},
		Stats: stats.Report{Overall: stats.Group{Total: 1, Succeeded: 1, SuccessRate: 100}},
	}
}

func TestReportCmd(t *testing.T) {
	configPath, _ := testWriteConfig(t)
	output := filepath.Join(t.TempDir(), "report.html")

	m := newMockExecs()
	m.On("Report", mock.Anything, mock.Anything).Return(testReportResults(), nil)

	cmd, err := rootCmd(m)
	require.NoError(t, err)
	cmd.SetArgs([]string{"report", "--config-file", configPath, "--timespan", "24h", "--output", output})
	require.NoError(t, cmd.Execute())

	m.AssertNumberOfCalls(t, "Report", 1)
	opts := m.Calls[0].Arguments.Get(1).(core.ReportOptions)
	assert.Equal(t, "ingress-db", opts.Ingress.Host)
	assert.Equal(t, "egress-db", opts.Egress.Host)
	assert.InDelta(t, 24*time.Hour.Seconds(), opts.To.Sub(opts.From).Seconds(), 1)
	require.Len(t, opts.Jobs, 1)

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(content), "uuid-1")
}

func TestReportCmdJSON(t *testing.T) {
	configPath, _ := testWriteConfig(t)
	output := filepath.Join(t.TempDir(), "report.json")

	m := newMockExecs()
	m.On("Report", mock.Anything, mock.Anything).Return(testReportResults(), nil)

	cmd, err := rootCmd(m)
	require.NoError(t, err)
	cmd.SetArgs([]string{"report", "--config-file", configPath, "--format", "json", "--output", output})
	require.NoError(t, cmd.Execute())

	content, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"uuid": "uuid-1"`)
}

func TestReportCmdExplicitWindow(t *testing.T) {
	configPath, _ := testWriteConfig(t)
	output := filepath.Join(t.TempDir(), "report.json")

	m := newMockExecs()
	m.On("Report", mock.Anything, mock.Anything).Return(testReportResults(), nil)

	cmd, err := rootCmd(m)
	require.NoError(t, err)
	cmd.SetArgs([]string{
		"report", "--config-file", configPath, "--format", "json", "--output", output,
		"--from", "2026-08-20T00:00:00Z", "--to", "2026-08-21T00:00:00Z",
	})
	require.NoError(t, cmd.Execute())

	opts := m.Calls[0].Arguments.Get(1).(core.ReportOptions)
	assert.Equal(t, "2026-08-20T00:00:00Z", opts.From.Format(time.RFC3339))
	assert.Equal(t, "2026-08-21T00:00:00Z", opts.To.Format(time.RFC3339))
}

func TestReportCmdInvertedWindow(t *testing.T) {
	configPath, _ := testWriteConfig(t)

	m := newMockExecs()
	cmd, err := rootCmd(m)
	require.NoError(t, err)
	cmd.SetArgs([]string{
		"report", "--config-file", configPath,
		"--from", "2026-08-22T00:00:00Z", "--to", "2026-08-21T00:00:00Z",
	})
	require.Error(t, cmd.Execute())
	m.AssertNumberOfCalls(t, "Report", 0)
}

// A failed reconciliation produces no report file at all, not a partial one.
func TestReportCmdFailureWritesNothing(t *testing.T) {
	configPath, outputDir := testWriteConfig(t)
	output := filepath.Join(outputDir, "report.html")

	m := newMockExecs()
	m.On("Report", mock.Anything, mock.Anything).Return(core.ReportResults{}, assert.AnError)

	cmd, err := rootCmd(m)
	require.NoError(t, err)
	cmd.SetArgs([]string{"report", "--config-file", configPath, "--output", output})
	require.Error(t, cmd.Execute())

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestReportCmdBadFormat(t *testing.T) {
	configPath, _ := testWriteConfig(t)

	m := newMockExecs()
	cmd, err := rootCmd(m)
	require.NoError(t, err)
	cmd.SetArgs([]string{"report", "--config-file", configPath, "--format", "pdf"})
	require.Error(t, cmd.Execute())
	m.AssertNumberOfCalls(t, "Report", 0)
}
