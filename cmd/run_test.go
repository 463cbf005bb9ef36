package cmd

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/filehose/filehose/pkg/core"
	"github.com/filehose/filehose/pkg/runner"
)

func TestRunCmd(t *testing.T) {
	configPath, outputDir := testWriteConfig(t)

	m := newMockExecs()
	m.On("Run", mock.Anything, mock.Anything).Return(core.RunResults{
		Run:   uuid.New(),
		Total: runner.Snapshot{Total: 4, Success: 4},
	}, nil)

	cmd, err := rootCmd(m)
	require.NoError(t, err)
	cmd.SetArgs([]string{"run", "--config-file", configPath, "--duration", "5s", "--grace", "10s"})
	require.NoError(t, cmd.Execute())

	m.AssertNumberOfCalls(t, "Run", 1)
	opts := m.Calls[0].Arguments.Get(1).(core.RunOptions)
	assert.Equal(t, 5*time.Second, opts.Duration)
	assert.Equal(t, 10*time.Second, opts.Grace)
	require.Len(t, opts.Jobs, 1)
	assert.Equal(t, "http-load", opts.Jobs[0].Name)
	assert.NotEqual(t, uuid.Nil, opts.Run)

	// the run summary lands in the configured output directory
	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Name(), "run_")
}

func TestRunCmdNoJobs(t *testing.T) {
	m := newMockExecs()
	cmd, err := rootCmd(m)
	require.NoError(t, err)
	cmd.SetArgs([]string{"run"})
	err = cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no jobs configured")
	m.AssertNumberOfCalls(t, "Run", 0)
}

func TestRunCmdExecutorFailure(t *testing.T) {
	configPath, outputDir := testWriteConfig(t)

	m := newMockExecs()
	m.On("Run", mock.Anything, mock.Anything).Return(core.RunResults{}, assert.AnError)

	cmd, err := rootCmd(m)
	require.NoError(t, err)
	cmd.SetArgs([]string{"run", "--config-file", configPath})
	require.Error(t, cmd.Execute())

	// a failed run writes no summary
	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunCmdScheduleFlagsConflict(t *testing.T) {
	configPath, _ := testWriteConfig(t)

	m := newMockExecs()
	cmd, err := rootCmd(m)
	require.NoError(t, err)
	cmd.SetArgs([]string{"run", "--config-file", configPath, "--once", "--cron", "0 * * * *"})
	assert.Error(t, cmd.Execute())
}
