package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/filehose/filehose/pkg/core"
)

type mockExecs struct {
	mock.Mock
	logger *log.Logger
}

func newMockExecs() *mockExecs {
	m := &mockExecs{}
	return m
}

func (m *mockExecs) SetLogger(logger *log.Logger) {
	m.logger = logger
}

func (m *mockExecs) GetLogger() *log.Logger {
	return m.logger
}

func (m *mockExecs) Run(ctx context.Context, opts core.RunOptions) (core.RunResults, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).(core.RunResults), args.Error(1)
}

func (m *mockExecs) Report(ctx context.Context, opts core.ReportOptions) (core.ReportResults, error) {
	args := m.Called(ctx, opts)
	return args.Get(0).(core.ReportResults), args.Error(1)
}

const testConfig = `
output_dir: %s
tracking:
  ingress:
    host: ingress-db
    port: 3306
    database: tracking
    username: monitor
    password: secret
  egress:
    host: egress-db
    port: 3306
    database: tracking
    username: monitor
    password: secret
jobs:
  - name: http-load
    type: http
    enabled: true
    config:
      username: alice
      directory: /data/http
      url: http://upload.example.com
      target_rate: 10/hour
`

// testWriteConfig writes a config file whose output_dir points at a temp dir,
// returning both paths.
func testWriteConfig(t *testing.T) (configPath, outputDir string) {
	t.Helper()
	outputDir = t.TempDir()
	configPath = filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf(testConfig, outputDir)), 0o600))
	return configPath, outputDir
}
