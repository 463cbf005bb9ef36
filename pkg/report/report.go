// Package report renders reconciliation results to a file. Rendering happens
// entirely in memory and the output file is written in one shot at the end,
// so a failed report never leaves a partial file behind.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/filehose/filehose/pkg/core"
)

type Format string

const (
	FormatHTML Format = "html"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name from the command line.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatHTML, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown report format %q, must be one of: html, json", s)
	}
}

// Write renders the results in the given format and writes them to path,
// creating parent directories as needed.
func Write(results core.ReportResults, format Format, path string) error {
	var buf bytes.Buffer
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return fmt.Errorf("failed to encode report: %v", err)
		}
	case FormatHTML:
		if err := renderHTML(&buf, results); err != nil {
			return fmt.Errorf("failed to render report: %v", err)
		}
	default:
		return fmt.Errorf("unknown report format %q", format)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create report directory %s: %v", dir, err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write report to %s: %v", path, err)
	}
	return nil
}
