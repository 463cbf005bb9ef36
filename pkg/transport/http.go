package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/filehose/filehose/pkg/compression"
	"github.com/filehose/filehose/pkg/config"
)

// HTTPSender submits files with the configured method against one URL.
// The client, and therefore its connection pool, is owned by this sender
// alone, so a slow destination on one job cannot block another job's pool.
type HTTPSender struct {
	url        string
	method     string
	headers    map[string]string
	timeout    time.Duration
	client     *http.Client
	compressor compression.Compressor
}

func NewHTTP(job *config.HTTPJob) (*HTTPSender, error) {
	tr := &http.Transport{}
	if job.SSL != nil && job.SSL.CertPath != "" {
		cert, err := tls.LoadX509KeyPair(job.SSL.CertPath, job.SSL.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load client certificate: %w", err)
		}
		tr.TLSClientConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}
	compressor, err := compression.GetCompressor(job.Compression)
	if err != nil {
		return nil, err
	}
	return &HTTPSender{
		url:        job.URL,
		method:     job.Method,
		headers:    job.Headers,
		timeout:    job.Timeout.Duration(),
		client:     &http.Client{Transport: tr},
		compressor: compressor,
	}, nil
}

func (s *HTTPSender) Protocol() string {
	return "http"
}

func (s *HTTPSender) Send(ctx context.Context, filePath string, id Identity) Outcome {
	start := time.Now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	body, err := readBody(filePath, s.compressor)
	if err != nil {
		return Outcome{Status: StatusFailed, Duration: time.Since(start), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, s.method, s.url, bytes.NewReader(body))
	if err != nil {
		return Outcome{Status: StatusFailed, Duration: time.Since(start), Err: err}
	}
	replacer := strings.NewReplacer(
		"{{uuid}}", id.UUID,
		"{{filename}}", id.Filename,
		"{{username}}", id.Username,
	)
	for k, v := range s.headers {
		req.Header.Set(k, replacer.Replace(v))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		// connection failures and deadlines are attempt outcomes, never
		// errors that abort the calling job
		return Outcome{Status: Classify(err), Duration: time.Since(start), Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Outcome{
			Status:   StatusFailed,
			Duration: time.Since(start),
			Err:      fmt.Errorf("unexpected response status: %s", resp.Status),
		}
	}
	return Outcome{Status: StatusSuccess, Duration: time.Since(start)}
}

// readBody loads the file, compressing it when the job asks for it.
func readBody(filePath string, compressor compression.Compressor) ([]byte, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file %s: %w", filePath, err)
	}
	defer f.Close()
	var buf bytes.Buffer
	w, err := compressor.Compress(&buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create compressor: %w", err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return nil, fmt.Errorf("failed to read source file %s: %w", filePath, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish compression: %w", err)
	}
	return buf.Bytes(), nil
}
