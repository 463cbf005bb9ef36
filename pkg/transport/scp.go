package transport

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	scp "github.com/bramvdbogaerde/go-scp"

	"github.com/filehose/filehose/pkg/compression"
	"github.com/filehose/filehose/pkg/config"
)

// SCPSender copies files with scp over a fresh connection per attempt.
// scp sessions are single-use, so there is nothing to cache; concurrent
// attempts each carry their own connection.
type SCPSender struct {
	target     sshTarget
	remotePath string
	timeout    time.Duration
	compressor compression.Compressor
}

func NewSCP(job *config.SCPJob) (*SCPSender, error) {
	compressor, err := compression.GetCompressor(job.Compression)
	if err != nil {
		return nil, err
	}
	return &SCPSender{
		target: sshTarget{
			host:     job.Host,
			port:     job.Port,
			username: job.Username,
			keyPath:  job.KeyPath,
			password: job.Password,
		},
		remotePath: job.RemotePath,
		timeout:    job.Timeout.Duration(),
		compressor: compressor,
	}, nil
}

func (s *SCPSender) Protocol() string {
	return "scp"
}

func (s *SCPSender) Send(ctx context.Context, filePath string, id Identity) Outcome {
	start := time.Now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.copy(ctx, filePath); err != nil {
		return Outcome{Status: Classify(err), Duration: time.Since(start), Err: err}
	}
	return Outcome{Status: StatusSuccess, Duration: time.Since(start)}
}

func (s *SCPSender) copy(ctx context.Context, filePath string) error {
	sshClient, err := dialSSH(s.target)
	if err != nil {
		return err
	}
	defer func() { _ = sshClient.Close() }()
	client, err := scp.NewClientBySSH(sshClient)
	if err != nil {
		return fmt.Errorf("failed to create SCP client: %w", err)
	}
	defer client.Close()

	// scp needs the payload size up front, so a compressed payload goes
	// through a scratch file first
	source := filePath
	if s.compressor.Extension() != "" {
		compressed, err := s.compressTemp(filePath)
		if err != nil {
			return err
		}
		defer func() { _ = os.Remove(compressed) }()
		source = compressed
	}

	f, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", source, err)
	}
	defer func() { _ = f.Close() }()

	remote := path.Join(s.remotePath, filepath.Base(filePath)+s.compressor.Extension())
	if err := client.CopyFromFile(ctx, *f, remote, "0644"); err != nil {
		return fmt.Errorf("failed to copy file to SCP server: %w", err)
	}
	return nil
}

func (s *SCPSender) compressTemp(filePath string) (string, error) {
	src, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open source file %s: %w", filePath, err)
	}
	defer src.Close()
	tmp, err := os.CreateTemp("", "filehose_scp")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch file: %w", err)
	}
	defer tmp.Close()
	w, err := s.compressor.Compress(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to create compressor: %w", err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return "", fmt.Errorf("failed to compress %s: %w", filePath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finish compression: %w", err)
	}
	return tmp.Name(), nil
}
