package transport

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/sftp"

	"github.com/filehose/filehose/pkg/compression"
	"github.com/filehose/filehose/pkg/config"
)

// SFTPSender puts files into one remote directory over a cached SFTP
// session. The session belongs to this sender alone; it is reused across
// attempts and reopened after a failure. The sftp client is safe for
// concurrent callers, so only (re)connecting is serialized.
type SFTPSender struct {
	target     sshTarget
	remotePath string
	timeout    time.Duration
	compressor compression.Compressor

	mu     sync.Mutex
	client *sftp.Client
	closer io.Closer
}

func NewSFTP(job *config.SFTPJob) (*SFTPSender, error) {
	compressor, err := compression.GetCompressor(job.Compression)
	if err != nil {
		return nil, err
	}
	return &SFTPSender{
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

func (s *SFTPSender) Protocol() string {
	return "sftp"
}

func (s *SFTPSender) Send(ctx context.Context, filePath string, id Identity) Outcome {
	return RunWithDeadline(ctx, s.timeout, func() Outcome {
		start := time.Now()
		if err := s.put(filePath); err != nil {
			s.reset()
			return Outcome{Status: StatusFailed, Duration: time.Since(start), Err: err}
		}
		return Outcome{Status: StatusSuccess, Duration: time.Since(start)}
	})
}

func (s *SFTPSender) put(filePath string) error {
	client, err := s.getClient()
	if err != nil {
		return err
	}
	src, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", filePath, err)
	}
	defer src.Close()

	remote := path.Join(s.remotePath, filepath.Base(filePath)+s.compressor.Extension())
	dst, err := client.Create(remote)
	if err != nil {
		return fmt.Errorf("failed to create remote file %s: %w", remote, err)
	}
	w, err := s.compressor.Compress(dst)
	if err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to create compressor: %w", err)
	}
	if _, err := io.Copy(w, src); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to write remote file %s: %w", remote, err)
	}
	if err := w.Close(); err != nil {
		_ = dst.Close()
		return fmt.Errorf("failed to finish remote file %s: %w", remote, err)
	}
	return dst.Close()
}

// getClient returns the cached session, dialing a fresh one if needed.
func (s *SFTPSender) getClient() (*sftp.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	sshClient, err := dialSSH(s.target)
	if err != nil {
		return nil, err
	}
	client, err := sftp.NewClient(sshClient)
	if err != nil {
		_ = sshClient.Close()
		return nil, fmt.Errorf("failed to start sftp subsystem: %w", err)
	}
	s.client = client
	s.closer = sshClient
	return client, nil
}

// reset drops the cached session so the next attempt reconnects.
func (s *SFTPSender) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		_ = s.client.Close()
		s.client = nil
	}
	if s.closer != nil {
		_ = s.closer.Close()
		s.closer = nil
	}
}

// Close releases the cached session, if any.
func (s *SFTPSender) Close() error {
	s.reset()
	return nil
}
