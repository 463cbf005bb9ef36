package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cloudsoda/go-smb2"

	"github.com/filehose/filehose/pkg/compression"
	"github.com/filehose/filehose/pkg/config"
)

const defaultSMBPort = 445

// SMBSender writes files into one share path, dialing per attempt. The smb2
// library has no context support, so attempts run under RunWithDeadline.
type SMBSender struct {
	host       string
	port       int
	domain     string
	username   string
	password   string
	share      string
	path       string
	timeout    time.Duration
	compressor compression.Compressor
}

func NewSMB(job *config.SMBJob) (*SMBSender, error) {
	compressor, err := compression.GetCompressor(job.Compression)
	if err != nil {
		return nil, err
	}
	port := job.Port
	if port == 0 {
		port = defaultSMBPort
	}
	username, domain := job.Username, job.Domain
	// allow DOMAIN\user or DOMAIN;user in the username field
	if domain == "" {
		if idx := strings.IndexAny(username, `\;`); idx >= 0 {
			domain, username = username[:idx], username[idx+1:]
		}
	}
	return &SMBSender{
		host:       job.Host,
		port:       port,
		domain:     domain,
		username:   username,
		password:   job.Password,
		share:      job.Share,
		path:       job.Path,
		timeout:    job.Timeout.Duration(),
		compressor: compressor,
	}, nil
}

func (s *SMBSender) Protocol() string {
	return "smb"
}

func (s *SMBSender) Send(ctx context.Context, filePath string, id Identity) Outcome {
	return RunWithDeadline(ctx, s.timeout, func() Outcome {
		start := time.Now()
		if err := s.put(filePath); err != nil {
			return Outcome{Status: StatusFailed, Duration: time.Since(start), Err: err}
		}
		return Outcome{Status: StatusSuccess, Duration: time.Since(start)}
	})
}

func (s *SMBSender) put(filePath string) error {
	conn, err := net.Dial("tcp", net.JoinHostPort(s.host, strconv.Itoa(s.port)))
	if err != nil {
		return err
	}
	defer conn.Close()

	d := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			Domain:   s.domain,
			User:     s.username,
			Password: s.password,
		},
	}
	smbConn, err := d.Dial(conn)
	if err != nil {
		return fmt.Errorf("failed to dial SMB server: %w", err)
	}
	defer func() { _ = smbConn.Logoff() }()

	fs, err := smbConn.Mount(s.share)
	if err != nil {
		return fmt.Errorf("failed to mount share %s: %w", s.share, err)
	}
	defer func() { _ = fs.Umount() }()

	src, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", filePath, err)
	}
	defer src.Close()

	name := filepath.Base(filePath) + s.compressor.Extension()
	remote := name
	if s.path != "" {
		remote = fmt.Sprintf("%s%c%s", s.path, smb2.PathSeparator, name)
	}
	dst, err := fs.Create(remote)
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
