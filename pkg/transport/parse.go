package transport

import (
	"fmt"

	"github.com/filehose/filehose/pkg/config"
)

// New builds the transport for a job, switching on its configured type.
func New(job *config.Job) (Transport, error) {
	switch {
	case job.HTTP != nil:
		return NewHTTP(job.HTTP)
	case job.SFTP != nil:
		return NewSFTP(job.SFTP)
	case job.SCP != nil:
		return NewSCP(job.SCP)
	case job.S3 != nil:
		return NewS3(job.S3)
	case job.SMB != nil:
		return NewSMB(job.SMB)
	}
	return nil, fmt.Errorf("job %s: no transport configuration", job.Name)
}
