package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/filehose/filehose/pkg/rate"
)

// TransferMode controls whether a job's attempts overlap.
type TransferMode string

const (
	ModeSequential TransferMode = "sequential"
	ModeConcurrent TransferMode = "concurrent"
)

// Duration is a time.Duration that unmarshals from yaml strings like "30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration '%s': %v", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Config is the top-level harness configuration.
type Config struct {
	OutputDir string   `yaml:"output_dir"`
	Tracking  Tracking `yaml:"tracking"`
	Jobs      []Job    `yaml:"jobs"`
}

// Tracking holds the connection details of the two read-only tracking stores
// maintained by the system under test.
type Tracking struct {
	Ingress Store `yaml:"ingress"`
	Egress  Store `yaml:"egress"`
}

type Store struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// CommonJob carries the fields shared by every job type.
type CommonJob struct {
	Username    string `yaml:"username"`
	Directory   string `yaml:"directory"`
	InitialRate string `yaml:"initial_rate"`
	TargetRate  string `yaml:"target_rate"`
	RampRate    string `yaml:"ramp_rate"`
	// Rate is the legacy single-rate field; it sets both initial and target.
	Rate         string       `yaml:"rate"`
	TransferMode TransferMode `yaml:"transfer_mode"`
	MaxTransfers int          `yaml:"max_concurrent_transfers"`
	Timeout      Duration     `yaml:"timeout"`
	Compression  string       `yaml:"compression"`
	// Loop controls whether the directory is drained repeatedly; default true.
	Loop *bool `yaml:"loop"`

	profile rate.Profile
}

// Profile returns the rate profile parsed during Load.
func (c *CommonJob) Profile() rate.Profile {
	return c.profile
}

// Cap returns the effective in-flight concurrency cap for the job.
func (c *CommonJob) Cap() int {
	if c.TransferMode == ModeSequential || c.MaxTransfers < 1 {
		return 1
	}
	return c.MaxTransfers
}

// LoopForever reports whether the job re-drains its directory when exhausted.
func (c *CommonJob) LoopForever() bool {
	return c.Loop == nil || *c.Loop
}

type SSL struct {
	CertPath string `yaml:"cert_path"`
	KeyPath  string `yaml:"key_path"`
}

type HTTPJob struct {
	CommonJob `yaml:",inline"`
	URL       string            `yaml:"url"`
	Method    string            `yaml:"method"`
	SSL       *SSL              `yaml:"ssl"`
	Headers   map[string]string `yaml:"headers"`
}

type SFTPJob struct {
	CommonJob  `yaml:",inline"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	KeyPath    string `yaml:"key_path"`
	Password   string `yaml:"password"`
	RemotePath string `yaml:"remote_path"`
}

type SCPJob struct {
	CommonJob  `yaml:",inline"`
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	KeyPath    string `yaml:"key_path"`
	Password   string `yaml:"password"`
	RemotePath string `yaml:"remote_path"`
}

type S3Job struct {
	CommonJob       `yaml:",inline"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	PathStyle       bool   `yaml:"path_style"`
}

type SMBJob struct {
	CommonJob `yaml:",inline"`
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Domain    string `yaml:"domain"`
	Password  string `yaml:"password"`
	Share     string `yaml:"share"`
	Path      string `yaml:"path"`
}

// Job is one configured workload. Exactly one of the typed configs is set,
// matching Type.
type Job struct {
	Name    string
	Type    string
	Enabled bool

	HTTP *HTTPJob
	SFTP *SFTPJob
	SCP  *SCPJob
	S3   *S3Job
	SMB  *SMBJob
}

// jobHead is the envelope common to every job entry; the typed config block
// is decoded in a second pass once the type is known.
type jobHead struct {
	Name    string    `yaml:"name"`
	Type    string    `yaml:"type"`
	Enabled bool      `yaml:"enabled"`
	Config  yaml.Node `yaml:"config"`
}

func (j *Job) UnmarshalYAML(value *yaml.Node) error {
	var head jobHead
	if err := value.Decode(&head); err != nil {
		return err
	}
	j.Name = head.Name
	j.Type = head.Type
	j.Enabled = head.Enabled
	if head.Config.IsZero() {
		return fmt.Errorf("job %s: missing config block", head.Name)
	}
	switch head.Type {
	case "http", "https":
		j.HTTP = &HTTPJob{}
		return head.Config.Decode(j.HTTP)
	case "sftp":
		j.SFTP = &SFTPJob{}
		return head.Config.Decode(j.SFTP)
	case "scp":
		j.SCP = &SCPJob{}
		return head.Config.Decode(j.SCP)
	case "s3":
		j.S3 = &S3Job{}
		return head.Config.Decode(j.S3)
	case "smb":
		j.SMB = &SMBJob{}
		return head.Config.Decode(j.SMB)
	default:
		return fmt.Errorf("job %s: unknown job type: %s", head.Name, head.Type)
	}
}

// Common returns the shared fields of whichever typed config is set.
func (j *Job) Common() *CommonJob {
	switch {
	case j.HTTP != nil:
		return &j.HTTP.CommonJob
	case j.SFTP != nil:
		return &j.SFTP.CommonJob
	case j.SCP != nil:
		return &j.SCP.CommonJob
	case j.S3 != nil:
		return &j.S3.CommonJob
	case j.SMB != nil:
		return &j.SMB.CommonJob
	}
	return nil
}
