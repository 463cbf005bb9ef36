package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/filehose/filehose/pkg/rate"
)

const defaultOutputDir = "./output"

// Load reads and validates a harness configuration. Every validation failure
// is fatal here, before any job starts.
func Load(r io.Reader) (*Config, error) {
	var c Config
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&c); err != nil {
		return nil, fmt.Errorf("unable to parse config: %w", err)
	}
	if c.OutputDir == "" {
		c.OutputDir = defaultOutputDir
	}
	names := map[string]bool{}
	for i := range c.Jobs {
		job := &c.Jobs[i]
		if job.Name == "" {
			return nil, fmt.Errorf("job %d: name is required", i)
		}
		if names[job.Name] {
			return nil, fmt.Errorf("duplicate job name: %s", job.Name)
		}
		names[job.Name] = true
		if err := validateJob(job); err != nil {
			return nil, fmt.Errorf("job %s: %w", job.Name, err)
		}
	}
	return &c, nil
}

// LoadFile is a convenience wrapper around Load for a config file path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fatal error config file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

func validateJob(job *Job) error {
	common := job.Common()
	if common == nil {
		return fmt.Errorf("missing config block")
	}
	if common.Username == "" {
		return fmt.Errorf("username is required")
	}
	if common.Directory == "" {
		return fmt.Errorf("directory is required")
	}
	switch common.TransferMode {
	case "", ModeSequential, ModeConcurrent:
	default:
		return fmt.Errorf("invalid transfer_mode: %s", common.TransferMode)
	}
	if common.TransferMode == "" {
		common.TransferMode = ModeSequential
	}
	if common.MaxTransfers < 0 {
		return fmt.Errorf("max_concurrent_transfers must be at least 1")
	}

	// the legacy single "rate" field sets a constant rate
	initial, target := common.InitialRate, common.TargetRate
	if common.Rate != "" {
		if initial != "" || target != "" {
			return fmt.Errorf("rate cannot be combined with initial_rate/target_rate")
		}
		initial, target = common.Rate, common.Rate
	}
	profile, err := rate.ParseProfile(initial, target, common.RampRate)
	if err != nil {
		return err
	}
	if err := profile.Validate(); err != nil {
		return err
	}
	common.profile = profile

	switch {
	case job.HTTP != nil:
		if job.HTTP.URL == "" {
			return fmt.Errorf("url is required")
		}
		if job.HTTP.Method == "" {
			job.HTTP.Method = "POST"
		}
		if ssl := job.HTTP.SSL; ssl != nil && (ssl.CertPath == "") != (ssl.KeyPath == "") {
			return fmt.Errorf("ssl requires both cert_path and key_path")
		}
	case job.SFTP != nil:
		if job.SFTP.Host == "" {
			return fmt.Errorf("host is required")
		}
		if job.SFTP.Port == 0 {
			job.SFTP.Port = 22
		}
		if err := oneAuth(job.SFTP.KeyPath, job.SFTP.Password); err != nil {
			return err
		}
	case job.SCP != nil:
		if job.SCP.Host == "" {
			return fmt.Errorf("host is required")
		}
		if job.SCP.Port == 0 {
			job.SCP.Port = 22
		}
		if err := oneAuth(job.SCP.KeyPath, job.SCP.Password); err != nil {
			return err
		}
	case job.S3 != nil:
		if job.S3.Bucket == "" {
			return fmt.Errorf("bucket is required")
		}
	case job.SMB != nil:
		if job.SMB.Host == "" {
			return fmt.Errorf("host is required")
		}
		if job.SMB.Share == "" {
			return fmt.Errorf("share is required")
		}
	}
	return nil
}

// oneAuth enforces exactly one of key file or password for ssh-based jobs.
func oneAuth(keyPath, password string) error {
	if keyPath == "" && password == "" {
		return fmt.Errorf("one of key_path or password is required")
	}
	if keyPath != "" && password != "" {
		return fmt.Errorf("key_path and password are mutually exclusive")
	}
	return nil
}
