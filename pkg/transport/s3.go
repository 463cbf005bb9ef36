package transport

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"

	"github.com/filehose/filehose/pkg/compression"
	"github.com/filehose/filehose/pkg/config"
)

// S3Sender uploads files to one bucket/prefix. The uploader is built once
// per sender and is safe for concurrent callers.
type S3Sender struct {
	bucket     string
	prefix     string
	region     string
	endpoint   string
	accessKey  string
	secretKey  string
	pathStyle  bool
	timeout    time.Duration
	compressor compression.Compressor

	once     sync.Once
	uploader *manager.Uploader
	initErr  error
}

func NewS3(job *config.S3Job) (*S3Sender, error) {
	compressor, err := compression.GetCompressor(job.Compression)
	if err != nil {
		return nil, err
	}
	return &S3Sender{
		bucket:     job.Bucket,
		prefix:     job.Prefix,
		region:     job.Region,
		endpoint:   job.Endpoint,
		accessKey:  job.AccessKeyID,
		secretKey:  job.SecretAccessKey,
		pathStyle:  job.PathStyle,
		timeout:    job.Timeout.Duration(),
		compressor: compressor,
	}, nil
}

func (s *S3Sender) Protocol() string {
	return "s3"
}

func (s *S3Sender) Send(ctx context.Context, filePath string, id Identity) Outcome {
	start := time.Now()
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	uploader, err := s.getUploader(ctx)
	if err != nil {
		return Outcome{Status: StatusFailed, Duration: time.Since(start), Err: err}
	}

	f, err := os.Open(filePath)
	if err != nil {
		return Outcome{Status: StatusFailed, Duration: time.Since(start), Err: err}
	}
	defer f.Close()

	// stream through the compressor without buffering the whole payload
	pr, pw := io.Pipe()
	go func() {
		w, err := s.compressor.Compress(pw)
		if err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(w, f); err != nil {
			_ = pw.CloseWithError(err)
			return
		}
		_ = pw.CloseWithError(w.Close())
	}()

	key := path.Join(s.prefix, filepath.Base(filePath)+s.compressor.Extension())
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   pr,
	})
	if err != nil {
		return Outcome{Status: Classify(err), Duration: time.Since(start), Err: fmt.Errorf("failed to upload file: %w", err)}
	}
	return Outcome{Status: StatusSuccess, Duration: time.Since(start)}
}

func (s *S3Sender) getUploader(ctx context.Context) (*manager.Uploader, error) {
	s.once.Do(func() {
		cfg, err := s.getConfig(ctx)
		if err != nil {
			s.initErr = err
			return
		}
		client := s3.NewFromConfig(cfg, func(o *s3.Options) {
			o.UsePathStyle = s.pathStyle
			if s.endpoint != "" {
				o.BaseEndpoint = aws.String(getEndpoint(s.endpoint))
			}
		})
		s.uploader = manager.NewUploader(client)
	})
	return s.uploader, s.initErr
}

func (s *S3Sender) getConfig(ctx context.Context) (aws.Config, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if s.region != "" {
		opts = append(opts, awsconfig.WithRegion(s.region))
	}
	if s.accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.accessKey, s.secretKey, ""),
		))
	}
	if log.IsLevelEnabled(log.TraceLevel) {
		opts = append(opts, awsconfig.WithClientLogMode(aws.LogRequestWithBody|aws.LogResponse))
	}
	return awsconfig.LoadDefaultConfig(ctx, opts...)
}

func getEndpoint(endpoint string) string {
	// for some reason, the lookup gets flaky when the endpoint is 127.0.0.1
	// so you have to set it to localhost explicitly.
	e := endpoint
	u, err := url.Parse(endpoint)
	if err == nil {
		if u.Hostname() == "127.0.0.1" {
			port := u.Port()
			u.Host = "localhost"
			if port != "" {
				u.Host += ":" + port
			}
			e = u.String()
		}
	}
	return e
}
