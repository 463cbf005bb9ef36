package transport

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filehose/filehose/pkg/config"
)

func testStartS3(t *testing.T) (gofakes3.Backend, string) {
	t.Helper()
	backend := s3mem.New()
	faker := gofakes3.New(backend)
	server := httptest.NewServer(faker.Server())
	t.Cleanup(server.Close)
	require.NoError(t, backend.CreateBucket("uploads"))
	return backend, server.URL
}

func testS3Job(endpoint string) *config.S3Job {
	job := &config.S3Job{
		Bucket:          "uploads",
		Prefix:          "incoming",
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		PathStyle:       true,
	}
	job.Username = "loaduser"
	return job
}

func TestS3Send(t *testing.T) {
	backend, endpoint := testStartS3(t)
	filePath := testWriteFile(t, "to the bucket")

	sender, err := NewS3(testS3Job(endpoint))
	require.NoError(t, err)

	out := sender.Send(context.Background(), filePath, Identity{UUID: "uuid-s3"})
	require.Equal(t, StatusSuccess, out.Status)
	assert.NoError(t, out.Err)

	obj, err := backend.GetObject("uploads", "incoming/payload.bin", nil)
	require.NoError(t, err)
	defer obj.Contents.Close()
	content, err := io.ReadAll(obj.Contents)
	require.NoError(t, err)
	assert.Equal(t, []byte("to the bucket"), content)
}

func TestS3SendCompressed(t *testing.T) {
	backend, endpoint := testStartS3(t)
	filePath := testWriteFile(t, "compressed to the bucket")

	job := testS3Job(endpoint)
	job.Compression = "gzip"
	sender, err := NewS3(job)
	require.NoError(t, err)

	out := sender.Send(context.Background(), filePath, Identity{UUID: "u"})
	require.Equal(t, StatusSuccess, out.Status)

	_, err = backend.GetObject("uploads", "incoming/payload.bin.gz", nil)
	assert.NoError(t, err)
}

func TestS3SendMissingBucket(t *testing.T) {
	_, endpoint := testStartS3(t)
	filePath := testWriteFile(t, "nowhere")

	job := testS3Job(endpoint)
	job.Bucket = "missing"
	sender, err := NewS3(job)
	require.NoError(t, err)

	out := sender.Send(context.Background(), filePath, Identity{UUID: "u"})
	assert.Equal(t, StatusFailed, out.Status)
	assert.Error(t, out.Err)
}
