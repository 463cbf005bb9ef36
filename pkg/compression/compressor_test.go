package compression

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCompressor(t *testing.T) {
	tests := []struct {
		name string
		ext  string
		err  bool
	}{
		{"", "", false},
		{"none", "", false},
		{"gzip", ".gz", false},
		{"bzip2", ".bz2", false},
		{"zstd", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := GetCompressor(tt.name)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ext, c.Extension())
		})
	}
}

func compress(t *testing.T, name string, payload []byte) []byte {
	t.Helper()
	c, err := GetCompressor(name)
	require.NoError(t, err)
	var buf bytes.Buffer
	w, err := c.Compress(&buf)
	require.NoError(t, err)
	_, err = w.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestGzipRoundTrip(t *testing.T) {
	payload := []byte("a payload worth compressing, a payload worth compressing")
	r, err := gzip.NewReader(bytes.NewReader(compress(t, "gzip", payload)))
	require.NoError(t, err)
	decoded, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestBzip2RoundTrip(t *testing.T) {
	payload := []byte("a payload worth compressing, a payload worth compressing")
	decoded, err := io.ReadAll(bzip2.NewReader(bytes.NewReader(compress(t, "bzip2", payload))))
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestNonePassesThrough(t *testing.T) {
	payload := []byte("untouched")
	assert.Equal(t, payload, compress(t, "none", payload))
}
