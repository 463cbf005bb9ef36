package compression

import (
	"fmt"
	"io"
)

// Compressor wraps a payload stream before it is handed to a transport.
// Extension is appended to the transferred filename so the destination can
// tell what it received; it is empty when no compression is applied.
type Compressor interface {
	Compress(out io.Writer) (io.WriteCloser, error)
	Extension() string
}

// GetCompressor returns the compressor for a job's configured algorithm.
// An empty name means no compression.
func GetCompressor(name string) (Compressor, error) {
	switch name {
	case "", "none":
		return &NoCompressor{}, nil
	case "gzip":
		return &GzipCompressor{}, nil
	case "bzip2":
		return &Bzip2Compressor{}, nil
	default:
		return nil, fmt.Errorf("unknown compression format: %s", name)
	}
}
