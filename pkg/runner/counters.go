package runner

import (
	"sync/atomic"

	"github.com/filehose/filehose/pkg/transport"
)

// Counters accumulates per-outcome attempt counts. Attempts record
// concurrently, so the fields are atomics; readers take a Snapshot.
type Counters struct {
	success atomic.Int64
	failed  atomic.Int64
	timeout atomic.Int64
	errored atomic.Int64
}

func (c *Counters) Record(status transport.Status) {
	switch status {
	case transport.StatusSuccess:
		c.success.Add(1)
	case transport.StatusFailed:
		c.failed.Add(1)
	case transport.StatusTimeout:
		c.timeout.Add(1)
	default:
		c.errored.Add(1)
	}
}

// Snapshot is a point-in-time copy of the counters, safe to merge and pass
// around by value.
type Snapshot struct {
	Total   int64 `json:"total"`
	Success int64 `json:"success"`
	Failed  int64 `json:"failed"`
	Timeout int64 `json:"timeout"`
	Error   int64 `json:"error"`
}

func (c *Counters) Snapshot() Snapshot {
	s := Snapshot{
		Success: c.success.Load(),
		Failed:  c.failed.Load(),
		Timeout: c.timeout.Load(),
		Error:   c.errored.Load(),
	}
	s.Total = s.Success + s.Failed + s.Timeout + s.Error
	return s
}

// Add merges another snapshot into this one.
func (s Snapshot) Add(o Snapshot) Snapshot {
	s.Total += o.Total
	s.Success += o.Success
	s.Failed += o.Failed
	s.Timeout += o.Timeout
	s.Error += o.Error
	return s
}
