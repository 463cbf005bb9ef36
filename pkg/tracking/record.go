package tracking

import (
	"time"
)

// Record is one file-tracking row as the store captured it. EndTime is nil
// while the store still considers the file in flight.
type Record struct {
	UUID      string     `json:"uuid"`
	Username  string     `json:"username"`
	Filename  string     `json:"filename"`
	StartTime time.Time  `json:"startTime"`
	EndTime   *time.Time `json:"endTime"`
	Status    string     `json:"status"`
}

// Duration returns the store-side processing time, when both instants are
// known.
func (r Record) Duration() *time.Duration {
	if r.EndTime == nil {
		return nil
	}
	d := r.EndTime.Sub(r.StartTime)
	return &d
}
