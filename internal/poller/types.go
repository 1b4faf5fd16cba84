// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/calpoller/internal/codec"
)

// Block describes one contiguous register read.
// Geometry only: no semantics.
type Block struct {
	Label    string
	FC       uint8
	Address  uint16
	Quantity uint16
}

// Segment is a named block plus the layout its words decode with.
type Segment struct {
	Name   string
	Block  Block
	Layout codec.Layout
}

// Decoded is the decoded form of one segment for one tick.
// Values are positional: Values[i] belongs to the i-th attribute of the segment.
type Decoded struct {
	Name   string
	Words  []uint16
	Values []float64

	// Padded is set when the device returned a payload of the wrong size
	// and Words was zero-filled or truncated to the block quantity.
	Padded bool
}

// Result is the outcome of one poll cycle.
type Result struct {
	DeviceID string
	At       time.Time

	// Segments holds every segment that was read; a missing name means that read failed.
	Segments map[string]Decoded
	Failures map[string]error

	SuccessCount int
	TotalCount   int

	Err error // ErrCommunication when no segment was read
}

// Segment returns the decoded segment for name, if it was read.
func (r Result) Segment(name string) (Decoded, bool) {
	d, ok := r.Segments[name]
	return d, ok
}
