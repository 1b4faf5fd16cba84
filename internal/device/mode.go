// internal/device/mode.go
package device

import (
	"github.com/tamzrod/calpoller/internal/journal"
	"github.com/tamzrod/calpoller/internal/poller"
	"github.com/tamzrod/calpoller/internal/status"
)

// updateMode moves the mode from the status word of res.
// A failed status read, or a padded one whose status word is zero fill,
// leaves the last known mode in place.
func (d *Device) updateMode(res poller.Result) {
	name := d.cfg.Type.ModeSegment
	if name == "" {
		return
	}
	dec, ok := res.Segment(name)
	if !ok || dec.Padded || len(dec.Words) == 0 {
		return
	}

	next := status.ModeFromWord(dec.Words[0])
	prev := status.Mode(d.mode.Swap(int32(next)))
	if prev == next {
		return
	}

	d.log.Info().Stringer("from", prev).Stringer("to", next).Uint16("word", dec.Words[0]).Msg("mode changed")
	d.record(journal.KindModeChange, next.String(), "from "+prev.String())
	if d.observer != nil {
		d.observer.ObserveMode(next)
	}
}
