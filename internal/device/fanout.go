// internal/device/fanout.go
package device

import (
	"github.com/tamzrod/calpoller/internal/attr"
	"github.com/tamzrod/calpoller/internal/catalog"
	"github.com/tamzrod/calpoller/internal/poller"
	"github.com/tamzrod/calpoller/internal/status"
)

// Fanout maps decoded segments onto attribute names by position.
type Fanout struct {
	segments []catalog.SegmentSpec
	guards   map[catalog.GuardKey]*WriteGuard
	sink     attr.Sink
}

// NewFanout creates a fan-out over segments. guards may be nil.
func NewFanout(segments []catalog.SegmentSpec, guards map[catalog.GuardKey]*WriteGuard, sink attr.Sink) *Fanout {
	return &Fanout{segments: segments, guards: guards, sink: sink}
}

// Apply publishes one poll result.
// A total failure marks every attribute malfunctioning. Otherwise each read
// segment publishes values[i] to names[i] with the quality of mode m, and
// each failed segment marks its own attributes malfunctioning.
func (f *Fanout) Apply(res poller.Result, m status.Mode) {
	if res.SuccessCount == 0 {
		f.MarkAll(status.QualityMalfunction)
		return
	}

	q := status.QualityFor(m)
	for _, spec := range f.segments {
		dec, ok := res.Segment(spec.Segment.Name)
		if !ok {
			for _, a := range spec.Attributes {
				f.sink.SetStatus(a.Name, status.QualityMalfunction)
			}
			continue
		}

		n := min(len(dec.Values), len(spec.Attributes))
		for i := 0; i < n; i++ {
			a := spec.Attributes[i]
			v := dec.Values[i]
			if g := f.guards[a.Guard]; a.Guard != catalog.GuardNone && g != nil {
				v, _ = g.Reconcile(v)
			}
			f.sink.SetValue(a.Name, v, q)
		}
	}
}

// MarkAll sets q on every attribute.
func (f *Fanout) MarkAll(q status.Quality) {
	for _, spec := range f.segments {
		for _, a := range spec.Attributes {
			f.sink.SetStatus(a.Name, q)
		}
	}
}
