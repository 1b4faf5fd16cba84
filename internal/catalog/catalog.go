// internal/catalog/catalog.go
package catalog

import (
	"sort"

	"github.com/tamzrod/calpoller/internal/codec"
	"github.com/tamzrod/calpoller/internal/poller"
)

// Kind is the value type an attribute is published as.
type Kind uint8

const (
	KindFloat Kind = iota
	KindInteger
)

// GuardKey names the calibration target an attribute mirrors.
// Guarded attributes publish the last written value during the protection window.
type GuardKey string

const (
	GuardNone GuardKey = ""
	GuardZero GuardKey = "zero"
	GuardSpan GuardKey = "span"
)

// Attribute is one published value. Its position in SegmentSpec.Attributes
// is its position in the decoded segment.
type Attribute struct {
	Name  string
	Unit  string
	Kind  Kind
	Guard GuardKey
}

// SegmentSpec pairs a segment with its ordered attribute names.
type SegmentSpec struct {
	Segment    poller.Segment
	Attributes []Attribute
}

// Calibration is the command table of a device type.
type Calibration struct {
	ModeRegister       uint16
	ZeroTargetRegister uint16
	SpanTargetRegister uint16
	TriggerRegister    uint16

	MeasureValue uint16
	ZeroValue    uint16
	SpanValue    uint16
	TriggerValue uint16

	TargetEncoding codec.Encoding
	TargetScale    float64

	DefaultZeroTarget float64
	DefaultSpanTarget float64
}

// Type is the static description of one device type.
type Type struct {
	Name     string
	Segments []SegmentSpec

	// ModeSegment names the segment whose first value is the calibration
	// status word. Empty for types that are always measuring.
	ModeSegment string

	// Calibration is nil for types without calibration commands.
	Calibration *Calibration
}

// PollerSegments returns the segments in read order.
func (t Type) PollerSegments() []poller.Segment {
	out := make([]poller.Segment, len(t.Segments))
	for i, s := range t.Segments {
		out[i] = s.Segment
	}
	return out
}

// Attributes returns every attribute in segment order.
func (t Type) Attributes() []Attribute {
	var out []Attribute
	for _, s := range t.Segments {
		out = append(out, s.Attributes...)
	}
	return out
}

var types = map[string]Type{
	gasAnalyzer.Name:     gasAnalyzer,
	gasCalibrator.Name:   gasCalibrator,
	powerStabilizer.Name: powerStabilizer,
}

// Lookup returns the device type registered under name.
func Lookup(name string) (Type, bool) {
	t, ok := types[name]
	return t, ok
}

// Names lists the known device types, sorted.
func Names() []string {
	out := make([]string, 0, len(types))
	for n := range types {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Guarded reports whether any attribute of t mirrors the calibration target key.
func (t Type) Guarded(key GuardKey) bool {
	for _, a := range t.Attributes() {
		if key != GuardNone && a.Guard == key {
			return true
		}
	}
	return false
}
