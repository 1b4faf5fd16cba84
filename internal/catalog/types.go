// internal/catalog/types.go
package catalog

import (
	"github.com/tamzrod/calpoller/internal/bus"
	"github.com/tamzrod/calpoller/internal/codec"
	"github.com/tamzrod/calpoller/internal/poller"
)

// Segment names shared by the calibrating types.
const (
	SegmentCalibrationStatus  = "calibration_status"
	SegmentCalibrationTargets = "calibration_targets"
)

var gasAnalyzer = Type{
	Name: "gas-analyzer",
	Segments: []SegmentSpec{
		{
			Segment: poller.Segment{
				Name:   "measurements",
				Block:  poller.Block{Label: "float parameters", FC: bus.FCReadInput, Address: 0, Quantity: 10},
				Layout: codec.Layout{Encoding: codec.FloatSwapped},
			},
			Attributes: []Attribute{
				{Name: "concentration", Unit: "ppm"},
				{Name: "temperature", Unit: "degC"},
				{Name: "pressure", Unit: "kPa"},
				{Name: "flow", Unit: "l/min"},
				{Name: "sensor_signal", Unit: "mV"},
			},
		},
		{
			Segment: poller.Segment{
				Name:   SegmentCalibrationStatus,
				Block:  poller.Block{Label: "calibration status", FC: bus.FCReadHolding, Address: 100, Quantity: 1},
				Layout: codec.Layout{Encoding: codec.Uint16},
			},
			Attributes: []Attribute{
				{Name: "calibration_mode", Kind: KindInteger},
			},
		},
		{
			Segment: poller.Segment{
				Name:   SegmentCalibrationTargets,
				Block:  poller.Block{Label: "calibration concentration", FC: bus.FCReadHolding, Address: 102, Quantity: 4},
				Layout: codec.Layout{Encoding: codec.FloatSwapped},
			},
			Attributes: []Attribute{
				{Name: "zero_target", Unit: "ppm", Guard: GuardZero},
				{Name: "span_target", Unit: "ppm", Guard: GuardSpan},
			},
		},
		{
			Segment: poller.Segment{
				Name:   "diagnostics",
				Block:  poller.Block{Label: "diagnostic words", FC: bus.FCReadInput, Address: 40, Quantity: 3},
				Layout: codec.Layout{Encoding: codec.Uint16},
			},
			Attributes: []Attribute{
				{Name: "operating_hours", Unit: "h", Kind: KindInteger},
				{Name: "error_flags", Kind: KindInteger},
				{Name: "lamp_intensity", Unit: "%", Kind: KindInteger},
			},
		},
	},
	ModeSegment: SegmentCalibrationStatus,
	Calibration: &Calibration{
		ModeRegister:       100,
		ZeroTargetRegister: 102,
		SpanTargetRegister: 104,
		TriggerRegister:    110,
		MeasureValue:       0,
		ZeroValue:          1,
		SpanValue:          2,
		TriggerValue:       1,
		TargetEncoding:     codec.FloatSwapped,
		DefaultZeroTarget:  0,
		DefaultSpanTarget:  400,
	},
}

var gasCalibrator = Type{
	Name: "gas-calibrator",
	Segments: []SegmentSpec{
		{
			Segment: poller.Segment{
				Name:   "outputs",
				Block:  poller.Block{Label: "generator outputs", FC: bus.FCReadInput, Address: 0, Quantity: 6},
				Layout: codec.Layout{Encoding: codec.FloatBigEndian},
			},
			Attributes: []Attribute{
				{Name: "output_concentration", Unit: "ppm"},
				{Name: "dilution_flow", Unit: "l/min"},
				{Name: "source_pressure", Unit: "kPa"},
			},
		},
		{
			Segment: poller.Segment{
				Name:   SegmentCalibrationStatus,
				Block:  poller.Block{Label: "generator mode", FC: bus.FCReadHolding, Address: 50, Quantity: 1},
				Layout: codec.Layout{Encoding: codec.Uint16},
			},
			Attributes: []Attribute{
				{Name: "calibration_mode", Kind: KindInteger},
			},
		},
		{
			Segment: poller.Segment{
				Name:   SegmentCalibrationTargets,
				Block:  poller.Block{Label: "generator setpoints", FC: bus.FCReadHolding, Address: 52, Quantity: 4},
				Layout: codec.Layout{Encoding: codec.FloatBigEndian},
			},
			Attributes: []Attribute{
				{Name: "zero_target", Unit: "ppm", Guard: GuardZero},
				{Name: "span_target", Unit: "ppm", Guard: GuardSpan},
			},
		},
	},
	ModeSegment: SegmentCalibrationStatus,
	Calibration: &Calibration{
		ModeRegister:       50,
		ZeroTargetRegister: 52,
		SpanTargetRegister: 54,
		TriggerRegister:    60,
		MeasureValue:       0,
		ZeroValue:          1,
		SpanValue:          2,
		TriggerValue:       1,
		TargetEncoding:     codec.FloatBigEndian,
		DefaultZeroTarget:  0,
		DefaultSpanTarget:  400,
	},
}

var powerStabilizer = Type{
	Name: "power-stabilizer",
	Segments: []SegmentSpec{
		{
			Segment: poller.Segment{
				Name:  "electrical",
				Block: poller.Block{Label: "electrical values", FC: bus.FCReadInput, Address: 0, Quantity: 6},
				Layout: codec.Layout{Fields: []codec.Field{
					{Offset: 0, Encoding: codec.FloatBigEndian},
					{Offset: 2, Encoding: codec.FloatBigEndian},
					{Offset: 4, Encoding: codec.Uint16, Scale: 10},
					{Offset: 5, Encoding: codec.Uint16},
				}},
			},
			Attributes: []Attribute{
				{Name: "output_voltage", Unit: "V"},
				{Name: "input_voltage", Unit: "V"},
				{Name: "frequency", Unit: "Hz"},
				{Name: "load", Unit: "%", Kind: KindInteger},
			},
		},
		{
			Segment: poller.Segment{
				Name:   "counters",
				Block:  poller.Block{Label: "counters", FC: bus.FCReadInput, Address: 20, Quantity: 2},
				Layout: codec.Layout{Encoding: codec.Uint16},
			},
			Attributes: []Attribute{
				{Name: "operating_hours", Unit: "h", Kind: KindInteger},
				{Name: "fault_count", Kind: KindInteger},
			},
		},
	},
}
