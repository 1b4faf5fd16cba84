// internal/status/mode.go
package status

// Mode is the device-wide operating mode reported by the calibration status word.
type Mode int32

const (
	ModeUnknown Mode = iota
	ModeMeasuring
	ModeZeroCalibrating
	ModeSpanCalibrating
)

// Status words as the device reports them.
const (
	WordMeasuring       uint16 = 0
	WordZeroCalibrating uint16 = 1
	WordSpanCalibrating uint16 = 2
)

func (m Mode) String() string {
	switch m {
	case ModeMeasuring:
		return "measuring"
	case ModeZeroCalibrating:
		return "zero-calibrating"
	case ModeSpanCalibrating:
		return "span-calibrating"
	default:
		return "unknown"
	}
}

// ModeFromWord maps a calibration status word to a Mode.
// Anything outside 0..2 is ModeUnknown.
func ModeFromWord(w uint16) Mode {
	switch w {
	case WordMeasuring:
		return ModeMeasuring
	case WordZeroCalibrating:
		return ModeZeroCalibrating
	case WordSpanCalibrating:
		return ModeSpanCalibrating
	default:
		return ModeUnknown
	}
}

// QualityFor is the default quality of every attribute on a successful tick.
func QualityFor(m Mode) Quality {
	switch m {
	case ModeMeasuring:
		return QualityNormal
	case ModeZeroCalibrating:
		return QualityZeroCalibration
	case ModeSpanCalibrating:
		return QualitySpanCalibration
	default:
		return QualityEmpty
	}
}
