// internal/status/constants.go
package status

// Quality codes attached to every published attribute value.
// These values are exported as metrics and MUST NOT be renumbered.

// Quality is the health/mode tag of one attribute.
type Quality uint16

// QualityEmpty means no data yet, or the device mode is unknown.
const QualityEmpty Quality = 0

// QualityNormal means a fresh value read while the device was measuring.
const QualityNormal Quality = 1

// QualityMalfunction means the value could not be read this tick.
const QualityMalfunction Quality = 2

// QualityZeroCalibration means the device is calibrating its zero point.
const QualityZeroCalibration Quality = 3

// QualitySpanCalibration means the device is calibrating its span point.
const QualitySpanCalibration Quality = 4

func (q Quality) String() string {
	switch q {
	case QualityEmpty:
		return "empty"
	case QualityNormal:
		return "normal"
	case QualityMalfunction:
		return "malfunction"
	case QualityZeroCalibration:
		return "zero-calibration"
	case QualitySpanCalibration:
		return "span-calibration"
	default:
		return "invalid"
	}
}

// ---- DEVICE HEALTH CODES ----

// HealthUnknown represents the boot state before the first tick.
const HealthUnknown uint16 = 0

// HealthOK means every segment was read on the last tick.
const HealthOK uint16 = 1

// HealthDegraded means some, but not all, segments were read on the last tick.
const HealthDegraded uint16 = 2

// HealthError means no segment was read on the last tick.
const HealthError uint16 = 3
