// internal/codec/encode.go
package codec

import (
	"fmt"
	"math"
)

// EncodeFloatSwapped is the inverse of FloatSwappedAt.
func EncodeFloatSwapped(v float64) []uint16 {
	bits := math.Float32bits(float32(v))
	return []uint16{uint16(bits), uint16(bits >> 16)}
}

// EncodeFloatBigEndian is the inverse of FloatBigEndianAt.
func EncodeFloatBigEndian(v float64) []uint16 {
	bits := math.Float32bits(float32(v))
	return []uint16{uint16(bits >> 16), uint16(bits)}
}

// EncodeUint16 multiplies v by scale (when set) and rounds into one register.
func EncodeUint16(v, scale float64) ([]uint16, error) {
	if scale != 0 && scale != 1 {
		v *= scale
	}
	r := math.Round(v)
	if math.IsNaN(r) || r < 0 || r > math.MaxUint16 {
		return nil, fmt.Errorf("codec: %v does not fit an unsigned register", v)
	}
	return []uint16{uint16(r)}, nil
}

// Encode renders v with the given encoding.
func Encode(v float64, e Encoding, scale float64) ([]uint16, error) {
	switch e {
	case FloatSwapped:
		return EncodeFloatSwapped(v), nil
	case FloatBigEndian:
		return EncodeFloatBigEndian(v), nil
	case Uint16:
		return EncodeUint16(v, scale)
	default:
		return nil, fmt.Errorf("codec: unsupported encoding %s", e)
	}
}
