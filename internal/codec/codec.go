// internal/codec/codec.go
package codec

import (
	"fmt"
	"math"
)

// Encoding selects how raw register words become one numeric value.
type Encoding uint8

const (
	// FloatSwapped is an IEEE-754 float32 spread over two registers with the
	// words swapped: the first register holds the low half (CDAB order).
	FloatSwapped Encoding = iota + 1

	// FloatBigEndian is an IEEE-754 float32 in natural register order (ABCD).
	FloatBigEndian

	// Uint16 is one register read as unsigned, optionally divided by Scale.
	Uint16
)

func (e Encoding) String() string {
	switch e {
	case FloatSwapped:
		return "float32-swapped"
	case FloatBigEndian:
		return "float32-be"
	case Uint16:
		return "u16"
	default:
		return fmt.Sprintf("encoding(%d)", uint8(e))
	}
}

// Words returns the number of registers one value of this encoding occupies.
func (e Encoding) Words() int {
	switch e {
	case FloatSwapped, FloatBigEndian:
		return 2
	case Uint16:
		return 1
	default:
		return 0
	}
}

// Field is one value at a fixed register offset inside a block.
type Field struct {
	Offset   uint16
	Encoding Encoding
	Scale    float64 // divisor; 0 or 1 means none
}

// Layout describes how a whole block decodes.
// With no Fields, Encoding is applied across the block from offset 0.
// With Fields, values come out in Fields order.
type Layout struct {
	Encoding Encoding
	Scale    float64
	Fields   []Field
}

// Count returns how many values Decode yields for a block of n words.
func (l Layout) Count(n int) int {
	if len(l.Fields) > 0 {
		return len(l.Fields)
	}
	w := l.Encoding.Words()
	if w == 0 {
		return 0
	}
	return n / w
}

// Decode turns raw words into ordered values.
// Fields that do not fit inside words decode as 0.
func Decode(words []uint16, l Layout) []float64 {
	if len(l.Fields) == 0 {
		switch l.Encoding {
		case FloatSwapped:
			return FloatsSwapped(words)
		case FloatBigEndian:
			return FloatsBigEndian(words)
		case Uint16:
			return Uints(words, l.Scale)
		default:
			return nil
		}
	}

	out := make([]float64, len(l.Fields))
	for i, f := range l.Fields {
		off := int(f.Offset)
		if off+f.Encoding.Words() > len(words) {
			continue
		}
		switch f.Encoding {
		case FloatSwapped:
			out[i] = FloatSwappedAt(words[off], words[off+1])
		case FloatBigEndian:
			out[i] = FloatBigEndianAt(words[off], words[off+1])
		case Uint16:
			out[i] = Uint(words[off], f.Scale)
		}
	}
	return out
}

// FloatSwappedAt assembles a float32 from a word-swapped register pair.
func FloatSwappedAt(lo, hi uint16) float64 {
	return float64(math.Float32frombits(uint32(hi)<<16 | uint32(lo)))
}

// FloatBigEndianAt assembles a float32 from a register pair in natural order.
func FloatBigEndianAt(hi, lo uint16) float64 {
	return float64(math.Float32frombits(uint32(hi)<<16 | uint32(lo)))
}

// FloatsSwapped decodes every register pair of words. A trailing odd word is ignored.
func FloatsSwapped(words []uint16) []float64 {
	out := make([]float64, len(words)/2)
	for i := range out {
		out[i] = FloatSwappedAt(words[2*i], words[2*i+1])
	}
	return out
}

// FloatsBigEndian decodes every register pair of words. A trailing odd word is ignored.
func FloatsBigEndian(words []uint16) []float64 {
	out := make([]float64, len(words)/2)
	for i := range out {
		out[i] = FloatBigEndianAt(words[2*i], words[2*i+1])
	}
	return out
}

// Uint reads w as unsigned and divides by scale when scale is neither 0 nor 1.
func Uint(w uint16, scale float64) float64 {
	v := float64(w)
	if scale != 0 && scale != 1 {
		v /= scale
	}
	return v
}

// Uints decodes each word with Uint.
func Uints(words []uint16, scale float64) []float64 {
	out := make([]float64, len(words))
	for i, w := range words {
		out[i] = Uint(w, scale)
	}
	return out
}
