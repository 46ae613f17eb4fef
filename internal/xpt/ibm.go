package xpt

import (
	"encoding/binary"
	"fmt"
	"math"
)

// isMissing reports whether a numeric field holds a SAS missing value:
// '.', '._' or '.A'-'.Z' in the first byte followed by zero bytes.
func isMissing(b []byte) bool {
	if len(b) == 0 {
		return true
	}
	c := b[0]
	if c != '.' && c != '_' && (c < 'A' || c > 'Z') {
		return false
	}
	for _, x := range b[1:] {
		if x != 0 {
			return false
		}
	}
	return true
}

// ibmToFloat converts a big-endian IBM 370 double, possibly truncated to
// fewer than 8 bytes, to an IEEE 754 float64.
func ibmToFloat(b []byte) float64 {
	var buf [8]byte
	copy(buf[:], b)
	u := binary.BigEndian.Uint64(buf[:])

	mant := u & 0x00ffffffffffffff
	if mant == 0 {
		return 0
	}
	exp := int((u >> 56) & 0x7f)
	v := math.Ldexp(float64(mant), 4*(exp-64)-56)
	if u>>63 == 1 {
		return -v
	}
	return v
}

// floatToIBM converts an IEEE 754 float64 to a big-endian IBM 370 double.
func floatToIBM(v float64) ([8]byte, error) {
	var out [8]byte
	if v == 0 {
		return out, nil
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return out, fmt.Errorf("value %v has no IBM representation", v)
	}

	var sign uint64
	if v < 0 {
		sign = 1
		v = -v
	}

	frac, exp2 := math.Frexp(v)
	e16 := exp2 / 4
	if exp2 > 0 && exp2%4 != 0 {
		e16++
	}
	shift := 4*e16 - exp2
	exp := e16 + 64
	if exp < 0 || exp > 127 {
		return out, fmt.Errorf("value %v out of IBM range", v)
	}

	mant := uint64(math.Ldexp(frac, 56-shift))
	binary.BigEndian.PutUint64(out[:], sign<<63|uint64(exp)<<56|mant)
	return out, nil
}
