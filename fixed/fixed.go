// Package fixed implements the signed Q2.14 fixed-point scalar used for all
// weights and activations of the network.
//
// A Fixed holds 16 bits: 2 integer bits (sign included) and 14 fractional
// bits, covering [-2, 2-2^-14] in steps of 2^-14. Every arithmetic operation
// rounds to nearest with ties to even (convergent rounding) and saturates to
// the representable range instead of wrapping.
package fixed

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Format constants
const (
	TotalBits = 16
	IntBits   = 2
	FracBits  = TotalBits - IntBits // 14

	scale    = 1 << FracBits // 16384
	halfUlp  = 1 << (FracBits - 1)
	fracMask = scale - 1
)

// Fixed is a Q2.14 value stored as its raw two's complement bits.
type Fixed int16

// Well-known values
const (
	Zero    Fixed = 0
	One     Fixed = scale
	Epsilon Fixed = 1 // 2^-14
	Max     Fixed = math.MaxInt16
	Min     Fixed = math.MinInt16
)

// saturate clamps a widened intermediate to the Fixed range.
func saturate(v int32) Fixed {
	if v > int32(Max) {
		return Max
	}
	if v < int32(Min) {
		return Min
	}
	return Fixed(v)
}

// roundConvergent drops FracBits fractional bits from p, rounding to nearest
// and breaking ties toward the even result.
func roundConvergent(p int32) int32 {
	q := p >> FracBits // floor
	rem := p & fracMask
	if rem > halfUlp || (rem == halfUlp && q&1 == 1) {
		q++
	}
	return q
}

// FromRaw reinterprets raw Q2.14 bits.
func FromRaw(raw int16) Fixed {
	return Fixed(raw)
}

// FromFloat converts f to the nearest Fixed (ties to even), saturating
// out-of-range values. NaN converts to Zero.
func FromFloat(f float64) Fixed {
	if math.IsNaN(f) {
		return Zero
	}
	v := math.RoundToEven(f * scale)
	if v >= float64(Max) {
		return Max
	}
	if v <= float64(Min) {
		return Min
	}
	return Fixed(v)
}

// Raw returns the underlying bits.
func (a Fixed) Raw() int16 {
	return int16(a)
}

// Float64 returns the exact real value of a.
func (a Fixed) Float64() float64 {
	return float64(a) / scale
}

// Add returns a+b, saturated.
func (a Fixed) Add(b Fixed) Fixed {
	return saturate(int32(a) + int32(b))
}

// Sub returns a-b, saturated.
func (a Fixed) Sub(b Fixed) Fixed {
	return saturate(int32(a) - int32(b))
}

// Mul returns a*b rounded to 14 fractional bits and saturated.
// The full product needs at most 31 bits, so int32 holds it exactly.
func (a Fixed) Mul(b Fixed) Fixed {
	return saturate(roundConvergent(int32(a) * int32(b)))
}

// ReLU maps negative values to Zero.
func (a Fixed) ReLU() Fixed {
	if a < Zero {
		return Zero
	}
	return a
}

// MulAdd returns acc + a*b, with the product rounded and the sum saturated
// as two separate operations.
func MulAdd(acc, a, b Fixed) Fixed {
	return acc.Add(a.Mul(b))
}

// Dot accumulates w[i]*x[i] for i in [0, n) onto acc in ascending order.
// Each step rounds and saturates, so the result depends on the order.
func Dot(acc Fixed, w, x []Fixed, n int) Fixed {
	w = w[:n]
	x = x[:n]
	for i := range w {
		acc = MulAdd(acc, x[i], w[i])
	}
	return acc
}

// String formats a as the shortest decimal that reproduces its real value.
func (a Fixed) String() string {
	return strconv.FormatFloat(a.Float64(), 'f', -1, 64)
}

// Parse converts a decimal string to Fixed using FromFloat.
func Parse(s string) (Fixed, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return Zero, fmt.Errorf("failed to parse fixed-point value %q: %w", s, err)
	}
	return FromFloat(f), nil
}

// FromFloats converts every element of fs.
func FromFloats(fs []float64) []Fixed {
	out := make([]Fixed, len(fs))
	for i, f := range fs {
		out[i] = FromFloat(f)
	}
	return out
}

// Floats converts every element of xs to float64.
func Floats(xs []Fixed) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = x.Float64()
	}
	return out
}
