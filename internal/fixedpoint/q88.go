// Package fixedpoint implements the minimal Q8.8 fixed-point arithmetic the
// reference part's lack of an FPU forces on the resonance/coherence curve.
// It is intentionally small: add/sub/mul/div, integer and fraction
// constructors, and a Float64 conversion for the boundary where a Q8.8
// value leaves fixed-point.
package fixedpoint

// Q8 is a signed Q8.8 fixed-point number: the integer value scaled by 256.
type Q8 int32

const scale = 256

// FromInt lifts a whole number into Q8.8.
func FromInt(n int) Q8 {
	return Q8(n * scale)
}

// FromFraction builds num/den in Q8.8, rounding toward zero.
func FromFraction(num, den int) Q8 {
	if den == 0 {
		return 0
	}
	return Q8(int64(num) * scale / int64(den))
}

// Add returns a+b.
func Add(a, b Q8) Q8 { return a + b }

// Sub returns a-b.
func Sub(a, b Q8) Q8 { return a - b }

// Mul returns a*b, rescaled back to Q8.8.
func Mul(a, b Q8) Q8 {
	return Q8((int64(a) * int64(b)) / scale)
}

// Div returns a/b, rescaled to Q8.8. Returns 0 if b is 0.
func Div(a, b Q8) Q8 {
	if b == 0 {
		return 0
	}
	return Q8((int64(a) * scale) / int64(b))
}

// Float64 converts back to floating point. The learning engine uses it to
// hand the resonance to Shard.ApplyGradient's float learning rate and to
// record the coherence diagnostic; the curve itself stays in Q8.8.
func (q Q8) Float64() float64 {
	return float64(q) / scale
}
