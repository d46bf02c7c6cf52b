// SPDX-License-Identifier: EPL-2.0

package utils

// CubicInterpolate evaluates a Catmull-Rom spline through four consecutive
// samples. x is the fractional position between y1 and y2 (0 <= x <= 1).
func CubicInterpolate(y0, y1, y2, y3, x float32) float32 {
	a0 := -0.5*y0 + 1.5*y1 - 1.5*y2 + 0.5*y3
	a1 := y0 - 2.5*y1 + 2*y2 - 0.5*y3
	a2 := -0.5*y0 + 0.5*y2
	a3 := y1

	return ((a0*x+a1)*x+a2)*x + a3
}

// Lerp interpolates linearly between a and b. t is not clamped.
func Lerp(a, b, t float32) float32 {
	return a + (b-a)*t
}

// Ramp fills dst with a linear ramp that starts at from and would reach to
// one step past the last element, so consecutive blocks join without a
// repeated value.
func Ramp(dst []float32, from, to float32) {
	if len(dst) == 0 {
		return
	}

	n := float32(len(dst))
	for i := range dst {
		dst[i] = Lerp(from, to, float32(i)/n)
	}
}
