// SPDX-License-Identifier: EPL-2.0

package utils

const (
	roundoffKnee   = 1.65
	roundoffLimit  = 0.9862875
	roundoffLinear = 0.87
	roundoffCubic  = 0.1
)

// ClipRoundoff applies a soft cubic limiter in place and scales the result by
// scaler. Inputs beyond ±1.65 saturate at ±0.9862875, which is where the cubic
// curve flattens out, so the transfer function stays continuous.
func ClipRoundoff(buf []float32, scaler float32) {
	for i, f := range buf {
		switch {
		case f <= -roundoffKnee:
			f = -roundoffLimit
		case f >= roundoffKnee:
			f = roundoffLimit
		default:
			f = roundoffLinear*f - roundoffCubic*f*f*f
		}
		buf[i] = f * scaler
	}
}

// ClipHard clamps buf to [-1, 1] in place and scales it by scaler.
func ClipHard(buf []float32, scaler float32) {
	for i, f := range buf {
		if f > 1 {
			f = 1
		} else if f < -1 {
			f = -1
		}
		buf[i] = f * scaler
	}
}
