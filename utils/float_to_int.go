// SPDX-License-Identifier: EPL-2.0

package utils

// Float32ToInt16 converts a normalized sample to signed 16-bit PCM,
// clamping to [-1, 1] first.
func Float32ToInt16(x float32) int16 {
	if x > 1 {
		x = 1
	} else if x < -1 {
		x = -1
	}

	// 32767 keeps +1.0 from overflowing
	return int16(x * 32767.0)
}

// Floats32ToInt16 converts min(len(dst), len(src)) samples and returns the
// number converted.
func Floats32ToInt16(dst []int16, src []float32) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = Float32ToInt16(src[i])
	}

	return n
}

// Int16ToFloat32 is the inverse of Float32ToInt16 for decoders that hand out
// 16-bit PCM.
func Int16ToFloat32(v int16) float32 {
	return float32(v) / 32768.0
}
