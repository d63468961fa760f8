package store

import "math"

// quantize maps a float32 vector to uint8 bytes with a per-vector
// (scale, offset) such that original[i] ≈ bytes[i]*scale + offset.
//
// A vector whose dynamic range is below 1e-9 (effectively constant) encodes
// as all-zero bytes with scale 0 and offset equal to the constant value, so
// dequantize reproduces it exactly.
func quantize(v []float32) (bytes []byte, scale, offset float32) {
	if len(v) == 0 {
		return nil, 0, 0
	}
	minV, maxV := v[0], v[0]
	for _, x := range v[1:] {
		if x < minV {
			minV = x
		}
		if x > maxV {
			maxV = x
		}
	}
	rng := maxV - minV
	bytes = make([]byte, len(v))
	if rng < 1e-9 {
		return bytes, 0, minV
	}
	scale = rng / 255.0
	offset = minV
	for i, x := range v {
		q := math.Round(float64((x - offset) / scale))
		if q < 0 {
			q = 0
		} else if q > 255 {
			q = 255
		}
		bytes[i] = byte(q)
	}
	return bytes, scale, offset
}

// dequantize reconstructs the float32 vector from quantized bytes.
func dequantize(bytes []byte, scale, offset float32) []float32 {
	out := make([]float32, len(bytes))
	for i, b := range bytes {
		out[i] = float32(b)*scale + offset
	}
	return out
}
