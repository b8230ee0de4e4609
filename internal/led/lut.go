package led

import "math"

// scaleLUT maps an 8-bit channel value to its brightness-scaled value.
type scaleLUT [256]byte

// buildScaleLUT bakes brightness (0..1) and a display gamma into a table
// so the per-frame path is a lookup per channel. gamma <= 0 means linear.
func buildScaleLUT(brightness, gamma float64) scaleLUT {
	var t scaleLUT
	brightness = clamp01(brightness)
	for v := 0; v < 256; v++ {
		x := float64(v) / 255
		if gamma > 0 && gamma != 1 {
			x = math.Pow(x, gamma)
		}
		t[v] = byte(math.Round(x * brightness * 255))
	}
	return t
}

// spiLUT expands one data byte into the 24 SPI bits that encode it for a
// WS2812 at ~2.4MHz: each data bit becomes 110 (one) or 100 (zero),
// MSB first.
type spiLUT [256][3]byte

func buildSPILUT() *spiLUT {
	var t spiLUT
	for v := 0; v < 256; v++ {
		out := uint32(0)
		for i := 7; i >= 0; i-- {
			tri := uint32(0b100)
			if (v>>i)&1 == 1 {
				tri = 0b110
			}
			out = (out << 3) | tri
		}
		t[v] = [3]byte{byte(out >> 16), byte(out >> 8), byte(out)}
	}
	return &t
}

// expand writes the SPI encoding of src into dst, which must hold
// 3*len(src) bytes.
func (t *spiLUT) expand(dst, src []byte) {
	for i, b := range src {
		copy(dst[i*3:i*3+3], t[b][:])
	}
}

// latchBytes is the number of zero bytes that hold the line low for at
// least resetUs at 2.4MHz (~3.3µs per byte), never fewer than 128.
func latchBytes(resetUs int) int {
	n := (resetUs + 2) / 3
	if n < 128 {
		n = 128
	}
	return n
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
