package led

import (
	"fmt"
	"strings"

	"github.com/coreman2200/serpentine/internal/wiring"
)

// Pixel is one logical RGB pixel of a frame.
type Pixel struct{ R, G, B byte }

// Encoder serialises logical row-major frames into the byte stream a
// chain of LEDs expects: wire order, per-strip channel order, brightness
// applied.
type Encoder struct {
	geom     wiring.Geometry
	order    [3]int // source channel for each output byte (0=R,1=G,2=B)
	scale    scaleLUT
	whiteCap float64
	buf      []byte
}

// NewEncoder validates g and colorOrder (a permutation of "RGB", e.g.
// "GRB") and returns an encoder with its output buffer preallocated.
func NewEncoder(g wiring.Geometry, colorOrder string, brightness float64) (*Encoder, error) {
	if err := g.Validate(g.Len()); err != nil {
		return nil, err
	}
	order, err := parseColorOrder(colorOrder)
	if err != nil {
		return nil, err
	}
	return &Encoder{
		geom:  g,
		order: order,
		scale: buildScaleLUT(brightness, 0),
		buf:   make([]byte, g.Len()*3),
	}, nil
}

func parseColorOrder(s string) ([3]int, error) {
	var out [3]int
	s = strings.ToUpper(s)
	if len(s) != 3 {
		return out, fmt.Errorf("color order %q: want 3 channels", s)
	}
	seen := [3]bool{}
	for i := 0; i < 3; i++ {
		c := strings.IndexByte("RGB", s[i])
		if c < 0 || seen[c] {
			return out, fmt.Errorf("color order %q: want a permutation of RGB", s)
		}
		seen[c] = true
		out[i] = c
	}
	return out, nil
}

func (e *Encoder) Geometry() wiring.Geometry { return e.geom }

// Len is the number of pixels per frame.
func (e *Encoder) Len() int { return e.geom.Len() }

// SetBrightness rebuilds the scale table; brightness is clamped to 0..1.
func (e *Encoder) SetBrightness(b float64) {
	e.scale = buildScaleLUT(b, 0)
}

// SetWhiteCap limits each pixel to r+g+b <= capFrac*3*255 before
// brightness is applied. 0 or >= 1 disables the cap.
func (e *Encoder) SetWhiteCap(capFrac float64) {
	e.whiteCap = capFrac
}

// Encode returns the wire stream for frame. The returned slice is reused
// by the next call. frame must hold at least Len pixels; a shorter frame
// panics.
func (e *Encoder) Encode(frame []Pixel) []byte {
	out := e.buf[:0]
	for _, px := range wiring.Segmented(frame, e.geom) {
		px = e.cap(px)
		ch := [3]byte{px.R, px.G, px.B}
		out = append(out,
			e.scale[ch[e.order[0]]],
			e.scale[ch[e.order[1]]],
			e.scale[ch[e.order[2]]],
		)
	}
	return out
}

func (e *Encoder) cap(px Pixel) Pixel {
	if e.whiteCap <= 0 || e.whiteCap >= 1 {
		return px
	}
	limit := e.whiteCap * 3 * 255
	s := float64(px.R) + float64(px.G) + float64(px.B)
	if s <= limit {
		return px
	}
	k := limit / s
	return Pixel{
		R: byte(float64(px.R) * k),
		G: byte(float64(px.G) * k),
		B: byte(float64(px.B) * k),
	}
}

// EstimateAmps returns the current drawn by an encoded stream assuming
// 20mA per channel at full scale.
func EstimateAmps(b []byte) float64 {
	var sum float64
	for _, v := range b {
		sum += float64(v)
	}
	return sum / 255.0 * 0.020
}
