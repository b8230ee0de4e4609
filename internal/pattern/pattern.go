// Package pattern generates stepwise test frames used to check that a
// panel's configured wiring matches the hardware.
package pattern

import (
	"github.com/coreman2200/serpentine/internal/layout"
	"github.com/coreman2200/serpentine/internal/led"
)

type Kind string

const (
	None       Kind = ""
	IndexSweep Kind = "index_sweep" // one pixel, logical order
	WireSweep  Kind = "wire_sweep"  // one pixel, following the data line
	RGBTest    Kind = "rgb_channels"
	Segments   Kind = "segments" // one segment at a time
	Rows       Kind = "rows"     // one panel row at a time
)

// Kinds lists every runnable pattern.
var Kinds = []Kind{IndexSweep, WireSweep, RGBTest, Segments, Rows}

func Parse(s string) (Kind, bool) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, true
		}
	}
	return None, false
}

type Plan struct {
	Kind Kind
	// Cycles repeats RGBTest; 0 means one pass of R, G, B.
	Cycles int
}

type Runner struct {
	plan Plan
	step int
	wire []int
}

func NewRunner(plan Plan) *Runner { return &Runner{plan: plan} }
func (r *Runner) Kind() Kind     { return r.plan.Kind }
func (r *Runner) Step() int      { return r.step }

var (
	white = led.Pixel{R: 255, G: 255, B: 255}
	cyan  = led.Pixel{G: 255, B: 255}
)

// Next fills frame (logical order) with the current step and advances.
// It returns false, leaving frame cleared, once the pattern is complete.
func (r *Runner) Next(l layout.Layout, frame []led.Pixel) bool {
	n := l.Count()
	clear(frame[:n])

	switch r.plan.Kind {
	case IndexSweep:
		if r.step >= n {
			return false
		}
		frame[r.step] = white
	case WireSweep:
		if r.step >= n {
			return false
		}
		if len(r.wire) != n {
			r.wire = l.WireOrder()
		}
		frame[r.wire[r.step]] = white
	case RGBTest:
		cycles := max(1, r.plan.Cycles)
		if r.step >= cycles*3 {
			return false
		}
		var px led.Pixel
		switch r.step % 3 {
		case 0:
			px.R = 255
		case 1:
			px.G = 255
		case 2:
			px.B = 255
		}
		for i := 0; i < n; i++ {
			frame[i] = px
		}
	case Segments:
		s := r.step
		if s >= l.Segments {
			return false
		}
		for y := 0; y < l.Rows; y++ {
			for x := s * l.SegmentWidth; x < (s+1)*l.SegmentWidth; x++ {
				frame[l.Index(x, y)] = cyan
			}
		}
	case Rows:
		y := r.step
		if y >= l.Rows {
			return false
		}
		for x := 0; x < l.Width(); x++ {
			frame[l.Index(x, y)] = cyan
		}
	default:
		return false
	}
	r.step++
	return true
}
