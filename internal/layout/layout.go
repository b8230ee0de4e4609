package layout

import (
	"errors"
	"fmt"

	"github.com/coreman2200/serpentine/internal/wiring"
)

// MaxPixels bounds the panels a Layout accepts.
const MaxPixels = 1 << 20

var ErrTooLarge = errors.New("panel too large")

// Serpentine holds the chaining flags of the panel.
type Serpentine struct {
	Zigzag          bool
	RightToLeft     bool
	RowReversePhase bool
}

// Layout is a panel of Segments strips-of-rows placed side by side, each
// SegmentWidth pixels wide and Rows pixels tall.
type Layout struct {
	Segments     int
	SegmentWidth int
	Rows         int
	Order        Serpentine
	PitchMM      float64
}

// Width is the panel width in pixels across all segments.
func (l Layout) Width() int {
	return l.Segments * l.SegmentWidth
}

func (l Layout) Count() int {
	return l.Width() * l.Rows
}

// Index maps x,y -> logical row-major index (0..N-1)
func (l Layout) Index(x, y int) int {
	return y*l.Width() + x
}

// Coord is the inverse of Index.
func (l Layout) Coord(i int) (x, y int) {
	w := l.Width()
	return i % w, i / w
}

// Segment returns which segment column x falls in.
func (l Layout) Segment(x int) int {
	return x / l.SegmentWidth
}

func (l Layout) Geometry() wiring.Geometry {
	return wiring.Geometry{
		Segments:         l.Segments,
		PixelsPerSegment: l.SegmentWidth * l.Rows,
		SegmentWidth:     l.SegmentWidth,
		Zigzag:           l.Order.Zigzag,
		RightToLeft:      l.Order.RightToLeft,
		RowReversePhase:  l.Order.RowReversePhase,
	}
}

// Validate reports whether the layout describes a usable panel of at
// most MaxPixels pixels.
func (l Layout) Validate() error {
	// checked before Count, which may overflow for huge dimensions
	if l.Segments > 0 && l.SegmentWidth > 0 && l.Rows > 0 &&
		(l.SegmentWidth > MaxPixels/l.Rows || l.Segments > MaxPixels/(l.SegmentWidth*l.Rows)) {
		return fmt.Errorf("%w: %d segments of %dx%d exceed %d pixels",
			ErrTooLarge, l.Segments, l.SegmentWidth, l.Rows, MaxPixels)
	}
	return l.Geometry().Validate(l.Count())
}

// WireOrder returns, for every position on the data line, the logical
// index it displays.
func (l Layout) WireOrder() []int {
	return l.Geometry().AppendOrder(make([]int, 0, l.Count()))
}

// WirePositions is the inverse of WireOrder: the data line position of
// every logical index.
func (l Layout) WirePositions() []int {
	out := make([]int, l.Count())
	n := 0
	for i := range l.Geometry().Order() {
		out[i] = n
		n++
	}
	return out
}
