package wiring

import (
	"errors"
	"fmt"
	"iter"
)

var (
	ErrInvalidGeometry = errors.New("invalid wiring geometry")
	ErrBufferTooShort  = errors.New("buffer shorter than wiring geometry")
)

// Geometry describes how a panel built from equal serpentine segments is
// chained together.
type Geometry struct {
	// Segments is the number of segments placed side by side.
	Segments int
	// PixelsPerSegment is the number of elements wired through one
	// segment, i.e. its rows times SegmentWidth.
	PixelsPerSegment int
	// SegmentWidth is the number of elements in one row of one segment.
	SegmentWidth int

	// Zigzag reverses alternate rows inside each segment.
	Zigzag bool
	// RightToLeft starts the chain at the right-most segment.
	RightToLeft bool
	// RowReversePhase selects which rows Zigzag reverses. A chunk at
	// visit position pos is reversed when (pos % rows) % 2 == phase, with
	// phase 1 when RowReversePhase is false (row 0 forward, odd rows
	// reversed) and phase 0 when it is true (even rows reversed).
	RowReversePhase bool
}

// Single returns the geometry of one serpentine panel of rows rows and
// rowLen elements per row.
func Single(rowLen, rows int, zigzag bool) Geometry {
	return Geometry{
		Segments:         1,
		PixelsPerSegment: rowLen * rows,
		SegmentWidth:     rowLen,
		Zigzag:           zigzag,
		RightToLeft:      false,
		RowReversePhase:  false,
	}
}

// RowsPerSegment is PixelsPerSegment / SegmentWidth.
func (g Geometry) RowsPerSegment() int {
	return g.PixelsPerSegment / g.SegmentWidth
}

// Len is the number of elements the geometry addresses.
func (g Geometry) Len() int {
	return g.Segments * g.PixelsPerSegment
}

// Validate checks g against a buffer of bufLen elements. The iterators
// never call it; a geometry that fails here makes them panic instead.
func (g Geometry) Validate(bufLen int) error {
	switch {
	case g.Segments <= 0:
		return fmt.Errorf("%w: segments must be positive, got %d", ErrInvalidGeometry, g.Segments)
	case g.SegmentWidth <= 0:
		return fmt.Errorf("%w: segment width must be positive, got %d", ErrInvalidGeometry, g.SegmentWidth)
	case g.PixelsPerSegment <= 0:
		return fmt.Errorf("%w: pixels per segment must be positive, got %d", ErrInvalidGeometry, g.PixelsPerSegment)
	case g.PixelsPerSegment%g.SegmentWidth != 0:
		return fmt.Errorf("%w: %d pixels per segment not divisible by width %d",
			ErrInvalidGeometry, g.PixelsPerSegment, g.SegmentWidth)
	}
	if g.PixelsPerSegment > bufLen/g.Segments {
		return fmt.Errorf("%w: need %d segments of %d, have %d",
			ErrBufferTooShort, g.Segments, g.PixelsPerSegment, bufLen)
	}
	return nil
}

// Order yields the logical index of every element in wire order.
func (g Geometry) Order() iter.Seq[int] {
	return func(yield func(int) bool) {
		// zero-sized elements: the slice costs no memory
		for i := range Segmented(make([]struct{}, g.Len()), g) {
			if !yield(i) {
				return
			}
		}
	}
}

// AppendOrder appends the wire-order permutation to dst, so that
// dst[n] is the logical index of the n-th element on the wire.
func (g Geometry) AppendOrder(dst []int) []int {
	for i := range g.Order() {
		dst = append(dst, i)
	}
	return dst
}

// reversed reports whether the chunk at visit position pos runs back to
// front.
func (g Geometry) reversed(pos, rows int) bool {
	if !g.Zigzag {
		return false
	}
	phase := 1
	if g.RowReversePhase {
		phase = 0
	}
	return (pos%rows)%2 == phase
}

func (g Geometry) mustRows() int {
	if g.SegmentWidth <= 0 || g.PixelsPerSegment%g.SegmentWidth != 0 {
		panic(fmt.Errorf("%w: %d pixels per segment, width %d",
			ErrInvalidGeometry, g.PixelsPerSegment, g.SegmentWidth))
	}
	return g.RowsPerSegment()
}
