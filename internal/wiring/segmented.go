package wiring

import "iter"

// Segmented yields the elements of buf in the order a chain of g.Segments
// serpentine segments displays them, keyed by their index in buf.
//
// buf holds the panel row-major across its full width. The segments are
// visited as VisitOrder describes; inside each segment the rows selected
// by g.Zigzag and g.RowReversePhase run back to front.
//
// A geometry that does not divide into whole rows, or that addresses
// more than len(buf) elements, panics on the first element drawn.
func Segmented[T any](buf []T, g Geometry) iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		rows := g.mustRows()
		pos := 0
		for idx, chunk := range Chunks(buf, VisitOrder(g.Segments, rows, g.RightToLeft), g.SegmentWidth) {
			if !walk(chunk, idx*g.SegmentWidth, g.reversed(pos, rows), yield) {
				return
			}
			pos++
		}
	}
}
