package wiring

import "iter"

// VisitOrder yields chunk indices in the order the data line reaches
// them on a panel of segments placed side by side, each segment carrying
// rowsPerSegment chunks.
//
// Chunks are numbered column-major: chunk row*segments+s is row `row` of
// segment s, so one horizontal panel row is segments consecutive chunks.
// All rows of a segment are visited, top to bottom, before the next
// segment. rightToLeft mirrors the physical segment position, not the
// visiting sequence.
func VisitOrder(segments, rowsPerSegment int, rightToLeft bool) iter.Seq[int] {
	return func(yield func(int) bool) {
		for s := 0; s < segments; s++ {
			offset := s
			if rightToLeft {
				offset = segments - 1 - s
			}
			for row := 0; row < rowsPerSegment; row++ {
				if !yield(row*segments + offset) {
					return
				}
			}
		}
	}
}
