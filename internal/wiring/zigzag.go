// Package wiring maps logical row-major pixel buffers onto the order in
// which serpentine LED hardware is physically chained.
//
// Every producer in this package is a lazy, one-shot iterator over a
// borrowed buffer: nothing is copied, nothing is written and no state
// survives the traversal. Calling the constructor again with the same
// arguments yields the same order.
package wiring

import "iter"

// Zigzag walks data as consecutive rows of rowLen elements, yielding
// even rows forward and odd rows reversed. A trailing partial row is
// dropped. Keys are indices into data.
func Zigzag[T any](data []T, rowLen int) iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		if rowLen <= 0 {
			return
		}
		rows := len(data) / rowLen
		for r := 0; r < rows; r++ {
			start := r * rowLen
			end := start + rowLen
			if !walk(data[start:end:end], start, r%2 == 1, yield) {
				return
			}
		}
	}
}

// walk yields every element of row keyed by base+offset, back to front
// when reverse is set. It reports false once the consumer stops.
func walk[T any](row []T, base int, reverse bool, yield func(int, T) bool) bool {
	if reverse {
		for i := len(row) - 1; i >= 0; i-- {
			if !yield(base+i, row[i]) {
				return false
			}
		}
		return true
	}
	for i, v := range row {
		if !yield(base+i, v) {
			return false
		}
	}
	return true
}
