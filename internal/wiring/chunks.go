package wiring

import (
	"fmt"
	"iter"
	"math"
	"math/bits"
)

// BoundsError is the panic value raised when a chunk index addresses
// memory outside the buffer. It signals a wiring geometry that does not
// fit the frame and is never returned as an ordinary error.
type BoundsError struct {
	Index    int
	Width    int
	Len      int
	Overflow bool
}

func (e *BoundsError) Error() string {
	if e.Overflow {
		return fmt.Sprintf("wiring: chunk %d of width %d overflows int", e.Index, e.Width)
	}
	return fmt.Sprintf("wiring: chunk %d of width %d out of range for buffer of %d", e.Index, e.Width, e.Len)
}

// Chunks yields, for every index in order, the width-sized window of buf
// that chunk occupies, keyed by the chunk index. Windows alias buf and
// are capacity-limited, so appending to one never spills into the next.
//
// An index whose window does not fit in buf panics with *BoundsError.
func Chunks[T any](buf []T, order iter.Seq[int], width int) iter.Seq2[int, []T] {
	return func(yield func(int, []T) bool) {
		for idx := range order {
			lo, hi := chunkBounds(idx, width, len(buf))
			if !yield(idx, buf[lo:hi:hi]) {
				return
			}
		}
	}
}

func chunkBounds(idx, width, n int) (int, int) {
	if idx < 0 || width < 0 {
		panic(&BoundsError{Index: idx, Width: width, Len: n})
	}
	carry, lo := bits.Mul(uint(idx), uint(width))
	if carry != 0 || lo > uint(math.MaxInt-width) {
		panic(&BoundsError{Index: idx, Width: width, Len: n, Overflow: true})
	}
	start := int(lo)
	end := start + width
	if end > n {
		panic(&BoundsError{Index: idx, Width: width, Len: n})
	}
	return start, end
}
