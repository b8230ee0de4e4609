package wiring

import (
	"iter"
	"math"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect[T any](seq iter.Seq2[int, T]) ([]int, []T) {
	var keys []int
	var vals []T
	for k, v := range seq {
		keys = append(keys, k)
		vals = append(vals, v)
	}
	return keys, vals
}

func seqTo(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func TestZigzag(t *testing.T) {
	tests := []struct {
		name   string
		data   []int
		rowLen int
		want   []int
	}{
		{"three rows", []int{1, 2, 3, 4, 5, 6, 7, 8, 9}, 3, []int{1, 2, 3, 6, 5, 4, 7, 8, 9}},
		{"partial row dropped", []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 3, []int{1, 2, 3, 6, 5, 4, 7, 8, 9}},
		{"shorter than a row", []int{1, 2}, 3, nil},
		{"empty", nil, 3, nil},
		{"zero row length", []int{1, 2, 3}, 0, nil},
		{"single column", []int{1, 2, 3}, 1, []int{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, got := collect(Zigzag(tt.data, tt.rowLen))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Zigzag() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestZigzagKeysIndexData(t *testing.T) {
	data := []string{"a", "b", "c", "d"}
	keys, vals := collect(Zigzag(data, 2))
	assert.Equal(t, []int{0, 1, 3, 2}, keys)
	for i, k := range keys {
		assert.Equal(t, data[k], vals[i])
	}
}

func TestZigzagStopsEarly(t *testing.T) {
	var got []int
	for _, v := range Zigzag([]int{1, 2, 3, 4, 5, 6}, 3) {
		got = append(got, v)
		if v == 6 {
			break
		}
	}
	assert.Equal(t, []int{1, 2, 3, 6}, got)
}

func TestVisitOrder(t *testing.T) {
	tests := []struct {
		segments, rows int
		rightToLeft    bool
		want           []int
	}{
		{2, 2, false, []int{0, 2, 1, 3}},
		{2, 2, true, []int{1, 3, 0, 2}},
		{3, 2, false, []int{0, 3, 1, 4, 2, 5}},
		{3, 2, true, []int{2, 5, 1, 4, 0, 3}},
		{1, 4, true, []int{0, 1, 2, 3}},
		{0, 4, false, nil},
		{4, 0, false, nil},
	}
	for _, tt := range tests {
		got := slices.Collect(VisitOrder(tt.segments, tt.rows, tt.rightToLeft))
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("VisitOrder(%d, %d, %v) mismatch (-want +got):\n%s",
				tt.segments, tt.rows, tt.rightToLeft, diff)
		}
	}
}

func TestVisitOrderSegmentMajor(t *testing.T) {
	for segments := 1; segments <= 5; segments++ {
		for rows := 1; rows <= 6; rows++ {
			for _, rtl := range []bool{false, true} {
				order := slices.Collect(VisitOrder(segments, rows, rtl))
				require.Len(t, order, segments*rows)
				for pos, idx := range order {
					seg, row := pos/rows, pos%rows
					offset := idx % segments
					assert.Equal(t, row, idx/segments, "row at pos %d", pos)
					if rtl {
						assert.Equal(t, segments-1-seg, offset, "segment at pos %d", pos)
					} else {
						assert.Equal(t, seg, offset, "segment at pos %d", pos)
					}
				}
			}
		}
	}
}

func TestVisitOrderDirectionSymmetry(t *testing.T) {
	const segments, rows = 4, 3
	ltr := slices.Collect(VisitOrder(segments, rows, false))
	rtl := slices.Collect(VisitOrder(segments, rows, true))
	require.Equal(t, len(ltr), len(rtl))
	for i := range ltr {
		assert.Equal(t, ltr[i]/segments, rtl[i]/segments)
		assert.Equal(t, segments-1-ltr[i]%segments, rtl[i]%segments)
	}
}

func TestChunks(t *testing.T) {
	buf := []byte("aabbccdd")
	keys, windows := collect(Chunks(buf, slices.Values([]int{3, 0, 2}), 2))
	assert.Equal(t, []int{3, 0, 2}, keys)
	require.Len(t, windows, 3)
	assert.Equal(t, "dd", string(windows[0]))
	assert.Equal(t, "aa", string(windows[1]))
	assert.Equal(t, "cc", string(windows[2]))

	// windows borrow buf and cannot grow into a neighbour
	assert.Same(t, &buf[6], &windows[0][0])
	assert.Equal(t, 2, cap(windows[1]))
	_ = append(windows[1], 'x')
	assert.Equal(t, "aabbccdd", string(buf))
}

func TestChunksOutOfRange(t *testing.T) {
	buf := make([]int, 5)
	assert.PanicsWithError(t, "wiring: chunk 2 of width 2 out of range for buffer of 5", func() {
		for range Chunks(buf, slices.Values([]int{0, 1, 2}), 2) {
		}
	})
	assert.PanicsWithError(t, "wiring: chunk -1 of width 2 out of range for buffer of 5", func() {
		for range Chunks(buf, slices.Values([]int{-1}), 2) {
		}
	})
}

func TestChunksOverflow(t *testing.T) {
	idx := math.MaxInt/2 + 1
	defer func() {
		r := recover()
		require.NotNil(t, r)
		be, ok := r.(*BoundsError)
		require.True(t, ok, "panic value %T", r)
		assert.True(t, be.Overflow)
		assert.Equal(t, idx, be.Index)
	}()
	for range Chunks([]int{}, slices.Values([]int{idx}), 4) {
	}
}

func TestSegmented(t *testing.T) {
	base := Geometry{Segments: 2, PixelsPerSegment: 4, SegmentWidth: 2}
	tests := []struct {
		name   string
		adjust func(*Geometry)
		want   []int
	}{
		{"straight", func(g *Geometry) {}, []int{0, 1, 4, 5, 2, 3, 6, 7}},
		{"zigzag", func(g *Geometry) { g.Zigzag = true }, []int{0, 1, 5, 4, 2, 3, 7, 6}},
		{"zigzag right to left", func(g *Geometry) {
			g.Zigzag = true
			g.RightToLeft = true
		}, []int{2, 3, 7, 6, 0, 1, 5, 4}},
		{"zigzag even rows reversed", func(g *Geometry) {
			g.Zigzag = true
			g.RowReversePhase = true
		}, []int{1, 0, 4, 5, 3, 2, 6, 7}},
		{"phase without zigzag", func(g *Geometry) { g.RowReversePhase = true }, []int{0, 1, 4, 5, 2, 3, 6, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := base
			tt.adjust(&g)
			buf := seqTo(8)
			keys, vals := collect(Segmented(buf, g))
			if diff := cmp.Diff(tt.want, vals); diff != "" {
				t.Errorf("Segmented() mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, vals, keys)
		})
	}
}

func TestSegmentedThreeSegments(t *testing.T) {
	// 3 segments of 2x2: panel rows are 0..5 and 6..11
	g := Geometry{Segments: 3, PixelsPerSegment: 4, SegmentWidth: 2, Zigzag: true}
	_, got := collect(Segmented(seqTo(12), g))
	assert.Equal(t, []int{0, 1, 7, 6, 2, 3, 9, 8, 4, 5, 11, 10}, got)
}

func TestSegmentedPermutation(t *testing.T) {
	for segments := 1; segments <= 4; segments++ {
		for width := 1; width <= 4; width++ {
			for rows := 1; rows <= 4; rows++ {
				for flags := 0; flags < 8; flags++ {
					g := Geometry{
						Segments:         segments,
						PixelsPerSegment: rows * width,
						SegmentWidth:     width,
						Zigzag:           flags&1 != 0,
						RightToLeft:      flags&2 != 0,
						RowReversePhase:  flags&4 != 0,
					}
					// trailing slack in the buffer must be ignored
					_, got := collect(Segmented(seqTo(g.Len()+3), g))
					require.Len(t, got, g.Len(), "%+v", g)
					slices.Sort(got)
					assert.Equal(t, seqTo(g.Len()), got, "%+v", g)
				}
			}
		}
	}
}

func TestSegmentedRowPhase(t *testing.T) {
	const segments, width, rows = 3, 4, 5
	for _, phase := range []bool{false, true} {
		g := Geometry{
			Segments:         segments,
			PixelsPerSegment: rows * width,
			SegmentWidth:     width,
			Zigzag:           true,
			RowReversePhase:  phase,
		}
		_, got := collect(Segmented(seqTo(g.Len()), g))
		for pos := 0; pos < segments*rows; pos++ {
			run := got[pos*width : pos*width+width]
			descending := run[0] > run[width-1]
			wantReversed := (pos%rows)%2 == 1
			if phase {
				wantReversed = !wantReversed
			}
			assert.Equal(t, wantReversed, descending, "phase %v pos %d run %v", phase, pos, run)
		}
	}
}

func TestSegmentedMatchesZigzagForSinglePanel(t *testing.T) {
	data := []int{1, 2, 3, 4, 5, 6, 7, 8, 9}
	_, want := collect(Zigzag(data, 3))
	_, got := collect(Segmented(data, Single(3, 3, true)))
	assert.Equal(t, want, got)
}

func TestSegmentedStopsEarly(t *testing.T) {
	g := Geometry{Segments: 2, PixelsPerSegment: 4, SegmentWidth: 2, Zigzag: true}
	n := 0
	for range Segmented(seqTo(8), g) {
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func TestSegmentedRestartsFromConstructor(t *testing.T) {
	g := Geometry{Segments: 3, PixelsPerSegment: 6, SegmentWidth: 3, Zigzag: true, RightToLeft: true}
	buf := seqTo(g.Len())
	_, first := collect(Segmented(buf, g))
	_, second := collect(Segmented(buf, g))
	assert.Equal(t, first, second)
}

func TestSegmentedInvalidGeometryPanics(t *testing.T) {
	t.Run("buffer too short", func(t *testing.T) {
		g := Geometry{Segments: 2, PixelsPerSegment: 4, SegmentWidth: 2}
		assert.PanicsWithError(t, "wiring: chunk 3 of width 2 out of range for buffer of 7", func() {
			for range Segmented(seqTo(7), g) {
			}
		})
	})
	t.Run("ragged rows", func(t *testing.T) {
		g := Geometry{Segments: 2, PixelsPerSegment: 5, SegmentWidth: 2}
		assert.Panics(t, func() {
			for range Segmented(seqTo(10), g) {
			}
		})
	})
	t.Run("zero width", func(t *testing.T) {
		g := Geometry{Segments: 2, PixelsPerSegment: 4}
		assert.Panics(t, func() {
			for range Segmented(seqTo(8), g) {
			}
		})
	})
	t.Run("construction is lazy", func(t *testing.T) {
		g := Geometry{Segments: 2, PixelsPerSegment: 5, SegmentWidth: 2}
		assert.NotPanics(t, func() { _ = Segmented(seqTo(10), g) })
	})
}
