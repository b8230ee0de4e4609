package wiring

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeometryValidate(t *testing.T) {
	ok := Geometry{Segments: 2, PixelsPerSegment: 6, SegmentWidth: 3}
	tests := []struct {
		name   string
		g      Geometry
		bufLen int
		want   error
	}{
		{"fits exactly", ok, 12, nil},
		{"slack is fine", ok, 20, nil},
		{"short buffer", ok, 11, ErrBufferTooShort},
		{"no segments", Geometry{PixelsPerSegment: 6, SegmentWidth: 3}, 12, ErrInvalidGeometry},
		{"no width", Geometry{Segments: 2, PixelsPerSegment: 6}, 12, ErrInvalidGeometry},
		{"no pixels", Geometry{Segments: 2, SegmentWidth: 3}, 12, ErrInvalidGeometry},
		{"ragged", Geometry{Segments: 2, PixelsPerSegment: 7, SegmentWidth: 3}, 14, ErrInvalidGeometry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.g.Validate(tt.bufLen)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestGeometryDerived(t *testing.T) {
	g := Geometry{Segments: 3, PixelsPerSegment: 20, SegmentWidth: 4}
	assert.Equal(t, 5, g.RowsPerSegment())
	assert.Equal(t, 60, g.Len())

	s := Single(8, 4, true)
	assert.Equal(t, 1, s.Segments)
	assert.Equal(t, 32, s.Len())
	assert.Equal(t, 4, s.RowsPerSegment())
	assert.NoError(t, s.Validate(32))
}

func TestGeometryOrder(t *testing.T) {
	g := Geometry{Segments: 2, PixelsPerSegment: 4, SegmentWidth: 2, Zigzag: true, RightToLeft: true}
	want := []int{2, 3, 7, 6, 0, 1, 5, 4}
	assert.Equal(t, want, slices.Collect(g.Order()))

	lut := g.AppendOrder(make([]int, 0, g.Len()))
	assert.Equal(t, want, lut)

	prefixed := g.AppendOrder([]int{-1})
	assert.Equal(t, append([]int{-1}, want...), prefixed)
}

func TestGeometryRowReversePhase(t *testing.T) {
	g := Geometry{Segments: 1, PixelsPerSegment: 4, SegmentWidth: 2, Zigzag: true}
	// row 0 forward, row 1 reversed
	assert.Equal(t, []int{0, 1, 3, 2}, slices.Collect(g.Order()))

	g.RowReversePhase = true
	assert.Equal(t, []int{1, 0, 2, 3}, slices.Collect(g.Order()))

	assert.Equal(t, []int{0, 1, 3, 2}, slices.Collect(Single(2, 2, true).Order()), "Single leaves the phase at its zero value")
}

func TestGeometryOrderMatchesSegmented(t *testing.T) {
	g := Geometry{Segments: 4, PixelsPerSegment: 12, SegmentWidth: 3, Zigzag: true, RowReversePhase: true}
	buf := make([]string, g.Len())
	for i := range buf {
		buf[i] = string(rune('A' + i))
	}
	var fromData []string
	for _, v := range Segmented(buf, g) {
		fromData = append(fromData, v)
	}
	var fromOrder []string
	for i := range g.Order() {
		fromOrder = append(fromOrder, buf[i])
	}
	assert.Equal(t, fromData, fromOrder)
}
