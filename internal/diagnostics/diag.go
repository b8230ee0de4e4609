package diagnostics

import (
	"errors"

	"github.com/coreman2200/serpentine/internal/layout"
	"github.com/coreman2200/serpentine/internal/wiring"
)

type Severity string

const (
	Info Severity = "info"
	Warn Severity = "warning"
	Err  Severity = "error"
)

type Diagnostic struct {
	Severity       Severity       `json:"severity"`
	Code           string         `json:"code"`
	Summary        string         `json:"summary"`
	Detail         string         `json:"detail,omitempty"`
	LikelyCauses   []string       `json:"likely_causes,omitempty"`
	SuggestedFixes []string       `json:"suggested_fixes,omitempty"`
	Evidence       map[string]any `json:"evidence,omitempty"`
}

// FromLayout checks l and describes the first problem, if any.
func FromLayout(l layout.Layout) (Diagnostic, bool) {
	err := l.Validate()
	if err == nil {
		return Diagnostic{}, false
	}
	d := Diagnostic{
		Severity: Err,
		Code:     "WIRING.GEOMETRY",
		Summary:  "Panel geometry rejected",
		Detail:   err.Error(),
		Evidence: map[string]any{
			"segments":      l.Segments,
			"segment_width": l.SegmentWidth,
			"rows":          l.Rows,
		},
	}
	switch {
	case errors.Is(err, layout.ErrTooLarge):
		d.Code = "WIRING.TOO_LARGE"
		d.Summary = "Panel too large"
		d.Evidence["max_pixels"] = layout.MaxPixels
		d.SuggestedFixes = []string{"split the panel across several outputs"}
	case errors.Is(err, wiring.ErrInvalidGeometry):
		d.LikelyCauses = []string{"zero or negative dimension", "segment width does not divide the segment"}
		d.SuggestedFixes = []string{"set panel.segments, panel.segment_width and panel.rows to positive values"}
	}
	return d, true
}
