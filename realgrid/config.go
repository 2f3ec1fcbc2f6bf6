// Package realgrid reconstructs tables from vector pages whose line
// geometry survives: explicit rulings are clustered into grid borders
// and cells are cut exactly, with a keyword-anchored fallback when the
// grid is malformed.
package realgrid

import "github.com/hayashi-antas/plan2table/textutil"

// Config holds the grid-detection thresholds, in PDF points.
type Config struct {
	Rules *textutil.RuleSet

	// Region qualification. A detected table region qualifies when it
	// is wide enough and does not hug the bottom margin; a page must
	// carry exactly ExpectedRegions qualifying regions (zero skips the
	// page, any other count is a page-scoped error).
	ExpectedRegions      int
	MinRegionWidthRatio  float64 // of page width
	MaxRegionBottomRatio float64 // of page height

	// Grid geometry. A well-formed table has Columns data columns cut
	// by Columns+1 vertical borders.
	Columns                int
	OrientationTol         float64 // max |dx| (vertical) / |dy| (horizontal)
	RegionPad              float64 // line endpoints may overhang the region box this far
	VerticalClusterTol     float64
	HorizontalClusterTol   float64
	MinVerticalSpanRatio   float64 // merged segment coverage / region height
	MinHorizontalLenRatio  float64 // single segment length / region width
	HorizontalEndSlack     float64 // endpoint distance from the region edges
	MinHorizontalLines     int
	LastBorderTol          float64 // right-edge column assignment slack

	// Header reconstruction. Tokens above the first identifier row are
	// clustered into lines; fewer than MinHeaderLines (group, sub,
	// unit) means the header is unusable.
	HeaderLineYTol float64
	MinHeaderLines int

	// Keyword fallback.
	FallbackRowYTol     float64
	FallbackHeaderDepth int // rows scanned for keyword headers

	// Raw-row projection indexes for the output column subset.
	CodeCol  int
	NameCol  int
	NoteCol  int
	PowerCol int
	CountCol int

	// Drawing-number search.
	DrawingLineYTol     float64
	DrawingBottomXRatio float64
	DrawingBottomYRatio float64
}

// DefaultConfig returns thresholds tuned for A3 schedule sheets with
// two side-by-side 19-column tables.
func DefaultConfig() Config {
	return Config{
		Rules: textutil.DefaultRules(),

		ExpectedRegions:      2,
		MinRegionWidthRatio:  0.4,
		MaxRegionBottomRatio: 0.85,

		Columns:               19,
		OrientationTol:        0.2,
		RegionPad:             2.0,
		VerticalClusterTol:    0.6,
		HorizontalClusterTol:  0.2,
		MinVerticalSpanRatio:  0.7,
		MinHorizontalLenRatio: 0.95,
		HorizontalEndSlack:    4.0,
		MinHorizontalLines:    4,
		LastBorderTol:         0.5,

		HeaderLineYTol: 2.5,
		MinHeaderLines: 3,

		FallbackRowYTol:     3.0,
		FallbackHeaderDepth: 8,

		CodeCol:  0,
		NameCol:  1,
		NoteCol:  3,
		PowerCol: 9,
		CountCol: 15,

		DrawingLineYTol:     2.5,
		DrawingBottomXRatio: 0.65,
		DrawingBottomYRatio: 0.65,
	}
}
