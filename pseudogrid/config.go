// Package pseudogrid reconstructs tables from image-like pages where no
// line geometry survives: OCR word boxes are clustered into rows,
// header anchors seed table candidates, and column bounds are inferred
// from header keyword positions. A confidence-gated line-assist pass
// can replace the keyword-derived bounds when detected rulings clearly
// improve row resolution.
package pseudogrid

import (
	"time"

	"github.com/hayashi-antas/plan2table/textutil"
)

// Config holds the detection thresholds, in pixels of the rendered
// page image unless stated otherwise.
type Config struct {
	Rules *textutil.RuleSet

	// Row clustering.
	RowYCluster    float64 // data row grouping
	HeaderYCluster float64 // header row grouping
	HeaderXGap     float64 // splits side-by-side headers in one row band

	// Candidate inference around a header anchor.
	HeaderXMargin       float64
	HeaderRightMargin   float64
	HeaderTopMargin     float64
	MaxScanHeight       float64
	ScanBottomTolerance float64
	MinTableWidth       float64
	MinTableHeight      float64
	MergeIoU            float64 // candidates at/above this IoU merge
	NearbyHeaderY       float64
	NearbyHeaderX       float64

	// Column bounds. Ratios of the crop width used when header
	// keywords cannot place a column center.
	DefaultCenterRatios [4]float64
	HeaderCenterXMax    float64 // ratio; keyword centers beyond this are title-block noise

	// Data start offset below the header, derived from the median
	// header glyph height and clamped to [MinStartOffset, MaxStartOffset].
	MinStartOffset     float64
	MaxStartOffset     float64
	DefaultStartOffset float64
	LegacyStartOffset  float64 // fixed offset for the legacy side-split path

	// Row scan termination.
	TrailingNonDataGap       int
	LegacyTrailingNonDataGap int

	// Bottom expansion of a candidate crop while data still touches
	// its lower edge.
	BottomNearEdge       float64
	BottomExpandStep     float64
	BottomExpandMaxTries int
	BottomExpandMaxRatio float64 // of the initial candidate height
	BottomExpandNoGrowth int     // attempts without new rows before giving up

	// Re-OCR upscaling: crops narrower than MinCropWidth are scaled
	// up (at most MaxUpscale) before the second OCR pass.
	MinCropWidth int
	MaxUpscale   float64

	// LegacyPages lists page numbers that try the fixed left/right
	// half-page split before candidate detection. Either path falls
	// back to the other when it yields zero rows.
	LegacyPages map[int]bool

	// Drawing-number search.
	DrawingYCluster        float64
	DrawingValueYCluster   float64
	DrawingLabelMaxOffset  float64
	DrawingLabelXTolLeft   float64
	DrawingLabelXTolRight  float64
	DrawingBottomYRatio    float64
	DrawingBottomXRatio    float64

	Assist AssistConfig
}

// DefaultConfig returns thresholds tuned for 300 dpi page renders.
func DefaultConfig() Config {
	return Config{
		Rules: textutil.DefaultRules(),

		RowYCluster:    20.0,
		HeaderYCluster: 22.0,
		HeaderXGap:     180.0,

		HeaderXMargin:       60.0,
		HeaderRightMargin:   360.0,
		HeaderTopMargin:     24.0,
		MaxScanHeight:       360.0,
		ScanBottomTolerance: 24.0,
		MinTableWidth:       140.0,
		MinTableHeight:      45.0,
		MergeIoU:            0.55,
		NearbyHeaderY:       14.0,
		NearbyHeaderX:       45.0,

		DefaultCenterRatios: [4]float64{0.24, 0.35, 0.40, 0.44},
		HeaderCenterXMax:    0.55,

		MinStartOffset:     10.0,
		MaxStartOffset:     36.0,
		DefaultStartOffset: 24.0,
		LegacyStartOffset:  140.0,

		TrailingNonDataGap:       1,
		LegacyTrailingNonDataGap: 2,

		BottomNearEdge:       28.0,
		BottomExpandStep:     36.0,
		BottomExpandMaxTries: 6,
		BottomExpandMaxRatio: 0.45,
		BottomExpandNoGrowth: 2,

		MinCropWidth: 900,
		MaxUpscale:   3.0,

		LegacyPages: map[int]bool{1: true, 2: true},

		DrawingYCluster:       22.0,
		DrawingValueYCluster:  12.0,
		DrawingLabelMaxOffset: 180.0,
		DrawingLabelXTolLeft:  120.0,
		DrawingLabelXTolRight: 320.0,
		DrawingBottomYRatio:   0.70,
		DrawingBottomXRatio:   0.70,

		Assist: DefaultAssistConfig(),
	}
}

// AssistMode selects when the line-assist pass may run.
type AssistMode string

const (
	AssistOff   AssistMode = "off"
	AssistAuto  AssistMode = "auto"
	AssistForce AssistMode = "force"
)

// AssistConfig controls the confidence-gated line-assist pass.
type AssistConfig struct {
	Mode          AssistMode
	LatencyBudget time.Duration
	MinConfidence float64
	Debug         bool
}

// DefaultAssistConfig enables auto mode with a 300ms budget.
func DefaultAssistConfig() AssistConfig {
	return AssistConfig{
		Mode:          AssistAuto,
		LatencyBudget: 300 * time.Millisecond,
		MinConfidence: 0.70,
	}
}
