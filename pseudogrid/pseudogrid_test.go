package pseudogrid

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/hayashi-antas/plan2table/model"
)

func tok(text string, x0, y0, x1, y1 float64) model.Token {
	return model.Token{Text: text, Box: model.NewBBox(x0, y0, x1, y1), Conf: 92}
}

// headerTokens builds a four-category header row at the given y.
func headerTokens(y float64) []model.Token {
	return []model.Token{
		tok("Symbol", 180, y, 260, y+20),
		tok("Name", 420, y, 480, y+20),
		tok("Voltage(V)", 600, y, 690, y+20),
		tok("Capacity(kW)", 720, y, 840, y+20),
	}
}

func dataTokens(y float64, code, name, volt, cap string) []model.Token {
	return []model.Token{
		tok(code, 200, y, 280, y+20),
		tok(name, 400, y, 520, y+20),
		tok(volt, 620, y, 670, y+20),
		tok(cap, 740, y, 800, y+20),
	}
}

func TestDetectHeaderAnchors(t *testing.T) {
	cfg := DefaultConfig()
	words := append(headerTokens(90), dataTokens(150, "SF-P-1", "supply fan", "200", "0.75")...)

	anchors := DetectHeaderAnchors(words, cfg)
	if len(anchors) != 1 {
		t.Fatalf("got %d anchors, want 1", len(anchors))
	}
	if len(anchors[0].Categories) != 4 {
		t.Errorf("categories = %v, want all 4", anchors[0].Categories)
	}
}

func TestDetectHeaderAnchorsNoneOnDataOnly(t *testing.T) {
	cfg := DefaultConfig()
	words := dataTokens(150, "SF-P-1", "supply fan", "200", "0.75")
	if got := DetectHeaderAnchors(words, cfg); len(got) != 0 {
		t.Errorf("got %d anchors on a header-less page, want 0", len(got))
	}
}

func TestDetectCandidatesMergesOverlapping(t *testing.T) {
	cfg := DefaultConfig()
	// Two stacked anchors whose scan regions mostly coincide: their
	// candidates merge on IoU.
	words := append(headerTokens(90), headerTokens(130)...)
	words = append(words, dataTokens(180, "SF-P-1", "supply fan", "200", "0.75")...)

	got := DetectCandidates(words, 2000, 1400, cfg)
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1 after merge", len(got))
	}
}

func TestDetectCandidatesClipsAboveNextTable(t *testing.T) {
	cfg := DefaultConfig()
	var words []model.Token
	words = append(words, headerTokens(90)...)
	words = append(words, dataTokens(150, "SF-P-1", "supply fan", "200", "0.75")...)
	words = append(words, headerTokens(500)...)
	words = append(words, dataTokens(560, "EF-B2-3", "exhaust fan", "200", "2.2")...)

	got := DetectCandidates(words, 2000, 1400, cfg)
	if len(got) != 2 {
		t.Fatalf("got %d candidates, want 2", len(got))
	}
	if got[0].Box.Y1 > got[1].Box.Y0 {
		t.Errorf("first candidate bottom %.1f overlaps second top %.1f", got[0].Box.Y1, got[1].Box.Y0)
	}
}

func TestInferColumnBoundsFromHeaderKeywords(t *testing.T) {
	cfg := DefaultConfig()
	words := append(headerTokens(90), dataTokens(150, "SF-P-1", "supply fan", "200", "0.75")...)
	bounds := InferColumnBounds(words, 2000, cfg)

	cases := []struct {
		x    float64
		want int
	}{
		{220, colCode},     // under "Symbol"
		{450, colName},     // under "Name"
		{645, colVoltage},  // under "Voltage(V)"
		{780, colCapacity}, // under "Capacity(kW)"
	}
	for _, c := range cases {
		if got := bounds.Column(c.x); got != c.want {
			t.Errorf("Column(%.0f) = %d, want %d (bounds %+v)", c.x, got, c.want, bounds)
		}
	}
	if bounds.Column(1900) != -1 {
		t.Error("x beyond the right guard must be unassigned")
	}
}

func TestInferColumnBoundsRatioFallback(t *testing.T) {
	cfg := DefaultConfig()
	bounds := InferColumnBounds(nil, 1000, cfg)
	// Ratio-derived centers 240/350/400/440 give monotone breakpoints.
	if !(bounds.XMin < bounds.B12 && bounds.B12 < bounds.B23 && bounds.B23 < bounds.B34 && bounds.B34 < bounds.XMax) {
		t.Errorf("fallback bounds not monotone: %+v", bounds)
	}
}

// Every token center in range lands in exactly one column.
func TestColumnAssignmentIsTotal(t *testing.T) {
	cfg := DefaultConfig()
	words := append(headerTokens(90), dataTokens(150, "SF-P-1", "supply fan", "200", "0.75")...)
	bounds := InferColumnBounds(words, 2000, cfg)
	for x := bounds.XMin; x <= bounds.XMax; x += 7.3 {
		if got := bounds.Column(x); got < 0 || got >= columnCount {
			t.Fatalf("Column(%.1f) = %d, outside [0,%d)", x, got, columnCount)
		}
	}
}

func TestRowsFromTokensClassification(t *testing.T) {
	cfg := DefaultConfig()
	var words []model.Token
	words = append(words, headerTokens(90)...)
	words = append(words, dataTokens(150, "SF-P-1", "supply fan", "200", "0.75")...)
	words = append(words, dataTokens(200, "EF-B2-3", "exhaust fan", "200", "2.2")...)
	// A plan label with no values must not become a row.
	words = append(words, tok("SL-6", 200, 250, 260, 270))

	bounds := InferColumnBounds(words, 2000, cfg)
	startY := DataStartY(words, bounds.HeaderY, cfg)
	res := rowsFromTokens(words, bounds, startY, cfg.TrailingNonDataGap, cfg)

	if len(res.Rows) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(res.Rows), res.Rows)
	}
	if res.Rows[0].Code != "SF-P-1" || res.Rows[1].Code != "EF-B2-3" {
		t.Errorf("codes = %q, %q", res.Rows[0].Code, res.Rows[1].Code)
	}
	if !res.SawData {
		t.Error("SawData = false")
	}
}

func TestRowsFromTokensStopsAtFooter(t *testing.T) {
	cfg := DefaultConfig()
	var words []model.Token
	words = append(words, headerTokens(90)...)
	words = append(words, dataTokens(150, "SF-P-1", "supply fan", "200", "0.75")...)
	words = append(words, tok("DRAWING TITLE scale 1:100", 200, 210, 700, 230))
	words = append(words, dataTokens(260, "EF-B2-3", "exhaust fan", "200", "2.2")...)

	bounds := InferColumnBounds(words, 2000, cfg)
	startY := DataStartY(words, bounds.HeaderY, cfg)
	res := rowsFromTokens(words, bounds, startY, cfg.TrailingNonDataGap, cfg)

	if !res.StoppedByFooter {
		t.Fatal("footer row did not stop the scan")
	}
	if len(res.Rows) != 1 {
		t.Errorf("got %d rows, want 1 (rows below the footer discarded)", len(res.Rows))
	}
}

func TestNormalizeRowCells(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name string
		in   Row
		want Row
	}{
		{
			"fused name",
			Row{Code: "SF-P-1supply fan", Voltage: "200V", Capacity: "0.75"},
			Row{Code: "SF-P-1", Name: "supply fan", Voltage: "200", Capacity: "0.75"},
		},
		{
			"suffix noise",
			Row{Code: "EF-B2-2A", Voltage: "200", Capacity: "2.2"},
			Row{Code: "EF-B2-2", Name: "exhaust fan", Voltage: "200", Capacity: "2.2"},
		},
		{
			"name prefill from code prefix",
			Row{Code: "PAC-1", Voltage: "200", Capacity: "3.0"},
			Row{Code: "PAC-1", Name: "A/C indoor unit", Voltage: "200", Capacity: "3.0"},
		},
		{
			"over-precision capacity",
			Row{Code: "SF-P-1", Name: "supply fan", Voltage: "200", Capacity: "0.75255"},
			Row{Code: "SF-P-1", Name: "supply fan", Voltage: "200", Capacity: "0.75"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeRowCells(tt.in, cfg.Rules)
			if got.Code != tt.want.Code || got.Name != tt.want.Name ||
				got.Voltage != tt.want.Voltage || got.Capacity != tt.want.Capacity {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDrawingNumberFromLabel(t *testing.T) {
	cfg := DefaultConfig()
	words := []model.Token{
		tok("DRAWING", 1500, 1200, 1570, 1220),
		tok("NO.", 1580, 1200, 1620, 1220),
		tok("M-102", 1520, 1250, 1600, 1270),
	}
	if got := DrawingNumberFromTokens(words, 2000, 1400, cfg); got != "M-102" {
		t.Errorf("got %q, want M-102", got)
	}
}

func TestDrawingNumberBottomRightFallback(t *testing.T) {
	cfg := DefaultConfig()
	// No label anywhere; a matching token sits in the bottom-right region.
	words := []model.Token{
		tok("legend", 100, 100, 180, 120),
		tok("E-05", 1700, 1300, 1760, 1320),
	}
	if got := DrawingNumberFromTokens(words, 2000, 1400, cfg); got != "E-05" {
		t.Errorf("got %q, want E-05", got)
	}
}

func TestResolveDrawingNumberTextLayerFallback(t *testing.T) {
	cfg := DefaultConfig()
	textWords := []model.Token{tok("M-207", 560, 820, 600, 830)}
	got, source := ResolveDrawingNumber(nil, 2000, 1400, textWords, 800, 1100, cfg)
	if got != "M-207" || source != DrawingSourceTextLayer {
		t.Errorf("got (%q, %q), want (M-207, %s)", got, source, DrawingSourceTextLayer)
	}

	got, source = ResolveDrawingNumber(nil, 2000, 1400, nil, 0, 0, cfg)
	if got != "" || source != DrawingSourceNone {
		t.Errorf("empty inputs: got (%q, %q)", got, source)
	}
}

// wordsFunc adapts a function to the WordSource interface.
type wordsFunc func(img image.Image) ([]model.Token, error)

func (f wordsFunc) Words(img image.Image) ([]model.Token, error) { return f(img) }

func whitePage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.White}, image.Point{}, draw.Src)
	return img
}

func TestExtractPageEndToEnd(t *testing.T) {
	cfg := DefaultConfig()

	pageTokens := append(headerTokens(90), dataTokens(150, "SF-P-1", "supply fan", "200", "0.75")...)
	pageTokens = append(pageTokens, dataTokens(200, "EF-B2-3", "exhaust fan", "200", "2.2")...)
	pageTokens = append(pageTokens, tok("M-102", 1800, 1350, 1860, 1370))

	src := wordsFunc(func(img image.Image) ([]model.Token, error) {
		if img.Bounds().Dx() == 2000 {
			return pageTokens, nil
		}
		// A crop call: candidate boxes in this fixture always start
		// at the same offset, so shift to crop-local coordinates.
		var out []model.Token
		for _, w := range pageTokens {
			b := w.Box.Translate(-120, -66)
			if b.Y1 < 0 || b.Y0 > float64(img.Bounds().Dy()) {
				continue
			}
			out = append(out, model.Token{Text: w.Text, Box: b, Conf: w.Conf})
		}
		return out, nil
	})

	e := NewExtractor(src, cfg)
	res, err := e.ExtractPage(context.Background(), whitePage(2000, 1400), 3, nil, nil)
	if err != nil {
		t.Fatalf("ExtractPage: %v", err)
	}
	if res.Candidates != 1 {
		t.Errorf("candidates = %d, want 1", res.Candidates)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("got %d rows, want 2: %+v", len(res.Rows), res.Rows)
	}
	if res.Rows[0].Code != "SF-P-1" || res.Rows[1].Code != "EF-B2-3" {
		t.Errorf("codes = %q, %q", res.Rows[0].Code, res.Rows[1].Code)
	}
	if res.Rows[0].Table != "T01" {
		t.Errorf("table label = %q, want T01", res.Rows[0].Table)
	}
	if res.DrawingNumber != "M-102" || res.DrawingSource != DrawingSourceOCR {
		t.Errorf("drawing = (%q, %q), want (M-102, ocr)", res.DrawingNumber, res.DrawingSource)
	}
}

// A page without any header anchor yields zero rows and no error.
func TestExtractPageNoHeaderNoError(t *testing.T) {
	cfg := DefaultConfig()
	src := wordsFunc(func(image.Image) ([]model.Token, error) {
		return []model.Token{tok("floor plan", 300, 300, 420, 320)}, nil
	})

	e := NewExtractor(src, cfg)
	res, err := e.ExtractPage(context.Background(), whitePage(2000, 1400), 3, nil, nil)
	if err != nil {
		t.Fatalf("ExtractPage: %v", err)
	}
	if len(res.Rows) != 0 {
		t.Errorf("got %d rows, want 0", len(res.Rows))
	}
	if !res.FallbackUsed {
		t.Error("legacy fallback should have been attempted")
	}
}

func TestAssistTrigger(t *testing.T) {
	rows := []Row{
		{Code: "", Name: "continuation"},
		{Code: "", Name: "continuation"},
		{Code: "SF-P-1", Name: "supply fan"},
	}
	ok, reasons := assistTrigger(rowsResult{Rows: rows}, 800)
	if !ok {
		t.Fatal("unresolved identifiers should trigger the assist")
	}
	if len(reasons) == 0 || reasons[0] != "unresolved-identifiers" {
		t.Errorf("reasons = %v", reasons)
	}

	ok, _ = assistTrigger(rowsResult{Rows: rows[2:]}, 800)
	if ok {
		t.Error("clean narrow crop must not trigger")
	}
}

func TestBlocksFromXs(t *testing.T) {
	// Guards at 0/200/400/600/800/1000: five blocks.
	blocks := blocksFromXs([]float64{200, 400, 600, 800}, 0, 1000)
	if len(blocks) != 5 {
		t.Fatalf("got %d blocks, want 5: %v", len(blocks), blocks)
	}
	// Doubled border lines 12px apart collapse.
	blocks = blocksFromXs([]float64{200, 212}, 0, 1000)
	if len(blocks) != 2 {
		t.Errorf("got %d blocks, want 2 after collapsing the doubled line", len(blocks))
	}
}

func TestAssistConfidenceBounds(t *testing.T) {
	words := dataTokens(100, "SF-P-1", "supply fan", "200", "0.75")
	blocks := [][2]float64{{150, 350}, {380, 560}, {590, 700}, {710, 850}}
	conf := assistConfidence(words, blocks, 5, 3)
	if conf < 0 || conf > 1 {
		t.Fatalf("confidence %v outside [0,1]", conf)
	}
	// Full coverage, strong lines, sane block count: must clear 0.70.
	if conf < 0.70 {
		t.Errorf("confidence = %v, want >= 0.70 for an ideal layout", conf)
	}
	if got := assistConfidence(nil, blocks, 5, 3); got != 0 {
		t.Errorf("no words: confidence = %v, want 0", got)
	}
}

func TestVerticalXsFromGeometry(t *testing.T) {
	crop := model.BBox{X0: 100, Y0: 100, X1: 900, Y1: 700}
	lines := []model.Line{
		{P0: model.Point{X: 300, Y: 120}, P1: model.Point{X: 300, Y: 680}}, // spans crop
		{P0: model.Point{X: 500, Y: 120}, P1: model.Point{X: 500, Y: 200}}, // too short
		{P0: model.Point{X: 120, Y: 400}, P1: model.Point{X: 880, Y: 400}}, // horizontal
	}
	xs := verticalXsFromGeometry(lines, crop)
	if len(xs) != 1 {
		t.Fatalf("got %d verticals, want 1: %v", len(xs), xs)
	}
	if xs[0] != 200 { // crop-local: 300 - 100
		t.Errorf("x = %v, want 200", xs[0])
	}
}
