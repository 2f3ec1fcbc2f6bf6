package pseudogrid

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/hayashi-antas/plan2table/model"
)

// Extractor reconstructs schedule rows from rendered page images.
type Extractor struct {
	cfg Config
	src WordSource
}

// NewExtractor builds an extractor over the given word source.
func NewExtractor(src WordSource, cfg Config) *Extractor {
	return &Extractor{cfg: cfg, src: src}
}

// PageResult is the outcome of extracting one page. A page with no
// header anchor yields zero rows; that is not an error.
type PageResult struct {
	Page          int
	Rows          []Row
	DrawingNumber string
	DrawingSource string
	Candidates    int
	FallbackUsed  bool
	Assist        []AssistOutcome
}

// ExtractPage runs the whole image-table path for one page: OCR,
// candidate detection (or the legacy half-page split on configured
// pages), per-candidate crop re-OCR with bottom expansion, and the
// drawing-number search. textWords are the page's text-layer words,
// used only as the drawing-number fallback; pass nil when absent.
// geomLines are the page's vector segments, consumed by the line
// assist; pass nil when absent.
func (e *Extractor) ExtractPage(ctx context.Context, img image.Image, pageNo int, textWords []model.Token, geomLines []model.Line) (PageResult, error) {
	if err := ctx.Err(); err != nil {
		return PageResult{}, err
	}

	pageW := float64(img.Bounds().Dx())
	pageH := float64(img.Bounds().Dy())

	pageWords, err := e.src.Words(img)
	if err != nil {
		return PageResult{}, fmt.Errorf("ocr page %d: %w", pageNo, err)
	}

	res := PageResult{Page: pageNo}

	runCandidates := func() ([]Row, []AssistOutcome, int, error) {
		return e.extractByCandidates(ctx, img, pageWords, pageW, pageH, geomLines)
	}
	runLegacy := func() ([]Row, error) {
		return e.extractLegacy(img)
	}

	if e.cfg.LegacyPages[pageNo] {
		rows, err := runLegacy()
		if err != nil {
			return PageResult{}, err
		}
		res.Rows = rows
		if len(rows) == 0 {
			res.FallbackUsed = true
			rows, assist, n, err := runCandidates()
			if err != nil {
				return PageResult{}, err
			}
			res.Rows, res.Assist, res.Candidates = rows, assist, n
		}
	} else {
		rows, assist, n, err := runCandidates()
		if err != nil {
			return PageResult{}, err
		}
		res.Rows, res.Assist, res.Candidates = rows, assist, n
		if len(rows) == 0 {
			res.FallbackUsed = true
			rows, err := runLegacy()
			if err != nil {
				return PageResult{}, err
			}
			res.Rows = rows
		}
	}

	res.DrawingNumber, res.DrawingSource = ResolveDrawingNumber(
		pageWords, pageW, pageH, textWords, pageW, pageH, e.cfg)
	return res, nil
}

func (e *Extractor) extractByCandidates(ctx context.Context, img image.Image, pageWords []model.Token, pageW, pageH float64, geomLines []model.Line) ([]Row, []AssistOutcome, int, error) {
	candidates := DetectCandidates(pageWords, pageW, pageH, e.cfg)

	var rows []Row
	var assists []AssistOutcome
	for i, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, nil, 0, err
		}
		parsed, assist, err := e.parseCandidate(img, c, pageH, geomLines)
		if err != nil {
			return nil, nil, 0, err
		}
		label := fmt.Sprintf("T%02d", i+1)
		for _, r := range parsed {
			r.Table = label
			rows = append(rows, r)
		}
		if assist.Invoked {
			assists = append(assists, assist)
		}
	}
	return rows, assists, len(candidates), nil
}

// parseCandidate crops the candidate region, re-OCRs it, and extracts
// rows. While the last data row still touches the crop's bottom edge
// (or the tail is unstable), the bottom is pushed down and the crop
// rescanned, bounded by the growth ratio and the attempt budget.
func (e *Extractor) parseCandidate(img image.Image, c TableCandidate, pageH float64, geomLines []model.Line) ([]Row, AssistOutcome, error) {
	initialHeight := math.Max(1, c.Box.Height())
	maxBottom := math.Min(pageH, c.Box.Y1+initialHeight*e.cfg.BottomExpandMaxRatio)

	crop := c.Box
	var result rowsResult
	var words []model.Token
	var bounds ColumnBounds
	haveBounds := false
	noGrowth := 0
	prevRows := -1

	for attempt := 0; ; attempt++ {
		if crop.IsEmpty() {
			break
		}
		cropped := cropImage(img, crop)
		var err error
		words, err = ocrCrop(e.src, cropped, e.cfg)
		if err != nil {
			return nil, AssistOutcome{}, err
		}

		if len(words) > 0 {
			bounds = InferColumnBounds(words, crop.Width(), e.cfg)
			haveBounds = true
			startY := DataStartY(words, bounds.HeaderY, e.cfg)
			result = rowsFromTokens(words, bounds, startY, e.cfg.TrailingNonDataGap, e.cfg)
		} else {
			result = rowsResult{LastDataBottom: -1}
		}

		if result.StoppedByFooter || attempt >= e.cfg.BottomExpandMaxTries || crop.Y1 >= pageH {
			break
		}

		nearEdge := false
		edgeThreshold := math.Max(e.cfg.BottomNearEdge, e.cfg.RowYCluster*3)
		if result.LastDataBottom >= 0 {
			nearEdge = crop.Height()-result.LastDataBottom <= edgeThreshold
		}
		unstableTail := result.TrailingNonData >= e.cfg.TrailingNonDataGap
		if !result.SawData || (!nearEdge && !unstableTail) {
			break
		}

		if prevRows >= 0 && len(result.Rows) <= prevRows {
			noGrowth++
		} else {
			noGrowth = 0
		}
		prevRows = len(result.Rows)
		// Keep extending while data still touches the edge even if
		// the row count has stalled; tails can appear late.
		if noGrowth >= e.cfg.BottomExpandNoGrowth && !nearEdge {
			break
		}

		next := math.Min(maxBottom, crop.Y1+e.cfg.BottomExpandStep)
		if next <= crop.Y1 {
			break
		}
		crop.Y1 = next
	}

	var assist AssistOutcome
	if haveBounds && len(words) > 0 {
		assist = e.lineAssist(img, crop, words, bounds, result, geomLines)
		if assist.Adopted {
			startY := DataStartY(words, assist.Bounds.HeaderY, e.cfg)
			result = rowsFromTokens(words, assist.Bounds, startY, e.cfg.TrailingNonDataGap, e.cfg)
		}
	}

	rows := make([]Row, len(result.Rows))
	for i, r := range result.Rows {
		r.Y += crop.Y0 // back to page coordinates
		rows[i] = r
	}
	return rows, assist, nil
}

// extractLegacy is the fixed left/right half-page path kept for the
// older document layout where two schedules share a page.
func (e *Extractor) extractLegacy(img image.Image) ([]Row, error) {
	pageW := float64(img.Bounds().Dx())
	pageH := float64(img.Bounds().Dy())

	var rows []Row
	for _, side := range []string{"L", "R"} {
		box := sideBoxes(pageW, pageH)[side]
		cropped := cropImage(img, box)
		words, err := e.src.Words(cropped)
		if err != nil {
			return nil, fmt.Errorf("ocr %s side: %w", side, err)
		}
		if len(words) == 0 {
			continue
		}
		bounds := InferColumnBounds(words, box.Width(), e.cfg)
		startY := bounds.HeaderY + e.cfg.LegacyStartOffset
		result := rowsFromTokens(words, bounds, startY, e.cfg.LegacyTrailingNonDataGap, e.cfg)
		for _, r := range result.Rows {
			r.Table = side
			r.Y += box.Y0
			rows = append(rows, r)
		}
	}
	return rows, nil
}
