package pseudogrid

import (
	"sort"
	"strings"

	"github.com/hayashi-antas/plan2table/cluster"
	"github.com/hayashi-antas/plan2table/model"
	"github.com/hayashi-antas/plan2table/textutil"
)

// Drawing-number provenance values.
const (
	DrawingSourceOCR       = "ocr"
	DrawingSourceTextLayer = "text_layer"
	DrawingSourceNone      = "none"
)

// drawingLabel recognizes the "drawing no." caption in the title block.
func drawingLabel(text string) bool {
	t := foldNoSpace(text)
	return strings.Contains(t, "drawingno") ||
		(strings.Contains(t, "drawing") && strings.Contains(t, "no."))
}

// DrawingNumberFromTokens finds the drawing number on a page: first a
// value directly below the latest "drawing no." label, then any
// matching token in the bottom-right title-block region.
func DrawingNumberFromTokens(words []model.Token, pageW, pageH float64, cfg Config) string {
	if len(words) == 0 {
		return ""
	}

	var label *model.RowCluster
	for _, rc := range cluster.ByY(words, cfg.DrawingYCluster) {
		if drawingLabel(rc.Text(" ")) {
			rc := rc
			if label == nil || rc.CenterY > label.CenterY {
				label = &rc
			}
		}
	}

	if label != nil {
		box := label.Box()
		var below []model.Token
		for _, w := range words {
			cy := w.CenterY()
			if cy <= label.CenterY+1 || cy > label.CenterY+cfg.DrawingLabelMaxOffset {
				continue
			}
			if w.Box.X1 < box.X0-cfg.DrawingLabelXTolLeft {
				continue
			}
			if w.Box.X0 > box.X1+cfg.DrawingLabelXTolRight {
				continue
			}
			below = append(below, w)
		}
		for _, rc := range cluster.ByY(below, cfg.DrawingValueYCluster) {
			if n := textutil.NormalizeDrawingNumber(rc.Text("")); n != "" {
				return n
			}
			for _, w := range rc.Tokens {
				if n := textutil.NormalizeDrawingNumber(w.Text); n != "" {
					return n
				}
			}
		}
	}

	// Bottom-right region scan.
	scan := make([]model.Token, 0, len(words))
	for _, w := range words {
		if w.CenterY() >= pageH*cfg.DrawingBottomYRatio && w.CenterX() >= pageW*cfg.DrawingBottomXRatio {
			scan = append(scan, w)
		}
	}
	sort.SliceStable(scan, func(i, j int) bool {
		if scan[i].CenterY() != scan[j].CenterY() {
			return scan[i].CenterY() < scan[j].CenterY()
		}
		return scan[i].CenterX() < scan[j].CenterX()
	})
	for _, w := range scan {
		if n := textutil.NormalizeDrawingNumber(w.Text); n != "" {
			return n
		}
	}
	return ""
}

// ResolveDrawingNumber tries the OCR words first and falls back to the
// caller-supplied text-layer words, reporting which source produced
// the value.
func ResolveDrawingNumber(ocrWords []model.Token, ocrW, ocrH float64, textWords []model.Token, textW, textH float64, cfg Config) (string, string) {
	if n := DrawingNumberFromTokens(ocrWords, ocrW, ocrH, cfg); n != "" {
		return n, DrawingSourceOCR
	}
	if n := DrawingNumberFromTokens(textWords, textW, textH, cfg); n != "" {
		return n, DrawingSourceTextLayer
	}
	return "", DrawingSourceNone
}

func foldNoSpace(s string) string {
	t := strings.ToLower(textutil.Normalize(s))
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, t)
}
