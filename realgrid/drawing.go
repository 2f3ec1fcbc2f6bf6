package realgrid

import (
	"sort"
	"strings"

	"github.com/hayashi-antas/plan2table/cluster"
	"github.com/hayashi-antas/plan2table/model"
	"github.com/hayashi-antas/plan2table/textutil"
)

// drawingNumber resolves the page's drawing identifier from the text
// layer: first a line labelled "drawing no." is scanned for a code to
// the right of the label, then the bottom-right title-block region is
// swept. Returns "" when neither yields a code.
func (e *Extractor) drawingNumber(page model.PageGeometry) string {
	lines := cluster.ByY(page.Words, e.cfg.DrawingLineYTol)

	for _, ln := range lines {
		folded := foldNoSpace(ln.Text(" "))
		if !strings.Contains(folded, "drawingno") &&
			!(strings.Contains(folded, "drawing") && strings.Contains(folded, "no")) {
			continue
		}
		for _, t := range ln.Tokens {
			tf := foldNoSpace(t.Text)
			if strings.Contains(tf, "drawing") || tf == "no" || tf == "no." {
				continue
			}
			if n := textutil.NormalizeDrawingNumber(t.Text); n != "" {
				return n
			}
		}
	}

	// Title blocks live in the bottom-right corner of the sheet.
	xMin := e.cfg.DrawingBottomXRatio * page.Width
	yMin := e.cfg.DrawingBottomYRatio * page.Height
	var corner []model.Token
	for _, w := range page.Words {
		if w.Box.X0 >= xMin && w.Box.Y0 >= yMin {
			corner = append(corner, w)
		}
	}
	sort.SliceStable(corner, func(i, j int) bool {
		if corner[i].CenterY() != corner[j].CenterY() {
			return corner[i].CenterY() < corner[j].CenterY()
		}
		return corner[i].CenterX() < corner[j].CenterX()
	})
	for _, w := range corner {
		if n := textutil.NormalizeDrawingNumber(w.Text); n != "" {
			return n
		}
	}

	return ""
}

func foldNoSpace(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(textutil.Normalize(s)), ""))
}
