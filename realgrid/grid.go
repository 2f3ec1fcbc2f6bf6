package realgrid

import (
	"sort"
	"strings"

	"github.com/hayashi-antas/plan2table/cluster"
	"github.com/hayashi-antas/plan2table/model"
	"github.com/hayashi-antas/plan2table/textutil"
)

// qualifyingRegions filters the page's table detections to those wide
// enough to be a schedule table and clear of the title block at the
// bottom of the sheet, ordered left to right.
func (e *Extractor) qualifyingRegions(page model.PageGeometry) []model.BBox {
	minW := e.cfg.MinRegionWidthRatio * page.Width
	maxBottom := e.cfg.MaxRegionBottomRatio * page.Height

	var out []model.BBox
	for _, b := range page.Tables {
		if b.Width() >= minW && b.Y1 <= maxBottom {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].X0 < out[j].X0 })
	return out
}

// verticalBorders clusters near-vertical segments inside the region
// into border x positions. A cluster only counts as a border when its
// merged segments cover most of the region height; two short strokes
// from cell shading must not pass as a column border.
func (e *Extractor) verticalBorders(lines []model.Line, region model.BBox) []float64 {
	type candidate struct {
		x    float64
		span [2]float64
	}

	var cands []candidate
	for _, l := range lines {
		if !l.IsVertical(e.cfg.OrientationTol) {
			continue
		}
		x := l.X()
		if x < region.X0-e.cfg.RegionPad || x > region.X1+e.cfg.RegionPad {
			continue
		}
		if l.MinY() < region.Y0-e.cfg.RegionPad || l.MaxY() > region.Y1+e.cfg.RegionPad {
			continue
		}
		cands = append(cands, candidate{x: x, span: [2]float64{l.MinY(), l.MaxY()}})
	}
	if len(cands) == 0 {
		return nil
	}
	sort.Slice(cands, func(i, j int) bool { return cands[i].x < cands[j].x })

	minSpan := e.cfg.MinVerticalSpanRatio * region.Height()
	var borders []float64

	flush := func(xs []float64, spans [][2]float64) {
		if cluster.MergedLength(spans) >= minSpan {
			borders = append(borders, cluster.Mean(xs))
		}
	}

	xs := []float64{cands[0].x}
	spans := [][2]float64{cands[0].span}
	for _, c := range cands[1:] {
		if c.x-cluster.Mean(xs) <= e.cfg.VerticalClusterTol {
			xs = append(xs, c.x)
			spans = append(spans, c.span)
			continue
		}
		flush(xs, spans)
		xs = []float64{c.x}
		spans = [][2]float64{c.span}
	}
	flush(xs, spans)

	return borders
}

// horizontalBorders clusters near-horizontal segments spanning the
// region width into border y positions.
func (e *Extractor) horizontalBorders(lines []model.Line, region model.BBox) []float64 {
	var ys []float64
	for _, l := range lines {
		if !l.IsHorizontal(e.cfg.OrientationTol) {
			continue
		}
		if l.MinX() < region.X0-e.cfg.RegionPad || l.MinX() > region.X0+e.cfg.HorizontalEndSlack {
			continue
		}
		if l.MaxX() > region.X1+e.cfg.RegionPad || l.MaxX() < region.X1-e.cfg.HorizontalEndSlack {
			continue
		}
		if l.Length() < e.cfg.MinHorizontalLenRatio*region.Width() {
			continue
		}
		ys = append(ys, l.Y())
	}
	return cluster.Values(ys, e.cfg.HorizontalClusterTol)
}

// gridRows cuts the region into cells using explicit border positions
// and returns the raw cell rows, top to bottom, plus the vertical
// borders used. The grid must carry exactly Columns+1 vertical borders
// and at least MinHorizontalLines horizontal borders.
func (e *Extractor) gridRows(page model.PageGeometry, region model.BBox) ([][]string, []float64, error) {
	verts := e.verticalBorders(page.Lines, region)
	horiz := e.horizontalBorders(page.Lines, region)

	if len(verts) != e.cfg.Columns+1 {
		return nil, nil, &GridLineError{
			Page: page.Number, Vertical: len(verts), Horizontal: len(horiz),
			Reason: "vertical border count does not match the column grid",
		}
	}
	if len(horiz) < e.cfg.MinHorizontalLines {
		return nil, nil, &GridLineError{
			Page: page.Number, Vertical: len(verts), Horizontal: len(horiz),
			Reason: "too few horizontal borders for a row grid",
		}
	}

	var rows [][]string
	for i := 0; i+1 < len(horiz); i++ {
		lo, hi := horiz[i], horiz[i+1]

		cells := make([][]model.Token, e.cfg.Columns)
		for _, w := range page.Words {
			cy := w.CenterY()
			if cy < lo || cy >= hi {
				continue
			}
			col := assignCol(verts, w.CenterX(), e.cfg.LastBorderTol)
			if col < 0 {
				continue
			}
			cells[col] = append(cells[col], w)
		}

		row := make([]string, e.cfg.Columns)
		empty := true
		for col, toks := range cells {
			sort.SliceStable(toks, func(a, b int) bool { return toks[a].Box.X0 < toks[b].Box.X0 })
			parts := make([]string, len(toks))
			for j, t := range toks {
				parts[j] = t.Text
			}
			row[col] = textutil.CleanCell(strings.Join(parts, " "))
			if row[col] != "" {
				empty = false
			}
		}
		if !empty {
			rows = append(rows, row)
		}
	}

	return rows, verts, nil
}

// assignCol maps an x position to the column whose borders enclose it.
// A word hugging the rightmost border from outside still belongs to
// the last column within lastTol; anything else outside the grid maps
// to -1.
func assignCol(borders []float64, x, lastTol float64) int {
	if len(borders) < 2 || x < borders[0] {
		return -1
	}
	for i := 0; i+1 < len(borders); i++ {
		if x >= borders[i] && x < borders[i+1] {
			return i
		}
	}
	if x <= borders[len(borders)-1]+lastTol {
		return len(borders) - 2
	}
	return -1
}
