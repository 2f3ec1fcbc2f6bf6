package realgrid

import (
	"strings"

	"github.com/hayashi-antas/plan2table/cluster"
	"github.com/hayashi-antas/plan2table/model"
	"github.com/hayashi-antas/plan2table/textutil"
)

// headersFromRegion rebuilds the multi-row header (group row, sub-row,
// unit row) from the tokens above the first identifier row, aligned to
// the vertical borders. Returns nil when no identifier row exists or
// fewer than MinHeaderLines header lines are present.
func (e *Extractor) headersFromRegion(page model.PageGeometry, region model.BBox, verts []float64) []string {
	words := wordsIn(page.Words, region)

	dataTop := -1.0
	for _, w := range words {
		if textutil.IsEquipmentID(textutil.Normalize(w.Text)) {
			if dataTop < 0 || w.Box.Y0 < dataTop {
				dataTop = w.Box.Y0
			}
		}
	}
	if dataTop < 0 {
		return nil
	}

	var headerWords []model.Token
	for _, w := range words {
		if w.CenterY() < dataTop {
			headerWords = append(headerWords, w)
		}
	}

	lines := cluster.ByY(headerWords, e.cfg.HeaderLineYTol)
	if len(lines) < e.cfg.MinHeaderLines {
		return nil
	}
	// Keep the lines closest to the data: group, sub and unit rows.
	lines = lines[len(lines)-e.cfg.MinHeaderLines:]

	cols := make([][]string, e.cfg.Columns)
	for _, ln := range lines {
		for _, t := range ln.Tokens {
			col := assignCol(verts, t.CenterX(), e.cfg.LastBorderTol)
			if col >= 0 {
				cols[col] = append(cols[col], t.Text)
			}
		}
	}

	headers := make([]string, e.cfg.Columns)
	for i, parts := range cols {
		headers[i] = textutil.CleanCell(strings.Join(parts, " "))
	}
	e.applyCanonicalHeaders(headers)

	return headers
}

// applyCanonicalHeaders overrides the columns the reconciliation stage
// consumes with their canonical spellings, so a partially garbled
// header line cannot break the alias join downstream.
func (e *Extractor) applyCanonicalHeaders(h []string) {
	set := func(i int, v string) {
		if i >= 0 && i < len(h) {
			h[i] = v
		}
	}
	set(e.cfg.CodeCol, "equipment no.")
	set(e.cfg.NameCol, "name")
	set(e.cfg.NoteCol, "notes")
	set(e.cfg.PowerCol, "capacity (kW)")
	set(e.cfg.CountCol, "count")
}

// defaultHeaders is the canned header set used when no region yields a
// readable header, matching the standard 19-column schedule family.
func (e *Extractor) defaultHeaders() []string {
	canned := []string{
		"equipment no.", "name", "location", "notes", "type",
		"phase", "voltage (V)", "current (A)", "starter", "capacity (kW)",
		"pole", "breaker", "wiring", "size", "pipe",
		"count", "control", "source", "remarks",
	}
	if e.cfg.Columns == len(canned) {
		out := make([]string, len(canned))
		copy(out, canned)
		return out
	}
	out := make([]string, e.cfg.Columns)
	for i := range out {
		if i < len(canned) {
			out[i] = canned[i]
		}
	}
	e.applyCanonicalHeaders(out)
	return out
}

// wordsIn returns the words whose centers fall inside the box.
func wordsIn(words []model.Token, box model.BBox) []model.Token {
	var out []model.Token
	for _, w := range words {
		if box.Contains(w.Box.Center()) {
			out = append(out, w)
		}
	}
	return out
}
