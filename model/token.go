package model

import (
	"sort"
	"strings"
)

// Token is a positioned word: one OCR word box or one text-layer word.
type Token struct {
	Text string
	Box  BBox
	// Conf is the recognizer confidence in [0, 100]; -1 when the
	// source (e.g. a PDF text layer) carries no confidence.
	Conf float64
}

// CenterX returns the horizontal center of the token box.
func (t Token) CenterX() float64 { return t.Box.CenterX() }

// CenterY returns the vertical center of the token box.
func (t Token) CenterY() float64 { return t.Box.CenterY() }

// RowCluster is a group of tokens judged to share one visual text row.
type RowCluster struct {
	Tokens  []Token
	CenterY float64
}

// Box returns the union bounding box of the cluster's tokens.
func (r RowCluster) Box() BBox {
	if len(r.Tokens) == 0 {
		return BBox{}
	}
	b := r.Tokens[0].Box
	for _, t := range r.Tokens[1:] {
		b = b.Union(t.Box)
	}
	return b
}

// Text joins token texts left to right using sep.
func (r RowCluster) Text(sep string) string {
	parts := make([]string, len(r.Tokens))
	for i, t := range r.Tokens {
		parts[i] = t.Text
	}
	return strings.Join(parts, sep)
}

// SortTokens orders the cluster's tokens left to right.
func (r *RowCluster) SortTokens() {
	sort.SliceStable(r.Tokens, func(i, j int) bool {
		return r.Tokens[i].Box.X0 < r.Tokens[j].Box.X0
	})
}

// Record is one assembled equipment record: the identifier plus the
// full cell row it was accumulated from.
type Record struct {
	ID    string
	Cells []string
}

// Document is a reconstructed tabular document: ordered column headers
// and data rows aligned to them.
type Document struct {
	Headers []string
	Rows    [][]string
}

// PageGeometry carries the rendered geometry of one vector page:
// straight segments, text-layer words and detected table regions, in
// page coordinates with Y growing downward.
type PageGeometry struct {
	Number int
	Width  float64
	Height float64
	Lines  []Line
	Words  []Token
	Tables []BBox
}
