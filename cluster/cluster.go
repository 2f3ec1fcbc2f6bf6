// Package cluster provides the coordinate-clustering primitives shared
// by the pseudo-grid and real-grid reconstructors. All functions are
// pure: they never mutate their inputs and depend only on geometry.
package cluster

import (
	"math"
	"sort"

	"github.com/hayashi-antas/plan2table/model"
)

// ByY groups tokens into visual rows. Tokens are ordered by vertical
// center; a token joins the current row when its center is within
// threshold of the row's running centroid, otherwise it starts a new
// row. Rows come back top to bottom with tokens ordered left to right.
//
// The running centroid (mean of member centers, updated per insert)
// keeps slightly sloped scan rows together without letting the row
// drift more than the threshold overall.
func ByY(tokens []model.Token, threshold float64) []model.RowCluster {
	if len(tokens) == 0 {
		return nil
	}

	sorted := make([]model.Token, len(tokens))
	copy(sorted, tokens)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CenterY() < sorted[j].CenterY()
	})

	var rows []model.RowCluster
	cur := model.RowCluster{Tokens: []model.Token{sorted[0]}, CenterY: sorted[0].CenterY()}
	sum := sorted[0].CenterY()

	for _, t := range sorted[1:] {
		cy := t.CenterY()
		if math.Abs(cy-cur.CenterY) <= threshold {
			cur.Tokens = append(cur.Tokens, t)
			sum += cy
			cur.CenterY = sum / float64(len(cur.Tokens))
			continue
		}
		cur.SortTokens()
		rows = append(rows, cur)
		cur = model.RowCluster{Tokens: []model.Token{t}, CenterY: cy}
		sum = cy
	}
	cur.SortTokens()
	rows = append(rows, cur)

	return rows
}

// SplitByXGap splits one row into left-to-right segments wherever the
// horizontal gap between adjacent tokens exceeds gap. The input row's
// tokens must already be ordered left to right (ByY guarantees this).
func SplitByXGap(row model.RowCluster, gap float64) []model.RowCluster {
	if len(row.Tokens) == 0 {
		return nil
	}

	var out []model.RowCluster
	cur := model.RowCluster{Tokens: []model.Token{row.Tokens[0]}, CenterY: row.CenterY}
	right := row.Tokens[0].Box.X1

	for _, t := range row.Tokens[1:] {
		if t.Box.X0-right > gap {
			out = append(out, cur)
			cur = model.RowCluster{CenterY: row.CenterY}
		}
		cur.Tokens = append(cur.Tokens, t)
		if t.Box.X1 > right {
			right = t.Box.X1
		}
	}
	out = append(out, cur)

	return out
}

// Values groups near-equal 1-D coordinates and returns one mean per
// group, sorted ascending. Used to deduplicate grid-line positions.
func Values(values []float64, tol float64) []float64 {
	if len(values) == 0 {
		return nil
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var out []float64
	sum := sorted[0]
	n := 1

	for _, v := range sorted[1:] {
		if v-sum/float64(n) <= tol {
			sum += v
			n++
			continue
		}
		out = append(out, sum/float64(n))
		sum = v
		n = 1
	}
	out = append(out, sum/float64(n))

	return out
}

// MergedLength returns the total length covered by a set of 1-D
// intervals after merging overlaps. Each interval is a [lo, hi] pair;
// reversed pairs are normalized. Used to measure how much of a table
// edge a cluster of collinear segments actually covers (two short
// strokes with a gap must not count as one long border).
func MergedLength(intervals [][2]float64) float64 {
	if len(intervals) == 0 {
		return 0
	}

	norm := make([][2]float64, 0, len(intervals))
	for _, iv := range intervals {
		lo, hi := iv[0], iv[1]
		if hi < lo {
			lo, hi = hi, lo
		}
		norm = append(norm, [2]float64{lo, hi})
	}
	sort.Slice(norm, func(i, j int) bool { return norm[i][0] < norm[j][0] })

	total := 0.0
	lo, hi := norm[0][0], norm[0][1]
	for _, iv := range norm[1:] {
		if iv[0] <= hi {
			if iv[1] > hi {
				hi = iv[1]
			}
			continue
		}
		total += hi - lo
		lo, hi = iv[0], iv[1]
	}
	total += hi - lo

	return total
}

// XOverlapRatio returns the horizontal interval overlap of two boxes
// divided by the narrower box's width, in [0, 1].
func XOverlapRatio(a, b model.BBox) float64 {
	lo := math.Max(a.X0, b.X0)
	hi := math.Min(a.X1, b.X1)
	if hi <= lo {
		return 0
	}
	minW := math.Min(a.Width(), b.Width())
	if minW <= 0 {
		return 0
	}
	return (hi - lo) / minW
}

// Median returns the median of values; 0 for an empty slice.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// Mean returns the arithmetic mean of values; 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
