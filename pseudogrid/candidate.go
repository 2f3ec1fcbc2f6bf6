package pseudogrid

import (
	"math"
	"sort"

	"github.com/hayashi-antas/plan2table/cluster"
	"github.com/hayashi-antas/plan2table/model"
)

// TableCandidate is a region believed to contain one table, seeded
// from a header anchor and grown over the words below it.
type TableCandidate struct {
	Box        model.BBox
	HeaderY    float64
	HeaderText string
	Categories []string
}

// DetectCandidates finds table regions on a page: one candidate per
// header anchor, merged when they nearly coincide, and clipped so a
// candidate never bleeds into the table below it.
func DetectCandidates(words []model.Token, pageW, pageH float64, cfg Config) []TableCandidate {
	anchors := DetectHeaderAnchors(words, cfg)
	if len(anchors) == 0 {
		return nil
	}

	var candidates []TableCandidate
	for _, a := range anchors {
		box := inferCandidateBox(a, words, pageW, pageH, cfg)
		if box.Width() < cfg.MinTableWidth || box.Height() < cfg.MinTableHeight {
			continue
		}
		candidates = append(candidates, TableCandidate{
			Box:        box,
			HeaderY:    a.RowY,
			HeaderText: a.Text,
			Categories: a.Categories,
		})
	}
	if len(candidates) == 0 {
		return nil
	}

	candidates = mergeCloseCandidates(candidates, cfg)

	// A candidate's scan region must stop above the next table's
	// header, otherwise the lower table's rows leak into it.
	for i := range candidates {
		base := &candidates[i]
		nextTop := base.Box.Y1
		for _, later := range candidates[i+1:] {
			if later.HeaderY <= base.HeaderY {
				continue
			}
			if cluster.XOverlapRatio(base.Box, later.Box) < 0.2 {
				continue
			}
			if later.Box.Y0 < nextTop {
				nextTop = later.Box.Y0
			}
		}
		if nextTop < base.Box.Y1 {
			base.Box.Y1 = math.Max(base.Box.Y0+cfg.MinTableHeight, nextTop-6.0)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].HeaderY != candidates[j].HeaderY {
			return candidates[i].HeaderY < candidates[j].HeaderY
		}
		return candidates[i].Box.X0 < candidates[j].Box.X0
	})
	return candidates
}

func inferCandidateBox(a HeaderAnchor, words []model.Token, pageW, pageH float64, cfg Config) model.BBox {
	left := math.Max(0, a.Box.X0-cfg.HeaderXMargin)
	right := math.Min(pageW, a.Box.X1+cfg.HeaderRightMargin)
	top := math.Max(0, a.Box.Y0-cfg.HeaderTopMargin)
	maxBottom := math.Min(pageH, a.Box.Y1+cfg.MaxScanHeight)
	scanBottom := math.Min(pageH, maxBottom+cfg.ScanBottomTolerance)

	var nearby []model.Token
	for _, w := range words {
		cx, cy := w.CenterX(), w.CenterY()
		if cx < left-20 || cx > right+20 {
			continue
		}
		if cy < a.Box.Y0-10 {
			continue
		}
		if cy <= scanBottom || (w.Box.Y0 <= scanBottom && scanBottom <= w.Box.Y1) {
			nearby = append(nearby, w)
		}
	}

	var bottom float64
	if len(nearby) > 0 {
		minX, maxX, maxY := nearby[0].Box.X0, nearby[0].Box.X1, nearby[0].Box.Y1
		for _, w := range nearby[1:] {
			minX = math.Min(minX, w.Box.X0)
			maxX = math.Max(maxX, w.Box.X1)
			maxY = math.Max(maxY, w.Box.Y1)
		}
		left = math.Max(0, math.Min(left, minX-12))
		right = math.Min(pageW, math.Max(right, maxX+12))
		bottom = math.Min(pageH, math.Max(maxY+20, a.Box.Y1+80))
	} else {
		bottom = math.Min(pageH, a.Box.Y1+220)
	}
	bottom = math.Max(bottom, a.Box.Y1+cfg.MinTableHeight)

	return model.BBox{X0: left, Y0: top, X1: right, Y1: bottom}
}

func mergeCloseCandidates(candidates []TableCandidate, cfg Config) []TableCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].HeaderY != candidates[j].HeaderY {
			return candidates[i].HeaderY < candidates[j].HeaderY
		}
		return candidates[i].Box.X0 < candidates[j].Box.X0
	})

	var merged []TableCandidate
	for _, c := range candidates {
		if len(merged) == 0 {
			merged = append(merged, c)
			continue
		}
		last := &merged[len(merged)-1]
		nearHeader := abs(c.HeaderY-last.HeaderY) <= cfg.NearbyHeaderY &&
			abs(c.Box.X0-last.Box.X0) <= cfg.NearbyHeaderX
		overlap := c.Box.IoU(last.Box) >= cfg.MergeIoU
		if !nearHeader && !overlap {
			merged = append(merged, c)
			continue
		}
		text := last.HeaderText
		if len(c.HeaderText) > len(text) {
			text = c.HeaderText
		}
		*last = TableCandidate{
			Box:        c.Box.Union(last.Box),
			HeaderY:    math.Min(c.HeaderY, last.HeaderY),
			HeaderText: text,
			Categories: unionStrings(last.Categories, c.Categories),
		}
	}
	return merged
}

func unionStrings(a, b []string) []string {
	set := make(map[string]bool, len(a)+len(b))
	for _, s := range a {
		set[s] = true
	}
	for _, s := range b {
		set[s] = true
	}
	return sortedKeys(set)
}
