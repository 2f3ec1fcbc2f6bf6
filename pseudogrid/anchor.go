package pseudogrid

import (
	"sort"

	"github.com/hayashi-antas/plan2table/cluster"
	"github.com/hayashi-antas/plan2table/model"
)

// HeaderAnchor is a row segment that scores enough header keyword
// categories to seed a table candidate.
type HeaderAnchor struct {
	RowY       float64
	Box        model.BBox
	Categories []string
	Text       string
}

// DetectHeaderAnchors clusters the page words into rows, splits each
// row at large horizontal gaps (side-by-side tables share a row band)
// and keeps the segments meeting the category threshold. Overlapping
// anchors deduplicate in favor of the higher category count.
func DetectHeaderAnchors(words []model.Token, cfg Config) []HeaderAnchor {
	var anchors []HeaderAnchor
	for _, row := range cluster.ByY(words, cfg.HeaderYCluster) {
		for _, seg := range cluster.SplitByXGap(row, cfg.HeaderXGap) {
			text := seg.Text(" ")
			cats := cfg.Rules.HeaderCategories(text)
			if len(cats) < cfg.Rules.MinHeaderCategories {
				continue
			}
			anchors = append(anchors, HeaderAnchor{
				RowY:       seg.CenterY,
				Box:        seg.Box(),
				Categories: sortedKeys(cats),
				Text:       text,
			})
		}
	}

	sort.SliceStable(anchors, func(i, j int) bool {
		if anchors[i].RowY != anchors[j].RowY {
			return anchors[i].RowY < anchors[j].RowY
		}
		return anchors[i].Box.X0 < anchors[j].Box.X0
	})

	var deduped []HeaderAnchor
	for _, a := range anchors {
		if len(deduped) == 0 {
			deduped = append(deduped, a)
			continue
		}
		prev := &deduped[len(deduped)-1]
		sameRow := abs(a.RowY-prev.RowY) <= cfg.NearbyHeaderY
		sameX := abs(a.Box.X0-prev.Box.X0) <= cfg.NearbyHeaderX
		if sameRow && sameX {
			if len(a.Categories) > len(prev.Categories) ||
				(len(a.Categories) == len(prev.Categories) && len(a.Text) > len(prev.Text)) {
				*prev = a
			}
			continue
		}
		deduped = append(deduped, a)
	}
	return deduped
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
