package realgrid

import (
	"sort"
	"strings"

	"github.com/hayashi-antas/plan2table/cluster"
	"github.com/hayashi-antas/plan2table/model"
	"github.com/hayashi-antas/plan2table/textutil"
)

// fallbackColumns are the categories the keyword fallback must locate
// before it can stand in for the border grid.
var fallbackCategories = []string{"code", "name", "power", "count"}

// fallbackRows rebuilds the region's rows without border geometry:
// the identifier, name, capacity and count columns are located by
// header keyword position, and each data row is projected into a
// synthetic raw row at the standard column indexes. Reports false when
// any required keyword column cannot be found.
func (e *Extractor) fallbackRows(page model.PageGeometry, region model.BBox) ([][]string, bool) {
	words := wordsIn(page.Words, region)
	rows := cluster.ByY(words, e.cfg.FallbackRowYTol)
	if len(rows) == 0 {
		return nil, false
	}

	centers := make(map[string]float64)
	headerEnd := 0
	depth := len(rows)
	if depth > e.cfg.FallbackHeaderDepth {
		depth = e.cfg.FallbackHeaderDepth
	}
	for i := 0; i < depth; i++ {
		hit := false
		for _, t := range rows[i].Tokens {
			for _, cat := range fallbackCategories {
				if _, ok := centers[cat]; ok {
					continue
				}
				if e.cfg.Rules.MatchesCategory(cat, t.Text) {
					centers[cat] = t.CenterX()
					hit = true
				}
			}
		}
		if hit {
			headerEnd = i + 1
		}
	}
	if len(centers) < len(fallbackCategories) {
		return nil, false
	}

	// Bucket boundaries at the midpoints between adjacent keyword
	// centers, ordered left to right.
	type kwCol struct {
		cat string
		x   float64
	}
	ordered := make([]kwCol, 0, len(centers))
	for cat, x := range centers {
		ordered = append(ordered, kwCol{cat: cat, x: x})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].x < ordered[j].x })

	bounds := make([]float64, 0, len(ordered)-1)
	for i := 0; i+1 < len(ordered); i++ {
		bounds = append(bounds, (ordered[i].x+ordered[i+1].x)/2)
	}
	bucketOf := func(x float64) string {
		for i, b := range bounds {
			if x < b {
				return ordered[i].cat
			}
		}
		return ordered[len(ordered)-1].cat
	}

	colOf := map[string]int{
		"code":  e.cfg.CodeCol,
		"name":  e.cfg.NameCol,
		"power": e.cfg.PowerCol,
		"count": e.cfg.CountCol,
	}

	var out [][]string
	for _, row := range rows[headerEnd:] {
		cells := make(map[string][]string)
		note := ""
		for _, t := range row.Tokens {
			if isNoteMarker(t.Text) {
				note = t.Text
				continue
			}
			cat := bucketOf(t.CenterX())
			cells[cat] = append(cells[cat], t.Text)
		}

		raw := make([]string, e.cfg.Columns)
		for cat, parts := range cells {
			raw[colOf[cat]] = textutil.CleanCell(strings.Join(parts, " "))
		}
		if note != "" {
			raw[e.cfg.NoteCol] = textutil.CleanCell(note)
		}

		empty := true
		for _, c := range raw {
			if c != "" {
				empty = false
				break
			}
		}
		if !empty {
			out = append(out, raw)
		}
	}

	return out, len(out) > 0
}

// isNoteMarker reports whether a token is a notes/legend bullet that
// must land in the notes column regardless of its x position.
func isNoteMarker(s string) bool {
	t := strings.TrimSpace(s)
	return strings.HasPrefix(t, "■") || strings.HasPrefix(t, "※") || strings.HasPrefix(t, "◆")
}
