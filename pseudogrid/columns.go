package pseudogrid

import (
	"math"
	"sort"
	"strings"

	"github.com/hayashi-antas/plan2table/cluster"
	"github.com/hayashi-antas/plan2table/model"
	"github.com/hayashi-antas/plan2table/textutil"
)

// Column indexes of the four-column schedule layout.
const (
	colCode = iota
	colName
	colVoltage
	colCapacity
	columnCount
)

// ColumnBounds holds the three breakpoints between the four columns
// plus outer guards. A token belongs to the column its center falls
// into; centers outside [XMin, XMax] are discarded.
type ColumnBounds struct {
	XMin    float64
	B12     float64
	B23     float64
	B34     float64
	XMax    float64
	HeaderY float64
}

// Column returns the column index for an x center, or -1 when the
// center lies outside the table.
func (b ColumnBounds) Column(x float64) int {
	if x < b.XMin || x > b.XMax {
		return -1
	}
	switch {
	case x < b.B12:
		return colCode
	case x < b.B23:
		return colName
	case x < b.B34:
		return colVoltage
	default:
		return colCapacity
	}
}

// Centers returns the four implied column centers.
func (b ColumnBounds) Centers() [columnCount]float64 {
	return [columnCount]float64{
		(b.XMin + b.B12) / 2,
		(b.B12 + b.B23) / 2,
		(b.B23 + b.B34) / 2,
		(b.B34 + b.XMax) / 2,
	}
}

// InferColumnBounds derives the four column centers from the position
// of header keywords and converts them to breakpoints. When the header
// is unreadable the centers fall back to fixed width ratios.
func InferColumnBounds(words []model.Token, width float64, cfg Config) ColumnBounds {
	rows := cluster.ByY(words, cfg.HeaderYCluster)
	if len(rows) == 0 {
		return boundsFromRatios(width, cfg)
	}

	// Best header row: most categories hit, topmost wins ties.
	best := -1
	bestScore := -1
	for i, row := range rows {
		score := len(cfg.Rules.HeaderCategories(row.Text(" ")))
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore < 2 {
		return boundsFromRatios(width, cfg)
	}
	header := rows[best]
	headerXMax := width * cfg.HeaderCenterXMax

	findX := func(keywords []string, xMin, xMax float64, pick string) (float64, bool) {
		var xs []float64
		for _, w := range header.Tokens {
			cx := w.CenterX()
			if xMin > 0 && cx <= xMin {
				continue
			}
			if xMax > 0 && cx >= xMax {
				continue
			}
			t := strings.ToLower(textutil.Normalize(w.Text))
			for _, k := range keywords {
				if strings.Contains(t, k) {
					xs = append(xs, cx)
					break
				}
			}
		}
		if len(xs) == 0 {
			return 0, false
		}
		sort.Float64s(xs)
		switch pick {
		case "min":
			return xs[0], true
		case "max":
			return xs[len(xs)-1], true
		default:
			return cluster.Median(xs), true
		}
	}

	c1, ok1 := findX(cfg.Rules.Code, 0, headerXMax, "max")
	c2, ok2 := findX(cfg.Rules.Name, c1+60, headerXMax, "max")
	c3, ok3 := findX(cfg.Rules.Voltage, c2+20, headerXMax, "min")
	c4, ok4 := findX(cfg.Rules.Power, c3+20, headerXMax, "min")

	centers := [columnCount]float64{c1, c2, c3, c4}
	oks := [columnCount]bool{ok1, ok2, ok3, ok4}
	for i := range centers {
		if !oks[i] {
			centers[i] = width * cfg.DefaultCenterRatios[i]
		}
	}

	// Keyword hits can collapse onto each other; push overlapping
	// centers apart so breakpoints stay monotone.
	if centers[1] <= centers[0]+40 {
		centers[1] = centers[0] + 120
	}
	if centers[2] <= centers[1]+30 {
		centers[2] = centers[1] + 90
	}
	if centers[3] <= centers[2]+20 {
		centers[3] = centers[2] + 80
	}

	bounds := boundsFromCenters(centers, header.CenterY, width)

	// A size/remarks column to the right of capacity narrows the
	// right guard so its values are not read as capacities.
	if c5, ok := findX([]string{"size", "pipe", "wiring", "remarks"}, centers[3]+30, 0, "min"); ok && c5 > centers[3]+35 {
		guard := (centers[3] + c5) / 2
		if guard > bounds.B34+15 {
			bounds.XMax = math.Min(bounds.XMax, guard)
		}
	}
	return bounds
}

func boundsFromRatios(width float64, cfg Config) ColumnBounds {
	var centers [columnCount]float64
	for i, r := range cfg.DefaultCenterRatios {
		centers[i] = width * r
	}
	return boundsFromCenters(centers, 0, width)
}

func boundsFromCenters(centers [columnCount]float64, headerY, width float64) ColumnBounds {
	b := ColumnBounds{
		B12:     (centers[0] + centers[1]) / 2,
		B23:     (centers[1] + centers[2]) / 2,
		B34:     (centers[2] + centers[3]) / 2,
		XMin:    math.Max(0, centers[0]-90),
		XMax:    math.Min(width, centers[3]+90),
		HeaderY: headerY,
	}
	if b.XMax <= b.B34 {
		b.XMax = math.Min(width, b.B34+60)
	}
	return b
}

// DataStartY computes where data rows begin below the header: the
// header's bottom edge plus an offset scaled to the median header
// glyph height, clamped so degenerate header boxes cannot push the
// start line off the table.
func DataStartY(words []model.Token, headerY float64, cfg Config) float64 {
	var bottom float64
	var heights []float64
	for _, w := range words {
		if abs(w.CenterY()-headerY) > cfg.HeaderYCluster {
			continue
		}
		bottom = math.Max(bottom, w.Box.Y1)
		heights = append(heights, math.Max(1, w.Box.Height()))
	}
	if len(heights) == 0 {
		return headerY + cfg.DefaultStartOffset
	}
	offset := cluster.Median(heights) * 1.2
	offset = math.Min(cfg.MaxStartOffset, math.Max(cfg.MinStartOffset, offset))
	return bottom + offset
}
