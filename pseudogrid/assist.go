package pseudogrid

import (
	"image"
	"image/color"
	"math"
	"time"

	"github.com/hayashi-antas/plan2table/cluster"
	"github.com/hayashi-antas/plan2table/model"
)

// AssistOutcome is the tagged result of one line-assist attempt. The
// pass never silently mutates column bounds: callers see whether it
// ran, what it scored, and why it was rejected.
type AssistOutcome struct {
	Invoked        bool
	Adopted        bool
	Confidence     float64
	TriggerReasons []string
	RejectedReason string
	Elapsed        time.Duration

	VectorLineCount int
	ImageLineCount  int
	BlockCount      int

	// Bounds is the line-derived replacement, valid only when Adopted.
	Bounds ColumnBounds
}

// assistTrigger decides whether the auto mode should attempt the pass
// and why. Forced mode bypasses it; off mode never reaches it.
func assistTrigger(result rowsResult, cropW float64) (bool, []string) {
	var reasons []string
	total := len(result.Rows)
	if total == 0 {
		return false, nil
	}

	unresolved := 0
	for _, r := range result.Rows {
		if r.Code == "" {
			unresolved++
		}
	}
	if unresolved >= 2 && float64(unresolved)/float64(total) >= 0.35 {
		reasons = append(reasons, "unresolved-identifiers")
	}
	if total <= 2 && cropW > 900 {
		reasons = append(reasons, "sparse-rows-in-wide-crop")
	}
	return len(reasons) > 0, reasons
}

// lineAssist harvests vertical rulings from the page's vector segments
// and from a darkness profile of the crop image, fuses them into
// column blocks, and proposes replacement bounds. The proposal is
// adopted only when its confidence clears the threshold AND rescanning
// with it measurably improves quality (fewer unresolved identifiers or
// tighter column alignment).
func (e *Extractor) lineAssist(img image.Image, crop model.BBox, words []model.Token, base ColumnBounds, baseResult rowsResult, geomLines []model.Line) AssistOutcome {
	out := AssistOutcome{}
	cfg := e.cfg.Assist
	if cfg.Mode == AssistOff {
		return out
	}
	if cfg.Mode == AssistAuto {
		ok, reasons := assistTrigger(baseResult, crop.Width())
		out.TriggerReasons = reasons
		if !ok {
			return out
		}
	} else {
		out.TriggerReasons = []string{"forced"}
	}

	out.Invoked = true
	start := time.Now()
	deadline := start.Add(cfg.LatencyBudget)

	vectorXs := verticalXsFromGeometry(geomLines, crop)
	imageXs := verticalXsFromImage(img, crop, deadline)
	merged := cluster.Values(append(append([]float64{}, vectorXs...), imageXs...), 6.0)
	blocks := blocksFromXs(merged, 0, crop.Width())

	out.VectorLineCount = len(vectorXs)
	out.ImageLineCount = len(imageXs)
	out.BlockCount = len(blocks)
	out.Elapsed = time.Since(start)

	out.Confidence = assistConfidence(words, blocks, len(vectorXs), len(imageXs))
	if out.Confidence < cfg.MinConfidence {
		out.RejectedReason = "confidence below threshold"
		return out
	}
	if len(blocks) < columnCount {
		out.RejectedReason = "too few column blocks"
		return out
	}

	var centers [columnCount]float64
	for i := 0; i < columnCount; i++ {
		centers[i] = (blocks[i][0] + blocks[i][1]) / 2
	}
	proposed := boundsFromCenters(centers, base.HeaderY, crop.Width())

	startY := DataStartY(words, proposed.HeaderY, e.cfg)
	assisted := rowsFromTokens(words, proposed, startY, e.cfg.TrailingNonDataGap, e.cfg)

	baseUnresolved := countUnresolved(baseResult.Rows)
	newUnresolved := countUnresolved(assisted.Rows)
	baseAlign := alignmentError(words, base)
	newAlign := alignmentError(words, proposed)

	unresolvedImproved := newUnresolved < baseUnresolved && len(assisted.Rows) >= len(baseResult.Rows)
	alignmentImproved := newAlign+1.0 < baseAlign
	if !unresolvedImproved && !alignmentImproved {
		out.RejectedReason = "no quality gain"
		return out
	}

	out.Adopted = true
	out.Bounds = proposed
	return out
}

func countUnresolved(rows []Row) int {
	n := 0
	for _, r := range rows {
		if r.Code == "" {
			n++
		}
	}
	return n
}

// alignmentError is the mean distance of word centers to the nearest
// implied column center, the lower the better.
func alignmentError(words []model.Token, bounds ColumnBounds) float64 {
	if len(words) == 0 {
		return 0
	}
	centers := bounds.Centers()
	sum := 0.0
	for _, w := range words {
		cx := w.CenterX()
		best := math.Inf(1)
		for _, c := range centers {
			if d := math.Abs(cx - c); d < best {
				best = d
			}
		}
		sum += best
	}
	return sum / float64(len(words))
}

// assistConfidence weighs how well the detected blocks explain the
// word layout: coverage dominates, raw line evidence and a sane block
// count support it, closeness to the expected column count rounds it
// out.
func assistConfidence(words []model.Token, blocks [][2]float64, vectorCount, imageCount int) float64 {
	if len(words) == 0 || len(blocks) == 0 {
		return 0
	}

	hits := 0
	for _, w := range words {
		cx := w.CenterX()
		for _, b := range blocks {
			if b[0]-8 <= cx && cx <= b[1]+8 {
				hits++
				break
			}
		}
	}
	coverage := float64(hits) / float64(len(words))

	lineStrength := math.Min(float64(vectorCount+imageCount)/8.0, 1.0)

	blockScore := 0.3
	if len(blocks) >= 1 && len(blocks) <= 8 {
		blockScore = 1.0
	}

	alignment := 0.5
	if absInt(len(blocks)-columnCount) <= 2 {
		alignment = 1.0
	}

	conf := 0.45*coverage + 0.25*lineStrength + 0.20*blockScore + 0.10*alignment
	return math.Max(0, math.Min(conf, 1))
}

// verticalXsFromGeometry keeps the x positions of vector segments that
// are vertical, fall inside the crop, and span at least half its
// height. Positions come back crop-local.
func verticalXsFromGeometry(lines []model.Line, crop model.BBox) []float64 {
	var xs []float64
	minSpan := crop.Height() * 0.5
	for _, l := range lines {
		if !l.IsVertical(2.0) {
			continue
		}
		x := l.X()
		if x < crop.X0 || x > crop.X1 {
			continue
		}
		top := math.Max(l.MinY(), crop.Y0)
		bottom := math.Min(l.MaxY(), crop.Y1)
		if bottom-top < minSpan {
			continue
		}
		xs = append(xs, x-crop.X0)
	}
	return cluster.Values(xs, 4.0)
}

// verticalXsFromImage scans the crop's luminance column profile for
// long dark runs: the raster remnant of ruled column borders. The scan
// honors the latency deadline; a timeout returns what was found so far.
func verticalXsFromImage(img image.Image, crop model.BBox, deadline time.Time) []float64 {
	b := image.Rect(int(crop.X0), int(crop.Y0), int(crop.X1), int(crop.Y1)).
		Intersect(img.Bounds())
	if b.Empty() {
		return nil
	}
	minDark := int(float64(b.Dy()) * 0.6)

	var xs []float64
	runStart := -1
	for x := b.Min.X; x < b.Max.X; x++ {
		if x%16 == 0 && time.Now().After(deadline) {
			break
		}
		dark := 0
		for y := b.Min.Y; y < b.Max.Y; y++ {
			if luminance(img.At(x, y)) < 128 {
				dark++
			}
		}
		if dark >= minDark {
			if runStart < 0 {
				runStart = x
			}
			continue
		}
		if runStart >= 0 {
			xs = append(xs, float64(runStart+x-1)/2-crop.X0)
			runStart = -1
		}
	}
	if runStart >= 0 {
		xs = append(xs, float64(runStart+b.Max.X-1)/2-crop.X0)
	}
	return xs
}

func luminance(c color.Color) int {
	r, g, b, _ := c.RGBA()
	// Rec. 601 luma on 16-bit channels, scaled back to 8 bits.
	return int((299*r + 587*g + 114*b) / 1000 >> 8)
}

// blocksFromXs converts line positions into column blocks: guard
// positions closer than 18px collapse, and spans narrower than 70px
// are border doubles, not columns.
func blocksFromXs(xs []float64, x0, x1 float64) [][2]float64 {
	guards := []float64{x0}
	for _, x := range xs {
		if x >= x0 && x <= x1 {
			guards = append(guards, x)
		}
	}
	guards = append(guards, x1)

	var compact []float64
	for _, g := range guards {
		if len(compact) == 0 || g-compact[len(compact)-1] > 18 {
			compact = append(compact, g)
		}
	}

	var blocks [][2]float64
	for i := 0; i+1 < len(compact); i++ {
		if compact[i+1]-compact[i] < 70 {
			continue
		}
		blocks = append(blocks, [2]float64{compact[i], compact[i+1]})
	}
	return blocks
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
