package realgrid

import (
	"github.com/hayashi-antas/plan2table/model"
	"github.com/hayashi-antas/plan2table/textutil"
)

// Extractor reconstructs schedule tables from one vector page at a
// time. It is stateless after construction and safe for concurrent use
// across pages.
type Extractor struct {
	cfg Config
}

// NewExtractor returns an extractor with the given thresholds. A nil
// rule set falls back to the standard schedule rules.
func NewExtractor(cfg Config) *Extractor {
	if cfg.Rules == nil {
		cfg.Rules = textutil.DefaultRules()
	}
	return &Extractor{cfg: cfg}
}

// Config returns the extractor's configuration.
func (e *Extractor) Config() Config { return e.cfg }

// PageResult is one page's reconstruction: the raw cell rows of both
// regions in left-to-right region order, the reconstructed header set
// and the page's drawing identifier. Skipped marks a page with no
// qualifying table region.
type PageResult struct {
	Page          int
	Headers       []string
	Rows          [][]string
	DrawingNumber string
	FallbackUsed  bool
	Skipped       bool
}

// ExtractPage reconstructs the page's tables. A page without
// qualifying regions is skipped, any region count other than
// ExpectedRegions is a *RegionCountError, and a malformed grid whose
// keyword fallback also fails is a *GridLineError. Both error kinds
// are scoped to this page.
func (e *Extractor) ExtractPage(page model.PageGeometry) (*PageResult, error) {
	regions := e.qualifyingRegions(page)
	if len(regions) == 0 {
		return &PageResult{Page: page.Number, Skipped: true}, nil
	}
	if len(regions) != e.cfg.ExpectedRegions {
		return nil, &RegionCountError{Page: page.Number, Found: len(regions), Want: e.cfg.ExpectedRegions}
	}

	res := &PageResult{Page: page.Number}
	for _, region := range regions {
		rows, verts, err := e.gridRows(page, region)
		if err != nil {
			frows, ok := e.fallbackRows(page, region)
			if !ok {
				return nil, err
			}
			rows = frows
			res.FallbackUsed = true
		} else if res.Headers == nil {
			res.Headers = e.headersFromRegion(page, region, verts)
		}
		res.Rows = append(res.Rows, rows...)
	}
	if res.Headers == nil {
		res.Headers = e.defaultHeaders()
	}
	res.DrawingNumber = e.drawingNumber(page)

	return res, nil
}
