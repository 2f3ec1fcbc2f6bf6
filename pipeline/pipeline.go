// Package pipeline orchestrates the two-document reconstruction and
// reconciliation flow: pages fan out to workers, per-document results
// are concatenated in page order, and reconciliation starts only after
// both documents are complete.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/hayashi-antas/plan2table/model"
	"github.com/hayashi-antas/plan2table/pseudogrid"
	"github.com/hayashi-antas/plan2table/realgrid"
	"github.com/hayashi-antas/plan2table/reconcile"
	"github.com/hayashi-antas/plan2table/records"
)

// Runner coordinates page-parallel reconstruction.
type Runner struct {
	Log *slog.Logger
	// Concurrency bounds the page workers per document; zero or
	// negative means one worker per CPU.
	Concurrency int
}

// PageError is a page-scoped structural failure collected during
// reconstruction. The remaining pages still contribute rows; the
// caller decides whether partial results are acceptable.
type PageError struct {
	Page int
	Err  error
}

func (e PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e PageError) Unwrap() error { return e.Err }

// RasterPage is one rendered page for the image-table path, plus the
// optional text-layer words and vector segments the extractor can use
// as fallbacks.
type RasterPage struct {
	Number    int
	Image     image.Image
	TextWords []model.Token
	Lines     []model.Line
}

// Result is one full pipeline run.
type Result struct {
	Primary       model.Document
	Secondary     model.Document
	PrimaryErrors []PageError
	Records       []reconcile.ReconciledRecord
}

func (r *Runner) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

func (r *Runner) workers() int {
	if r.Concurrency > 0 {
		return r.Concurrency
	}
	return runtime.NumCPU()
}

// primaryHeaders is the column contract of the vector-path document.
func primaryHeaders() []string {
	return []string{"equipment no.", "name", "capacity (kW)", "count", "drawing no."}
}

// secondaryHeaders is the column contract of the image-path document.
func secondaryHeaders() []string {
	return []string{"equipment no.", "name", "voltage (V)", "capacity (kW)", "drawing no."}
}

// ReconstructVector runs the real-grid path over all pages. Pages run
// in parallel; rows are concatenated in page order. Region and grid
// failures are page-scoped: the page contributes zero rows and the
// error is collected, not raised.
func (r *Runner) ReconstructVector(ctx context.Context, ex *realgrid.Extractor, pages []model.PageGeometry) (model.Document, []PageError, error) {
	log := r.logger()

	type pageOutcome struct {
		res *realgrid.PageResult
		err error
	}
	outcomes := make([]pageOutcome, len(pages))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for i, page := range pages {
		i, page := i, page
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := ex.ExtractPage(page)
			outcomes[i] = pageOutcome{res: res, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.Document{}, nil, err
	}

	doc := model.Document{Headers: primaryHeaders()}
	var pageErrs []PageError
	cfg := vectorRecordConfig(ex.Config())

	for i, out := range outcomes {
		page := pages[i].Number
		if out.err != nil {
			var regionErr *realgrid.RegionCountError
			var gridErr *realgrid.GridLineError
			if !errors.As(out.err, &regionErr) && !errors.As(out.err, &gridErr) {
				return model.Document{}, nil, out.err
			}
			log.Warn("vector page failed", "page", page, "error", out.err)
			pageErrs = append(pageErrs, PageError{Page: page, Err: out.err})
			continue
		}
		if out.res.Skipped {
			log.Info("vector page skipped, no schedule regions", "page", page)
			continue
		}
		if out.res.FallbackUsed {
			log.Info("vector page used keyword fallback", "page", page)
		}

		recs := records.Assemble(out.res.Rows, cfg)
		doc.Rows = append(doc.Rows, records.FourColumnRows(recs, out.res.DrawingNumber, cfg)...)
	}

	log.Info("vector document reconstructed",
		"pages", len(pages), "rows", len(doc.Rows), "page_errors", len(pageErrs))
	return doc, pageErrs, nil
}

// ReconstructRaster runs the image-table path over all pages. Pages
// run in parallel; rows are concatenated in page order. A page whose
// recognition fails degrades to zero rows with a logged warning.
func (r *Runner) ReconstructRaster(ctx context.Context, ex *pseudogrid.Extractor, pages []RasterPage) (model.Document, error) {
	log := r.logger()

	results := make([]*pseudogrid.PageResult, len(pages))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers())
	for i, page := range pages {
		i, page := i, page
		g.Go(func() error {
			res, err := ex.ExtractPage(gctx, page.Image, page.Number, page.TextWords, page.Lines)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn("raster page failed", "page", page.Number, "error", err)
				return nil
			}
			results[i] = &res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.Document{}, err
	}

	doc := model.Document{Headers: secondaryHeaders()}
	cfg := rasterRecordConfig()

	for _, res := range results {
		if res == nil {
			continue
		}
		if res.FallbackUsed {
			log.Info("raster page used fallback layout", "page", res.Page)
		}
		doc.Rows = append(doc.Rows, rasterRows(res, cfg)...)
	}

	log.Info("raster document reconstructed", "pages", len(pages), "rows", len(doc.Rows))
	return doc, nil
}

// vectorRecordConfig aligns the record assembler with the extractor's
// column layout.
func vectorRecordConfig(ecfg realgrid.Config) records.Config {
	cfg := records.DefaultConfig()
	cfg.Rules = ecfg.Rules
	cfg.CodeCol = ecfg.CodeCol
	cfg.NameCol = ecfg.NameCol
	cfg.NoteCol = ecfg.NoteCol
	cfg.PowerCol = ecfg.PowerCol
	cfg.CountCol = ecfg.CountCol
	return cfg
}

// rasterRecordConfig maps the four-column image-path row layout onto
// the record assembler. The layout has no notes or count column.
func rasterRecordConfig() records.Config {
	cfg := records.DefaultConfig()
	cfg.CodeCol = 0
	cfg.NameCol = 1
	cfg.NoteCol = -1
	cfg.PowerCol = 3
	cfg.CountCol = -1
	return cfg
}

// rasterRows assembles one page's rows table by table. Records never
// continue across table candidates, so each candidate's rows feed the
// assembler separately.
func rasterRows(res *pseudogrid.PageResult, cfg records.Config) [][]string {
	var out [][]string

	flush := func(raw [][]string) {
		for _, rec := range records.Assemble(raw, cfg) {
			out = append(out, []string{
				rec.ID,
				cellAt(rec.Cells, 1),
				cellAt(rec.Cells, 2),
				cellAt(rec.Cells, 3),
				res.DrawingNumber,
			})
		}
	}

	var raw [][]string
	table := ""
	for _, row := range res.Rows {
		if row.Table != table && len(raw) > 0 {
			flush(raw)
			raw = nil
		}
		table = row.Table
		raw = append(raw, []string{row.Code, row.Name, row.Voltage, row.Capacity})
	}
	if len(raw) > 0 {
		flush(raw)
	}
	return out
}

func cellAt(cells []string, i int) string {
	if i < 0 || i >= len(cells) {
		return ""
	}
	return cells[i]
}

// Run reconstructs both documents concurrently and reconciles them.
// Reconciliation starts only after both documents are complete.
func (r *Runner) Run(ctx context.Context,
	primaryEx *realgrid.Extractor, primaryPages []model.PageGeometry,
	secondaryEx *pseudogrid.Extractor, secondaryPages []RasterPage,
	cfg reconcile.Config) (*Result, error) {

	res := &Result{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		doc, pageErrs, err := r.ReconstructVector(gctx, primaryEx, primaryPages)
		if err != nil {
			return fmt.Errorf("primary document: %w", err)
		}
		res.Primary, res.PrimaryErrors = doc, pageErrs
		return nil
	})
	g.Go(func() error {
		doc, err := r.ReconstructRaster(gctx, secondaryEx, secondaryPages)
		if err != nil {
			return fmt.Errorf("secondary document: %w", err)
		}
		res.Secondary = doc
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	recs, err := reconcile.Reconcile(res.Primary, res.Secondary, cfg)
	if err != nil {
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	res.Records = recs

	r.logger().Info("pipeline complete",
		"primary_rows", len(res.Primary.Rows),
		"secondary_rows", len(res.Secondary.Rows),
		"reconciled", len(res.Records))
	return res, nil
}
