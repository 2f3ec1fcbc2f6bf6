// Package plan2table reconstructs equipment schedule tables from
// engineering drawings and reconciles them across two documents.
//
// The primary document is a vector PDF whose line geometry and text
// layer arrive as model.PageGeometry pages; the secondary document is
// a scanned or rendered drawing whose pages arrive as images plus a
// word source (typically the OCR adapter in the ocr package).
//
// Basic usage:
//
//	result, err := plan2table.New().
//	    WordSource(src).
//	    PrimaryPages(geometry...).
//	    SecondaryPages(scans...).
//	    Run(ctx)
//	if err != nil {
//	    // handle error
//	}
//
// With options:
//
//	records, err := plan2table.New().
//	    WordSource(src).
//	    PrimaryPages(geometry...).
//	    SecondaryPages(scans...).
//	    Tolerance(0.05).
//	    StrictCapacity().
//	    Reconciled(ctx)
//
// For advanced use cases, the lower-level pseudogrid, realgrid,
// records and reconcile packages are also available.
package plan2table

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hayashi-antas/plan2table/export"
	"github.com/hayashi-antas/plan2table/model"
	"github.com/hayashi-antas/plan2table/pipeline"
	"github.com/hayashi-antas/plan2table/pseudogrid"
	"github.com/hayashi-antas/plan2table/realgrid"
	"github.com/hayashi-antas/plan2table/reconcile"
)

// RasterPage is one rendered page of the secondary document.
type RasterPage = pipeline.RasterPage

// Result is the outcome of one full job run.
type Result = pipeline.Result

// Job provides a fluent interface for configuring and running one
// reconciliation. Each configuration method returns a new Job
// instance, making it safe for concurrent use and allowing method
// chaining.
type Job struct {
	primary   []model.PageGeometry
	secondary []RasterPage
	src       pseudogrid.WordSource

	options Options

	// Accumulated error (fail-fast)
	err error
}

// New returns a Job with the default configuration.
func New() *Job {
	return &Job{options: defaultOptions()}
}

// clone creates a shallow copy of the Job with a deep copy of options.
// This ensures immutability: each chain method returns a new instance.
func (j *Job) clone() *Job {
	return &Job{
		primary:   append([]model.PageGeometry(nil), j.primary...),
		secondary: append([]RasterPage(nil), j.secondary...),
		src:       j.src,
		options:   j.options.clone(),
		err:       j.err,
	}
}

// WordSource sets the word recognizer used for secondary pages.
func (j *Job) WordSource(src pseudogrid.WordSource) *Job {
	newJob := j.clone()
	newJob.src = src
	return newJob
}

// PrimaryPages appends vector pages to the primary document.
func (j *Job) PrimaryPages(pages ...model.PageGeometry) *Job {
	newJob := j.clone()
	newJob.primary = append(newJob.primary, pages...)
	return newJob
}

// SecondaryPages appends rendered pages to the secondary document.
func (j *Job) SecondaryPages(pages ...RasterPage) *Job {
	newJob := j.clone()
	newJob.secondary = append(newJob.secondary, pages...)
	return newJob
}

// Tolerance sets the absolute kW tolerance for capacity comparison.
func (j *Job) Tolerance(kw float64) *Job {
	newJob := j.clone()
	if kw < 0 {
		newJob.err = fmt.Errorf("tolerance must not be negative: %v", kw)
		return newJob
	}
	newJob.options.reconcile.Tolerance = kw
	return newJob
}

// StrictCapacity disables the prefer-max fallback for mode-tagged
// capacities: an undetermined mode yields a review judgment instead of
// adopting the maximum value.
func (j *Job) StrictCapacity() *Job {
	newJob := j.clone()
	newJob.options.reconcile.Policy = reconcile.Strict
	return newJob
}

// Aliases replaces the header-alias table used to resolve document
// columns.
func (j *Job) Aliases(aliases map[string][]string) *Job {
	newJob := j.clone()
	newJob.options.reconcile.Aliases = aliases
	return newJob.clone() // deep-copy the caller's map
}

// VectorConfig replaces the real-grid extractor configuration.
func (j *Job) VectorConfig(cfg realgrid.Config) *Job {
	newJob := j.clone()
	newJob.options.vector = cfg
	return newJob
}

// RasterConfig replaces the image-table extractor configuration.
func (j *Job) RasterConfig(cfg pseudogrid.Config) *Job {
	newJob := j.clone()
	newJob.options.raster = cfg
	return newJob
}

// Concurrency bounds the page workers per document.
func (j *Job) Concurrency(n int) *Job {
	newJob := j.clone()
	newJob.options.concurrency = n
	return newJob
}

// Logger sets the structured logger. A nil logger falls back to
// slog.Default().
func (j *Job) Logger(l *slog.Logger) *Job {
	newJob := j.clone()
	newJob.options.logger = l
	return newJob
}

// Run reconstructs both documents and reconciles them.
func (j *Job) Run(ctx context.Context) (*Result, error) {
	if j.err != nil {
		return nil, j.err
	}
	if len(j.secondary) > 0 && j.src == nil {
		return nil, fmt.Errorf("no word source specified for secondary pages")
	}

	runner := &pipeline.Runner{Log: j.options.logger, Concurrency: j.options.concurrency}
	primaryEx := realgrid.NewExtractor(j.options.vector)
	secondaryEx := pseudogrid.NewExtractor(j.src, j.options.raster)

	return runner.Run(ctx, primaryEx, j.primary, secondaryEx, j.secondary, j.options.reconcile)
}

// Reconciled runs the job and returns only the reconciled records.
func (j *Job) Reconciled(ctx context.Context) ([]reconcile.ReconciledRecord, error) {
	res, err := j.Run(ctx)
	if err != nil {
		return nil, err
	}
	return res.Records, nil
}

// WriteXLSX runs the job and writes the reconciled records to an XLSX
// workbook at path.
func (j *Job) WriteXLSX(ctx context.Context, path string) (*Result, error) {
	res, err := j.Run(ctx)
	if err != nil {
		return nil, err
	}
	w := export.NewWriter(j.options.logger)
	if err := w.WriteReconciled(path, res.Records); err != nil {
		return nil, err
	}
	return res, nil
}

// Must is a helper that wraps a call to a function returning (T, error)
// and panics if the error is non-nil. It is intended for use in scripts
// or tests where error handling would be cumbersome.
func Must[T any](val T, err error) T {
	if err != nil {
		panic(err)
	}
	return val
}
