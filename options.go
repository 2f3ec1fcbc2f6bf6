package plan2table

import (
	"log/slog"

	"github.com/hayashi-antas/plan2table/pseudogrid"
	"github.com/hayashi-antas/plan2table/realgrid"
	"github.com/hayashi-antas/plan2table/reconcile"
)

// Options holds the configuration of one reconciliation job.
type Options struct {
	vector    realgrid.Config
	raster    pseudogrid.Config
	reconcile reconcile.Config

	concurrency int
	logger      *slog.Logger
}

// defaultOptions returns the standard configuration for the two-table
// schedule family.
func defaultOptions() Options {
	return Options{
		vector:    realgrid.DefaultConfig(),
		raster:    pseudogrid.DefaultConfig(),
		reconcile: reconcile.DefaultConfig(),
	}
}

// clone creates a copy of Options with the alias table deep-copied;
// the extractor configs hold no shared mutable state besides the rule
// set, which is treated as read-only.
func (o Options) clone() Options {
	newOpts := o

	if o.reconcile.Aliases != nil {
		aliases := make(map[string][]string, len(o.reconcile.Aliases))
		for k, v := range o.reconcile.Aliases {
			aliases[k] = append([]string(nil), v...)
		}
		newOpts.reconcile.Aliases = aliases
	}

	return newOpts
}
