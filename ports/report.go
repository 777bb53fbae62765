// Package ports defines the narrow interfaces the application services
// depend on, keeping the analysis orchestration independent of concrete
// output adapters.
package ports

import (
	"metadiv/domain/result"
	"metadiv/domain/table"
)

// ReportSink receives the plot-ready artifacts of a sweep. The concrete
// implementation lives in adapters/report.
type ReportSink interface {
	// WriteAbundance stores the normalized per-level abundance table used
	// by composition plots.
	WriteAbundance(depth int, t *table.AbundanceTable, normalization string) error

	// WriteLevel stores every artifact derived from one taxonomic depth.
	WriteLevel(lr *result.LevelResult) error

	// WriteManifest stores the sweep manifest.
	WriteManifest(m *result.SweepManifest) error
}
