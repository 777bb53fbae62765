package table

import (
	"github.com/fluhus/gostuff/gnum"

	"metadiv/internal/errors"
)

// AbundanceTable is a read-only matrix of non-negative counts (or normalized
// abundances) with taxon rows and sample columns. Row and column identifiers
// are unique. Mutating operations return fresh tables sharing no storage.
type AbundanceTable struct {
	taxa    []string
	samples []string
	values  [][]float64 // values[taxon][sample]
	rowIdx  map[string]int
	colIdx  map[string]int
}

// NewAbundanceTable builds a table and checks its invariants: unique row and
// column identifiers, rectangular shape, no negative counts.
func NewAbundanceTable(taxa, samples []string, values [][]float64) (*AbundanceTable, error) {
	if len(values) != len(taxa) {
		return nil, errors.InvalidInputf("have %d taxa but %d value rows", len(taxa), len(values))
	}
	rowIdx := make(map[string]int, len(taxa))
	for i, taxon := range taxa {
		if _, dup := rowIdx[taxon]; dup {
			return nil, errors.InvalidInputf("duplicate taxon identifier %q", taxon)
		}
		rowIdx[taxon] = i
	}
	colIdx := make(map[string]int, len(samples))
	for j, sample := range samples {
		if _, dup := colIdx[sample]; dup {
			return nil, errors.InvalidInputf("duplicate sample identifier %q", sample)
		}
		colIdx[sample] = j
	}
	for i, row := range values {
		if len(row) != len(samples) {
			return nil, errors.InvalidInputf("row %q has %d values, want %d", taxa[i], len(row), len(samples))
		}
		for j, v := range row {
			if v < 0 {
				return nil, errors.InvalidInputf("negative count %g at (%s, %s)", v, taxa[i], samples[j])
			}
		}
	}

	t := &AbundanceTable{
		taxa:    append([]string(nil), taxa...),
		samples: append([]string(nil), samples...),
		values:  make([][]float64, len(values)),
		rowIdx:  rowIdx,
		colIdx:  colIdx,
	}
	for i, row := range values {
		t.values[i] = append([]float64(nil), row...)
	}
	return t, nil
}

// NTaxa returns the number of taxon rows.
func (t *AbundanceTable) NTaxa() int { return len(t.taxa) }

// NSamples returns the number of sample columns.
func (t *AbundanceTable) NSamples() int { return len(t.samples) }

// Taxa returns the taxon identifiers in row order.
func (t *AbundanceTable) Taxa() []string {
	return append([]string(nil), t.taxa...)
}

// Samples returns the sample identifiers in column order.
func (t *AbundanceTable) Samples() []string {
	return append([]string(nil), t.samples...)
}

// Value returns the count at the given row and column position.
func (t *AbundanceTable) Value(taxon, sample int) float64 {
	return t.values[taxon][sample]
}

// Row returns a copy of one taxon's counts across samples.
func (t *AbundanceTable) Row(taxon int) []float64 {
	return append([]float64(nil), t.values[taxon]...)
}

// Column returns a copy of one sample's counts across taxa.
func (t *AbundanceTable) Column(sample int) []float64 {
	col := make([]float64, len(t.taxa))
	for i := range t.taxa {
		col[i] = t.values[i][sample]
	}
	return col
}

// ColumnByName returns one sample's counts, looked up by identifier.
func (t *AbundanceTable) ColumnByName(sample string) ([]float64, bool) {
	j, ok := t.colIdx[sample]
	if !ok {
		return nil, false
	}
	return t.Column(j), true
}

// HasTaxon reports whether the taxon identifier is present.
func (t *AbundanceTable) HasTaxon(taxon string) bool {
	_, ok := t.rowIdx[taxon]
	return ok
}

// ColumnSum returns the total count of one sample column.
func (t *AbundanceTable) ColumnSum(sample int) float64 {
	return gnum.Sum(t.Column(sample))
}

// FilterZeroRows returns a table without rows whose total across all samples
// is zero. Filtering an already-filtered table is a no-op.
func (t *AbundanceTable) FilterZeroRows() *AbundanceTable {
	var taxa []string
	var values [][]float64
	for i, row := range t.values {
		if gnum.Sum(row) == 0 {
			continue
		}
		taxa = append(taxa, t.taxa[i])
		values = append(values, row)
	}
	out, _ := NewAbundanceTable(taxa, t.samples, values)
	return out
}

// Relative returns a column-normalized copy: every sample column divided by
// its own total. A zero-total column yields NaN entries, which the distance
// validation gate downstream is responsible for catching.
func (t *AbundanceTable) Relative() *AbundanceTable {
	return t.scaleColumns(1)
}

// RPM returns a reads-per-million copy of the table.
func (t *AbundanceTable) RPM() *AbundanceTable {
	return t.scaleColumns(1e6)
}

func (t *AbundanceTable) scaleColumns(total float64) *AbundanceTable {
	sums := make([]float64, len(t.samples))
	for j := range t.samples {
		sums[j] = t.ColumnSum(j)
	}
	values := make([][]float64, len(t.taxa))
	for i, row := range t.values {
		values[i] = make([]float64, len(row))
		for j, v := range row {
			values[i][j] = v / sums[j] * total
		}
	}
	out := &AbundanceTable{
		taxa:    append([]string(nil), t.taxa...),
		samples: append([]string(nil), t.samples...),
		values:  values,
		rowIdx:  t.copyRowIdx(),
		colIdx:  t.copyColIdx(),
	}
	return out
}

// Subset returns a table restricted to the named sample columns, in the
// given order. Unknown samples are an input error.
func (t *AbundanceTable) Subset(samples []string) (*AbundanceTable, error) {
	values := make([][]float64, len(t.taxa))
	for i := range values {
		values[i] = make([]float64, len(samples))
	}
	for j, sample := range samples {
		col, ok := t.colIdx[sample]
		if !ok {
			return nil, errors.InvalidInputf("unknown sample %q", sample)
		}
		for i := range t.taxa {
			values[i][j] = t.values[i][col]
		}
	}
	return NewAbundanceTable(t.taxa, samples, values)
}

func (t *AbundanceTable) copyRowIdx() map[string]int {
	out := make(map[string]int, len(t.rowIdx))
	for k, v := range t.rowIdx {
		out[k] = v
	}
	return out
}

func (t *AbundanceTable) copyColIdx() map[string]int {
	out := make(map[string]int, len(t.colIdx))
	for k, v := range t.colIdx {
		out[k] = v
	}
	return out
}
