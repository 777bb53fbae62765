package table

import (
	"metadiv/domain/taxonomy"
	"metadiv/internal/errors"
)

// RankAnnotationTable holds, for a chosen depth, the parsed rank values of
// every taxon in an abundance table. Its row set is identical to the
// table's row set and it has exactly depth columns, regardless of the
// deepest label ever seen.
type RankAnnotationTable struct {
	depth  int
	taxa   []string
	values map[string][]string
}

// NewRankAnnotationTable parses each taxon label of the given table at the
// requested depth.
func NewRankAnnotationTable(t *AbundanceTable, depth int) (*RankAnnotationTable, error) {
	if depth < 1 || depth > taxonomy.MaxDepth {
		return nil, errors.InvalidInputf("annotation depth %d outside 1..%d", depth, taxonomy.MaxDepth)
	}
	taxa := t.Taxa()
	values := make(map[string][]string, len(taxa))
	for _, taxon := range taxa {
		values[taxon] = taxonomy.Parse(taxon, depth)
	}
	return &RankAnnotationTable{depth: depth, taxa: taxa, values: values}, nil
}

// Depth returns the number of rank columns.
func (a *RankAnnotationTable) Depth() int { return a.depth }

// Taxa returns the taxon identifiers in row order.
func (a *RankAnnotationTable) Taxa() []string {
	return append([]string(nil), a.taxa...)
}

// Ranks returns the parsed rank values for a taxon.
func (a *RankAnnotationTable) Ranks(taxon string) ([]string, bool) {
	v, ok := a.values[taxon]
	if !ok {
		return nil, false
	}
	return append([]string(nil), v...), true
}

// At returns one rank value, addressed by taxon and rank.
func (a *RankAnnotationTable) At(taxon string, rank taxonomy.Rank) (string, bool) {
	v, ok := a.values[taxon]
	if !ok || int(rank) < 1 || int(rank) > a.depth {
		return "", false
	}
	return v[rank-1], true
}
