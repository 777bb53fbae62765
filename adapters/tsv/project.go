package tsv

import (
	"fmt"

	"github.com/fluhus/gostuff/aio"

	"metadiv/domain/table"
	"metadiv/domain/taxonomy"
	"metadiv/internal/errors"
)

// Level bundles the projection of an abundance table to one taxonomic
// depth: the re-derived taxon table and its aligned rank annotations.
type Level struct {
	Depth       int
	Table       *table.AbundanceTable
	Annotations *table.RankAnnotationTable
}

// ProjectLevel re-derives the taxon table for one depth. Labels are
// truncated to the first depth segments; taxa shallower than the depth are
// dropped; when several rows truncate to the same label, the first
// occurrence wins. Zero-total rows are filtered afterwards, and a level
// with fewer than MinTaxa surviving taxa is a DATA_INSUFFICIENT condition:
// the caller skips the depth rather than feeding a meaningless table to the
// distance stage.
func ProjectLevel(t *table.AbundanceTable, depth int) (*Level, error) {
	if depth < 1 || depth > taxonomy.MaxDepth {
		return nil, errors.InvalidInputf("depth %d outside 1..%d", depth, taxonomy.MaxDepth)
	}
	taxa, values := projectRows(t, depth)
	projected, err := table.NewAbundanceTable(taxa, t.Samples(), values)
	if err != nil {
		return nil, err
	}
	projected = projected.FilterZeroRows()
	if projected.NTaxa() < MinTaxa {
		return nil, errors.DataInsufficientf(
			"depth %d has only %d taxa after projection (need %d)", depth, projected.NTaxa(), MinTaxa)
	}
	ann, err := table.NewRankAnnotationTable(projected, depth)
	if err != nil {
		return nil, err
	}
	return &Level{Depth: depth, Table: projected, Annotations: ann}, nil
}

// projectRows truncates every label to the given depth, dropping taxa that
// do not reach it and keeping the first occurrence of duplicate truncations.
func projectRows(t *table.AbundanceTable, depth int) ([]string, [][]float64) {
	var taxa []string
	var values [][]float64
	seen := make(map[string]bool)
	for i, label := range t.Taxa() {
		truncated, ok := taxonomy.Truncate(label, depth)
		if !ok || seen[truncated] {
			continue
		}
		seen[truncated] = true
		taxa = append(taxa, truncated)
		values = append(values, t.Row(i))
	}
	return taxa, values
}

// WriteLevelTables writes one <base>_level_<d>.tsv file per taxonomic depth,
// the file contract the downstream report and web layers consume. Levels
// are written even when they are too small to analyze; the analysis gate
// applies to statistics, not to file emission.
func WriteLevelTables(t *table.AbundanceTable, base string) ([]string, error) {
	samples := t.Samples()
	var written []string
	for depth := 1; depth <= taxonomy.MaxDepth; depth++ {
		taxa, values := projectRows(t, depth)
		if len(taxa) == 0 {
			continue
		}
		path := fmt.Sprintf("%s_level_%d.tsv", base, depth)
		if err := writeTable(path, samples, taxa, values); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeTable(path string, samples, taxa []string, values [][]float64) error {
	f, err := aio.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	fmt.Fprint(f, "Taxa")
	for _, s := range samples {
		fmt.Fprintf(f, "\t%s", s)
	}
	fmt.Fprintln(f)
	for i, taxon := range taxa {
		fmt.Fprint(f, taxon)
		for _, v := range values[i] {
			fmt.Fprintf(f, "\t%g", v)
		}
		fmt.Fprintln(f)
	}
	return f.Close()
}
