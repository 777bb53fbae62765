package report

import (
	"fmt"
	"path/filepath"

	"github.com/fluhus/gostuff/aio"

	"metadiv/domain/table"
)

// WriteAbundance writes the per-level abundance table normalized for
// composition plots: relative abundances (column sums 1) or reads per
// million, per the sweep's normalization setting.
func (w *Writer) WriteAbundance(depth int, t *table.AbundanceTable, normalization string) error {
	var scaled *table.AbundanceTable
	if normalization == "rpm" {
		scaled = t.RPM()
	} else {
		scaled = t.Relative()
	}

	f, err := aio.Create(filepath.Join(w.Dir, fmt.Sprintf("abundance_%s_level_%d.tsv", normalization, depth)))
	if err != nil {
		return err
	}
	fmt.Fprint(f, "Taxa")
	for _, s := range scaled.Samples() {
		fmt.Fprintf(f, "\t%s", s)
	}
	fmt.Fprintln(f)
	for i, taxon := range scaled.Taxa() {
		fmt.Fprint(f, taxon)
		for _, v := range scaled.Row(i) {
			fmt.Fprintf(f, "\t%g", v)
		}
		fmt.Fprintln(f)
	}
	return f.Close()
}
