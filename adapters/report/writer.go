// Package report writes the plot-ready artifacts the downstream reporting
// and web layers consume: per-level alpha tables with group summaries,
// distance matrices, ordination coordinates and group-test results. It
// formats values only; plots, Excel and HTML rendering live elsewhere.
package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fluhus/gostuff/aio"
	"github.com/fluhus/gostuff/jio"
	"github.com/fluhus/gostuff/snm"
	"github.com/montanaflynn/stats"
	"golang.org/x/exp/maps"

	"metadiv/domain/result"
	"metadiv/internal/errors"
)

// UnavailableMarker is the single line written in place of ordination
// coordinates when every embedding strategy failed.
const UnavailableMarker = "UNAVAILABLE"

// Writer emits sweep artifacts under a single output directory.
type Writer struct {
	Dir string
}

// NewWriter creates the output directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %s", dir)
	}
	return &Writer{Dir: dir}, nil
}

// WriteLevel writes every artifact of one taxonomic depth. A skipped depth
// produces no files; partially skipped units produce their markers.
func (w *Writer) WriteLevel(lr *result.LevelResult) error {
	if lr.SkipCode != "" {
		return nil
	}
	if err := w.writeAlpha(lr); err != nil {
		return err
	}
	if err := w.writeAlphaSummary(lr); err != nil {
		return err
	}
	for i := range lr.Methods {
		if err := w.writeMethod(lr.Depth, &lr.Methods[i]); err != nil {
			return err
		}
	}
	return nil
}

// WriteManifest saves the sweep manifest as summary.json.
func (w *Writer) WriteManifest(m *result.SweepManifest) error {
	return jio.Save(filepath.Join(w.Dir, "summary.json"), m)
}

func (w *Writer) writeAlpha(lr *result.LevelResult) error {
	f, err := aio.Create(filepath.Join(w.Dir, fmt.Sprintf("alpha_level_%d.tsv", lr.Depth)))
	if err != nil {
		return err
	}
	fmt.Fprintln(f, "sample\tindex\tvalue\tgroup")
	for _, rec := range lr.Alpha {
		fmt.Fprintf(f, "%s\t%s\t%g\t%s\n", rec.Sample, rec.Index, rec.Value, rec.Group)
	}
	return f.Close()
}

// writeAlphaSummary aggregates alpha records into one row per (group,
// index) with the usual location and spread statistics.
func (w *Writer) writeAlphaSummary(lr *result.LevelResult) error {
	byKey := make(map[[2]string][]float64)
	for _, rec := range lr.Alpha {
		key := [2]string{rec.Group, string(rec.Index)}
		byKey[key] = append(byKey[key], rec.Value)
	}

	f, err := aio.Create(filepath.Join(w.Dir, fmt.Sprintf("alpha_summary_level_%d.tsv", lr.Depth)))
	if err != nil {
		return err
	}
	fmt.Fprintln(f, "group\tindex\tn\tmean\tmedian\tstddev\tq25\tq75")
	keys := snm.SortedFunc(maps.Keys(byKey), func(a, b [2]string) int {
		if a[0] != b[0] {
			if a[0] < b[0] {
				return -1
			}
			return 1
		}
		if a[1] < b[1] {
			return -1
		}
		if a[1] > b[1] {
			return 1
		}
		return 0
	})
	for _, key := range keys {
		values := byKey[key]
		mean, _ := stats.Mean(values)
		median, _ := stats.Median(values)
		sd, _ := stats.StandardDeviation(values)
		q25, _ := stats.Percentile(values, 25)
		q75, _ := stats.Percentile(values, 75)
		fmt.Fprintf(f, "%s\t%s\t%d\t%g\t%g\t%g\t%g\t%g\n",
			key[0], key[1], len(values), mean, median, sd, q25, q75)
	}
	return f.Close()
}

func (w *Writer) writeMethod(depth int, mr *result.MethodResult) error {
	if mr.SkipCode != "" {
		return nil
	}
	if err := w.writeDistances(depth, mr); err != nil {
		return err
	}
	if err := w.writeOrdination(depth, mr); err != nil {
		return err
	}
	return w.writeGroupTests(depth, mr)
}

func (w *Writer) writeDistances(depth int, mr *result.MethodResult) error {
	f, err := aio.Create(filepath.Join(w.Dir, fmt.Sprintf("dist_%s_level_%d.tsv", mr.Method, depth)))
	if err != nil {
		return err
	}
	fmt.Fprint(f, "sample")
	for _, s := range mr.Samples {
		fmt.Fprintf(f, "\t%s", s)
	}
	fmt.Fprintln(f)
	for i, s := range mr.Samples {
		fmt.Fprint(f, s)
		for j := range mr.Samples {
			fmt.Fprintf(f, "\t%g", mr.Distances[i][j])
		}
		fmt.Fprintln(f)
	}
	return f.Close()
}

func (w *Writer) writeOrdination(depth int, mr *result.MethodResult) error {
	f, err := aio.Create(filepath.Join(w.Dir, fmt.Sprintf("pcoa_%s_level_%d.tsv", mr.Method, depth)))
	if err != nil {
		return err
	}
	if mr.Ordination == nil {
		fmt.Fprintf(f, "%s\t%s\n", UnavailableMarker, mr.OrdinationCode)
		return f.Close()
	}
	ord := mr.Ordination
	fmt.Fprintf(f, "sample\tx\ty\t# strategy=%s explained=%.4f,%.4f\n",
		ord.Strategy, ord.Explained[0], ord.Explained[1])
	for i, s := range ord.Samples {
		fmt.Fprintf(f, "%s\t%g\t%g\n", s, ord.X[i], ord.Y[i])
	}
	return f.Close()
}

func (w *Writer) writeGroupTests(depth int, mr *result.MethodResult) error {
	path := filepath.Join(w.Dir, fmt.Sprintf("grouptest_%s_level_%d.json", mr.Method, depth))
	payload := map[string]interface{}{
		"method": mr.Method,
		"depth":  depth,
	}
	if mr.GroupTestCode != "" {
		payload["skip_code"] = mr.GroupTestCode
	} else {
		payload["permanova"] = mr.PermanovaResult
		payload["anosim"] = mr.AnosimResult
	}
	return jio.Save(path, payload)
}
