// Package tsv reads and writes the tab-separated table formats produced by
// Kraken2-style profiling runs: an abundance table with hierarchical taxon
// labels in the first column and per-sample counts in the rest, and a sample
// metadata table mapping samples to group labels.
package tsv

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/fluhus/gostuff/aio"

	"metadiv/domain/table"
	"metadiv/internal/errors"
)

// MinTaxa is the smallest taxon count an analysis-ready table may have.
// Distance matrices and ordinations over fewer than 2 entities are
// undefined.
const MinTaxa = 2

// LoadAbundance parses a tab-separated abundance file. The header row holds
// sample identifiers; every following row holds a taxon label and its
// counts. Blank or unparsable numeric cells count as zero. Rows that total
// zero across all samples are dropped; if fewer than MinTaxa rows survive,
// the result is a DATA_INSUFFICIENT condition and the caller must skip this
// input.
func LoadAbundance(path string) (*table.AbundanceTable, error) {
	f, err := aio.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open abundance file %s", path)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 1<<16), 1<<24)

	if !sc.Scan() {
		return nil, errors.InvalidInputf("abundance file %s is empty", path)
	}
	header := strings.Split(sc.Text(), "\t")
	if len(header) < 2 {
		return nil, errors.InvalidInputf("abundance file %s has no sample columns", path)
	}
	samples := make([]string, 0, len(header)-1)
	for _, h := range header[1:] {
		samples = append(samples, strings.TrimSpace(h))
	}

	var taxa []string
	var values [][]float64
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		label := strings.TrimSpace(fields[0])
		if label == "" {
			continue
		}
		row := make([]float64, len(samples))
		for j := range samples {
			if j+1 >= len(fields) {
				continue // short row: missing cells are zero
			}
			if v, err := strconv.ParseFloat(strings.TrimSpace(fields[j+1]), 64); err == nil && v >= 0 {
				row[j] = v
			}
		}
		taxa = append(taxa, label)
		values = append(values, row)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read abundance file %s", path)
	}

	t, err := table.NewAbundanceTable(taxa, samples, values)
	if err != nil {
		return nil, err
	}
	t = t.FilterZeroRows()
	if t.NTaxa() < MinTaxa {
		return nil, errors.DataInsufficientf(
			"only %d taxa remain after zero-row filtering (need %d)", t.NTaxa(), MinTaxa)
	}
	return t, nil
}

// LoadMetadata parses a tab-separated metadata file. A header row must name
// a "sample" and a "group" column; an "srr" (or "run") column is optional
// and maps sequencing-run accessions back to sample names.
func LoadMetadata(path string) (*table.SampleMetadata, error) {
	f, err := aio.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open metadata file %s", path)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return nil, errors.InvalidInputf("metadata file %s is empty", path)
	}
	header := strings.Split(sc.Text(), "\t")
	sampleCol, groupCol, runCol := -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "sample":
			sampleCol = i
		case "group", "condition":
			groupCol = i
		case "srr", "run":
			runCol = i
		}
	}
	if sampleCol < 0 || groupCol < 0 {
		return nil, errors.InvalidInputf("metadata file %s needs 'sample' and 'group' columns", path)
	}

	var samples, groups, runs []string
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		samples = append(samples, fieldAt(fields, sampleCol))
		groups = append(groups, fieldAt(fields, groupCol))
		if runCol >= 0 {
			runs = append(runs, fieldAt(fields, runCol))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read metadata file %s", path)
	}
	if runCol < 0 {
		runs = nil
	}
	return table.NewSampleMetadata(samples, groups, runs)
}

func fieldAt(fields []string, i int) string {
	if i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}
