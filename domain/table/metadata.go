package table

import (
	"strings"

	"metadiv/internal/errors"
)

// SampleMetadata maps sample identifiers to a categorical group label and,
// optionally, a sequencing-run accession. The sample set must cover every
// column of any abundance table it is joined to.
type SampleMetadata struct {
	order  []string
	groups map[string]string
	runs   map[string]string // run accession -> sample identifier
}

// NewSampleMetadata builds metadata from parallel slices of sample names,
// group labels and optional run accessions (empty strings allowed).
func NewSampleMetadata(samples, groups, runs []string) (*SampleMetadata, error) {
	if len(groups) != len(samples) {
		return nil, errors.InvalidInputf("have %d samples but %d group labels", len(samples), len(groups))
	}
	if runs != nil && len(runs) != len(samples) {
		return nil, errors.InvalidInputf("have %d samples but %d run accessions", len(samples), len(runs))
	}
	m := &SampleMetadata{
		order:  append([]string(nil), samples...),
		groups: make(map[string]string, len(samples)),
		runs:   make(map[string]string),
	}
	for i, sample := range samples {
		if sample == "" {
			return nil, errors.InvalidInput("empty sample identifier in metadata")
		}
		if _, dup := m.groups[sample]; dup {
			return nil, errors.InvalidInputf("duplicate sample %q in metadata", sample)
		}
		group := strings.TrimSpace(groups[i])
		if group == "" {
			return nil, errors.InvalidInputf("sample %q has no group label", sample)
		}
		m.groups[sample] = group
		if runs != nil {
			if run := strings.TrimSpace(runs[i]); run != "" {
				m.runs[run] = sample
			}
		}
	}
	return m, nil
}

// Samples returns the sample identifiers in metadata order.
func (m *SampleMetadata) Samples() []string {
	return append([]string(nil), m.order...)
}

// Group returns the group label for a sample.
func (m *SampleMetadata) Group(sample string) (string, bool) {
	g, ok := m.groups[sample]
	return g, ok
}

// Bind aligns group labels to the columns of the given table, in column
// order. A table column without metadata is an error, never silently
// dropped.
func (m *SampleMetadata) Bind(t *AbundanceTable) ([]string, error) {
	samples := t.Samples()
	out := make([]string, len(samples))
	for i, sample := range samples {
		group, ok := m.groups[sample]
		if !ok {
			return nil, errors.InvalidInputf("sample %q has no metadata entry", sample)
		}
		out[i] = group
	}
	return out, nil
}

// RenameRuns returns a table whose columns named by run accession are
// renamed to their sample identifiers. Columns without a matching accession
// keep their names.
func (m *SampleMetadata) RenameRuns(t *AbundanceTable) (*AbundanceTable, error) {
	samples := t.Samples()
	renamed := make([]string, len(samples))
	for i, s := range samples {
		if mapped, ok := m.runs[s]; ok {
			renamed[i] = mapped
		} else {
			renamed[i] = s
		}
	}
	values := make([][]float64, t.NTaxa())
	for i := range values {
		values[i] = t.Row(i)
	}
	return NewAbundanceTable(t.Taxa(), renamed, values)
}

// GroupSizes counts samples per group over the given aligned labels.
func GroupSizes(labels []string) map[string]int {
	out := make(map[string]int)
	for _, g := range labels {
		out[g]++
	}
	return out
}
