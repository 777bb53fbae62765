// Package testkit generates deterministic synthetic microbial communities
// for tests. Generated tables mirror the shape of Kraken2-style abundance
// exports: pipe-delimited ranked lineages in rows, samples in columns.
package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"metadiv/domain/table"
)

// CommunityConfig configures the synthetic community generator.
type CommunityConfig struct {
	SamplesPerGroup int
	Groups          []string
	SharedTaxa      int     // taxa with the same mean abundance in all groups
	SignalTaxa      int     // taxa enriched in exactly one group
	SignalFold      float64 // enrichment factor for signal taxa
	BaseMean        float64 // mean raw count per taxon per sample
	Noise           float64 // multiplicative noise scale
	Seed            int64
}

// DefaultCommunityConfig returns a two-group community with a strong
// compositional signal, small enough for fast tests.
func DefaultCommunityConfig() CommunityConfig {
	return CommunityConfig{
		SamplesPerGroup: 5,
		Groups:          []string{"Control", "Treatment"},
		SharedTaxa:      6,
		SignalTaxa:      2,
		SignalFold:      8,
		BaseMean:        100,
		Noise:           0.15,
		Seed:            42,
	}
}

// Community bundles a generated abundance table with its sample metadata.
type Community struct {
	Table    *table.AbundanceTable
	Metadata *table.SampleMetadata
	Groups   []string // group label per sample, aligned with Table.Samples()
}

// Generate builds a deterministic community from the config. The same
// config always yields the same table.
func Generate(cfg CommunityConfig) (*Community, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))

	nGroups := len(cfg.Groups)
	nSamples := nGroups * cfg.SamplesPerGroup
	nTaxa := cfg.SharedTaxa + cfg.SignalTaxa*nGroups

	samples := make([]string, 0, nSamples)
	groups := make([]string, 0, nSamples)
	for gi, g := range cfg.Groups {
		for s := 0; s < cfg.SamplesPerGroup; s++ {
			samples = append(samples, fmt.Sprintf("S%d", gi*cfg.SamplesPerGroup+s+1))
			groups = append(groups, g)
		}
	}

	taxa := make([]string, 0, nTaxa)
	means := make([][]float64, 0, nTaxa) // per-taxon mean by group index
	for i := 0; i < cfg.SharedTaxa; i++ {
		taxa = append(taxa, lineage(fmt.Sprintf("Commonus_%d", i+1)))
		m := make([]float64, nGroups)
		for gi := range m {
			m[gi] = cfg.BaseMean
		}
		means = append(means, m)
	}
	for gi, g := range cfg.Groups {
		for i := 0; i < cfg.SignalTaxa; i++ {
			taxa = append(taxa, lineage(fmt.Sprintf("%sus_%d", sanitize(g), i+1)))
			m := make([]float64, nGroups)
			for gj := range m {
				if gj == gi {
					m[gj] = cfg.BaseMean * cfg.SignalFold
				} else {
					m[gj] = cfg.BaseMean / cfg.SignalFold
				}
			}
			means = append(means, m)
		}
	}

	values := make([][]float64, nTaxa)
	for ti := range values {
		values[ti] = make([]float64, nSamples)
		for si := range values[ti] {
			gi := si / cfg.SamplesPerGroup
			v := means[ti][gi] * math.Exp(cfg.Noise*rng.NormFloat64())
			values[ti][si] = math.Round(v)
		}
	}

	t, err := table.NewAbundanceTable(taxa, samples, values)
	if err != nil {
		return nil, err
	}
	meta, err := table.NewSampleMetadata(samples, groups, nil)
	if err != nil {
		return nil, err
	}
	return &Community{Table: t, Metadata: meta, Groups: groups}, nil
}

// lineage wraps a species epithet in a full seven-rank label.
func lineage(species string) string {
	return strings.Join([]string{
		"k__Bacteria",
		"p__Testota",
		"c__Testia",
		"o__Testales",
		"f__Testaceae",
		"g__" + strings.Split(species, "_")[0],
		"s__" + species,
	}, "|")
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
