// Package diversity computes within-sample (alpha) diversity indices and
// between-sample (beta) distance matrices from abundance tables.
//
// Alpha indices are computed on raw counts, sample by sample, with no
// cross-sample dependency: computing an index on a column subset gives the
// same values as computing it on the full table restricted to that subset.
// Beta distances operate on relative abundances (Jaccard on the derived
// presence/absence pattern); see DESIGN.md for the convention decision.
package diversity

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"metadiv/domain/result"
	"metadiv/domain/table"
)

// Alpha computes one diversity index for a single sample's counts. A sample
// with zero total yields 0 for every index.
func Alpha(index result.AlphaIndex, counts []float64) float64 {
	total := floats.Sum(counts)
	if total == 0 {
		return 0
	}
	switch index {
	case result.IndexObserved:
		return float64(observed(counts))
	case result.IndexChao1:
		return chao1(counts)
	case result.IndexACE:
		return ace(counts)
	case result.IndexShannon:
		return shannon(counts, total)
	case result.IndexSimpson:
		return 1 - sumSquaredProportions(counts, total)
	case result.IndexInvSimpson:
		return 1 / sumSquaredProportions(counts, total)
	}
	return math.NaN()
}

// AlphaTable computes every requested index for every sample of a table and
// attaches the aligned group labels, producing the plot-ready record list.
func AlphaTable(t *table.AbundanceTable, groups []string, indices []result.AlphaIndex) []result.AlphaRecord {
	samples := t.Samples()
	records := make([]result.AlphaRecord, 0, len(samples)*len(indices))
	for j, sample := range samples {
		counts := t.Column(j)
		for _, index := range indices {
			records = append(records, result.AlphaRecord{
				Sample: sample,
				Index:  index,
				Value:  Alpha(index, counts),
				Group:  groups[j],
			})
		}
	}
	return records
}

func observed(counts []float64) int {
	n := 0
	for _, c := range counts {
		if c > 0 {
			n++
		}
	}
	return n
}

// chao1 estimates total richness from singleton and doubleton frequencies.
// The bias-corrected form is used when no doubletons are present, keeping
// the estimator finite.
func chao1(counts []float64) float64 {
	s := float64(observed(counts))
	f1 := frequencyCount(counts, 1)
	f2 := frequencyCount(counts, 2)
	if f2 > 0 {
		return s + f1*f1/(2*f2)
	}
	return s + f1*(f1-1)/2
}

// ace is the abundance-based coverage estimator with the conventional
// rare/abundant split at 10 reads. When every rare taxon is a singleton the
// coverage estimate collapses, so the Chao1 estimate is returned instead.
func ace(counts []float64) float64 {
	const rareCutoff = 10

	var sRare, sAbund int
	var nRare float64
	for _, c := range counts {
		if c <= 0 {
			continue
		}
		if c <= rareCutoff {
			sRare++
			nRare += c
		} else {
			sAbund++
		}
	}
	if sRare == 0 {
		return float64(sAbund)
	}

	f1 := frequencyCount(counts, 1)
	cAce := 1 - f1/nRare
	if cAce <= 0 {
		return chao1(counts)
	}

	var sumIFi float64
	for i := 1; i <= rareCutoff; i++ {
		fi := frequencyCount(counts, i)
		sumIFi += float64(i) * float64(i-1) * fi
	}
	gamma := float64(sRare)/cAce*sumIFi/(nRare*(nRare-1)) - 1
	if gamma < 0 || math.IsNaN(gamma) {
		gamma = 0
	}
	return float64(sAbund) + float64(sRare)/cAce + f1/cAce*gamma
}

func shannon(counts []float64, total float64) float64 {
	h := 0.0
	for _, c := range counts {
		if c <= 0 {
			continue
		}
		p := c / total
		h -= p * math.Log(p)
	}
	return h
}

func sumSquaredProportions(counts []float64, total float64) float64 {
	sum := 0.0
	for _, c := range counts {
		p := c / total
		sum += p * p
	}
	return sum
}

// frequencyCount returns the number of taxa observed exactly k times,
// tolerating float counts that are whole-valued.
func frequencyCount(counts []float64, k int) float64 {
	n := 0.0
	for _, c := range counts {
		if c == float64(k) {
			n++
		}
	}
	return n
}
