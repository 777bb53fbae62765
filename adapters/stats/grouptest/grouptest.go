// Package grouptest runs permutation-based group-separation tests against a
// validated distance matrix: a PERMANOVA-style pseudo-F test and an
// ANOSIM-style rank statistic. Both tests in one invocation share the same
// sample ordering and the same permutation sequence, so their p-values are
// directly comparable.
package grouptest

import (
	"math/rand"
	"sort"

	"metadiv/domain/result"
	"metadiv/domain/table"
	"metadiv/internal/errors"
)

// DefaultPermutations is the permutation count used when none is set.
const DefaultPermutations = 999

// Tester holds the permutation settings for one invocation.
type Tester struct {
	Permutations int
	Seed         int64
}

// New returns a tester with the default permutation count.
func New(seed int64) *Tester {
	return &Tester{Permutations: DefaultPermutations, Seed: seed}
}

// Run computes both tests for a distance matrix and aligned group labels.
// Degenerate group structure (fewer than 2 groups, or no residual degrees
// of freedom) is a GROUP_TEST_UNAVAILABLE condition, not a crash.
func (t *Tester) Run(dm *table.DistanceMatrix, groups []string) (permanova, anosim *result.GroupTestResult, err error) {
	n := dm.Len()
	if len(groups) != n {
		return nil, nil, errors.InvalidInputf("have %d samples but %d group labels", n, len(groups))
	}

	idx, nGroups := indexGroups(groups)
	if nGroups < 2 {
		return nil, nil, errors.GroupTestUnavailable("fewer than 2 groups represented")
	}
	if n-nGroups < 1 {
		return nil, nil, errors.GroupTestUnavailable("no residual degrees of freedom for the pseudo-F test")
	}

	perms := t.Permutations
	if perms < 1 {
		perms = DefaultPermutations
	}

	sq := squaredDistances(dm)
	ranks := rankDistances(dm)

	fObs := pseudoF(sq, idx, nGroups)
	rObs := anosimR(ranks, idx)

	// One shared permutation stream drives both null distributions.
	rng := rand.New(rand.NewSource(t.Seed))
	fExceed, rExceed := 0, 0
	permuted := make([]int, n)
	for p := 0; p < perms; p++ {
		order := rng.Perm(n)
		for i, o := range order {
			permuted[i] = idx[o]
		}
		if pseudoF(sq, permuted, nGroups) >= fObs {
			fExceed++
		}
		if anosimR(ranks, permuted) >= rObs {
			rExceed++
		}
	}

	permanova = &result.GroupTestResult{
		Method:       "permanova",
		Statistic:    fObs,
		PValue:       float64(fExceed+1) / float64(perms+1),
		Permutations: perms,
	}
	anosim = &result.GroupTestResult{
		Method:       "anosim",
		Statistic:    rObs,
		PValue:       float64(rExceed+1) / float64(perms+1),
		Permutations: perms,
	}
	return permanova, anosim, nil
}

// indexGroups maps labels to dense group indices in order of first
// appearance.
func indexGroups(groups []string) ([]int, int) {
	ids := make(map[string]int)
	idx := make([]int, len(groups))
	for i, g := range groups {
		id, ok := ids[g]
		if !ok {
			id = len(ids)
			ids[g] = id
		}
		idx[i] = id
	}
	return idx, len(ids)
}

func squaredDistances(dm *table.DistanceMatrix) [][]float64 {
	n := dm.Len()
	sq := make([][]float64, n)
	for i := 0; i < n; i++ {
		sq[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			d := dm.At(i, j)
			sq[i][j] = d * d
		}
	}
	return sq
}

// pseudoF partitions the total squared distance into among- and
// within-group components (Anderson 2001).
func pseudoF(sq [][]float64, idx []int, nGroups int) float64 {
	n := len(idx)
	sizes := make([]float64, nGroups)
	for _, g := range idx {
		sizes[g]++
	}

	var ssTotal float64
	ssWithin := make([]float64, nGroups)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			ssTotal += sq[i][j]
			if idx[i] == idx[j] {
				ssWithin[idx[i]] += sq[i][j]
			}
		}
	}
	ssTotal /= float64(n)

	var ssW float64
	for g, ss := range ssWithin {
		ssW += ss / sizes[g]
	}
	ssA := ssTotal - ssW

	dfA := float64(nGroups - 1)
	dfW := float64(n - nGroups)
	return (ssA / dfA) / (ssW / dfW)
}

// rankDistances converts the upper-triangle distances into tie-averaged
// ranks, returned as a full symmetric matrix for cheap lookup.
func rankDistances(dm *table.DistanceMatrix) [][]float64 {
	n := dm.Len()
	type entry struct {
		i, j int
		d    float64
	}
	var entries []entry
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			entries = append(entries, entry{i, j, dm.At(i, j)})
		}
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].d < entries[b].d })

	ranks := make([][]float64, n)
	for i := range ranks {
		ranks[i] = make([]float64, n)
	}
	// Assign ranks, averaging over tie groups.
	for i := 0; i < len(entries); {
		j := i + 1
		for j < len(entries) && entries[j].d == entries[i].d {
			j++
		}
		avg := float64(i+1) + float64(j-i-1)/2
		for k := i; k < j; k++ {
			ranks[entries[k].i][entries[k].j] = avg
			ranks[entries[k].j][entries[k].i] = avg
		}
		i = j
	}
	return ranks
}

// anosimR is (meanBetween - meanWithin) / (M/2) over the distance ranks,
// where M is the number of sample pairs. R near 0 means no separation.
func anosimR(ranks [][]float64, idx []int) float64 {
	n := len(idx)
	var withinSum, betweenSum float64
	var withinN, betweenN float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if idx[i] == idx[j] {
				withinSum += ranks[i][j]
				withinN++
			} else {
				betweenSum += ranks[i][j]
				betweenN++
			}
		}
	}
	if withinN == 0 || betweenN == 0 {
		return 0
	}
	m := float64(n*(n-1)) / 2
	return (betweenSum/betweenN - withinSum/withinN) / (m / 2)
}
