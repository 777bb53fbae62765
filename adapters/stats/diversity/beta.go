package diversity

import (
	"math"

	"metadiv/domain/result"
	"metadiv/domain/table"
	"metadiv/internal/errors"
)

// Distances computes the pairwise distance matrix for a table under the
// given method. Bray-Curtis and Jensen-Shannon operate on the table's
// relative abundances; Jaccard uses presence/absence. The returned matrix
// has passed the degeneracy gate: a table with a zero-total sample (whose
// relative abundances are NaN) surfaces as a DEGENERATE_DISTANCE condition
// here, before any ordination or group test can see it.
func Distances(t *table.AbundanceTable, method result.DistanceMethod) (*table.DistanceMatrix, error) {
	var pair func(x, y []float64) float64
	input := t
	switch method {
	case result.MethodBrayCurtis:
		pair = brayCurtis
		input = t.Relative()
	case result.MethodJensenShannon:
		pair = jensenShannon
		input = t.Relative()
	case result.MethodJaccard:
		pair = jaccard
	default:
		return nil, errors.InvalidInputf("unknown distance method %q", method)
	}

	samples := input.Samples()
	n := len(samples)
	cols := make([][]float64, n)
	for j := 0; j < n; j++ {
		cols[j] = input.Column(j)
	}

	values := make([][]float64, n)
	for i := range values {
		values[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := pair(cols[i], cols[j])
			values[i][j] = d
			values[j][i] = d
		}
	}

	dm, err := table.NewDistanceMatrix(samples, values, string(method))
	if err != nil {
		return nil, err
	}
	if err := dm.Validate(); err != nil {
		return nil, errors.Wrapf(err, "%s distances are degenerate", method)
	}
	return dm, nil
}

// brayCurtis is sum|x-y| / sum(x+y). An all-zero pair has no defined
// dissimilarity and propagates NaN into the validation gate.
func brayCurtis(x, y []float64) float64 {
	var num, den float64
	for i := range x {
		num += math.Abs(x[i] - y[i])
		den += x[i] + y[i]
	}
	return num / den
}

// jaccard is 1 - |A∩B|/|A∪B| over the presence/absence pattern.
func jaccard(x, y []float64) float64 {
	var shared, union float64
	for i := range x {
		px, py := x[i] > 0, y[i] > 0
		if px || py {
			union++
		}
		if px && py {
			shared++
		}
	}
	return 1 - shared/union
}

// jensenShannon is the square root of the Jensen-Shannon divergence
// (natural log) between two relative-abundance distributions, which is a
// proper metric.
func jensenShannon(x, y []float64) float64 {
	var div float64
	for i := range x {
		m := (x[i] + y[i]) / 2
		div += klTerm(x[i], m) + klTerm(y[i], m)
	}
	return math.Sqrt(div / 2)
}

func klTerm(p, m float64) float64 {
	if p == 0 {
		return 0
	}
	return p * math.Log(p/m)
}
