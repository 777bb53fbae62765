package table

import (
	"math"

	"metadiv/internal/errors"
)

// DistanceMatrix is a symmetric, zero-diagonal matrix of pairwise sample
// dissimilarities produced by a named distance method.
type DistanceMatrix struct {
	samples []string
	values  [][]float64
	method  string
}

// NewDistanceMatrix wraps a square matrix with its sample ordering. Shape
// errors are input errors; numeric degeneracy is reported by Validate, not
// here, so callers can distinguish the two conditions.
func NewDistanceMatrix(samples []string, values [][]float64, method string) (*DistanceMatrix, error) {
	if len(values) != len(samples) {
		return nil, errors.InvalidInputf("have %d samples but %d matrix rows", len(samples), len(values))
	}
	for i, row := range values {
		if len(row) != len(samples) {
			return nil, errors.InvalidInputf("matrix row %d has %d entries, want %d", i, len(row), len(samples))
		}
	}
	dm := &DistanceMatrix{
		samples: append([]string(nil), samples...),
		values:  make([][]float64, len(values)),
		method:  method,
	}
	for i, row := range values {
		dm.values[i] = append([]float64(nil), row...)
	}
	return dm, nil
}

// Method returns the distance method name.
func (dm *DistanceMatrix) Method() string { return dm.method }

// Samples returns the sample identifiers in matrix order.
func (dm *DistanceMatrix) Samples() []string {
	return append([]string(nil), dm.samples...)
}

// Len returns the number of samples.
func (dm *DistanceMatrix) Len() int { return len(dm.samples) }

// At returns the distance between samples i and j.
func (dm *DistanceMatrix) At(i, j int) float64 { return dm.values[i][j] }

// Validate applies the degeneracy gate: every entry must be finite and
// non-negative, the diagonal zero, and the matrix symmetric. Ordination and
// group testing must not be attempted on a matrix that fails this check.
func (dm *DistanceMatrix) Validate() error {
	n := len(dm.samples)
	for i := 0; i < n; i++ {
		if dm.values[i][i] != 0 {
			return errors.DegenerateDistance("distance matrix has a non-zero diagonal entry")
		}
		for j := i + 1; j < n; j++ {
			v := dm.values[i][j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return errors.DegenerateDistance("distance matrix contains NaN or Inf entries")
			}
			if v < 0 {
				return errors.DegenerateDistance("distance matrix contains negative entries")
			}
			if vt := dm.values[j][i]; vt != v {
				return errors.DegenerateDistance("distance matrix is not symmetric")
			}
		}
	}
	return nil
}
