// Package ordination reduces a validated distance matrix to two-dimensional
// coordinates for visualization. Classical scaling can fail or return fewer
// than two usable axes on near-degenerate input, so the engine tries an
// explicit ordered list of strategies and returns the first success.
package ordination

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"metadiv/domain/result"
	"metadiv/domain/table"
	"metadiv/internal/errors"
)

// eigTol is the relative threshold below which an eigenvalue or singular
// value does not count as a usable axis.
const eigTol = 1e-8

// Strategy is one embedding attempt. Strategies are plain data so the
// fallback order is inspectable and testable.
type Strategy struct {
	Name string
	Run  func(dm *table.DistanceMatrix) (*result.OrdinationResult, error)
}

// DefaultStrategies returns the production fallback chain: classical
// scaling, classical scaling after a Cailliez additive-constant correction,
// then an SVD-based estimator.
func DefaultStrategies() []Strategy {
	return []Strategy{
		{Name: "classical", Run: classical},
		{Name: "cailliez", Run: cailliez},
		{Name: "svd", Run: svdScores},
	}
}

// Ordinate runs the default strategy chain.
func Ordinate(dm *table.DistanceMatrix) (*result.OrdinationResult, error) {
	return OrdinateWith(DefaultStrategies(), dm)
}

// OrdinateWith tries each strategy in order and returns the first success.
// When every strategy fails the condition is ORDINATION_UNAVAILABLE; the
// caller should still run distance-based group tests and report that only
// the embedding was skipped.
func OrdinateWith(strategies []Strategy, dm *table.DistanceMatrix) (*result.OrdinationResult, error) {
	var lastErr error
	for _, s := range strategies {
		res, err := s.Run(dm)
		if err == nil {
			res.Strategy = s.Name
			return res, nil
		}
		lastErr = err
	}
	return nil, errors.Wrap(
		errors.OrdinationUnavailable("all ordination strategies failed"),
		lastErr.Error())
}

// classical is standard principal coordinates analysis: eigen-decomposition
// of the double-centered squared distance matrix, keeping the two largest
// eigenvalues. Coordinate signs and axis order are whatever the
// decomposition yields; no canonicalization is attempted.
func classical(dm *table.DistanceMatrix) (*result.OrdinationResult, error) {
	b := gowerCenter(dm, false)
	return scaleFromGower(b, dm.Samples())
}

// cailliez adds the smallest constant to all off-diagonal distances that
// makes the matrix Euclidean-embeddable (Cailliez 1983), then applies
// classical scaling. The constant is the largest real eigenvalue of a
// 2n x 2n companion matrix built from the centered plain and squared
// distance matrices.
func cailliez(dm *table.DistanceMatrix) (*result.OrdinationResult, error) {
	n := dm.Len()
	if n < 2 {
		return nil, errors.InvalidInputf("cannot ordinate %d samples", n)
	}

	delta1 := gowerCenter(dm, false) // centered -d^2/2
	delta2 := gowerCenter(dm, true)  // centered -d/2

	// Companion matrix [[0, 2*delta1], [-I, -4*delta2]].
	comp := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			comp.Set(i, n+j, 2*delta1.At(i, j))
			comp.Set(n+i, n+j, -4*delta2.At(i, j))
		}
		comp.Set(n+i, i, -1)
	}

	var eig mat.Eigen
	if !eig.Factorize(comp, mat.EigenNone) {
		return nil, errors.New(errors.CodeInternalError, "cailliez eigen-decomposition failed")
	}
	c := 0.0
	for _, ev := range eig.Values(nil) {
		if real(ev) > c {
			c = real(ev)
		}
	}
	if c <= 0 {
		return nil, errors.InvalidInput("no positive additive constant; matrix is already Euclidean")
	}

	corrected := make([][]float64, n)
	for i := range corrected {
		corrected[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i != j {
				corrected[i][j] = dm.At(i, j) + c
			}
		}
	}
	cdm, err := table.NewDistanceMatrix(dm.Samples(), corrected, dm.Method())
	if err != nil {
		return nil, err
	}
	return classical(cdm)
}

// svdScores is a structurally different estimator for inputs where both
// eigen-based attempts fail: singular value decomposition of the centered
// matrix, with scores from the two leading singular triplets. Negative
// eigendirections contribute by magnitude, which keeps the embedding
// defined on strongly non-Euclidean input.
func svdScores(dm *table.DistanceMatrix) (*result.OrdinationResult, error) {
	n := dm.Len()
	if n < 2 {
		return nil, errors.InvalidInputf("cannot ordinate %d samples", n)
	}
	b := gowerCenter(dm, false)

	var svd mat.SVD
	if !svd.Factorize(b, mat.SVDThin) {
		return nil, errors.New(errors.CodeInternalError, "svd factorization failed")
	}
	values := svd.Values(nil)
	if len(values) < 2 {
		return nil, errors.InvalidInput("fewer than 2 singular values")
	}
	if values[1] <= eigTol*math.Max(values[0], 1) {
		return nil, errors.InvalidInput("fewer than 2 usable singular values")
	}

	var u mat.Dense
	svd.UTo(&u)

	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = u.At(i, 0) * math.Sqrt(values[0])
		y[i] = u.At(i, 1) * math.Sqrt(values[1])
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return &result.OrdinationResult{
		Samples:   dm.Samples(),
		X:         x,
		Y:         y,
		Explained: [2]float64{values[0] / total, values[1] / total},
	}, nil
}

// gowerCenter builds the double-centered matrix B = -1/2 * J A J where A is
// the matrix of squared distances (or plain distances when plain is true)
// and J is the centering matrix.
func gowerCenter(dm *table.DistanceMatrix, plain bool) *mat.Dense {
	n := dm.Len()
	a := make([][]float64, n)
	rowMeans := make([]float64, n)
	grand := 0.0
	for i := 0; i < n; i++ {
		a[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			d := dm.At(i, j)
			if plain {
				a[i][j] = -d / 2
			} else {
				a[i][j] = -d * d / 2
			}
			rowMeans[i] += a[i][j]
		}
		rowMeans[i] /= float64(n)
		grand += rowMeans[i]
	}
	grand /= float64(n)

	b := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			b.Set(i, j, a[i][j]-rowMeans[i]-rowMeans[j]+grand)
		}
	}
	return b
}

// scaleFromGower extracts 2D coordinates from a centered matrix via
// symmetric eigen-decomposition. It needs at least two eigenvalues clearly
// above zero.
func scaleFromGower(b *mat.Dense, samples []string) (*result.OrdinationResult, error) {
	n := len(samples)
	sym := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			// Average the off-diagonal pair to guard against float drift.
			sym.SetSym(i, j, (b.At(i, j)+b.At(j, i))/2)
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(sym, true) {
		return nil, errors.New(errors.CodeInternalError, "eigen-decomposition failed")
	}
	values := eig.Values(nil) // ascending
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	first, second := n-1, n-2
	if second < 0 {
		return nil, errors.InvalidInput("fewer than 2 samples")
	}
	l1, l2 := values[first], values[second]
	if l1 <= 0 || l2 <= eigTol*math.Max(l1, 1) {
		return nil, errors.InvalidInput("fewer than 2 usable positive eigenvalues")
	}

	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = vectors.At(i, first) * math.Sqrt(l1)
		y[i] = vectors.At(i, second) * math.Sqrt(l2)
	}
	positive := 0.0
	for _, v := range values {
		if v > 0 {
			positive += v
		}
	}
	return &result.OrdinationResult{
		Samples:   samples,
		X:         x,
		Y:         y,
		Explained: [2]float64{l1 / positive, l2 / positive},
	}, nil
}
