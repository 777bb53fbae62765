package ordination

import (
	"fmt"
	"math"
	"testing"

	"metadiv/domain/result"
	"metadiv/domain/table"
	"metadiv/internal/errors"
)

// euclideanMatrix builds a distance matrix from 2D point coordinates.
func euclideanMatrix(t *testing.T, points [][2]float64) *table.DistanceMatrix {
	t.Helper()
	n := len(points)
	samples := make([]string, n)
	values := make([][]float64, n)
	for i := range values {
		samples[i] = fmt.Sprintf("S%d", i+1)
		values[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx := points[i][0] - points[j][0]
			dy := points[i][1] - points[j][1]
			d := math.Hypot(dx, dy)
			values[i][j] = d
			values[j][i] = d
		}
	}
	dm, err := table.NewDistanceMatrix(samples, values, "test")
	if err != nil {
		t.Fatal(err)
	}
	return dm
}

func TestClassicalRecoversEuclideanConfiguration(t *testing.T) {
	points := [][2]float64{{0, 0}, {4, 0}, {4, 3}, {0, 3}, {2, 1}}
	dm := euclideanMatrix(t, points)

	res, err := Ordinate(dm)
	if err != nil {
		t.Fatalf("Ordinate failed: %v", err)
	}
	if res.Strategy != "classical" {
		t.Errorf("strategy = %q, want classical for Euclidean input", res.Strategy)
	}
	// The embedding is determined up to rotation and reflection, so compare
	// pairwise distances instead of coordinates.
	for i := 0; i < dm.Len(); i++ {
		for j := i + 1; j < dm.Len(); j++ {
			got := math.Hypot(res.X[i]-res.X[j], res.Y[i]-res.Y[j])
			if !almostEqual(got, dm.At(i, j), 1e-6) {
				t.Errorf("recovered distance (%d,%d) = %g, want %g", i, j, got, dm.At(i, j))
			}
		}
	}
	if res.Explained[0] < res.Explained[1] {
		t.Errorf("axes out of order: explained = %v", res.Explained)
	}
	if total := res.Explained[0] + res.Explained[1]; !almostEqual(total, 1, 1e-6) {
		t.Errorf("two axes of planar data should explain everything, got %g", total)
	}
}

func TestFallbackOnNonEuclideanInput(t *testing.T) {
	// d(A,C) breaks the triangle inequality, so no Euclidean configuration
	// exists. Whichever strategy ends up handling it, the chain must return
	// a finite embedding rather than an error.
	values := [][]float64{
		{0, 1, 10, 1.2},
		{1, 0, 1, 0.9},
		{10, 1, 0, 1.1},
		{1.2, 0.9, 1.1, 0},
	}
	dm, err := table.NewDistanceMatrix([]string{"A", "B", "C", "D"}, values, "test")
	if err != nil {
		t.Fatal(err)
	}

	res, err := Ordinate(dm)
	if err != nil {
		t.Fatalf("Ordinate failed on non-Euclidean input: %v", err)
	}
	if res.Strategy == "" {
		t.Error("result should name the strategy that produced it")
	}
	if len(res.X) != 4 || len(res.Y) != 4 {
		t.Fatalf("coordinate lengths %d/%d, want 4/4", len(res.X), len(res.Y))
	}
	for i := range res.X {
		if math.IsNaN(res.X[i]) || math.IsNaN(res.Y[i]) {
			t.Errorf("non-finite coordinate for sample %d", i)
		}
	}
}

func TestOrdinateWithRunsStrategiesInOrder(t *testing.T) {
	dm := euclideanMatrix(t, [][2]float64{{0, 0}, {1, 0}, {0, 1}})

	var calls []string
	failing := func(name string) Strategy {
		return Strategy{Name: name, Run: func(*table.DistanceMatrix) (*result.OrdinationResult, error) {
			calls = append(calls, name)
			return nil, errors.InvalidInput("nope")
		}}
	}
	succeeding := Strategy{Name: "winner", Run: func(dm *table.DistanceMatrix) (*result.OrdinationResult, error) {
		calls = append(calls, "winner")
		return &result.OrdinationResult{Samples: dm.Samples()}, nil
	}}

	res, err := OrdinateWith([]Strategy{failing("first"), failing("second"), succeeding, failing("never")}, dm)
	if err != nil {
		t.Fatalf("OrdinateWith failed: %v", err)
	}
	if res.Strategy != "winner" {
		t.Errorf("strategy = %q, want winner", res.Strategy)
	}
	want := []string{"first", "second", "winner"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
	}
}

func TestOrdinateWithAllFailures(t *testing.T) {
	dm := euclideanMatrix(t, [][2]float64{{0, 0}, {1, 0}})
	fail := Strategy{Name: "fail", Run: func(*table.DistanceMatrix) (*result.OrdinationResult, error) {
		return nil, errors.InvalidInput("nope")
	}}
	_, err := OrdinateWith([]Strategy{fail, fail}, dm)
	if err == nil {
		t.Fatal("expected failure")
	}
	if !errors.IsCode(err, errors.CodeOrdinationUnavailable) {
		t.Errorf("error code = %s, want %s", errors.GetCode(err), errors.CodeOrdinationUnavailable)
	}
}

func TestOrdinateDeterministic(t *testing.T) {
	dm := euclideanMatrix(t, [][2]float64{{0, 0}, {4, 0}, {4, 3}, {1, 2}})
	a, err := Ordinate(dm)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Ordinate(dm)
	if err != nil {
		t.Fatal(err)
	}
	if a.Strategy != b.Strategy {
		t.Fatalf("strategy changed between runs: %q vs %q", a.Strategy, b.Strategy)
	}
	for i := range a.X {
		if a.X[i] != b.X[i] || a.Y[i] != b.Y[i] {
			t.Errorf("coordinates differ between identical runs at %d", i)
		}
	}
}

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
