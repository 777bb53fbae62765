package result

import (
	"time"

	"github.com/google/uuid"
)

// AlphaIndex names a within-sample diversity index.
type AlphaIndex string

const (
	IndexObserved   AlphaIndex = "observed"
	IndexChao1      AlphaIndex = "chao1"
	IndexACE        AlphaIndex = "ace"
	IndexShannon    AlphaIndex = "shannon"
	IndexSimpson    AlphaIndex = "simpson"
	IndexInvSimpson AlphaIndex = "invsimpson"
)

// AllAlphaIndices lists every supported index in reporting order.
func AllAlphaIndices() []AlphaIndex {
	return []AlphaIndex{
		IndexObserved, IndexChao1, IndexACE,
		IndexShannon, IndexSimpson, IndexInvSimpson,
	}
}

// DistanceMethod names a between-sample dissimilarity measure.
type DistanceMethod string

const (
	MethodBrayCurtis    DistanceMethod = "braycurtis"
	MethodJaccard       DistanceMethod = "jaccard"
	MethodJensenShannon DistanceMethod = "jensenshannon"
)

// ParseDistanceMethod maps a configuration string to a method.
func ParseDistanceMethod(s string) (DistanceMethod, bool) {
	switch DistanceMethod(s) {
	case MethodBrayCurtis, MethodJaccard, MethodJensenShannon:
		return DistanceMethod(s), true
	}
	return "", false
}

// AlphaRecord is one plot-ready alpha-diversity value: a sample, an index,
// the computed value and the sample's group label.
type AlphaRecord struct {
	Sample string     `json:"sample"`
	Index  AlphaIndex `json:"index"`
	Value  float64    `json:"value"`
	Group  string     `json:"group"`
}

// OrdinationResult holds 2D coordinates per sample, in the distance
// matrix's sample order, plus the name of the strategy that produced the
// embedding and the variance fraction explained by each axis when the
// strategy defines one.
type OrdinationResult struct {
	Samples   []string   `json:"samples"`
	X         []float64  `json:"x"`
	Y         []float64  `json:"y"`
	Strategy  string     `json:"strategy"`
	Explained [2]float64 `json:"explained"`
}

// GroupTestResult is the outcome of one permutation-based group-separation
// test against a distance matrix.
type GroupTestResult struct {
	Method       string  `json:"method"` // "permanova" or "anosim"
	Statistic    float64 `json:"statistic"`
	PValue       float64 `json:"p_value"`
	Permutations int     `json:"permutations"`
}

// MethodResult aggregates everything derived from one (depth, distance
// method) unit. Unavailable stages carry their condition code instead of a
// value; a missing ordination never suppresses the group tests.
type MethodResult struct {
	Method          DistanceMethod    `json:"method"`
	Samples         []string          `json:"samples,omitempty"`
	Distances       [][]float64       `json:"distances,omitempty"`
	Ordination      *OrdinationResult `json:"ordination,omitempty"`
	PermanovaResult *GroupTestResult  `json:"permanova,omitempty"`
	AnosimResult    *GroupTestResult  `json:"anosim,omitempty"`
	SkipCode        string            `json:"skip_code,omitempty"`       // set when the whole unit was skipped
	OrdinationCode  string            `json:"ordination_code,omitempty"` // set when only the embedding was skipped
	GroupTestCode   string            `json:"group_test_code,omitempty"` // set when only the tests were skipped
}

// LevelResult aggregates one taxonomic depth.
type LevelResult struct {
	Depth    int            `json:"depth"`
	NTaxa    int            `json:"n_taxa"`
	NSamples int            `json:"n_samples"`
	Alpha    []AlphaRecord  `json:"alpha,omitempty"`
	Methods  []MethodResult `json:"methods,omitempty"`
	SkipCode string         `json:"skip_code,omitempty"` // set when the depth was skipped entirely
}

// SweepManifest records the identity and outcome of one full multi-depth,
// multi-method sweep.
type SweepManifest struct {
	RunID        string         `json:"run_id"`
	Input        string         `json:"input"`
	Metadata     string         `json:"metadata"`
	Depths       []int          `json:"depths"`
	Methods      []string       `json:"methods"`
	Permutations int            `json:"permutations"`
	Seed         int64          `json:"seed"`
	StartedAt    time.Time      `json:"started_at"`
	RuntimeMs    int64          `json:"runtime_ms"`
	UnitsTotal   int            `json:"units_total"`
	UnitsOK      int            `json:"units_ok"`
	UnitsSkipped map[string]int `json:"units_skipped,omitempty"` // condition code -> count
}

// NewSweepManifest starts a manifest with a fresh run identifier.
func NewSweepManifest(input, metadata string, depths []int, methods []string, permutations int, seed int64) *SweepManifest {
	return &SweepManifest{
		RunID:        uuid.NewString(),
		Input:        input,
		Metadata:     metadata,
		Depths:       append([]int(nil), depths...),
		Methods:      append([]string(nil), methods...),
		Permutations: permutations,
		Seed:         seed,
		StartedAt:    time.Now().UTC(),
		UnitsSkipped: make(map[string]int),
	}
}
