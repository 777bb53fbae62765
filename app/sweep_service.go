// Package app orchestrates the multi-depth, multi-method analysis sweep.
// Each (depth, method) pair is an independent unit of work: a failing unit
// is downgraded to its condition code and never aborts sibling units.
package app

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"metadiv/adapters/stats/diversity"
	"metadiv/adapters/stats/grouptest"
	"metadiv/adapters/stats/ordination"
	"metadiv/adapters/tsv"
	"metadiv/domain/result"
	"metadiv/domain/table"
	"metadiv/internal"
	"metadiv/internal/errors"
	"metadiv/ports"
)

// SweepRequest defines one full pipeline run.
type SweepRequest struct {
	AbundanceFile string
	MetadataFile  string
	Depths        []int
	Methods       []result.DistanceMethod
	Permutations  int
	Seed          int64
	UnitTimeout   time.Duration
	Workers       int
	Normalization string // "relative" or "rpm" for the composition tables
}

// SweepResult is the complete outcome of a run.
type SweepResult struct {
	Manifest *result.SweepManifest
	Levels   []*result.LevelResult
}

// SweepService drives the per-level statistical analyses.
type SweepService struct {
	sink ports.ReportSink
	log  *internal.Logger
}

// NewSweepService creates a sweep service writing through the given sink.
func NewSweepService(sink ports.ReportSink, log *internal.Logger) *SweepService {
	if log == nil {
		log = internal.DefaultLogger
	}
	return &SweepService{sink: sink, log: log}
}

// Run executes the sweep. Only unreadable input, unusable metadata or a
// broken output sink are fatal; every analysis failure is recorded as a
// per-unit condition code and the sweep continues.
func (s *SweepService) Run(ctx context.Context, req SweepRequest) (*SweepResult, error) {
	start := time.Now()

	methods := make([]string, len(req.Methods))
	for i, m := range req.Methods {
		methods[i] = string(m)
	}
	manifest := result.NewSweepManifest(
		req.AbundanceFile, req.MetadataFile, req.Depths, methods, req.Permutations, req.Seed)

	raw, err := tsv.LoadAbundance(req.AbundanceFile)
	if err != nil {
		return nil, errors.Wrap(err, "abundance table unusable")
	}
	meta, err := tsv.LoadMetadata(req.MetadataFile)
	if err != nil {
		return nil, errors.Wrap(err, "sample metadata unusable")
	}

	// Columns named by sequencing-run accession are renamed up front so
	// every downstream artifact carries sample names.
	renamed, err := meta.RenameRuns(raw)
	if err != nil {
		return nil, err
	}
	groups, err := meta.Bind(renamed)
	if err != nil {
		return nil, errors.Wrap(err, "metadata does not cover the abundance table")
	}

	levels := make([]*result.LevelResult, len(req.Depths))
	g, gctx := errgroup.WithContext(ctx)
	workers := req.Workers
	if workers < 1 {
		workers = 1
	}
	g.SetLimit(workers)
	for i, depth := range req.Depths {
		i, depth := i, depth
		g.Go(func() error {
			levels[i] = s.analyzeLevel(gctx, renamed, groups, depth, req)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(levels, func(a, b int) bool { return levels[a].Depth < levels[b].Depth })
	for _, lr := range levels {
		s.tally(manifest, lr, len(req.Methods))
		if lr.SkipCode != "" {
			continue
		}
		if err := s.sink.WriteLevel(lr); err != nil {
			return nil, errors.Wrap(err, "failed to write level artifacts")
		}
	}
	manifest.RuntimeMs = time.Since(start).Milliseconds()
	if err := s.sink.WriteManifest(manifest); err != nil {
		return nil, errors.Wrap(err, "failed to write sweep manifest")
	}

	return &SweepResult{Manifest: manifest, Levels: levels}, nil
}

// analyzeLevel runs everything for one taxonomic depth. All failures are
// downgraded to condition codes on the returned result.
func (s *SweepService) analyzeLevel(ctx context.Context, t *table.AbundanceTable, groups []string, depth int, req SweepRequest) *result.LevelResult {
	lr := &result.LevelResult{Depth: depth}

	level, err := tsv.ProjectLevel(t, depth)
	if err != nil {
		code := errors.GetCode(err)
		s.log.Warn("depth %d skipped: %s (%v)", depth, code, err)
		lr.SkipCode = code
		return lr
	}
	lr.NTaxa = level.Table.NTaxa()
	lr.NSamples = level.Table.NSamples()

	lr.Alpha = diversity.AlphaTable(level.Table, groups, result.AllAlphaIndices())

	if err := s.sink.WriteAbundance(depth, level.Table, req.Normalization); err != nil {
		s.log.Error("depth %d: failed to write composition table: %v", depth, err)
	}

	for _, method := range req.Methods {
		lr.Methods = append(lr.Methods, s.analyzeMethod(ctx, level.Table, groups, depth, method, req))
	}
	return lr
}

// analyzeMethod is one (depth, method) unit with its own wall-clock budget.
// Exceeding the budget downgrades the remaining stages exactly like their
// natural unavailable conditions.
func (s *SweepService) analyzeMethod(ctx context.Context, t *table.AbundanceTable, groups []string, depth int, method result.DistanceMethod, req SweepRequest) result.MethodResult {
	mr := result.MethodResult{Method: method}

	if req.UnitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.UnitTimeout)
		defer cancel()
	}

	dm, err := diversity.Distances(t, method)
	if err != nil {
		code := errors.GetCode(err)
		s.log.Warn("depth %d %s skipped: %s (%v)", depth, method, code, err)
		mr.SkipCode = code
		return mr
	}
	mr.Samples = dm.Samples()
	mr.Distances = distanceRows(dm)

	if ctx.Err() != nil {
		s.log.Warn("depth %d %s: budget exceeded before ordination", depth, method)
		mr.OrdinationCode = errors.CodeOrdinationUnavailable
		mr.GroupTestCode = errors.CodeGroupTestUnavailable
		return mr
	}

	ord, err := ordination.Ordinate(dm)
	if err != nil {
		// Statistics-only degradation: group tests still run below.
		mr.OrdinationCode = errors.GetCode(err)
		s.log.Warn("depth %d %s: embedding skipped: %v", depth, method, err)
	} else {
		mr.Ordination = ord
	}

	if ctx.Err() != nil {
		s.log.Warn("depth %d %s: budget exceeded before group tests", depth, method)
		mr.GroupTestCode = errors.CodeGroupTestUnavailable
		return mr
	}

	tester := &grouptest.Tester{Permutations: req.Permutations, Seed: req.Seed}
	permanova, anosim, err := tester.Run(dm, groups)
	if err != nil {
		mr.GroupTestCode = errors.GetCode(err)
		s.log.Warn("depth %d %s: group tests skipped: %v", depth, method, err)
	} else {
		mr.PermanovaResult = permanova
		mr.AnosimResult = anosim
	}
	return mr
}

// tally updates manifest counters from one level.
func (s *SweepService) tally(m *result.SweepManifest, lr *result.LevelResult, nMethods int) {
	if lr.SkipCode != "" {
		m.UnitsTotal += nMethods
		m.UnitsSkipped[lr.SkipCode] += nMethods
		return
	}
	for _, mr := range lr.Methods {
		m.UnitsTotal++
		switch {
		case mr.SkipCode != "":
			m.UnitsSkipped[mr.SkipCode]++
		case mr.OrdinationCode != "" || mr.GroupTestCode != "":
			if mr.OrdinationCode != "" {
				m.UnitsSkipped[mr.OrdinationCode]++
			}
			if mr.GroupTestCode != "" {
				m.UnitsSkipped[mr.GroupTestCode]++
			}
		default:
			m.UnitsOK++
		}
	}
}

func distanceRows(dm *table.DistanceMatrix) [][]float64 {
	n := dm.Len()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			rows[i][j] = dm.At(i, j)
		}
	}
	return rows
}
