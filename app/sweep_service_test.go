package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metadiv/adapters/report"
	"metadiv/domain/result"
	"metadiv/internal"
	"metadiv/internal/errors"
	"metadiv/internal/testkit"
)

// writeCommunity materializes a synthetic community as the TSV pair the
// pipeline reads.
func writeCommunity(t *testing.T, dir string) (abundance, metadata string) {
	t.Helper()
	com, err := testkit.Generate(testkit.DefaultCommunityConfig())
	require.NoError(t, err)

	var ab strings.Builder
	ab.WriteString("Taxa")
	for _, s := range com.Table.Samples() {
		ab.WriteString("\t" + s)
	}
	ab.WriteString("\n")
	for i, taxon := range com.Table.Taxa() {
		ab.WriteString(taxon)
		for _, v := range com.Table.Row(i) {
			ab.WriteString(fmt.Sprintf("\t%g", v))
		}
		ab.WriteString("\n")
	}
	abundance = filepath.Join(dir, "abundance.tsv")
	require.NoError(t, os.WriteFile(abundance, []byte(ab.String()), 0o644))

	var md strings.Builder
	md.WriteString("sample\tgroup\n")
	for i, s := range com.Table.Samples() {
		md.WriteString(s + "\t" + com.Groups[i] + "\n")
	}
	metadata = filepath.Join(dir, "metadata.tsv")
	require.NoError(t, os.WriteFile(metadata, []byte(md.String()), 0o644))
	return abundance, metadata
}

func TestSweepEndToEnd(t *testing.T) {
	dir := t.TempDir()
	abundance, metadata := writeCommunity(t, dir)
	outDir := filepath.Join(dir, "out")

	sink, err := report.NewWriter(outDir)
	require.NoError(t, err)

	service := NewSweepService(sink, internal.NewLogger(internal.LogLevelError))
	// Depth 2 collapses the synthetic community to a single phylum and must
	// be skipped without disturbing the deeper levels.
	req := SweepRequest{
		AbundanceFile: abundance,
		MetadataFile:  metadata,
		Depths:        []int{2, 6, 7},
		Methods:       []result.DistanceMethod{result.MethodBrayCurtis, result.MethodJensenShannon},
		Permutations:  199,
		Seed:          7,
		UnitTimeout:   time.Minute,
		Workers:       2,
		Normalization: "relative",
	}

	res, err := service.Run(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, res.Levels, 3)
	assert.Equal(t, 2, res.Levels[0].Depth, "levels must come back in depth order")
	assert.Equal(t, errors.CodeDataInsufficient, res.Levels[0].SkipCode)

	for _, lr := range res.Levels[1:] {
		assert.Empty(t, lr.SkipCode, "depth %d", lr.Depth)
		assert.NotEmpty(t, lr.Alpha)
		require.Len(t, lr.Methods, 2)
		for _, mr := range lr.Methods {
			assert.Empty(t, mr.SkipCode, "depth %d %s", lr.Depth, mr.Method)
			require.NotNil(t, mr.Ordination, "depth %d %s", lr.Depth, mr.Method)
			require.NotNil(t, mr.PermanovaResult)
			require.NotNil(t, mr.AnosimResult)
			assert.Equal(t, 199, mr.PermanovaResult.Permutations)
		}
	}

	// The strong two-group signal survives projection to genus level.
	genus := res.Levels[1]
	assert.Less(t, genus.Methods[0].PermanovaResult.PValue, 0.05)

	m := res.Manifest
	assert.Equal(t, 6, m.UnitsTotal)
	assert.Equal(t, 4, m.UnitsOK)
	assert.Equal(t, 2, m.UnitsSkipped[errors.CodeDataInsufficient])
	assert.NotEmpty(t, m.RunID)

	// Skipped depths leave no files behind; analyzed depths leave the full set.
	for _, want := range []string{
		"summary.json",
		"alpha_level_7.tsv",
		"alpha_summary_level_7.tsv",
		"abundance_relative_level_7.tsv",
		"dist_braycurtis_level_7.tsv",
		"pcoa_braycurtis_level_7.tsv",
		"grouptest_jensenshannon_level_7.json",
	} {
		_, err := os.Stat(filepath.Join(outDir, want))
		assert.NoError(t, err, want)
	}
	_, err = os.Stat(filepath.Join(outDir, "alpha_level_2.tsv"))
	assert.True(t, os.IsNotExist(err), "skipped depth must not write artifacts")
}

func TestSweepFatalOnMissingInput(t *testing.T) {
	dir := t.TempDir()
	sink, err := report.NewWriter(filepath.Join(dir, "out"))
	require.NoError(t, err)
	service := NewSweepService(sink, internal.NewLogger(internal.LogLevelError))

	_, err = service.Run(context.Background(), SweepRequest{
		AbundanceFile: filepath.Join(dir, "missing.tsv"),
		MetadataFile:  filepath.Join(dir, "missing_meta.tsv"),
		Depths:        []int{7},
		Methods:       []result.DistanceMethod{result.MethodBrayCurtis},
	})
	require.Error(t, err)
}

func TestSweepFatalOnUncoveredMetadata(t *testing.T) {
	dir := t.TempDir()
	abundance, _ := writeCommunity(t, dir)
	metadata := filepath.Join(dir, "partial.tsv")
	require.NoError(t, os.WriteFile(metadata, []byte("sample\tgroup\nS1\tControl\n"), 0o644))

	sink, err := report.NewWriter(filepath.Join(dir, "out"))
	require.NoError(t, err)
	service := NewSweepService(sink, internal.NewLogger(internal.LogLevelError))

	_, err = service.Run(context.Background(), SweepRequest{
		AbundanceFile: abundance,
		MetadataFile:  metadata,
		Depths:        []int{7},
		Methods:       []result.DistanceMethod{result.MethodBrayCurtis},
	})
	require.Error(t, err)
}

func TestSweepBudgetDowngradesUnits(t *testing.T) {
	dir := t.TempDir()
	abundance, metadata := writeCommunity(t, dir)
	sink, err := report.NewWriter(filepath.Join(dir, "out"))
	require.NoError(t, err)
	service := NewSweepService(sink, internal.NewLogger(internal.LogLevelError))

	res, err := service.Run(context.Background(), SweepRequest{
		AbundanceFile: abundance,
		MetadataFile:  metadata,
		Depths:        []int{7},
		Methods:       []result.DistanceMethod{result.MethodBrayCurtis},
		Permutations:  199,
		UnitTimeout:   time.Nanosecond, // expires before any stage completes
		Workers:       1,
		Normalization: "relative",
	})
	require.NoError(t, err, "an expired unit budget must not fail the sweep")

	mr := res.Levels[0].Methods[0]
	// Distances may or may not land before the deadline, but the unit must
	// end in condition codes rather than partial silence.
	if mr.SkipCode == "" {
		assert.NotEmpty(t, mr.OrdinationCode)
		assert.NotEmpty(t, mr.GroupTestCode)
	}
	assert.Zero(t, res.Manifest.UnitsOK)
}
