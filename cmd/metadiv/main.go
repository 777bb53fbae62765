// Command metadiv runs the multi-level taxonomic diversity sweep: it splits
// a Kraken2-style abundance table by rank depth, computes alpha and beta
// diversity, ordinates each distance matrix and runs permutation group
// tests, writing plot-ready tables for the reporting layer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fluhus/gostuff/ptimer"
	"github.com/joho/godotenv"

	"metadiv/adapters/report"
	"metadiv/adapters/tsv"
	"metadiv/app"
	"metadiv/domain/result"
	"metadiv/internal"
	"metadiv/internal/config"
)

var (
	inFile   = flag.String("i", "", "Input abundance TSV (overrides METADIV_INPUT)")
	metaFile = flag.String("m", "", "Sample metadata TSV (overrides METADIV_METADATA)")
	outDir   = flag.String("o", "", "Output directory (overrides METADIV_OUT)")
	depths   = flag.String("depths", "", "Comma-separated taxonomic depths, 1..7")
	methods  = flag.String("methods", "", "Comma-separated distance methods")
	perms    = flag.Int("p", 0, "Permutation count for group tests")
	seed     = flag.Int64("seed", 0, "Random seed for permutation tests")
	workers  = flag.Int("t", 0, "Parallel depth workers")
	timeout  = flag.Duration("timeout", 0, "Wall-clock budget per (depth, method) unit")
	norm     = flag.String("norm", "", "Composition table normalization: relative or rpm")
	split    = flag.Bool("split", false, "Also write raw per-level tables next to the input")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()
	logger := internal.NewDefaultLogger()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "metadiv:", err)
		os.Exit(1)
	}

	methodList := make([]result.DistanceMethod, 0, len(cfg.Sweep.Methods))
	for _, m := range cfg.Sweep.Methods {
		dm, ok := result.ParseDistanceMethod(m)
		if !ok {
			fmt.Fprintf(os.Stderr, "metadiv: unknown distance method %q\n", m)
			os.Exit(1)
		}
		methodList = append(methodList, dm)
	}

	if *split {
		t, err := tsv.LoadAbundance(cfg.Input.AbundanceFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "metadiv:", err)
			os.Exit(1)
		}
		base := strings.TrimSuffix(cfg.Input.AbundanceFile, ".tsv")
		written, err := tsv.WriteLevelTables(t, base)
		if err != nil {
			fmt.Fprintln(os.Stderr, "metadiv:", err)
			os.Exit(1)
		}
		logger.Info("wrote %d per-level tables", len(written))
	}

	sink, err := report.NewWriter(cfg.Output.Dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "metadiv:", err)
		os.Exit(1)
	}

	service := app.NewSweepService(sink, logger)
	req := app.SweepRequest{
		AbundanceFile: cfg.Input.AbundanceFile,
		MetadataFile:  cfg.Input.MetadataFile,
		Depths:        cfg.Sweep.Depths,
		Methods:       methodList,
		Permutations:  cfg.Sweep.Permutations,
		Seed:          cfg.Sweep.Seed,
		UnitTimeout:   cfg.Sweep.UnitTimeout,
		Workers:       cfg.Sweep.Workers,
		Normalization: cfg.Sweep.Normalization,
	}

	pt := ptimer.NewMessage("sweep finished in {}")
	res, err := service.Run(context.Background(), req)
	if err != nil {
		fmt.Fprintln(os.Stderr, "metadiv:", err)
		os.Exit(1)
	}
	pt.Done()

	logger.Info("run %s: %d/%d units fully analyzed",
		res.Manifest.RunID, res.Manifest.UnitsOK, res.Manifest.UnitsTotal)
	for code, n := range res.Manifest.UnitsSkipped {
		logger.Warn("%d unit stage(s) skipped with %s", n, code)
	}
}

// loadConfig reads the environment configuration and applies flag
// overrides before validation.
func loadConfig() (*config.Config, error) {
	applyFlagEnv := func(flagValue, key string) {
		if flagValue != "" {
			os.Setenv(key, flagValue)
		}
	}
	applyFlagEnv(*inFile, "METADIV_INPUT")
	applyFlagEnv(*metaFile, "METADIV_METADATA")
	applyFlagEnv(*outDir, "METADIV_OUT")
	applyFlagEnv(*depths, "METADIV_DEPTHS")
	applyFlagEnv(*methods, "METADIV_METHODS")
	applyFlagEnv(*norm, "METADIV_NORM")
	if *perms > 0 {
		os.Setenv("METADIV_PERMUTATIONS", fmt.Sprint(*perms))
	}
	if *seed != 0 {
		os.Setenv("METADIV_SEED", fmt.Sprint(*seed))
	}
	if *workers > 0 {
		os.Setenv("METADIV_WORKERS", fmt.Sprint(*workers))
	}
	if *timeout > 0 {
		os.Setenv("METADIV_UNIT_TIMEOUT", timeout.String())
	}
	return config.Load()
}
