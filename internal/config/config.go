package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"metadiv/internal/errors"
)

// Config represents the complete pipeline configuration
type Config struct {
	Input  InputConfig
	Output OutputConfig
	Sweep  SweepConfig
}

// InputConfig holds the input file locations
type InputConfig struct {
	AbundanceFile string
	MetadataFile  string
}

// OutputConfig holds output settings
type OutputConfig struct {
	Dir string
}

// SweepConfig holds analysis sweep settings
type SweepConfig struct {
	Depths        []int
	Methods       []string
	Permutations  int
	Seed          int64
	UnitTimeout   time.Duration
	Workers       int
	Normalization string // "relative" or "rpm", for the alpha-table output
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Input: InputConfig{
			AbundanceFile: os.Getenv("METADIV_INPUT"),
			MetadataFile:  os.Getenv("METADIV_METADATA"),
		},
		Output: OutputConfig{
			Dir: getEnvOrDefault("METADIV_OUT", "metadiv_out"),
		},
		Sweep: SweepConfig{
			Depths:        parseDepths(getEnvOrDefault("METADIV_DEPTHS", "1,2,3,4,5,6,7")),
			Methods:       splitList(getEnvOrDefault("METADIV_METHODS", "braycurtis,jaccard,jensenshannon")),
			Permutations:  getEnvIntOrDefault("METADIV_PERMUTATIONS", 999),
			Seed:          int64(getEnvIntOrDefault("METADIV_SEED", 42)),
			UnitTimeout:   getEnvDurationOrDefault("METADIV_UNIT_TIMEOUT", 2*time.Minute),
			Workers:       getEnvIntOrDefault("METADIV_WORKERS", 4),
			Normalization: getEnvOrDefault("METADIV_NORM", "relative"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Input.AbundanceFile == "" {
		return errors.ConfigInvalid("METADIV_INPUT is required")
	}
	if config.Input.MetadataFile == "" {
		return errors.ConfigInvalid("METADIV_METADATA is required")
	}
	if len(config.Sweep.Depths) == 0 {
		return errors.ConfigInvalid("at least one taxonomic depth is required")
	}
	for _, d := range config.Sweep.Depths {
		if d < 1 || d > 7 {
			return errors.ConfigInvalid("depths must be within 1..7")
		}
	}
	if len(config.Sweep.Methods) == 0 {
		return errors.ConfigInvalid("at least one distance method is required")
	}
	if config.Sweep.Permutations < 1 {
		return errors.ConfigInvalid("permutation count must be positive")
	}
	if config.Sweep.Workers < 1 {
		return errors.ConfigInvalid("worker count must be positive")
	}
	if n := config.Sweep.Normalization; n != "relative" && n != "rpm" {
		return errors.ConfigInvalid("normalization must be 'relative' or 'rpm'")
	}
	return nil
}

func parseDepths(s string) []int {
	var out []int
	for _, part := range splitList(s) {
		if d, err := strconv.Atoi(part); err == nil {
			out = append(out, d)
		}
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
