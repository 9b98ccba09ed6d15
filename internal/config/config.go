// Package config loads the sts.yaml run configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/samber/lo"
	"gopkg.in/yaml.v3"

	"github.com/limaJavier/sts/pkg/engine"
)

// DefaultConfigFile is looked up in the working directory, then next to the executable
const DefaultConfigFile = "sts.yaml"

var logLevels = []string{"debug", "info", "warn", "error"}

type Config struct {
	// OutputDir holds one directory per paradigm with the result files
	OutputDir        string        `mapstructure:"output_dir"`
	TimeLimit        time.Duration `mapstructure:"time_limit"`
	Grace            time.Duration `mapstructure:"grace"`
	SymmetryBreaking bool          `mapstructure:"symmetry_breaking"`
	Optimize         bool          `mapstructure:"optimize"`
	Threads          int           `mapstructure:"threads"`
	LogLevel         string        `mapstructure:"log_level"`
	// Executables maps tool names (kissat, minizinc, ...) to paths
	Executables map[string]string `mapstructure:"executables"`
	// Approaches lists the approaches run by default per paradigm
	Approaches map[string][]string `mapstructure:"approaches"`
}

func Default() *Config {
	return &Config{
		OutputDir:        "res",
		TimeLimit:        300 * time.Second,
		Grace:            10 * time.Second,
		SymmetryBreaking: true,
		Optimize:         false,
		Threads:          1,
		LogLevel:         "info",
		Executables:      map[string]string{},
		Approaches: map[string][]string{
			"SAT": {"gini"},
			"CP":  {"gecode", "chuffed"},
			"MIP": {"highs"},
		},
	}
}

// LoadFromBytes parses YAML over the defaults and validates the result
func LoadFromBytes(data []byte) (*Config, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg := Default()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

// Resolve loads the explicit path when given, else the first sts.yaml found in
// the working directory or next to the executable, else the defaults
func Resolve(path string) (*Config, error) {
	if path != "" {
		return LoadFromFile(path)
	}

	candidates := []string{DefaultConfigFile}
	if executable, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(executable), DefaultConfigFile))
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return LoadFromFile(candidate)
		}
	}
	return Default(), nil
}

func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir must not be empty")
	}
	if c.TimeLimit <= 0 || c.TimeLimit > engine.MaxTimeLimit {
		return fmt.Errorf("time_limit must be in (0, %v], got %v", engine.MaxTimeLimit, c.TimeLimit)
	}
	if c.Grace < 0 {
		return fmt.Errorf("grace must not be negative, got %v", c.Grace)
	}
	if c.Threads < 1 {
		return fmt.Errorf("threads must be at least 1, got %d", c.Threads)
	}
	if !slices.Contains(logLevels, c.LogLevel) {
		return fmt.Errorf("log_level must be one of %v, got %q", logLevels, c.LogLevel)
	}

	paradigms := []string{"SAT", "CP", "MIP"}
	unknown := lo.Filter(lo.Keys(c.Approaches), func(paradigm string, _ int) bool {
		return !slices.Contains(paradigms, paradigm)
	})
	if len(unknown) > 0 {
		return fmt.Errorf("approaches lists unknown paradigms: %v", unknown)
	}
	return nil
}
