package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Generation defaults applied when the config leaves them unset.
const (
	DefaultProvider      = "gemini"
	DefaultModel         = "gemini-2.5-flash"
	DefaultMaxTokens     = 8192
	DefaultTemperature   = 0.2
	DefaultMaxIterations = 3
)

// Load reads and parses a pipeline configuration from the given YAML file
// path, then applies defaults to fields left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault searches standard locations and loads the first config found.
// Search order: ./genforge.yaml, ~/.genforge/config.yaml
func LoadDefault() (*Config, error) {
	candidates := []string{"genforge.yaml"}

	home, err := os.UserHomeDir()
	if err == nil {
		candidates = append(candidates, filepath.Join(home, ".genforge", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	return nil, fmt.Errorf("no pipeline config found (searched: %v)", candidates)
}

// applyDefaults fills generation and correction settings left unset and
// resolves default_checks for phases without an explicit checks list.
func applyDefaults(cfg *Config) {
	p := &cfg.Pipeline

	if p.Generation.Provider == "" {
		p.Generation.Provider = DefaultProvider
	}
	if p.Generation.Model == "" {
		p.Generation.Model = DefaultModel
	}
	if p.Generation.MaxTokens == 0 {
		p.Generation.MaxTokens = DefaultMaxTokens
	}
	if p.Generation.Temperature == 0 {
		p.Generation.Temperature = DefaultTemperature
	}
	if p.Correction.MaxIterations == 0 {
		p.Correction.MaxIterations = DefaultMaxIterations
	}

	for i := range p.Phases {
		ph := &p.Phases[i]
		if len(ph.Checks) == 0 && !ph.SkipChecks {
			ph.Checks = p.DefaultChecks
		}
		if ph.SkipChecks {
			ph.Checks = nil
		}
	}
}
