// Package config handles optional overrides for the deployment simulation.
//
// Config is stored at $XDG_CONFIG_HOME/appforge/config.yaml (defaults to
// ~/.config/appforge/config.yaml). Both sections are optional: steps
// replaces the built-in catalog, result overrides individual fields of the
// synthesized deployment payload.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"appforge"
	"appforge/internal/pipeline"

	"gopkg.in/yaml.v3"
)

// Step is one catalog entry override. Duration uses Go duration syntax
// ("1.5s", "800ms").
type Step struct {
	Message  string `yaml:"message"`
	Detail   string `yaml:"detail,omitempty"`
	Duration string `yaml:"duration"`
}

// Result overrides fields of the synthesized deployment payload. Empty
// fields keep their built-in defaults.
type Result struct {
	LiveURL    string   `yaml:"live-url,omitempty"`
	SourceRepo string   `yaml:"source-repo,omitempty"`
	ConfigRepo string   `yaml:"config-repo,omitempty"`
	Services   []string `yaml:"services,omitempty"`
	Status     string   `yaml:"status,omitempty"`
}

// Config is the on-disk configuration.
type Config struct {
	Steps  []Step `yaml:"steps,omitempty"`
	Result Result `yaml:"result,omitempty"`
}

// Path returns the config file location. It respects XDG_CONFIG_HOME,
// falling back to ~/.config/appforge/config.yaml.
func Path() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(".config", "appforge", "config.yaml")
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "appforge", "config.yaml")
}

// Load reads the config file. If the file does not exist, an empty Config
// is returned (not an error).
func Load() (*Config, error) {
	data, err := os.ReadFile(Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// Save writes the config to disk, creating directories as needed.
func (c *Config) Save() error {
	p := Path()
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Catalog returns the step catalog to run: the configured steps if any,
// otherwise the built-in default.
func (c *Config) Catalog() (pipeline.Catalog, error) {
	if len(c.Steps) == 0 {
		return pipeline.DefaultCatalog(), nil
	}

	defs := make([]pipeline.StepDefinition, 0, len(c.Steps))
	for i, s := range c.Steps {
		d, err := time.ParseDuration(s.Duration)
		if err != nil {
			return pipeline.Catalog{}, fmt.Errorf("step %d duration %q: %w", i, s.Duration, err)
		}
		defs = append(defs, pipeline.StepDefinition{
			Message:  s.Message,
			Detail:   s.Detail,
			Duration: d,
		})
	}
	return pipeline.NewCatalog(defs)
}

// ResultPayload returns the built-in result with any configured overrides
// applied.
func (c *Config) ResultPayload() appforge.Result {
	r := pipeline.DefaultResult()
	if c.Result.LiveURL != "" {
		r.LiveURL = c.Result.LiveURL
	}
	if c.Result.SourceRepo != "" {
		r.SourceRepo = c.Result.SourceRepo
	}
	if c.Result.ConfigRepo != "" {
		r.ConfigRepo = c.Result.ConfigRepo
	}
	if len(c.Result.Services) > 0 {
		r.Services = append([]string(nil), c.Result.Services...)
	}
	if c.Result.Status != "" {
		r.Status = c.Result.Status
	}
	return r
}
