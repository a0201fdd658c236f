// Package config handles linksheet configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tsawler/linksheet/font"
	"github.com/tsawler/linksheet/model"
	"github.com/tsawler/linksheet/overlay"
)

// Config is the root configuration structure.
type Config struct {
	Paths    PathsConfig    `yaml:"paths"`
	Geometry model.Geometry `yaml:"geometry"`
	Fonts    FontsConfig    `yaml:"fonts"`
	Overflow string         `yaml:"overflow"`
}

// PathsConfig holds input and output locations.
type PathsConfig struct {
	InputDir string `yaml:"input_dir"`
	// Template is the background PDF. Empty means a blank page.
	Template string `yaml:"template"`
	Output   string `yaml:"output"`
}

// FontsConfig holds optional TrueType files for the two font roles. Empty
// paths use the built-in Go fonts.
type FontsConfig struct {
	Header string `yaml:"header"`
	Body   string `yaml:"body"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			InputDir: "items",
			Template: "template.pdf",
			Output:   "linksheet.pdf",
		},
		Geometry: model.DefaultGeometry(),
		Overflow: overlay.OverflowError.String(),
	}
}

// Load loads configuration from a file. Keys absent from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault loads config from path, or returns default if not found.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}

	return Load(path)
}

// Save saves configuration to a file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks the geometry and the overflow policy.
func (c *Config) Validate() error {
	if err := c.Geometry.Validate(); err != nil {
		return err
	}
	if _, err := overlay.ParseOverflow(c.Overflow); err != nil {
		return err
	}
	return nil
}

// OverflowPolicy returns the parsed overflow setting.
func (c *Config) OverflowPolicy() (overlay.OverflowPolicy, error) {
	return overlay.ParseOverflow(c.Overflow)
}

// Registry builds the font registry for the configured roles. The built-in
// Go Bold and Go Regular faces fill any role without a TrueType path.
func (c *Config) Registry() (*font.Registry, error) {
	if c.Geometry.HeaderFace == c.Geometry.BodyFace {
		return nil, fmt.Errorf("header and body share the font role %q", c.Geometry.HeaderFace)
	}
	defaults, err := font.DefaultRegistry()
	if err != nil {
		return nil, err
	}

	r := font.NewRegistry()
	roles := []struct {
		role     string
		path     string
		fallback string
	}{
		{c.Geometry.HeaderFace, c.Fonts.Header, font.RoleHeader},
		{c.Geometry.BodyFace, c.Fonts.Body, font.RoleBody},
	}
	for _, rl := range roles {
		if rl.path == "" {
			face, _ := defaults.Face(rl.fallback)
			r.Register(rl.role, face)
			continue
		}
		face, err := font.LoadFace(rl.path)
		if err != nil {
			return nil, fmt.Errorf("font for role %q: %w", rl.role, err)
		}
		r.Register(rl.role, face)
	}
	return r, nil
}
