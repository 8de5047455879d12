// Package config loads and validates static-builder configuration.
package config

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	derrors "github.com/mpalmer/static-builder/internal/foundation/errors"
)

// DefaultConfigFile is the configuration file name used when --config is not given.
const DefaultConfigFile = "static-builder.yaml"

// Config represents the application configuration.
type Config struct {
	// Source is the root directory of the site sources.
	Source string `yaml:"source"`
	// Layouts holds the templates that documents may extend.
	Layouts string     `yaml:"layouts"`
	Mode    Mode       `yaml:"mode,omitempty"`
	Scan    ScanConfig `yaml:"scan,omitempty"`
	Output  Output     `yaml:"output"`
	Serve   Serve      `yaml:"serve,omitempty"`
	Links   Links      `yaml:"links,omitempty"`

	// baseDir is the directory relative paths are resolved against.
	baseDir string
}

// ScanConfig tunes source discovery.
type ScanConfig struct {
	// NormalizeUnicode rewrites logical paths to NFC.
	NormalizeUnicode bool `yaml:"normalize_unicode,omitempty"`
}

// Output describes the generated Go artifact.
type Output struct {
	File    string `yaml:"file"`
	Package string `yaml:"package"`
	Depfile string `yaml:"depfile,omitempty"`
}

// Serve configures the preview server.
type Serve struct {
	Addr    string `yaml:"addr,omitempty"`
	Metrics bool   `yaml:"metrics,omitempty"`
	Watch   bool   `yaml:"watch,omitempty"`
}

// Links configures internal link verification of rendered HTML.
type Links struct {
	Verify bool `yaml:"verify,omitempty"`
}

// Load reads configuration from path. Environment variables referenced as
// ${VAR} are expanded after .env files next to the config have been loaded.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "resolve config path").
			Fatal().WithContext("path", path).Build()
	}
	if err := loadEnvFiles(filepath.Dir(abs)); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, derrors.ConfigError("configuration file not found").
				WithContext("path", abs).WithCause(err).Build()
		}
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "read config file").
			Fatal().WithContext("path", abs).Build()
	}
	cfg, err := Parse([]byte(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, err
	}
	cfg.baseDir = filepath.Dir(abs)
	return cfg, nil
}

// Parse decodes YAML configuration, applies defaults and validates it.
// Relative paths are resolved against the working directory until Load sets a base.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty document decodes to io.EOF and means "all defaults".
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to parse configuration").Fatal().Build()
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Source == "" {
		c.Source = "site"
	}
	if c.Layouts == "" {
		c.Layouts = "layouts"
	}
	if c.Mode == "" {
		c.Mode = ModeFrozen
	}
	if c.Output.File == "" {
		c.Output.File = "static_content.go"
	}
	if c.Output.Package == "" {
		c.Output.Package = "main"
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = ":8080"
	}
}

// Validate checks field values.
func (c *Config) Validate() error {
	if NormalizeMode(string(c.Mode)) == "" {
		return derrors.ConfigError("invalid mode").
			WithContext("mode", string(c.Mode)).
			WithContext("allowed", strings.Join(modes.ValidKeys(), "|")).
			Build()
	}
	c.Mode = NormalizeMode(string(c.Mode))
	if !isGoIdentifier(c.Output.Package) {
		return derrors.ConfigError("output.package is not a valid Go package name").
			WithContext("package", c.Output.Package).
			Build()
	}
	if filepath.Ext(c.Output.File) != ".go" {
		return derrors.ConfigError("output.file must be a .go file").
			WithContext("file", c.Output.File).
			Build()
	}
	return nil
}

// SourceDir returns the absolute source root.
func (c *Config) SourceDir() string { return c.resolve(c.Source) }

// LayoutsDir returns the absolute layouts directory.
func (c *Config) LayoutsDir() string { return c.resolve(c.Layouts) }

// OutputFile returns the absolute path of the generated Go file.
func (c *Config) OutputFile() string { return c.resolve(c.Output.File) }

// DepfilePath returns the absolute depfile path, or "" when disabled.
func (c *Config) DepfilePath() string {
	if c.Output.Depfile == "" {
		return ""
	}
	return c.resolve(c.Output.Depfile)
}

// WithBaseDir sets the directory relative paths resolve against.
func (c *Config) WithBaseDir(dir string) *Config {
	c.baseDir = dir
	return c
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	base := c.baseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return filepath.Clean(p)
		}
		base = wd
	}
	return filepath.Join(base, p)
}

func isGoIdentifier(s string) bool {
	if s == "" || s == "_" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
