// Package config loads the filterctl configuration file.
//
// Every setting can also be given as a command-line flag; flags win.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// MaxFileSize bounds the configuration file size (64KB).
const MaxFileSize = 64 * 1024

// Config holds defaults for filterctl commands.
type Config struct {
	// Catalog is a metadata catalog file (.yaml, .yml, .cue or .json).
	Catalog string `yaml:"catalog,omitempty"`

	// Database is the SQLite file holding saved filters and preview tables.
	Database string `yaml:"database,omitempty"`

	// Table is the table previews run against.
	Table string `yaml:"table,omitempty"`

	// Format is the output format, "text" or "json".
	Format string `yaml:"format,omitempty"`

	// Limit caps preview rows. Zero means no cap.
	Limit int `yaml:"limit,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Table:  "audit_event",
		Format: "text",
		Limit:  100,
	}
}

// Load reads path and overlays it on Default.
// Unknown keys are rejected so typos surface immediately.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > MaxFileSize {
		return nil, fmt.Errorf("config %s exceeds %d bytes", path, MaxFileSize)
	}
	return Decode(data)
}

// Decode parses YAML config data over Default. Empty data yields Default.
func Decode(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch c.Format {
	case "text", "json":
	default:
		return fmt.Errorf("format %q: must be text or json", c.Format)
	}
	if c.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", c.Limit)
	}
	return nil
}
