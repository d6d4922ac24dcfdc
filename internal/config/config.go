// Package config loads CLI settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/happyhackingspace/segmorph/processing"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the CLI commands.
type Config struct {
	// Model is the artifact path; empty means auto-detect.
	Model     string `yaml:"model"`
	BatchSize int    `yaml:"batch_size"`
	Scheme    string `yaml:"scheme"`
	MaxLen    int    `yaml:"max_len"`

	// Unknown overrides the unknown character policy; empty keeps the
	// policy stored with the model.
	Unknown string `yaml:"unknown"`
	Shuffle bool   `yaml:"shuffle"`
	Seed    uint64 `yaml:"seed"`
	Locale  string `yaml:"locale"`
	Version string `yaml:"version"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		BatchSize: 64,
		Scheme:    string(processing.SchemeBoundary),
		Locale:    "en",
		Version:   "latest",
	}
}

// Load reads a YAML config file. Keys missing from the file keep their
// default values; unknown keys are an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &c, nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be > 0, got %d", c.BatchSize)
	}
	if c.MaxLen < 0 {
		return fmt.Errorf("max_len must be >= 0, got %d", c.MaxLen)
	}
	if _, err := processing.ParseScheme(c.Scheme); err != nil {
		return err
	}
	if _, err := processing.ParseUnknownPolicy(c.Unknown); err != nil {
		return err
	}
	return nil
}

// ProcessorSettings returns the parsed scheme and unknown policy.
func (c *Config) ProcessorSettings() (processing.Scheme, processing.UnknownPolicy, error) {
	scheme, err := processing.ParseScheme(c.Scheme)
	if err != nil {
		return "", "", err
	}
	unknown, err := processing.ParseUnknownPolicy(c.Unknown)
	if err != nil {
		return "", "", err
	}
	return scheme, unknown, nil
}
