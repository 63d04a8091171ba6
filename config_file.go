package apm

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig decodes a YAML configuration from r on top of DefaultConfig
// and validates the result. Unknown keys are rejected. An empty document
// yields the defaults.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: decode yaml: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads the YAML configuration file at path.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config %q: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	cfg, err := LoadConfig(f)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %q: %w", path, err)
	}
	return cfg, nil
}

// WriteConfig encodes cfg as YAML in the format LoadConfig reads. Enums are
// written by name.
func WriteConfig(w io.Writer, cfg Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}
