package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/crucible/internal/schema"
)

// parse decodes a config document. Keys absent from the document keep
// their zero value, except timeout_seconds which starts at the default so
// that an explicit 0 reaches validation instead of being replaced.
func parse(data []byte) (*Config, error) {
	cfg := Config{TimeoutSeconds: DefaultTimeoutSeconds}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// LoadAndValidate reads a config file, checks it against the embedded schema,
// applies defaults, validates, and returns warnings for unknown fields.
func LoadAndValidate(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := schema.ValidateConfigYAML(data); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg, warnings, err := LoadWithWarnings(data)
	if err != nil {
		return nil, nil, err
	}

	applyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, warnings, err
	}

	return cfg, warnings, nil
}

// Resolve loads path when it exists. A missing file is only an error when the
// caller asked for it explicitly; otherwise the defaults are returned.
func Resolve(path string, explicit bool) (*Config, []string, error) {
	if path == "" {
		path = DefaultFileName
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return Default(), nil, nil
		}
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return LoadAndValidate(path)
}

// Write serializes cfg as YAML.
func Write(w io.Writer, cfg *Config) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
