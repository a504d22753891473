package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v2"
)

// EnvConfig names the environment variable that overrides the bench file path
const EnvConfig = "GPIB_CONFIG"

type codec struct {
	marshal   func(v interface{}) ([]byte, error)
	unmarshal func(data []byte, v interface{}) error
}

func jsonMarshal(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

var codecs = map[string]codec{
	".json": {jsonMarshal, json.Unmarshal},
	".yaml": {yaml.Marshal, yaml.Unmarshal},
	".yml":  {yaml.Marshal, yaml.Unmarshal},
	".toml": {toml.Marshal, toml.Unmarshal},
}

func codecFor(path string) (codec, error) {
	c, ok := codecs[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return codec{}, fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
	return c, nil
}

// SaveToFile writes the bench to path in the format its extension names
func SaveToFile(bench *Bench, path string) error {
	c, err := codecFor(path)
	if err != nil {
		return err
	}

	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := c.marshal(bench)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

// LoadFromFile reads and validates a bench file
func LoadFromFile(path string) (*Bench, error) {
	c, err := codecFor(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var bench Bench
	if err := c.unmarshal(data, &bench); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := bench.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}

	return &bench, nil
}

// GetConfigPath returns $GPIB_CONFIG, or bench.yaml in the user config directory
func GetConfigPath() string {
	if path := os.Getenv(EnvConfig); path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "benchgpib", "bench.yaml")
}
