// Package config provides convenience loaders that turn configuration
// sources into the mappings dbmap.FromConfig consumes: YAML documents, the
// section-based query file format, and environment-driven connection
// settings.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadYAML reads a YAML configuration file into the nested mapping shape
// consumed by dbmap.FromConfig.
func LoadYAML(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// ParseYAML decodes a YAML document into a nested map.
func ParseYAML(data []byte) (map[string]any, error) {
	cfg := map[string]any{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
