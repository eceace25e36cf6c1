// Package config loads the project file describing a derivation run.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Project is the structure of the project.yaml file. Database and Rules are
// alternative fact sources; when both are set the rules file wins so a
// seeded run replays exactly what a prior run emitted.
type Project struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Database    string `yaml:"database"`
	Rules       string `yaml:"rules"`
	Outcome     string `yaml:"outcome"`
	ServerAddr  string `yaml:"server_addr"`
	ExportPath  string `yaml:"export"`
}

// Parse decodes a project document. It performs no source validation, so
// metadata-only sidecar files parse cleanly.
func Parse(data []byte) (*Project, error) {
	var p Project
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse project file: %w", err)
	}
	return &p, nil
}

// Load reads and parses a project file driving a derivation run, which must
// name a fact source.
func Load(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file: %w", err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if p.Database == "" && p.Rules == "" {
		return nil, fmt.Errorf("project file %s names neither a database nor a rules file", path)
	}
	return p, nil
}
