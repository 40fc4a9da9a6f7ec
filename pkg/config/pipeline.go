// Package config loads declarative pipeline definitions (YAML or JSON) and
// compiles them into executable graphs. The file format mirrors the builder
// API: a list of steps, a list of edges, and an entry point.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pipeline is the decoded form of a pipeline definition file.
type Pipeline struct {
	Name  string     `yaml:"name" json:"name"`
	Entry string     `yaml:"entry" json:"entry"`
	Steps []StepSpec `yaml:"steps" json:"steps"`
	Edges []EdgeSpec `yaml:"edges" json:"edges"`
}

// StepSpec declares one step: its identity, which built-in kind to
// instantiate, optional policy overrides, and kind-specific parameters.
type StepSpec struct {
	ID         string         `yaml:"id" json:"id"`
	Kind       string         `yaml:"kind" json:"kind"`
	Timeout    string         `yaml:"timeout" json:"timeout"`
	MaxRetries *int           `yaml:"max_retries" json:"max_retries"`
	Params     map[string]any `yaml:"params" json:"params"`
}

// EdgeSpec declares a transition. A bare from/to pair is an unconditional
// edge. When a condition is present, To is taken on a match and Else (if
// set) becomes the fallback route.
type EdgeSpec struct {
	From string         `yaml:"from" json:"from"`
	To   string         `yaml:"to" json:"to"`
	Else string         `yaml:"else" json:"else"`
	When *ConditionSpec `yaml:"when" json:"when"`
}

// ConditionSpec is a simple state predicate: the key's value must equal
// Equals when given, otherwise the key must be truthy (a true boolean,
// non-empty string, or non-zero number).
type ConditionSpec struct {
	Key    string `yaml:"key" json:"key"`
	Equals any    `yaml:"equals" json:"equals"`
}

// Load reads and decodes a pipeline definition from disk. The extension
// selects the codec; anything that is not .json is treated as YAML.
func Load(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline file: %w", err)
	}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		var p Pipeline
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("failed to parse pipeline json: %w", err)
		}
		return &p, nil
	}
	return Parse(data)
}

// Parse decodes a YAML pipeline definition.
func Parse(data []byte) (*Pipeline, error) {
	var p Pipeline
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline yaml: %w", err)
	}
	return &p, nil
}
