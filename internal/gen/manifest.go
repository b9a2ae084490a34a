package gen

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"ffigen/internal/backend"
)

// ManifestPath is where the run manifest lives, relative to the output root.
const ManifestPath = "ffigen_manifest.yaml"

// Manifest is the machine-readable summary of one run: what was generated,
// where, and under which symbols. It is part of the deterministic output:
// no timestamps, entries in registry order.
type Manifest struct {
	Backend  string         `yaml:"backend"`
	Features []string       `yaml:"features,omitempty"`
	Types    []ManifestType `yaml:"types"`
}

// ManifestType records the artifacts of one generated type.
type ManifestType struct {
	ID      string   `yaml:"id"`
	Library string   `yaml:"library"`
	Kind    string   `yaml:"kind"`
	Unit    string   `yaml:"unit"`
	Glue    string   `yaml:"glue"`
	Symbols []string `yaml:"symbols"`
}

// Render serializes the manifest as its output file.
func (m *Manifest) Render() (backend.File, error) {
	data, err := yaml.Marshal(m)
	if err != nil {
		return backend.File{}, fmt.Errorf("marshaling manifest: %w", err)
	}

	return backend.File{Path: ManifestPath, Content: data}, nil
}
