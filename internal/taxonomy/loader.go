package taxonomy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// document is the YAML layout of a taxonomy file
type document struct {
	Version string  `yaml:"version"`
	Tables  []Table `yaml:"tables"`
}

// Parse builds a taxonomy from a YAML document
func Parse(data []byte) (*Taxonomy, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy: %w", err)
	}
	t, err := New(doc.Version, doc.Tables)
	if err != nil {
		return nil, fmt.Errorf("failed to build taxonomy: %w", err)
	}
	return t, nil
}

// LoadFile reads a YAML taxonomy from disk
func LoadFile(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file: %w", err)
	}
	return Parse(data)
}

// Load returns the taxonomy at path, or the built-in one when path is empty
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// Export renders the taxonomy as a YAML document accepted by Parse
func (t *Taxonomy) Export() ([]byte, error) {
	doc := document{
		Version: t.version,
		Tables:  t.Tables(),
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal taxonomy: %w", err)
	}
	return data, nil
}
