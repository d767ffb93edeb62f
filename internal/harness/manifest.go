package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Case types.
const (
	Positive = "positive"
	Negative = "negative"
)

// Manifest is a named list of syntax cases.
type Manifest struct {
	// Name identifies the manifest and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the manifest covers.
	Description string `yaml:"description"`

	// Prefixes are predeclared for every case.
	Prefixes map[string]string `yaml:"prefixes,omitempty"`

	// Base is the initial base IRI for every case.
	Base string `yaml:"base,omitempty"`

	Cases []Case `yaml:"cases"`
}

// Case is a single syntax test.
type Case struct {
	Name string `yaml:"name"`

	// Type is "positive" or "negative".
	Type string `yaml:"type"`

	// Query is the query text. File names a file holding it instead,
	// relative to the manifest.
	Query string `yaml:"query,omitempty"`
	File  string `yaml:"file,omitempty"`

	// Code is the expected error code of a negative case.
	Code string `yaml:"code,omitempty"`

	// Variables, when set, must equal the projected variables.
	Variables []string `yaml:"variables,omitempty"`

	// Algebra, when set, must equal the S-expression of the query.
	Algebra string `yaml:"algebra,omitempty"`

	// BlankNodesAsVariables parses the case with blank node rewriting.
	BlankNodesAsVariables bool `yaml:"blank_nodes_as_variables,omitempty"`
}

// LoadManifest reads a manifest and inlines any case files. Unknown
// fields are rejected to catch typos.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	for i := range m.Cases {
		c := &m.Cases[i]
		if c.File == "" {
			continue
		}
		text, err := os.ReadFile(filepath.Join(dir, c.File))
		if err != nil {
			return nil, fmt.Errorf("case %s: %w", c.Name, err)
		}
		c.Query = string(text)
	}

	if err := validateManifest(&m); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	return &m, nil
}

func validateManifest(m *Manifest) error {
	if m.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(m.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}
	seen := map[string]bool{}
	for i, c := range m.Cases {
		if c.Name == "" {
			return fmt.Errorf("cases[%d]: name is required", i)
		}
		if seen[c.Name] {
			return fmt.Errorf("cases[%d]: duplicate name %q", i, c.Name)
		}
		seen[c.Name] = true
		switch c.Type {
		case Positive:
			if c.Code != "" {
				return fmt.Errorf("cases[%d]: code is only valid for negative cases", i)
			}
		case Negative:
			if c.Algebra != "" || c.Variables != nil {
				return fmt.Errorf("cases[%d]: negative cases cannot expect algebra or variables", i)
			}
		default:
			return fmt.Errorf("cases[%d]: type must be %q or %q, got %q", i, Positive, Negative, c.Type)
		}
		if c.Query == "" {
			return fmt.Errorf("cases[%d]: query or file is required", i)
		}
	}
	return nil
}
