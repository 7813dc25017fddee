package condition

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a condition seed file:
//
//	conditions:
//	  - name: is-creator
//	    display_name: Is creator
//	    category: default
type File struct {
	Conditions []Condition `yaml:"conditions"`
}

// LoadYAML decodes condition definitions from r.
func LoadYAML(r io.Reader) ([]Condition, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("condition: decode yaml: %w", err)
	}
	for i, c := range f.Conditions {
		if c.Name == "" {
			return nil, fmt.Errorf("condition: conditions[%d]: %w", i, ErrInvalid)
		}
	}
	return f.Conditions, nil
}

// LoadFile reads a YAML seed file from disk.
func LoadFile(path string) ([]Condition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("condition: open %s: %w", path, err)
	}
	defer f.Close()
	return LoadYAML(f)
}
