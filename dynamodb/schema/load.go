package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML (or JSON) schema file. Unknown fields are rejected so
// that misspelled options like "rangekey" surface instead of being dropped.
func Parse(data []byte) (File, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("parse schema: %w", err)
	}
	seen := make(map[string]int, len(f.Models))
	for i, m := range f.Models {
		if m.Name == "" {
			return File{}, fmt.Errorf("parse schema: model %d has no name", i)
		}
		if prev, ok := seen[m.Name]; ok {
			return File{}, fmt.Errorf("parse schema: model %q defined twice (models %d and %d)", m.Name, prev, i)
		}
		seen[m.Name] = i
	}
	return f, nil
}

// LoadFile reads and parses a single schema file.
func LoadFile(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	f, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// LoadGlob loads every schema file matching pattern and merges their models
// in match order.
func LoadGlob(pattern string) (File, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return File{}, fmt.Errorf("glob pattern error: %w", err)
	}
	if len(matches) == 0 {
		return File{}, fmt.Errorf("no schema files found matching: %s", pattern)
	}
	return LoadFiles(matches...)
}

// LoadFiles loads the given schema files and merges their models in order.
// A model name may appear only once across all files.
func LoadFiles(paths ...string) (File, error) {
	var merged File
	seen := make(map[string]string)
	for _, path := range paths {
		f, err := LoadFile(path)
		if err != nil {
			return File{}, err
		}
		for _, m := range f.Models {
			if prev, ok := seen[m.Name]; ok {
				return File{}, fmt.Errorf("model %q defined in both %s and %s", m.Name, prev, path)
			}
			seen[m.Name] = path
			merged.Models = append(merged.Models, m)
		}
	}
	return merged, nil
}
