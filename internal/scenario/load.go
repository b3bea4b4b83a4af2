// internal/scenario/load.go
package scenario

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// fileFormat is the top-level shape of a scenarios YAML file.
type fileFormat struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadFile reads scenarios from a YAML file and fills unset fields from d.
func LoadFile(path string, d Defaults) ([]Scenario, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand scenarios path %q: %w", path, err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios file: %w", err)
	}
	scenarios, err := Parse(bytes.NewReader(data), d)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", expanded, err)
	}
	return scenarios, nil
}

// Parse decodes scenarios from YAML. Unknown fields are rejected.
func Parse(r io.Reader, d Defaults) ([]Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f fileFormat
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("scenarios file is empty")
		}
		return nil, fmt.Errorf("failed to decode scenarios: %w", err)
	}

	out := make([]Scenario, 0, len(f.Scenarios))
	for _, s := range f.Scenarios {
		s, err := applyDefaults(s, d)
		if err != nil {
			return nil, err
		}
		if err := s.Validate(); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func applyDefaults(s Scenario, d Defaults) (Scenario, error) {
	if s.URL == "" {
		s.URL = d.URL
	}
	if s.Upload != nil {
		upload := *s.Upload
		fixture, err := resolvePath(upload.Fixture, d.FixturesDir)
		if err != nil {
			return s, err
		}
		upload.Fixture = fixture
		s.Upload = &upload
	}
	if s.Interaction != nil {
		in := *s.Interaction
		if in.KeyDelay == 0 {
			in.KeyDelay = d.TypeDelay
		}
		s.Interaction = &in
	}
	screenshot, err := resolvePath(s.Screenshot, d.OutputDir)
	if err != nil {
		return s, err
	}
	s.Screenshot = screenshot
	return s, nil
}

// resolvePath expands ~ and makes relative paths relative to base.
func resolvePath(p, base string) (string, error) {
	if p == "" {
		return "", nil
	}
	expanded, err := homedir.Expand(p)
	if err != nil {
		return "", fmt.Errorf("failed to expand path %q: %w", p, err)
	}
	if filepath.IsAbs(expanded) || base == "" {
		return expanded, nil
	}
	return filepath.Join(base, expanded), nil
}
