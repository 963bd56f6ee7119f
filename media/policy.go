package media

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy holds the re-encoding parameters for one entity kind.
type Policy struct {
	Quality   int `yaml:"quality" json:"quality"`
	MaxWidth  int `yaml:"max_width" json:"max_width"`
	MaxHeight int `yaml:"max_height" json:"max_height"`
}

func (p Policy) validate() error {
	if p.Quality < 1 || p.Quality > 100 {
		return fmt.Errorf("quality %d out of range 1-100", p.Quality)
	}
	if p.MaxWidth <= 0 || p.MaxHeight <= 0 {
		return fmt.Errorf("bounds %dx%d must be positive", p.MaxWidth, p.MaxHeight)
	}
	return nil
}

// PolicyTable maps an entity kind to its compression policy.
type PolicyTable map[EntityKind]Policy

// DefaultPolicies returns the built-in table.
func DefaultPolicies() PolicyTable {
	return PolicyTable{
		KindAlbumCover:    {Quality: 85, MaxWidth: 1920, MaxHeight: 1920},
		KindPhoto:         {Quality: 88, MaxWidth: 2400, MaxHeight: 2400},
		KindCategoryCover: {Quality: 85, MaxWidth: 1920, MaxHeight: 1920},
	}
}

// For returns the policy of a kind. Every kind is present in the default
// table, so a miss means the caller passed an unknown kind.
func (t PolicyTable) For(kind EntityKind) (Policy, error) {
	p, ok := t[kind]
	if !ok {
		return Policy{}, fmt.Errorf("no compression policy for kind %q", kind)
	}
	return p, nil
}

// LoadPolicies returns the default table, with per-kind overrides from the
// YAML file at path when path is not empty. Example:
//
//	photo:
//	  quality: 90
//	  max_width: 3000
//	  max_height: 3000
func LoadPolicies(path string) (PolicyTable, error) {
	table := DefaultPolicies()
	if path == "" {
		return table, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file '%s': %w", path, err)
	}

	var overrides map[EntityKind]Policy
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse policy file '%s': %w", path, err)
	}

	for kind, p := range overrides {
		if _, known := table[kind]; !known {
			return nil, fmt.Errorf("policy file '%s': unknown kind %q", path, kind)
		}
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("policy file '%s': %s: %w", path, kind, err)
		}
		table[kind] = p
	}
	return table, nil
}
