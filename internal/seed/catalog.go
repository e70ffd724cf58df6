package seed

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Track is a named group of related skills.
type Track struct {
	Name   string   `yaml:"name"`
	Skills []string `yaml:"skills"`
}

// Catalog is the skill vocabulary demo users draw from.
type Catalog struct {
	Tracks []Track `yaml:"tracks"`
}

// DefaultCatalog parses the embedded catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog decodes and checks a YAML catalog.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("seed: parse catalog: %w", err)
	}
	if len(c.Tracks) == 0 {
		return nil, fmt.Errorf("seed: catalog has no tracks")
	}
	for i, t := range c.Tracks {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("seed: track %d has no name", i)
		}
		if len(t.Skills) < 2 {
			return nil, fmt.Errorf("seed: track %q needs at least two skills", t.Name)
		}
	}
	return &c, nil
}
