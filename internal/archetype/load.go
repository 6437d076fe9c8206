package archetype

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/lawnchairsociety/dungeontopo/internal/direction"
)

// catalogFile is the on-disk shape of a catalog override:
//
//	archetypes:
//	  one_door: [east]
//	  three_door: [north, east, west]
type catalogFile struct {
	Archetypes map[string][]string `yaml:"archetypes" toml:"archetypes"`
}

// LoadCatalog reads layout overrides from a YAML or TOML file and merges them
// over the default catalog. A missing file yields the default catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultCatalog(), nil
		}
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var file catalogFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse catalog TOML: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
		}
	}

	return file.build()
}

func (f catalogFile) build() (*Catalog, error) {
	base := DefaultCatalog()
	layouts := make(map[Archetype][]direction.Direction, len(base.layouts))
	for a, doors := range base.layouts {
		layouts[a] = doors
	}

	for name, doorNames := range f.Archetypes {
		a, err := Parse(name)
		if err != nil {
			return nil, err
		}
		doors := make([]direction.Direction, 0, len(doorNames))
		for _, dn := range doorNames {
			d, err := direction.Parse(dn)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrInvalidLayout, a, err)
			}
			doors = append(doors, d)
		}
		layouts[a] = doors
	}

	return NewCatalog(layouts)
}
