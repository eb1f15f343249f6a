// Package bindcfg reads host-supplied shader binding descriptions from
// YAML. A binding description maps vertex attribute names to the
// locations the engine feeds data at, applied to a program as pre-link
// Bind-Attrib-Location hints.
package bindcfg

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// bindingConfig maps the YAML document shape.
type bindingConfig struct {
	Name  string `yaml:"name"`
	Attrs []struct {
		Name     string `yaml:"name"`
		Location int    `yaml:"location"`
	} `yaml:"attributes"`
}

// Bindings is a resolved set of attribute binding hints.
type Bindings struct {
	// Name labels the configuration (typically the shader pair name).
	Name string

	// Attributes maps attribute name to the requested location.
	Attributes map[string]uint32
}

// Load parses a YAML binding description.
//
//	name: sprite
//	attributes:
//	  - name: position
//	    location: 0
//	  - name: texcoord
//	    location: 1
func Load(data []byte) (*Bindings, error) {
	var cfg bindingConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("bindcfg: yaml %w", err)
	}

	b := &Bindings{
		Name:       cfg.Name,
		Attributes: make(map[string]uint32, len(cfg.Attrs)),
	}
	for _, a := range cfg.Attrs {
		if a.Name == "" {
			return nil, fmt.Errorf("bindcfg: attribute with empty name")
		}
		if a.Location < 0 {
			return nil, fmt.Errorf("bindcfg: attribute %s has negative location %d", a.Name, a.Location)
		}
		if prev, dup := b.Attributes[a.Name]; dup {
			return nil, fmt.Errorf("bindcfg: attribute %s bound twice (locations %d and %d)", a.Name, prev, a.Location)
		}
		b.Attributes[a.Name] = uint32(a.Location)
	}
	return b, nil
}
