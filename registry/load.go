package registry

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/parlance/core"
)

// File is the on-disk shape of a persona overrides file:
//
//	default_persona: jazz
//	personas:
//	  - id: jazz
//	    name: Jazz
//	    voice: sage
//	    turn_silence_ms: 1500
//	    prompt: |
//	      You are Jazz ...
type File struct {
	DefaultPersona string         `yaml:"default_persona"`
	Personas       []core.Persona `yaml:"personas"`
}

// Load reads a YAML overrides file and returns a new registry containing the
// built-in personas with the file's personas added or replaced.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read personas file: %w", err)
	}
	return Parse(data)
}

// Parse builds a registry from YAML overrides.
func Parse(data []byte) (*Registry, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse personas file: %w", err)
	}

	personas := make([]core.Persona, 0, len(builtinPersonas)+len(f.Personas))
	personas = append(personas, builtinPersonas...)
	for i, p := range f.Personas {
		p.ID = normalize(p.ID)
		if p.ID == "" {
			return nil, fmt.Errorf("persona %d: id is required", i)
		}
		if p.BasePrompt == "" {
			return nil, fmt.Errorf("persona %q: prompt is required", p.ID)
		}
		if p.DisplayName == "" {
			p.DisplayName = p.ID
		}
		personas = append(personas, p)
	}

	r := newRegistry(personas)
	if f.DefaultPersona != "" {
		id := normalize(f.DefaultPersona)
		if _, ok := r.personas[id]; !ok {
			return nil, fmt.Errorf("default persona %q is not defined", f.DefaultPersona)
		}
		r.defaultPersona = id
	}
	return r, nil
}
