// Package registry holds the immutable lookup tables for personas, speed /
// level / style modifier text and language display names. Every lookup has a
// fixed fallback so that any PreferenceSet resolves to valid values.
package registry

import (
	"sort"
	"strings"

	"github.com/hupe1980/parlance/core"
)

// Table selects one of the modifier tables.
type Table int

const (
	// TableSpeed holds speaking pace directives.
	TableSpeed Table = iota
	// TableLevel holds vocabulary / grammar complexity directives.
	TableLevel
	// TableStyle holds register directives.
	TableStyle
)

// String returns the table name.
func (t Table) String() string {
	switch t {
	case TableSpeed:
		return "speed"
	case TableLevel:
		return "level"
	case TableStyle:
		return "style"
	default:
		return "unknown"
	}
}

// DefaultKey returns the fallback key of a modifier table.
func (t Table) DefaultKey() string {
	switch t {
	case TableSpeed:
		return string(core.SpeedNormal)
	case TableLevel:
		return string(core.LevelIntermediate)
	default:
		return string(core.StyleCasual)
	}
}

// Registry is a read-only set of lookup tables. The zero value is not usable;
// construct with Default or Load. Safe for concurrent use.
type Registry struct {
	personas       map[string]core.Persona
	defaultPersona string
	modifiers      map[Table]map[string]string
	languages      map[string]string
}

var defaultRegistry = newRegistry(builtinPersonas)

// Default returns the built-in registry.
func Default() *Registry { return defaultRegistry }

func newRegistry(personas []core.Persona) *Registry {
	r := &Registry{
		personas:       make(map[string]core.Persona, len(personas)),
		defaultPersona: DefaultPersonaID,
		modifiers: map[Table]map[string]string{
			TableSpeed: copyTable(speedModifiers),
			TableLevel: copyTable(levelModifiers),
			TableStyle: copyTable(styleModifiers),
		},
		languages: copyTable(languageNames),
	}
	for _, p := range personas {
		r.personas[p.ID] = p
	}
	return r
}

func copyTable(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// ResolvePersona returns the persona for id, or the default persona when the
// id is unknown or empty.
func (r *Registry) ResolvePersona(id string) core.Persona {
	if p, ok := r.personas[normalize(id)]; ok {
		return p
	}
	return r.personas[r.defaultPersona]
}

// HasPersona reports whether id names a registered persona.
func (r *Registry) HasPersona(id string) bool {
	_, ok := r.personas[normalize(id)]
	return ok
}

// Personas returns all registered personas sorted by id.
func (r *Registry) Personas() []core.Persona {
	out := make([]core.Persona, 0, len(r.personas))
	for _, p := range r.personas {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ResolveModifier returns the directive text for key in table, falling back to
// the table's default entry.
func (r *Registry) ResolveModifier(table Table, key string) string {
	entries, ok := r.modifiers[table]
	if !ok {
		return ""
	}
	if text, ok := entries[normalize(key)]; ok {
		return text
	}
	return entries[table.DefaultKey()]
}

// ResolveLanguageName returns the display name for a language code, or
// DefaultLanguageName when the code is unknown.
func (r *Registry) ResolveLanguageName(code string) string {
	if name, ok := r.languages[normalize(code)]; ok {
		return name
	}
	return DefaultLanguageName
}

// Resolved is a PreferenceSet with every lookup applied.
type Resolved struct {
	Persona      core.Persona
	LanguageName string
	Speed        string
	Level        string
	Style        string
}

// Resolve applies every lookup for prefs.
func (r *Registry) Resolve(prefs core.PreferenceSet) Resolved {
	return Resolved{
		Persona:      r.ResolvePersona(prefs.Persona),
		LanguageName: r.ResolveLanguageName(prefs.Language),
		Speed:        r.ResolveModifier(TableSpeed, string(prefs.Speed)),
		Level:        r.ResolveModifier(TableLevel, string(prefs.Level)),
		Style:        r.ResolveModifier(TableStyle, string(prefs.Style)),
	}
}

func normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}
