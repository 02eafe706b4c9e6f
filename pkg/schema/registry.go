package schema

import (
	"fmt"
	"os"
	"sort"
	"sync/atomic"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a schema file.
type File struct {
	Models []*Model `yaml:"models"`
}

// Registry is an immutable set of models indexed by name.
type Registry struct {
	models map[string]*Model
}

// NewRegistry indexes models and resolves their relations. It returns a
// *DefinitionError listing every problem found.
func NewRegistry(models []*Model) (*Registry, error) {
	r := &Registry{models: make(map[string]*Model, len(models))}
	var problems []string

	for _, m := range models {
		if m == nil {
			continue
		}
		if m.Name == "" {
			problems = append(problems, "model with empty name")
			continue
		}
		if _, dup := r.models[m.Name]; dup {
			problems = append(problems, fmt.Sprintf("duplicate model %q", m.Name))
			continue
		}
		m.index()
		r.models[m.Name] = m
	}

	for _, m := range r.Models() {
		for _, rel := range m.Relations {
			if rel.Name == "" {
				problems = append(problems, fmt.Sprintf("model %q: relation with empty name", m.Name))
				continue
			}
			if _, clash := m.fields[rel.Name]; clash {
				problems = append(problems, fmt.Sprintf("model %q: relation %q clashes with a field", m.Name, rel.Name))
			}
			target, ok := r.models[rel.Model]
			if !ok {
				problems = append(problems, fmt.Sprintf("model %q: relation %q references unknown model %q", m.Name, rel.Name, rel.Model))
				continue
			}
			rel.target = target

			switch rel.Kind {
			case ManyToOne:
				if rel.Column == "" {
					rel.Column = rel.Name + "_id"
					m.columns[rel.Column] = rel.Name
				}
			case OneToMany:
				if rel.Column == "" {
					problems = append(problems, fmt.Sprintf("model %q: one_to_many relation %q needs the foreign key column on %q", m.Name, rel.Name, rel.Model))
				}
			default:
				problems = append(problems, fmt.Sprintf("model %q: relation %q has invalid kind %q (must be many_to_one or one_to_many)", m.Name, rel.Name, rel.Kind))
			}
		}
	}

	if len(problems) > 0 {
		return nil, &DefinitionError{Problems: problems}
	}
	return r, nil
}

// Parse builds a registry from YAML.
func Parse(data []byte) (*Registry, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	return NewRegistry(f.Models)
}

// Load reads and parses a schema file.
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file %q: %w", path, err)
	}
	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("schema file %q: %w", path, err)
	}
	return reg, nil
}

// Model returns the model called name.
func (r *Registry) Model(name string) (*Model, bool) {
	m, ok := r.models[name]
	return m, ok
}

// Models returns all models sorted by name.
func (r *Registry) Models() []*Model {
	out := make([]*Model, 0, len(r.models))
	for _, m := range r.models {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DefinitionError reports an invalid schema definition.
type DefinitionError struct {
	Problems []string
}

// Error implements the error interface.
func (e *DefinitionError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid schema: " + e.Problems[0]
	}
	msg := fmt.Sprintf("invalid schema (%d problems):", len(e.Problems))
	for _, p := range e.Problems {
		msg += "\n  - " + p
	}
	return msg
}

// Holder publishes the current registry to concurrent readers.
type Holder struct {
	current atomic.Pointer[Registry]
}

// NewHolder returns a holder serving reg.
func NewHolder(reg *Registry) *Holder {
	h := &Holder{}
	h.current.Store(reg)
	return h
}

// Registry returns the registry currently in effect.
func (h *Holder) Registry() *Registry {
	return h.current.Load()
}

// Swap replaces the registry in effect.
func (h *Holder) Swap(reg *Registry) {
	h.current.Store(reg)
}
