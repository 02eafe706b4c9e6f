package limiter

import (
	"sort"
	"strings"

	"mercator-hq/magicbox/pkg/querystring"
)

// Group keywords.
const (
	KeyAnd = "and"
	KeyOr  = "or"
)

// Entry is one key of a FilterSpec. Exactly one of Leaf and Group is set.
type Entry struct {
	Key string

	// Leaf holds the token strings given for a field. Repeated query keys
	// produce more than one.
	Leaf []string

	// Group is a nested spec.
	Group *FilterSpec
}

// IsGroup reports whether the entry holds a nested spec.
func (e Entry) IsGroup() bool {
	return e.Group != nil
}

// FilterSpec is an ordered filter request. Entry order is the order keys
// arrived in and decides how groups combine under the legacy strategy.
type FilterSpec struct {
	Entries []Entry
}

// NewFilterSpec returns an empty spec.
func NewFilterSpec() *FilterSpec {
	return &FilterSpec{}
}

// Leaf appends a field entry and returns the spec for chaining.
func (s *FilterSpec) Leaf(key string, values ...string) *FilterSpec {
	s.Entries = append(s.Entries, Entry{Key: key, Leaf: values})
	return s
}

// Group appends a nested entry and returns the spec for chaining.
func (s *FilterSpec) Group(key string, group *FilterSpec) *FilterSpec {
	s.Entries = append(s.Entries, Entry{Key: key, Group: group})
	return s
}

// IsEmpty reports whether the spec has no entries.
func (s *FilterSpec) IsEmpty() bool {
	return s == nil || len(s.Entries) == 0
}

// HasGroupKeys reports whether "and" or "or" appears at the top level.
func (s *FilterSpec) HasGroupKeys() bool {
	if s == nil {
		return false
	}
	for _, e := range s.Entries {
		if e.Key == KeyAnd || e.Key == KeyOr {
			return true
		}
	}
	return false
}

// String renders the spec in bracket notation, e.g.
// "name==kirill or[status]==active". Used for logging.
func (s *FilterSpec) String() string {
	var parts []string
	s.render("", &parts)
	return strings.Join(parts, " ")
}

func (s *FilterSpec) render(prefix string, parts *[]string) {
	if s == nil {
		return
	}
	for _, e := range s.Entries {
		key := e.Key
		if prefix != "" {
			key = prefix + "[" + e.Key + "]"
		}
		if e.Group != nil {
			e.Group.render(key, parts)
			continue
		}
		for _, v := range e.Leaf {
			*parts = append(*parts, key+"="+v)
		}
	}
}

// FromParams converts a decoded parameter map into a spec, keeping key order.
// Values that are neither strings, string lists nor nested maps are ignored.
func FromParams(p *querystring.Params) *FilterSpec {
	spec := NewFilterSpec()
	if p == nil {
		return spec
	}
	for pair := p.Oldest(); pair != nil; pair = pair.Next() {
		addValue(spec, pair.Key, pair.Value)
	}
	return spec
}

// FromMap converts a plain map, e.g. one decoded from JSON, into a spec.
// Go maps are unordered, so keys are sorted.
func FromMap(m map[string]any) *FilterSpec {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	spec := NewFilterSpec()
	for _, k := range keys {
		addValue(spec, k, m[k])
	}
	return spec
}

func addValue(spec *FilterSpec, key string, value any) {
	switch v := value.(type) {
	case string:
		spec.Leaf(key, v)
	case []string:
		spec.Leaf(key, v...)
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				values = append(values, s)
			}
		}
		spec.Leaf(key, values...)
	case *querystring.Params:
		spec.Group(key, FromParams(v))
	case map[string]any:
		spec.Group(key, FromMap(v))
	}
}
