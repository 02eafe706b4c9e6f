package storage

import (
	"context"
	"strings"

	"mercator-hq/magicbox/pkg/query"
	"mercator-hq/magicbox/pkg/schema"
)

// FetchFunc loads the rows of m whose column holds one of values.
type FetchFunc func(ctx context.Context, m *schema.Model, column string, values []any) ([]Record, error)

// Prefetch attaches the related rows named by paths to records. Each path
// is a chain of relation names joined by query.LookupSep. Relations already
// attached by an earlier path are reused rather than fetched again.
func Prefetch(ctx context.Context, m *schema.Model, records []Record, paths []string, fetch FetchFunc) error {
	for _, path := range paths {
		level := records
		model := m
		for _, name := range strings.Split(path, query.LookupSep) {
			rel, ok := model.Relation(name)
			if !ok || rel.Target() == nil {
				return &UnknownModelError{Model: model.Name, Name: name}
			}

			var (
				next []Record
				err  error
			)
			if rel.Kind == schema.ManyToOne {
				next, err = attachParent(ctx, rel, level, fetch)
			} else {
				next, err = attachChildren(ctx, model, rel, level, fetch)
			}
			if err != nil {
				return err
			}

			level = next
			model = rel.Target()
		}
	}
	return nil
}

// attachParent replaces each foreign key under rel.Name with the referenced
// record and returns the distinct referenced records.
func attachParent(ctx context.Context, rel *schema.Relation, records []Record, fetch FetchFunc) ([]Record, error) {
	target := rel.Target()

	var (
		keys    []any
		pending []Record
		seen    = map[string]bool{}
		next    []Record
		nextSet = map[string]bool{}
	)
	for _, rec := range records {
		switch v := rec[rel.Name].(type) {
		case Record:
			if k := Key(v[target.PrimaryKey]); !nextSet[k] {
				nextSet[k] = true
				next = append(next, v)
			}
		case nil:
		default:
			pending = append(pending, rec)
			if k := Key(v); !seen[k] {
				seen[k] = true
				keys = append(keys, v)
			}
		}
	}
	if len(pending) == 0 {
		return next, nil
	}

	related, err := fetch(ctx, target, target.PrimaryKeyColumn(), keys)
	if err != nil {
		return nil, err
	}
	byPK := make(map[string]Record, len(related))
	for _, r := range related {
		byPK[Key(r[target.PrimaryKey])] = r
	}

	for _, rec := range pending {
		parent, ok := byPK[Key(rec[rel.Name])]
		if !ok {
			rec[rel.Name] = nil
			continue
		}
		rec[rel.Name] = parent
		if k := Key(parent[target.PrimaryKey]); !nextSet[k] {
			nextSet[k] = true
			next = append(next, parent)
		}
	}
	return next, nil
}

// attachChildren stores under rel.Name the rows of the related model that
// point back at each record, and returns all of them.
func attachChildren(ctx context.Context, m *schema.Model, rel *schema.Relation, records []Record, fetch FetchFunc) ([]Record, error) {
	target := rel.Target()
	backRef := target.FieldName(rel.Column)

	var (
		keys    []any
		pending []Record
		next    []Record
	)
	for _, rec := range records {
		if children, ok := rec[rel.Name].([]Record); ok {
			next = append(next, children...)
			continue
		}
		pending = append(pending, rec)
		keys = append(keys, rec[m.PrimaryKey])
	}
	if len(pending) == 0 {
		return next, nil
	}

	related, err := fetch(ctx, target, rel.Column, keys)
	if err != nil {
		return nil, err
	}
	byParent := make(map[string][]Record)
	for _, r := range related {
		k := parentKey(r[backRef], m.PrimaryKey)
		byParent[k] = append(byParent[k], r)
	}

	for _, rec := range pending {
		children := byParent[Key(rec[m.PrimaryKey])]
		if children == nil {
			children = []Record{}
		}
		rec[rel.Name] = children
		next = append(next, children...)
	}
	return next, nil
}

// parentKey reads a back reference that may already have been replaced by
// the parent record.
func parentKey(v any, pk string) string {
	if parent, ok := v.(Record); ok {
		return Key(parent[pk])
	}
	return Key(v)
}
