// Package memory implements storage.Store with in-process tables.
//
// Queries are evaluated by walking the predicate tree for each row, so the
// results match the sqlite backend for the same description. Intended for
// tests and for trying out requests without a database file.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"mercator-hq/magicbox/pkg/query"
	"mercator-hq/magicbox/pkg/schema"
	"mercator-hq/magicbox/pkg/storage"
)

const backendName = "memory"

// Store holds rows per table in insertion order.
type Store struct {
	tables map[string][]storage.Record
	nextID map[string]int64
	mu     sync.RWMutex
}

var _ storage.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		tables: make(map[string][]storage.Record),
		nextID: make(map[string]int64),
	}
}

// List implements storage.Store.
func (s *Store) List(ctx context.Context, m *schema.Model, q *query.Query) ([]storage.Record, error) {
	s.mu.RLock()
	records, err := s.selectRows(m, q)
	s.mu.RUnlock()
	if err != nil {
		return nil, storage.NewStorageError(backendName, "list", err)
	}

	if err := storage.Prefetch(ctx, m, records, q.Prefetch, s.fetchIn); err != nil {
		return nil, storage.NewStorageError(backendName, "prefetch", err)
	}
	return records, nil
}

// Get implements storage.Store.
func (s *Store) Get(ctx context.Context, m *schema.Model, q *query.Query, pk string) (storage.Record, bool, error) {
	key, err := storage.Coerce(m.PrimaryKey, m.PrimaryKeyType, pk)
	if err != nil {
		return nil, false, storage.NewStorageError(backendName, "get", err)
	}

	s.mu.RLock()
	records, err := s.selectRows(m, q)
	s.mu.RUnlock()
	if err != nil {
		return nil, false, storage.NewStorageError(backendName, "get", err)
	}

	for _, rec := range records {
		if storage.Key(rec[m.PrimaryKey]) != storage.Key(key) {
			continue
		}
		found := []storage.Record{rec}
		if err := storage.Prefetch(ctx, m, found, q.Prefetch, s.fetchIn); err != nil {
			return nil, false, storage.NewStorageError(backendName, "prefetch", err)
		}
		return rec, true, nil
	}
	return nil, false, nil
}

// DeleteMatching implements storage.Store.
func (s *Store) DeleteMatching(ctx context.Context, m *schema.Model, q *query.Query) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		kept    []storage.Record
		deleted int64
	)
	for _, rec := range s.tables[m.Table] {
		ok, err := matchesQuery(m, q, rec)
		if err != nil {
			return 0, storage.NewStorageError(backendName, "delete", err)
		}
		if ok {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	s.tables[m.Table] = kept
	return deleted, nil
}

// DeleteByPK implements storage.Store.
func (s *Store) DeleteByPK(ctx context.Context, m *schema.Model, pk string) (int64, error) {
	key, err := storage.Coerce(m.PrimaryKey, m.PrimaryKeyType, pk)
	if err != nil {
		return 0, storage.NewStorageError(backendName, "delete_pk", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rows := s.tables[m.Table]
	for i, rec := range rows {
		if storage.Key(rec[m.PrimaryKey]) == storage.Key(key) {
			s.tables[m.Table] = append(rows[:i:i], rows[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// Insert implements storage.Store.
func (s *Store) Insert(ctx context.Context, m *schema.Model, rec storage.Record) (storage.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := make(storage.Record, len(m.Fields)+len(m.Relations))
	for _, f := range m.Fields {
		row[f.Name] = rec[f.Name]
	}
	for _, r := range m.Relations {
		if r.Kind == schema.ManyToOne {
			row[r.Name] = rec[r.Name]
		}
	}

	if err := storage.CheckPrimaryKey(m, row); err != nil {
		return nil, storage.NewStorageError(backendName, "insert", err)
	}
	if row[m.PrimaryKey] == nil {
		switch m.PrimaryKeyType {
		case schema.TypeUUID:
			row[m.PrimaryKey] = uuid.NewString()
		case schema.TypeInteger:
			s.nextID[m.Table]++
			row[m.PrimaryKey] = s.nextID[m.Table]
		}
	} else if id, ok := row[m.PrimaryKey].(int64); ok && id > s.nextID[m.Table] {
		s.nextID[m.Table] = id
	}

	for _, existing := range s.tables[m.Table] {
		if storage.Key(existing[m.PrimaryKey]) == storage.Key(row[m.PrimaryKey]) {
			return nil, storage.NewStorageError(backendName, "insert",
				fmt.Errorf("duplicate primary key %v", row[m.PrimaryKey]))
		}
	}

	s.tables[m.Table] = append(s.tables[m.Table], row)
	return clone(row), nil
}

// Close implements storage.Store.
func (s *Store) Close() error {
	return nil
}

// selectRows filters, annotates and sorts a copy of the table. Callers hold
// at least a read lock.
func (s *Store) selectRows(m *schema.Model, q *query.Query) ([]storage.Record, error) {
	out := []storage.Record{}
	for _, rec := range s.tables[m.Table] {
		ok, err := matchesQuery(m, q, rec)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, clone(rec))
		}
	}

	if a := q.Annotation; a != nil {
		for _, rec := range out {
			v, err := s.annotate(m, a, rec)
			if err != nil {
				return nil, err
			}
			rec[a.Alias()] = v
		}
	}

	if len(q.OrderBy) > 0 {
		for _, o := range q.OrderBy {
			if q.Annotation != nil && o.Field == q.Annotation.Alias() {
				continue
			}
			if _, ok := m.Column(o.Field); !ok {
				return nil, &storage.UnknownModelError{Model: m.Name, Name: o.Field}
			}
		}
		sort.SliceStable(out, func(i, j int) bool {
			return less(out[i], out[j], q.OrderBy)
		})
	}
	return out, nil
}

// annotate computes the aggregate for one row, mirroring the sqlite
// backend: plain columns aggregate the row's own value, one-to-many
// relations aggregate the primary keys of the related rows.
func (s *Store) annotate(m *schema.Model, a *query.Annotation, rec storage.Record) (any, error) {
	if _, ok := m.Column(a.Field); ok {
		return aggregate(a.Func, []any{rec[a.Field]}), nil
	}

	rel, ok := m.Relation(a.Field)
	if !ok || rel.Target() == nil {
		return nil, &storage.UnknownModelError{Model: m.Name, Name: a.Field}
	}
	target := rel.Target()
	backRef := target.FieldName(rel.Column)

	var values []any
	for _, child := range s.tables[target.Table] {
		if storage.Key(child[backRef]) == storage.Key(rec[m.PrimaryKey]) {
			values = append(values, child[target.PrimaryKey])
		}
	}
	return aggregate(a.Func, values), nil
}

func aggregate(fn query.Aggregate, values []any) any {
	var present []any
	for _, v := range values {
		if v != nil {
			present = append(present, v)
		}
	}

	if fn == query.AggregateCount {
		return int64(len(present))
	}
	if len(present) == 0 {
		return nil
	}

	switch fn {
	case query.AggregateMin, query.AggregateMax:
		best := present[0]
		for _, v := range present[1:] {
			c, ok := storage.Compare(v, best)
			if ok && ((fn == query.AggregateMin && c < 0) || (fn == query.AggregateMax && c > 0)) {
				best = v
			}
		}
		return best
	case query.AggregateSum, query.AggregateAvg:
		var (
			intSum   int64
			floatSum float64
			isFloat  bool
		)
		for _, v := range present {
			switch n := v.(type) {
			case int64:
				intSum += n
				floatSum += float64(n)
			case float64:
				isFloat = true
				floatSum += n
			}
		}
		if fn == query.AggregateAvg {
			return floatSum / float64(len(present))
		}
		if isFloat {
			return floatSum
		}
		return intSum
	}
	return nil
}

// less orders rows by keys. NULLs sort first, as in SQLite.
func less(a, b storage.Record, keys []query.Order) bool {
	for _, k := range keys {
		av, bv := a[k.Field], b[k.Field]
		var c int
		switch {
		case av == nil && bv == nil:
			c = 0
		case av == nil:
			c = -1
		case bv == nil:
			c = 1
		default:
			c, _ = storage.Compare(av, bv)
		}
		if c == 0 {
			continue
		}
		if k.Desc {
			return c > 0
		}
		return c < 0
	}
	return false
}

func (s *Store) fetchIn(ctx context.Context, m *schema.Model, column string, values []any) ([]storage.Record, error) {
	field := m.FieldName(column)
	wanted := make(map[string]bool, len(values))
	for _, v := range values {
		if v != nil {
			wanted[storage.Key(v)] = true
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []storage.Record{}
	for _, rec := range s.tables[m.Table] {
		if rec[field] != nil && wanted[storage.Key(rec[field])] {
			out = append(out, clone(rec))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return less(out[i], out[j], []query.Order{{Field: m.PrimaryKey}})
	})
	return out, nil
}

func matchesQuery(m *schema.Model, q *query.Query, rec storage.Record) (bool, error) {
	if len(q.Filter) > 0 {
		ok, err := matchAll(m, q.Filter, rec)
		if err != nil || !ok {
			return false, err
		}
	}
	if len(q.Exclude) > 0 {
		ok, err := matchAll(m, q.Exclude, rec)
		if err != nil || ok {
			return false, err
		}
	}
	if q.Where != nil {
		return eval(m, q.Where, rec)
	}
	return true, nil
}

func eval(m *schema.Model, p query.Predicate, rec storage.Record) (bool, error) {
	switch v := p.(type) {
	case query.Match:
		return matchAll(m, v, rec)
	case query.Not:
		if v.Inner == nil {
			return true, nil
		}
		ok, err := eval(m, v.Inner, rec)
		return !ok, err
	case query.And:
		for _, child := range v {
			ok, err := eval(m, child, rec)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case query.Or:
		for _, child := range v {
			ok, err := eval(m, child, rec)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("unsupported predicate %T", p)
	}
}

func matchAll(m *schema.Model, lookups []query.Lookup, rec storage.Record) (bool, error) {
	for _, l := range lookups {
		ok, err := matchLookup(m, l, rec)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func matchLookup(m *schema.Model, l query.Lookup, rec storage.Record) (bool, error) {
	if _, ok := m.Column(l.Field); !ok {
		return false, &storage.UnknownModelError{Model: m.Name, Name: l.Field}
	}
	operand, err := storage.CoerceOperand(m, l)
	if err != nil {
		return false, err
	}

	value := rec[l.Field]
	if value == nil {
		return false, nil
	}

	switch l.Op {
	case query.OpStartsWith:
		return strings.HasPrefix(storage.Key(value), operand.(string)), nil
	case query.OpEndsWith:
		return strings.HasSuffix(storage.Key(value), operand.(string)), nil
	case query.OpContains:
		return strings.Contains(storage.Key(value), operand.(string)), nil
	case query.OpIn:
		for _, item := range operand.([]any) {
			if c, ok := storage.Compare(value, item); ok && c == 0 {
				return true, nil
			}
		}
		return false, nil
	}

	c, ok := storage.Compare(value, operand)
	if !ok {
		return false, nil
	}
	switch l.Op {
	case query.OpExact, "":
		return c == 0, nil
	case query.OpLessThan:
		return c < 0, nil
	case query.OpGreaterThan:
		return c > 0, nil
	case query.OpLessOrEqual:
		return c <= 0, nil
	case query.OpGreaterOrEqual:
		return c >= 0, nil
	default:
		return false, fmt.Errorf("unsupported operator %q", l.Op)
	}
}

func clone(rec storage.Record) storage.Record {
	out := make(storage.Record, len(rec))
	for k, v := range rec {
		out[k] = v
	}
	return out
}
