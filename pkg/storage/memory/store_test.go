package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/magicbox/internal/testschema"
	"mercator-hq/magicbox/pkg/query"
	"mercator-hq/magicbox/pkg/schema"
	"mercator-hq/magicbox/pkg/storage"
)

func seeded(t *testing.T) (*Store, *schema.Registry) {
	t.Helper()
	ctx := context.Background()
	reg := testschema.Registry(t)
	s := New()

	insert := func(model string, rec storage.Record) storage.Record {
		m, ok := reg.Model(model)
		require.True(t, ok)
		out, err := s.Insert(ctx, m, rec)
		require.NoError(t, err)
		return out
	}

	blog := insert("blog", storage.Record{"name": "tech"})
	kirill := insert("person", storage.Record{"first_name": "kirill", "last_name": "smith", "age": int64(30), "blog": blog["id"]})
	simon := insert("person", storage.Record{"first_name": "simon", "last_name": "jones", "age": int64(25), "blog": blog["id"]})
	insert("person", storage.Record{"first_name": "joe", "last_name": "smith", "age": int64(40)})

	goTips := insert("article", storage.Record{"title": "Go tips", "views": int64(10), "author": kirill["id"]})
	insert("article", storage.Record{"title": "SQL", "views": int64(5), "author": kirill["id"]})
	insert("article", storage.Record{"title": "Rust", "views": int64(7), "author": simon["id"]})

	insert("comment", storage.Record{"text": "nice", "article": goTips["id"]})
	return s, reg
}

func firstNames(records []storage.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i], _ = r["first_name"].(string)
	}
	return out
}

func TestStore_List(t *testing.T) {
	s, reg := seeded(t)
	person, _ := reg.Model("person")

	tests := []struct {
		name string
		q    query.Query
		want []string
	}{
		{"all", query.Query{}, []string{"kirill", "simon", "joe"}},
		{"filter", query.Query{Filter: []query.Lookup{{Field: "last_name", Op: query.OpExact, Value: "smith"}}}, []string{"kirill", "joe"}},
		{"exclude", query.Query{Exclude: []query.Lookup{{Field: "last_name", Op: query.OpExact, Value: "smith"}}}, []string{"simon"}},
		{"exclude keeps nulls", query.Query{Exclude: []query.Lookup{{Field: "blog", Op: query.OpExact, Value: "1"}}}, []string{"joe"}},
		{"in", query.Query{Filter: []query.Lookup{{Field: "age", Op: query.OpIn, Value: "[25, 40]"}}}, []string{"simon", "joe"}},
		{"endswith", query.Query{Filter: []query.Lookup{{Field: "first_name", Op: query.OpEndsWith, Value: "ll"}}}, []string{"kirill"}},
		{"lt", query.Query{Filter: []query.Lookup{{Field: "age", Op: query.OpLessThan, Value: "30"}}}, []string{"simon"}},
		{
			"where",
			query.Query{Where: query.Or{
				query.Not{Inner: query.Match{{Field: "last_name", Op: query.OpExact, Value: "smith"}}},
				query.Match{{Field: "age", Op: query.OpGreaterThan, Value: "35"}},
			}},
			[]string{"simon", "joe"},
		},
		{"sorted", query.Query{OrderBy: []query.Order{{Field: "age", Desc: true}}}, []string{"joe", "kirill", "simon"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := tt.q
			q.Model = "person"
			records, err := s.List(context.Background(), person, &q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, firstNames(records))
		})
	}
}

func TestStore_AnnotationAndPrefetch(t *testing.T) {
	s, reg := seeded(t)
	person, _ := reg.Model("person")

	q := &query.Query{
		Model:      "person",
		Annotation: &query.Annotation{Func: query.AggregateCount, Field: "articles"},
		OrderBy:    []query.Order{{Field: "articles__count", Desc: true}},
		Prefetch:   []string{"articles__comments", "blog"},
	}
	records, err := s.List(context.Background(), person, q)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"kirill", "simon", "joe"}, firstNames(records))
	assert.Equal(t, int64(2), records[0]["articles__count"])
	assert.Equal(t, int64(0), records[2]["articles__count"])

	articles := records[0]["articles"].([]storage.Record)
	require.Len(t, articles, 2)
	assert.Len(t, articles[0]["comments"], 1)
	assert.Equal(t, "tech", records[0]["blog"].(storage.Record)["name"])
	assert.Nil(t, records[2]["blog"])

	// Prefetching does not leak into stored rows.
	again, err := s.List(context.Background(), person, &query.Query{Model: "person"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), again[0]["blog"])
}

func TestStore_GetDelete(t *testing.T) {
	s, reg := seeded(t)
	person, _ := reg.Model("person")
	ctx := context.Background()

	rec, found, err := s.Get(ctx, person, &query.Query{Model: "person"}, "1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "kirill", rec["first_name"])

	_, found, err = s.Get(ctx, person, &query.Query{Model: "person"}, "99")
	require.NoError(t, err)
	assert.False(t, found)

	_, _, err = s.Get(ctx, person, &query.Query{Model: "person"}, "abc")
	assert.Error(t, err)

	n, err := s.DeleteByPK(ctx, person, "1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.DeleteMatching(ctx, person, &query.Query{
		Model:  "person",
		Filter: []query.Lookup{{Field: "last_name", Op: query.OpExact, Value: "smith"}},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = s.DeleteMatching(ctx, person, &query.Query{
		Model:  "person",
		Filter: []query.Lookup{{Field: "last_name", Op: query.OpExact, Value: "nobody"}},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestStore_InsertKeys(t *testing.T) {
	s := New()
	reg := testschema.Registry(t)
	comment, _ := reg.Model("comment")
	blog, _ := reg.Model("blog")
	ctx := context.Background()

	rec, err := s.Insert(ctx, comment, storage.Record{"text": "x", "ignored": true})
	require.NoError(t, err)
	assert.Len(t, rec["id"], 36)
	assert.NotContains(t, rec, "ignored")

	_, err = s.Insert(ctx, blog, storage.Record{"id": int64(5)})
	require.NoError(t, err)
	next, err := s.Insert(ctx, blog, storage.Record{})
	require.NoError(t, err)
	assert.Equal(t, int64(6), next["id"])

	_, err = s.Insert(ctx, blog, storage.Record{"id": int64(6)})
	assert.Error(t, err)
}

func TestStore_InsertRequiresKey(t *testing.T) {
	reg, err := schema.Parse([]byte(`
models:
  - name: tag
    primary_key: slug
    primary_key_type: string
    fields:
      - {name: label, type: string}
`))
	require.NoError(t, err)
	tag, _ := reg.Model("tag")
	s := New()
	ctx := context.Background()

	_, err = s.Insert(ctx, tag, storage.Record{"label": "go"})
	var missing *storage.MissingKeyError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "slug", missing.Field)

	rows, err := s.List(ctx, tag, &query.Query{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
