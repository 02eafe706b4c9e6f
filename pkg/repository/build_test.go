package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/magicbox/internal/testschema"
	"mercator-hq/magicbox/pkg/config"
	"mercator-hq/magicbox/pkg/limiter"
	"mercator-hq/magicbox/pkg/query"
)

func pairs(kv ...string) *Pairs {
	p := NewPairs()
	for i := 0; i+1 < len(kv); i += 2 {
		p.Set(kv[i], kv[i+1])
	}
	return p
}

func TestBuildQuery_FlatFilter(t *testing.T) {
	person := testschema.Model(t, "person")

	q, err := BuildQuery(Request{Filters: limiter.NewFilterSpec().Leaf("first_name", "=kirill")}, person, Options{})
	require.NoError(t, err)
	assert.Equal(t, []query.Lookup{{Field: "first_name", Op: query.OpExact, Value: "kirill"}}, q.Filter)
	assert.Empty(t, q.Exclude)
	assert.Nil(t, q.Where)
}

func TestBuildQuery_UnknownFilterFieldIsUnrestricted(t *testing.T) {
	person := testschema.Model(t, "person")

	q, err := BuildQuery(Request{Filters: limiter.NewFilterSpec().Leaf("nickname", "=kirill")}, person, Options{})
	require.NoError(t, err)
	assert.False(t, q.IsFiltered())
}

func TestBuildQuery_SyntaxError(t *testing.T) {
	person := testschema.Model(t, "person")

	_, err := BuildQuery(Request{Filters: limiter.NewFilterSpec().Leaf("age", "30")}, person, Options{})
	var syntaxErr *limiter.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, "age", syntaxErr.Field)
	assert.True(t, IsBadRequest(err))
}

func TestBuildQuery_Includes(t *testing.T) {
	person := testschema.Model(t, "person")

	q, err := BuildQuery(Request{Includes: []string{"articles.comments", "not.a.valid"}}, person, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"articles__comments"}, q.Prefetch)

	q, err = BuildQuery(Request{Includes: []string{"blog", "blog"}}, person, Options{DedupIncludes: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"blog"}, q.Prefetch)

	q, err = BuildQuery(Request{Includes: []string{"articles/comments"}}, person, Options{Delimiter: "/"})
	require.NoError(t, err)
	assert.Equal(t, []string{"articles__comments"}, q.Prefetch)
}

func TestBuildQuery_Aggregate(t *testing.T) {
	person := testschema.Model(t, "person")

	tests := []struct {
		name      string
		aggregate *Pairs
		want      *query.Annotation
	}{
		{"none", nil, nil},
		{"empty", NewPairs(), nil},
		{"field", pairs("max", "age"), &query.Annotation{Func: query.AggregateMax, Field: "age"}},
		{"reverse relation", pairs("count", "articles"), &query.Annotation{Func: query.AggregateCount, Field: "articles"}},
		{"forward relation", pairs("count", "blog"), &query.Annotation{Func: query.AggregateCount, Field: "blog"}},
		{"last pair wins", pairs("sum", "age", "count", "articles"), &query.Annotation{Func: query.AggregateCount, Field: "articles"}},
		{"case-insensitive op", pairs("AVG", "age"), &query.Annotation{Func: query.AggregateAvg, Field: "age"}},
		{"unsupported op", pairs("median", "age"), nil},
		{"unknown field", pairs("sum", "height"), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := BuildQuery(Request{Aggregate: tt.aggregate}, person, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, q.Annotation)
		})
	}
}

func TestBuildQuery_Sort(t *testing.T) {
	person := testschema.Model(t, "person")

	q, err := BuildQuery(Request{
		Aggregate: pairs("count", "articles"),
		Sort: pairs(
			"age", "DESC",
			"height", "asc",
			"first_name", "sideways",
			"articles__count", "asc",
			"last_name", "asc",
		),
	}, person, Options{})
	require.NoError(t, err)

	assert.Equal(t, []query.Order{
		{Field: "age", Desc: true},
		{Field: "articles__count"},
		{Field: "last_name"},
	}, q.OrderBy)
}

func TestBuildQuery_SortOnAliasNeedsAnnotation(t *testing.T) {
	person := testschema.Model(t, "person")

	q, err := BuildQuery(Request{Sort: pairs("articles__count", "desc")}, person, Options{})
	require.NoError(t, err)
	assert.Empty(t, q.OrderBy)
}

func TestBuildQuery_Strategies(t *testing.T) {
	person := testschema.Model(t, "person")
	spec := limiter.NewFilterSpec().
		Group("or", limiter.NewFilterSpec().Leaf("first_name", "=a").Leaf("last_name", "=b")).
		Group("and", limiter.NewFilterSpec().Leaf("age", "=3"))

	legacy, err := BuildQuery(Request{Filters: spec}, person, Options{})
	require.NoError(t, err)
	grouped, err := BuildQuery(Request{Filters: spec}, person, Options{Strategy: limiter.Grouped})
	require.NoError(t, err)

	assert.NotNil(t, legacy.Where)
	assert.NotNil(t, grouped.Where)
	assert.NotEqual(t, legacy.Where.String(), grouped.Where.String())
}

func TestBuildQuery_Idempotent(t *testing.T) {
	person := testschema.Model(t, "person")
	req := Request{
		Filters:   limiter.NewFilterSpec().Leaf("age", ">=18").Group("or", limiter.NewFilterSpec().Leaf("last_name", "!=smith")),
		Includes:  []string{"articles.comments"},
		Aggregate: pairs("count", "articles"),
		Sort:      pairs("articles__count", "desc"),
	}

	first, err := BuildQuery(req, person, Options{})
	require.NoError(t, err)
	second, err := BuildQuery(req, person, Options{})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, first.String(), second.String())
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Relations.Delimiter = "/"
	cfg.Relations.Dedup = true
	cfg.Limiter.Linearization = "grouped"

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "/", opts.Delimiter)
	assert.True(t, opts.DedupIncludes)
	assert.Equal(t, limiter.Grouped, opts.Strategy)

	cfg.Limiter.Linearization = "flat"
	_, err = OptionsFromConfig(cfg)
	assert.Error(t, err)
}
