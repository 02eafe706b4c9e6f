package limiter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/magicbox/internal/testschema"
	"mercator-hq/magicbox/pkg/query"
	"mercator-hq/magicbox/pkg/querystring"
)

func newPersonLimiter(t *testing.T, strategy Strategy) *Limiter {
	t.Helper()
	return New(testschema.Model(t, "person"), Options{Strategy: strategy})
}

func TestConstruct_Flat(t *testing.T) {
	l := newPersonLimiter(t, Legacy)

	r, err := l.Construct(NewFilterSpec().Leaf("first_name", "=kirill"))
	require.NoError(t, err)

	assert.Equal(t, []query.Lookup{{Field: "first_name", Op: query.OpExact, Value: "kirill"}}, r.Filter)
	assert.Empty(t, r.Exclude)
	assert.Nil(t, r.Where)
}

func TestConstruct_FlatUnknownFieldIsDropped(t *testing.T) {
	l := newPersonLimiter(t, Legacy)

	r, err := l.Construct(NewFilterSpec().Leaf("nickname", "=kirill"))
	require.NoError(t, err)

	assert.True(t, r.IsEmpty())
	assert.Equal(t, []string{"nickname"}, r.Dropped)
}

func TestConstruct_FlatFilterAndExclude(t *testing.T) {
	l := newPersonLimiter(t, Legacy)

	spec := NewFilterSpec().
		Leaf("first_name", "^ki", "!=kirill").
		Leaf("age", ">=18").
		Group("nested", NewFilterSpec().Leaf("last_name", "=x"))

	r, err := l.Construct(spec)
	require.NoError(t, err)

	assert.Equal(t, "(AND: first_name__startswith=ki, age__gte=18)", query.Match(r.Filter).String())
	assert.Equal(t, "(AND: first_name=kirill)", query.Match(r.Exclude).String())
	assert.Nil(t, r.Where, "flat path never builds a composite predicate")
}

func TestConstruct_SyntaxError(t *testing.T) {
	for _, strategy := range []Strategy{Legacy, Grouped} {
		t.Run(string(strategy), func(t *testing.T) {
			l := newPersonLimiter(t, strategy)

			for _, spec := range []*FilterSpec{
				NewFilterSpec().Leaf("first_name", "kirill"),
				NewFilterSpec().Group(KeyOr, NewFilterSpec().Leaf("first_name", "kirill")),
			} {
				_, err := l.Construct(spec)
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrSyntax))

				var synErr *SyntaxError
				require.ErrorAs(t, err, &synErr)
				assert.Equal(t, "first_name", synErr.Field)
				assert.Equal(t, "kirill", synErr.Value)
			}
		})
	}
}

func TestConstruct_UnknownFieldSkipsSyntaxCheck(t *testing.T) {
	l := newPersonLimiter(t, Legacy)

	r, err := l.Construct(NewFilterSpec().Leaf("nickname", "no-token"))
	require.NoError(t, err)
	assert.True(t, r.IsEmpty())
}

func TestConstruct_Strategies(t *testing.T) {
	// {first_name: A, or: {last_name: B, and: {age: C}}}
	spec := NewFilterSpec().
		Leaf("first_name", "=a").
		Group(KeyOr, NewFilterSpec().
			Leaf("last_name", "=b").
			Group(KeyAnd, NewFilterSpec().Leaf("age", "=3")))

	tests := []struct {
		strategy Strategy
		want     string
	}{
		{
			strategy: Legacy,
			want:     "(AND: (OR: (AND: first_name=a), (AND: last_name=b)), (AND: age=3))",
		},
		{
			strategy: Grouped,
			want:     "(OR: (AND: first_name=a), (AND: (AND: last_name=b), (AND: age=3)))",
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.strategy), func(t *testing.T) {
			r, err := newPersonLimiter(t, tt.strategy).Construct(spec)
			require.NoError(t, err)
			require.NotNil(t, r.Where)
			assert.Empty(t, r.Filter)
			assert.Empty(t, r.Exclude)
			assert.Equal(t, tt.want, r.Where.String())
		})
	}
}

func TestConstruct_LegacyDependsOnGroupOrder(t *testing.T) {
	l := newPersonLimiter(t, Legacy)

	andFirst := NewFilterSpec().
		Leaf("first_name", "=a").
		Group(KeyAnd, NewFilterSpec().Leaf("last_name", "=b")).
		Group(KeyOr, NewFilterSpec().Leaf("age", "=3"))

	orFirst := NewFilterSpec().
		Leaf("first_name", "=a").
		Group(KeyOr, NewFilterSpec().Leaf("age", "=3")).
		Group(KeyAnd, NewFilterSpec().Leaf("last_name", "=b"))

	r1, err := l.Construct(andFirst)
	require.NoError(t, err)
	r2, err := l.Construct(orFirst)
	require.NoError(t, err)

	assert.Equal(t, "(OR: (AND: (AND: first_name=a), (AND: last_name=b)), (AND: age=3))", r1.Where.String())
	assert.Equal(t, "(AND: (OR: (AND: first_name=a), (AND: age=3)), (AND: last_name=b))", r2.Where.String())
}

func TestConstruct_GroupLevelWithExclude(t *testing.T) {
	l := newPersonLimiter(t, Legacy)

	spec := NewFilterSpec().Group(KeyOr, NewFilterSpec().
		Leaf("first_name", "=a").
		Leaf("last_name", "!=b"))

	r, err := l.Construct(spec)
	require.NoError(t, err)
	assert.Equal(t, "(AND: (AND: first_name=a), (NOT (AND: last_name=b)))", r.Where.String())
}

func TestConstruct_EmptyResults(t *testing.T) {
	l := newPersonLimiter(t, Legacy)

	tests := []struct {
		name string
		spec *FilterSpec
	}{
		{"nil spec", nil},
		{"no entries", NewFilterSpec()},
		{"empty group", NewFilterSpec().Group(KeyOr, NewFilterSpec())},
		{"group with unknown fields", NewFilterSpec().Group(KeyAnd, NewFilterSpec().Leaf("nickname", "=x"))},
		{"only foreign group keys", NewFilterSpec().Leaf(KeyOr, "=x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := l.Construct(tt.spec)
			require.NoError(t, err)
			assert.True(t, r.IsEmpty())
		})
	}
}

func TestConstruct_IgnoresOtherNestedKeys(t *testing.T) {
	l := newPersonLimiter(t, Grouped)

	spec := NewFilterSpec().
		Leaf("first_name", "=a").
		Group("xor", NewFilterSpec().Leaf("last_name", "=b")).
		Group(KeyOr, NewFilterSpec().Leaf("age", "=3"))

	r, err := l.Construct(spec)
	require.NoError(t, err)
	assert.Equal(t, "(OR: (AND: first_name=a), (AND: age=3))", r.Where.String())
}

func TestConstruct_FromDecodedQuery(t *testing.T) {
	params, err := querystring.DecodeQuery("filters[first_name]==kirill&filters[last_name]==x&filters[or][age]=>=30")
	require.NoError(t, err)

	raw, ok := params.Get("filters")
	require.True(t, ok)
	spec := FromParams(raw.(*querystring.Params))

	r, err := newPersonLimiter(t, Legacy).Construct(spec)
	require.NoError(t, err)
	assert.Equal(t, "(OR: (AND: first_name=kirill, last_name=x), (AND: age__gte=30))", r.Where.String())
}

func TestBuild_Tree(t *testing.T) {
	spec := NewFilterSpec().
		Leaf("first_name", "=a").
		Leaf("nickname", "=z").
		Group(KeyOr, NewFilterSpec().Leaf("age", "<3"))

	root, dropped, err := Build(testschema.Model(t, "person"), spec)
	require.NoError(t, err)

	assert.Equal(t, []string{"nickname"}, dropped)
	assert.Equal(t, "(AND: first_name=a)", root.Predicate.String())
	require.Len(t, root.Children, 1)
	assert.Equal(t, KeyOr, root.Children[0].Key)
	assert.Equal(t, "(AND: age__lt=3)", root.Children[0].Node.Predicate.String())
}

func TestRestriction_Apply(t *testing.T) {
	q := &query.Query{Model: "person"}
	Restriction{
		Filter: []query.Lookup{{Field: "age", Op: query.OpGreaterThan, Value: "1"}},
		Where:  query.Match{{Field: "first_name", Op: query.OpExact, Value: "a"}},
	}.Apply(q)

	assert.True(t, q.IsFiltered())
	assert.Equal(t, "model=person filter=(AND: age__gt=1) where=(AND: first_name=a)", q.String())
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, Legacy, s)

	s, err = ParseStrategy("Grouped")
	require.NoError(t, err)
	assert.Equal(t, Grouped, s)

	_, err = ParseStrategy("textbook")
	var stratErr *StrategyError
	assert.ErrorAs(t, err, &stratErr)
}

func TestFromMap_SortsKeys(t *testing.T) {
	spec := FromMap(map[string]any{
		"or":         map[string]any{"age": "=1"},
		"first_name": []any{"=a", 3},
	})

	require.Len(t, spec.Entries, 2)
	assert.Equal(t, "first_name", spec.Entries[0].Key)
	assert.Equal(t, []string{"=a"}, spec.Entries[0].Leaf)
	assert.True(t, spec.Entries[1].IsGroup())
	assert.Equal(t, "first_name==a or[age]==1", spec.String())
}
