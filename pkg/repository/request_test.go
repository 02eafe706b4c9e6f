package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/magicbox/pkg/config"
	"mercator-hq/magicbox/pkg/querystring"
)

func defaultNames() config.ParamsConfig {
	return config.Default().Params
}

func keys(p *Pairs) []string {
	var out []string
	for pair := p.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

func TestRequestFromParams(t *testing.T) {
	params, err := querystring.DecodeQuery(
		"filters[first_name]==kirill&filters[or][age]=>30" +
			"&include=articles.comments&include=blog" +
			"&aggregate[count]=articles" +
			"&sort[age]=desc&sort[first_name]=asc")
	require.NoError(t, err)

	body := map[string]any{"first_name": "joe"}
	req := RequestFromParams(params, defaultNames(), body)

	assert.Equal(t, "first_name==kirill or[age]=>30", req.Filters.String())
	assert.Equal(t, []string{"articles.comments", "blog"}, req.Includes)

	v, ok := req.Aggregate.Get("count")
	require.True(t, ok)
	assert.Equal(t, "articles", v)

	assert.Equal(t, []string{"age", "first_name"}, keys(req.Sort))
	assert.Equal(t, body, req.Input)
}

func TestRequestFromParams_CustomNames(t *testing.T) {
	params, err := querystring.DecodeQuery("q[age]=<40&with=blog&filters[age]=>1")
	require.NoError(t, err)

	names := defaultNames()
	names.Filters = "q"
	names.Include = "with"

	req := RequestFromParams(params, names, nil)
	assert.Equal(t, "age=<40", req.Filters.String())
	assert.Equal(t, []string{"blog"}, req.Includes)
	assert.Nil(t, req.Aggregate)
	assert.Nil(t, req.Sort)
}

func TestRequestFromParams_Shapes(t *testing.T) {
	params, err := querystring.DecodeQuery("filters==kirill&sort=age&aggregate[count]=a&aggregate[count]=b")
	require.NoError(t, err)

	req := RequestFromParams(params, defaultNames(), nil)
	assert.Nil(t, req.Filters, "a bare filters value is not a filter tree")
	assert.Nil(t, req.Sort)

	v, _ := req.Aggregate.Get("count")
	assert.Equal(t, "b", v, "repeated keys keep the last value")

	empty := RequestFromParams(nil, defaultNames(), nil)
	assert.Nil(t, empty.Filters)
}

func TestIncludesFrom(t *testing.T) {
	nested := querystring.NewParams()
	nested.Set("0", "blog")
	nested.Set("1", []string{"articles", "articles.comments"})

	tests := []struct {
		name  string
		value any
		want  []string
	}{
		{"string", "blog", []string{"blog"}},
		{"list", []string{"blog", "articles"}, []string{"blog", "articles"}},
		{"json list", []any{"blog", 3, "articles"}, []string{"blog", "articles"}},
		{"indexed", nested, []string{"blog", "articles", "articles.comments"}},
		{"other", 42, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IncludesFrom(tt.value))
		})
	}
}
