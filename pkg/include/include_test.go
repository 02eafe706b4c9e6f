package include

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"mercator-hq/magicbox/internal/testschema"
)

func TestResolveChain(t *testing.T) {
	person := testschema.Model(t, "person")

	tests := []struct {
		chain string
		want  []string
	}{
		{"articles", []string{"articles"}},
		{"articles.comments", []string{"articles", "comments"}},
		{"articles.invalid", []string{"articles"}},
		{"articles.invalid.comments", []string{"articles"}},
		{"not.a.valid", []string{}},
		{"", []string{}},
		{"first_name", []string{}}, // a field, not a relation
		{"blog.person.articles.author", []string{"blog", "person", "articles", "author"}},
	}

	for _, tt := range tests {
		t.Run(tt.chain, func(t *testing.T) {
			got := ResolveChain(person, tt.chain, ".")
			assert.Equal(t, tt.want, got)

			// The result is always a prefix of the split input.
			input := strings.Split(tt.chain, ".")
			assert.LessOrEqual(t, len(got), len(input))
			assert.Equal(t, input[:len(got)], got)
		})
	}
}

func TestResolveChain_CustomDelimiter(t *testing.T) {
	person := testschema.Model(t, "person")
	assert.Equal(t, []string{"articles", "comments"}, ResolveChain(person, "articles/comments", "/"))
	assert.Equal(t, []string{}, ResolveChain(person, "articles/comments", "."))
}

func TestBuildIncludeSet(t *testing.T) {
	person := testschema.Model(t, "person")

	got := BuildIncludeSet(person, []string{"articles.comments", "not.a.valid"}, Options{})
	assert.Equal(t, []string{"articles__comments"}, got)

	got = BuildIncludeSet(person, []string{"articles.invalid", "blog"}, Options{})
	assert.Equal(t, []string{"articles", "blog"}, got)
}

func TestBuildIncludeSet_Duplicates(t *testing.T) {
	person := testschema.Model(t, "person")
	chains := []string{"articles", "blog", "articles.nope", "articles"}

	assert.Equal(t, []string{"articles", "blog", "articles", "articles"},
		BuildIncludeSet(person, chains, Options{}))
	assert.Equal(t, []string{"articles", "blog"},
		BuildIncludeSet(person, chains, Options{Dedup: true}))
}
