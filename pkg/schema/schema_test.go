package schema_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mercator-hq/magicbox/internal/testschema"
	"mercator-hq/magicbox/pkg/schema"
)

func TestModel_HasField(t *testing.T) {
	person := testschema.Model(t, "person")

	tests := []struct {
		name string
		want bool
	}{
		{"id", true},
		{"first_name", true},
		{"blog", true},      // many-to-one is backed by a column
		{"articles", false}, // reverse relation has no column here
		{"nope", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, person.HasField(tt.name))
		})
	}
}

func TestModel_RelatedModel(t *testing.T) {
	person := testschema.Model(t, "person")

	articles, ok := person.RelatedModel("articles")
	require.True(t, ok)
	assert.Equal(t, "article", articles.(*schema.Model).Name)

	comments, ok := articles.RelatedModel("comments")
	require.True(t, ok)
	assert.Equal(t, "comment", comments.(*schema.Model).Name)

	_, ok = person.RelatedModel("first_name")
	assert.False(t, ok, "plain fields are not relations")
}

func TestModel_Columns(t *testing.T) {
	article := testschema.Model(t, "article")

	col, ok := article.Column("author")
	require.True(t, ok)
	assert.Equal(t, "author_id", col)
	assert.Equal(t, "author", article.FieldName("author_id"))
	assert.Equal(t, "id", article.PrimaryKeyColumn())
	assert.Equal(t, schema.TypeInteger, article.TypeOf("author"))
	assert.Equal(t, schema.TypeInteger, article.TypeOf("views"))

	comment := testschema.Model(t, "comment")
	assert.Equal(t, schema.TypeUUID, comment.TypeOf("id"))
	assert.Equal(t, schema.TypeString, comment.TypeOf("unknown"))
}

func TestNewRegistry_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown relation target",
			yaml: `
models:
  - name: a
    relations:
      - {name: b, model: missing, kind: many_to_one}
`,
		},
		{
			name: "one_to_many without column",
			yaml: `
models:
  - name: a
    relations:
      - {name: bs, model: b, kind: one_to_many}
  - name: b
`,
		},
		{
			name: "duplicate model",
			yaml: `
models:
  - name: a
  - name: a
`,
		},
		{
			name: "invalid kind",
			yaml: `
models:
  - name: a
    relations:
      - {name: self, model: a, kind: many_to_many, column: x}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.Parse([]byte(tt.yaml))
			require.Error(t, err)

			var defErr *schema.DefinitionError
			assert.ErrorAs(t, err, &defErr)
		})
	}
}

func TestNewRegistry_Defaults(t *testing.T) {
	reg, err := schema.Parse([]byte(`
models:
  - name: tag
    fields:
      - {name: label}
  - name: post
    relations:
      - {name: tag, model: tag, kind: many_to_one}
`))
	require.NoError(t, err)

	tag, ok := reg.Model("tag")
	require.True(t, ok)
	assert.Equal(t, "tag", tag.Table)
	assert.Equal(t, "id", tag.PrimaryKey)
	assert.True(t, tag.HasField("id"))

	post, _ := reg.Model("post")
	col, ok := post.Column("tag")
	require.True(t, ok)
	assert.Equal(t, "tag_id", col)

	names := []string{}
	for _, m := range reg.Models() {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"post", "tag"}, names)
}

func TestWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testschema.BlogYAML), 0o644))

	reg, err := schema.Load(path)
	require.NoError(t, err)
	holder := schema.NewHolder(reg)

	w, err := schema.NewWatcher(path, holder, 20*time.Millisecond)
	require.NoError(t, err)

	reloaded := make(chan error, 4)
	w.OnReload = func(_ *schema.Registry, err error) { reloaded <- err }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Watch(ctx) }()
	defer w.Stop()

	// Give the watcher a moment to register the directory.
	time.Sleep(50 * time.Millisecond)

	updated := testschema.BlogYAML + `
  - name: tag
    fields:
      - {name: label, type: string}
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case err := <-reloaded:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("schema was not reloaded")
	}

	_, ok := holder.Registry().Model("tag")
	assert.True(t, ok)
}

func TestWatcher_ReloadKeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testschema.BlogYAML), 0o644))

	reg, err := schema.Load(path)
	require.NoError(t, err)
	holder := schema.NewHolder(reg)

	w, err := schema.NewWatcher(path, holder, 0)
	require.NoError(t, err)
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("models: [{name: a, relations: [{name: b, model: nowhere, kind: many_to_one}]}]"), 0o644))
	assert.Error(t, w.Reload())
	assert.Same(t, reg, holder.Registry())
}

func TestWatcher_BeforeSwap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testschema.BlogYAML), 0o644))

	reg, err := schema.Load(path)
	require.NoError(t, err)
	holder := schema.NewHolder(reg)

	w, err := schema.NewWatcher(path, holder, 0)
	require.NoError(t, err)
	defer w.Stop()

	updated := testschema.BlogYAML + `
  - name: tag
    fields:
      - {name: label, type: string}
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	w.BeforeSwap = func(next *schema.Registry) error {
		_, ok := next.Model("tag")
		assert.True(t, ok)
		assert.Same(t, reg, holder.Registry(), "holder must not change before the hook returns")
		return errors.New("migration failed")
	}
	require.Error(t, w.Reload())
	assert.Same(t, reg, holder.Registry())

	var seen *schema.Registry
	w.BeforeSwap = func(next *schema.Registry) error {
		seen = next
		return nil
	}
	require.NoError(t, w.Reload())
	assert.Same(t, seen, holder.Registry())
	_, ok := holder.Registry().Model("tag")
	assert.True(t, ok)
}
