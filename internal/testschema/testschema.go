// Package testschema provides a small blog schema shared by tests.
package testschema

import (
	"testing"

	"mercator-hq/magicbox/pkg/schema"
)

// BlogYAML declares four related models:
//
//	blog ──< person ──< article ──< comment
//	  └──────────────────<┘
const BlogYAML = `
models:
  - name: blog
    table: blogs
    fields:
      - {name: name, type: string}
    relations:
      - {name: person, model: person, kind: one_to_many, column: blog_id}
      - {name: articles, model: article, kind: one_to_many, column: blog_id}

  - name: person
    table: people
    fields:
      - {name: first_name, type: string}
      - {name: last_name, type: string}
      - {name: age, type: integer}
    relations:
      - {name: blog, model: blog, kind: many_to_one, column: blog_id}
      - {name: articles, model: article, kind: one_to_many, column: author_id}

  - name: article
    table: articles
    fields:
      - {name: title, type: string}
      - {name: views, type: integer}
    relations:
      - {name: author, model: person, kind: many_to_one, column: author_id}
      - {name: blog, model: blog, kind: many_to_one, column: blog_id}
      - {name: comments, model: comment, kind: one_to_many, column: article_id}

  - name: comment
    table: comments
    primary_key: id
    primary_key_type: uuid
    fields:
      - {name: text, type: string}
    relations:
      - {name: article, model: article, kind: many_to_one, column: article_id}
`

// Registry parses BlogYAML, failing the test on error.
func Registry(t testing.TB) *schema.Registry {
	t.Helper()

	reg, err := schema.Parse([]byte(BlogYAML))
	if err != nil {
		t.Fatalf("failed to parse test schema: %v", err)
	}
	return reg
}

// Model returns one model of the blog schema.
func Model(t testing.TB, name string) *schema.Model {
	t.Helper()

	m, ok := Registry(t).Model(name)
	if !ok {
		t.Fatalf("test schema has no model %q", name)
	}
	return m
}
