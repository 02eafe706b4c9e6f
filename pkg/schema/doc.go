// Package schema describes the data models the query layer validates against.
//
// Models are declared in YAML and loaded into an immutable Registry:
//
//	models:
//	  - name: person
//	    table: people
//	    primary_key: id
//	    primary_key_type: integer
//	    fields:
//	      - {name: first_name, type: string}
//	      - {name: last_name, type: string}
//	    relations:
//	      - {name: blog, model: blog, kind: many_to_one, column: blog_id}
//	      - {name: articles, model: article, kind: one_to_many, column: author_id}
//
// A many_to_one relation stores its foreign key in Column on the declaring
// model's table. A one_to_many relation is the reverse side: Column names the
// foreign key on the related model's table that points back at this model's
// primary key.
//
// # Schema Interface
//
// The query core only needs two questions answered, captured by Schema:
//
//   - HasField(name): does the model have a filterable field with that name
//   - RelatedModel(name): which model does the relation with that name lead to
//
// *Model implements Schema. The registry is never mutated after construction;
// Holder swaps whole registries atomically when the schema file is reloaded by
// a Watcher.
package schema
