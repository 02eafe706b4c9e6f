package storage

import (
	"context"

	"mercator-hq/magicbox/pkg/query"
	"mercator-hq/magicbox/pkg/schema"
)

// Record is one row keyed by field name. Prefetched relations are stored
// under the relation name: a Record for many-to-one relations (nil when the
// foreign key is empty) and a []Record for one-to-many relations. An
// annotation is stored under its alias.
type Record map[string]any

// Store executes query descriptions against a backend.
//
// Every method receives the model the query targets; query.Query carries
// only the model name.
type Store interface {
	// List returns every row matching q.
	List(ctx context.Context, m *schema.Model, q *query.Query) ([]Record, error)

	// Get returns the row matching q whose primary key is pk. found is
	// false when there is none.
	Get(ctx context.Context, m *schema.Model, q *query.Query, pk string) (rec Record, found bool, err error)

	// DeleteMatching removes every row matching the restrictions of q and
	// returns how many were removed.
	DeleteMatching(ctx context.Context, m *schema.Model, q *query.Query) (int64, error)

	// DeleteByPK removes the row whose primary key is pk and returns how
	// many were removed (0 or 1).
	DeleteByPK(ctx context.Context, m *schema.Model, pk string) (int64, error)

	// Insert stores a new row and returns it as persisted, including a
	// generated primary key.
	Insert(ctx context.Context, m *schema.Model, rec Record) (Record, error)

	// Close releases the backend.
	Close() error
}

// Recorder observes storage operations. Implemented by the metrics package.
type Recorder interface {
	RecordStorageOp(backend, operation string, seconds float64, err error)
}
