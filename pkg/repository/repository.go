package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mercator-hq/magicbox/pkg/limiter"
	"mercator-hq/magicbox/pkg/query"
	"mercator-hq/magicbox/pkg/schema"
	"mercator-hq/magicbox/pkg/storage"
	"mercator-hq/magicbox/pkg/telemetry/logging"
)

// Repository runs one request against one model.
type Repository struct {
	store  storage.Store
	model  *schema.Model
	req    Request
	opts   Options
	logger *slog.Logger
}

// New creates a repository for req on m.
func New(store storage.Store, m *schema.Model, req Request, opts Options) *Repository {
	opts = opts.withDefaults()
	return &Repository{
		store:  store,
		model:  m,
		req:    req,
		opts:   opts,
		logger: opts.Logger.With("component", "repository"),
	}
}

// Model returns the model the repository serves.
func (r *Repository) Model() *schema.Model {
	return r.model
}

// Query builds the query description. Each call rebuilds it from the request.
func (r *Repository) Query() (*query.Query, error) {
	q, restriction, err := buildQuery(r.req, r.model, r.opts)
	if err != nil {
		r.recordError(err)
		return nil, err
	}
	if r.opts.Recorder != nil {
		r.opts.Recorder.RecordQuery(r.model.Name, string(r.opts.Strategy), len(restriction.Dropped))
	}
	return q, nil
}

// All returns every record matching the request.
func (r *Repository) All(ctx context.Context) ([]storage.Record, error) {
	ctx = r.context(ctx, "all")
	q, err := r.Query()
	if err != nil {
		return nil, err
	}
	r.logger.DebugContext(ctx, "listing records", "query", q.String())

	records, err := r.store.List(ctx, r.model, q)
	if err != nil {
		r.recordError(err)
		return nil, err
	}
	return records, nil
}

// Find returns the record with primary key pk among those matching the
// request. found is false when there is none.
func (r *Repository) Find(ctx context.Context, pk string) (rec storage.Record, found bool, err error) {
	ctx = r.context(ctx, "find")
	q, err := r.Query()
	if err != nil {
		return nil, false, err
	}
	r.logger.DebugContext(ctx, "finding record", "pk", pk, "query", q.String())

	rec, found, err = r.store.Get(ctx, r.model, q, pk)
	if err != nil {
		r.recordError(err)
		return nil, false, err
	}
	return rec, found, nil
}

// Create persists a new record filled from the request input. Keys that are
// not fields of the model are ignored.
func (r *Repository) Create(ctx context.Context) (storage.Record, error) {
	ctx = r.context(ctx, "create")

	rec := storage.Record{}
	var ignored []string
	for name, value := range r.req.Input {
		if !r.model.HasField(name) {
			ignored = append(ignored, name)
			continue
		}
		v, err := storage.CoerceInput(name, r.model.TypeOf(name), value)
		if err != nil {
			r.recordError(err)
			return nil, err
		}
		rec[name] = v
	}
	if len(ignored) > 0 {
		r.logger.DebugContext(ctx, "ignored unknown input fields", "fields", ignored)
	}

	created, err := r.store.Insert(ctx, r.model, rec)
	if err != nil {
		r.recordError(err)
		return nil, err
	}
	r.logger.InfoContext(ctx, "record created", "pk", fmt.Sprint(created[r.model.PrimaryKey]))
	return created, nil
}

// Delete removes the record with primary key pk, or every record matching
// the request when pk is empty. ok is false when nothing was deleted.
func (r *Repository) Delete(ctx context.Context, pk string) (deleted int64, ok bool, err error) {
	ctx = r.context(ctx, "delete")

	if pk != "" {
		deleted, err = r.store.DeleteByPK(ctx, r.model, pk)
	} else {
		var q *query.Query
		q, err = r.Query()
		if err != nil {
			return 0, false, err
		}
		if !q.IsFiltered() {
			r.logger.WarnContext(ctx, "deleting every record of model")
		}
		deleted, err = r.store.DeleteMatching(ctx, r.model, q)
	}
	if err != nil {
		r.recordError(err)
		return 0, false, err
	}

	r.logger.InfoContext(ctx, "records deleted", "pk", pk, "count", deleted)
	return deleted, deleted > 0, nil
}

func (r *Repository) context(ctx context.Context, op string) context.Context {
	ctx = logging.WithModel(ctx, r.model.Name)
	return logging.WithOperation(ctx, op)
}

func (r *Repository) recordError(err error) {
	if r.opts.Recorder == nil {
		return
	}
	if kind := ErrorKind(err); kind != "" {
		r.opts.Recorder.RecordQueryError(r.model.Name, kind)
	}
}

// ErrorKind classifies errors caused by the request itself: "syntax" for
// filter tokens, "coercion" for operands or input of the wrong type and
// "missing_key" for input lacking a primary key the backend cannot
// generate. Other errors return "".
func ErrorKind(err error) string {
	var (
		coerce  *storage.CoercionError
		missing *storage.MissingKeyError
	)
	switch {
	case errors.Is(err, limiter.ErrSyntax):
		return "syntax"
	case errors.As(err, &coerce):
		return "coercion"
	case errors.As(err, &missing):
		return "missing_key"
	default:
		return ""
	}
}

// IsBadRequest reports whether err was caused by the request.
func IsBadRequest(err error) bool {
	return ErrorKind(err) != ""
}
