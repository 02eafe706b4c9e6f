package repository

import (
	"log/slog"

	"mercator-hq/magicbox/pkg/config"
	"mercator-hq/magicbox/pkg/include"
	"mercator-hq/magicbox/pkg/limiter"
	"mercator-hq/magicbox/pkg/query"
	"mercator-hq/magicbox/pkg/schema"
)

// Recorder receives query construction outcomes. The metrics collector
// implements it.
type Recorder interface {
	RecordQuery(model, strategy string, dropped int)
	RecordQueryError(model, kind string)
}

// Options configures query construction.
type Options struct {
	// Delimiter separates include chain segments. Defaults to ".".
	Delimiter string

	// DedupIncludes drops repeated include paths.
	DedupIncludes bool

	// Strategy folds grouped filters. Defaults to limiter.Legacy.
	Strategy limiter.Strategy

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Recorder is optional.
	Recorder Recorder
}

// OptionsFromConfig derives Options from the relations and limiter sections.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	strategy, err := limiter.ParseStrategy(cfg.Limiter.Linearization)
	if err != nil {
		return Options{}, err
	}
	return Options{
		Delimiter:     cfg.Relations.Delimiter,
		DedupIncludes: cfg.Relations.Dedup,
		Strategy:      strategy,
	}, nil
}

func (o Options) withDefaults() Options {
	if o.Delimiter == "" {
		o.Delimiter = include.DefaultDelimiter
	}
	if o.Strategy == "" {
		o.Strategy = limiter.Legacy
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// BuildQuery describes the query for req against m. It does not touch
// storage and returns an equivalent query every time it is called with the
// same arguments.
func BuildQuery(req Request, m *schema.Model, opts Options) (*query.Query, error) {
	q, _, err := buildQuery(req, m, opts.withDefaults())
	return q, err
}

func buildQuery(req Request, m *schema.Model, opts Options) (*query.Query, limiter.Restriction, error) {
	logger := opts.Logger.With("component", "repository", "model", m.Name)
	q := &query.Query{Model: m.Name}

	restriction, err := limiter.New(m, limiter.Options{Strategy: opts.Strategy, Logger: opts.Logger}).Construct(req.Filters)
	if err != nil {
		return nil, limiter.Restriction{}, err
	}
	restriction.Apply(q)

	if len(req.Includes) > 0 {
		q.Prefetch = include.BuildIncludeSet(m, req.Includes, include.Options{
			Delimiter: opts.Delimiter,
			Dedup:     opts.DedupIncludes,
		})
	}

	q.Annotation = annotation(m, req.Aggregate, logger)
	q.OrderBy = orderBy(m, req.Sort, q.Annotation, logger)

	return q, restriction, nil
}

// annotation resolves the last operation/field pair. The field may be a
// column or any relation.
func annotation(m *schema.Model, aggregate *Pairs, logger *slog.Logger) *query.Annotation {
	if aggregate == nil {
		return nil
	}
	last := aggregate.Newest()
	if last == nil {
		return nil
	}

	op, field := last.Key, last.Value
	fn, ok := query.ParseAggregate(op)
	if !ok {
		logger.Debug("ignored unsupported aggregate", "operation", op)
		return nil
	}
	if !aggregatable(m, field) {
		logger.Debug("ignored aggregate on unknown field", "field", field)
		return nil
	}
	return &query.Annotation{Func: fn, Field: field}
}

func aggregatable(m *schema.Model, field string) bool {
	if m.HasField(field) {
		return true
	}
	_, ok := m.Relation(field)
	return ok
}

// orderBy keeps sort keys naming a field or the annotation alias and carrying
// a known direction, in request order.
func orderBy(m *schema.Model, sort *Pairs, ann *query.Annotation, logger *slog.Logger) []query.Order {
	if sort == nil {
		return nil
	}

	var out []query.Order
	for pair := sort.Oldest(); pair != nil; pair = pair.Next() {
		field := pair.Key
		if !m.HasField(field) && (ann == nil || field != ann.Alias()) {
			logger.Debug("ignored sort on unknown field", "field", field)
			continue
		}
		desc, ok := query.ParseDirection(pair.Value)
		if !ok {
			logger.Debug("ignored unknown sort direction", "field", field, "direction", pair.Value)
			continue
		}
		out = append(out, query.Order{Field: field, Desc: desc})
	}
	return out
}
