package limiter

import (
	"log/slog"

	"mercator-hq/magicbox/pkg/query"
	"mercator-hq/magicbox/pkg/schema"
)

// Restriction is the outcome of constructing a filter: the pieces to apply
// to a query plus the fields that were ignored.
type Restriction struct {
	// Filter and Exclude are set by the flat path.
	Filter  []query.Lookup
	Exclude []query.Lookup

	// Where is set by the grouped path.
	Where query.Predicate

	// Dropped lists leaf keys the schema did not recognize.
	Dropped []string
}

// IsEmpty reports whether the restriction leaves the query unfiltered.
func (r Restriction) IsEmpty() bool {
	return len(r.Filter) == 0 && len(r.Exclude) == 0 && r.Where == nil
}

// Apply copies the restriction onto q.
func (r Restriction) Apply(q *query.Query) {
	if len(r.Filter) > 0 {
		q.Filter = append(q.Filter, r.Filter...)
	}
	if len(r.Exclude) > 0 {
		q.Exclude = append(q.Exclude, r.Exclude...)
	}
	if r.Where != nil {
		q.Where = query.Combine(q.Where, r.Where, query.AND)
	}
}

// Options configures a Limiter.
type Options struct {
	// Strategy folds grouped filters. Defaults to Legacy.
	Strategy Strategy

	// Logger receives debug output for dropped fields. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// Limiter turns filter specs into restrictions against one schema.
type Limiter struct {
	schema   schema.Schema
	strategy Strategy
	logger   *slog.Logger
}

// New creates a Limiter for s.
func New(s schema.Schema, opts Options) *Limiter {
	if opts.Strategy == "" {
		opts.Strategy = Legacy
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Limiter{
		schema:   s,
		strategy: opts.Strategy,
		logger:   opts.Logger.With("component", "limiter"),
	}
}

// Construct builds the restriction for spec.
//
// Without a top-level "and" or "or" key the spec is treated as a flat
// field-to-token mapping: valid leaves become Filter or Exclude lookups and
// nested entries are ignored. Otherwise the filter tree is built and folded
// into Where using the configured strategy. Either way an empty result
// leaves the query unfiltered.
func (l *Limiter) Construct(spec *FilterSpec) (Restriction, error) {
	if spec.IsEmpty() {
		return Restriction{}, nil
	}

	var (
		r   Restriction
		err error
	)
	if spec.HasGroupKeys() {
		r, err = l.constructGrouped(spec)
	} else {
		r, err = l.constructFlat(spec)
	}
	if err != nil {
		return Restriction{}, err
	}

	if len(r.Dropped) > 0 {
		l.logger.Debug("ignored unknown filter fields", "fields", r.Dropped)
	}
	return r, nil
}

func (l *Limiter) constructFlat(spec *FilterSpec) (Restriction, error) {
	var r Restriction
	for _, e := range spec.Entries {
		if e.IsGroup() {
			continue
		}
		if !l.schema.HasField(e.Key) {
			r.Dropped = append(r.Dropped, e.Key)
			continue
		}
		for _, v := range e.Leaf {
			tok, err := ParseToken(v)
			if err != nil {
				return Restriction{}, NewSyntaxError(e.Key, v)
			}
			if tok.Method == Exclude {
				r.Exclude = append(r.Exclude, tok.Lookup(e.Key))
			} else {
				r.Filter = append(r.Filter, tok.Lookup(e.Key))
			}
		}
	}
	return r, nil
}

func (l *Limiter) constructGrouped(spec *FilterSpec) (Restriction, error) {
	root, dropped, err := Build(l.schema, spec)
	if err != nil {
		return Restriction{}, err
	}
	return Restriction{
		Where:   Linearize(root, l.strategy),
		Dropped: dropped,
	}, nil
}
