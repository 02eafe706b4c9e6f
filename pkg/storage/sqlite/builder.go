package sqlite

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"mercator-hq/magicbox/pkg/query"
	"mercator-hq/magicbox/pkg/schema"
	"mercator-hq/magicbox/pkg/storage"
)

// baseAlias is the table alias of the queried model.
const baseAlias = "t"

// quoteIdent quotes an identifier for SQLite.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func qualified(alias, column string) string {
	return quoteIdent(alias) + "." + quoteIdent(column)
}

// BuildSelect renders the SELECT statement for q against m.
func BuildSelect(m *schema.Model, q *query.Query) (string, []any, error) {
	builder, err := selectBuilder(m, q)
	if err != nil {
		return "", nil, err
	}
	return builder.ToSql()
}

// BuildDelete renders the DELETE statement removing every row matching the
// restrictions of q.
func BuildDelete(m *schema.Model, q *query.Query) (string, []any, error) {
	where, err := whereClause(m, q, quoteIdent(m.Table))
	if err != nil {
		return "", nil, err
	}
	builder := sq.Delete(quoteIdent(m.Table)).PlaceholderFormat(sq.Question)
	if where != nil {
		builder = builder.Where(where)
	}
	return builder.ToSql()
}

func selectBuilder(m *schema.Model, q *query.Query) (sq.SelectBuilder, error) {
	from := quoteIdent(m.Table) + " AS " + quoteIdent(baseAlias)
	builder := sq.Select(columnList(m, baseAlias)...).From(from).PlaceholderFormat(sq.Question)

	where, err := whereClause(m, q, quoteIdent(baseAlias))
	if err != nil {
		return builder, err
	}
	if where != nil {
		builder = builder.Where(where)
	}

	if a := q.Annotation; a != nil {
		expr, grouped, err := annotationExpr(m, a)
		if err != nil {
			return builder, err
		}
		builder = builder.Column(expr + " AS " + quoteIdent(a.Alias()))
		if grouped {
			builder = builder.GroupBy(qualified(baseAlias, m.PrimaryKeyColumn()))
		}
	}

	for _, o := range q.OrderBy {
		col, err := orderColumn(m, q, o.Field)
		if err != nil {
			return builder, err
		}
		if o.Desc {
			col += " DESC"
		} else {
			col += " ASC"
		}
		builder = builder.OrderBy(col)
	}

	return builder, nil
}

func columnList(m *schema.Model, alias string) []string {
	cols := make([]string, 0, len(m.Fields)+len(m.Relations))
	for _, f := range m.Fields {
		cols = append(cols, qualified(alias, f.Column))
	}
	for _, r := range m.Relations {
		if r.Kind == schema.ManyToOne {
			cols = append(cols, qualified(alias, r.Column))
		}
	}
	return cols
}

// whereClause combines the three restriction parts of q. It returns nil
// when q is unfiltered.
func whereClause(m *schema.Model, q *query.Query, prefix string) (sq.Sqlizer, error) {
	c := &compiler{model: m, prefix: prefix}

	var parts sq.And
	if len(q.Filter) > 0 {
		s, err := c.match(q.Filter)
		if err != nil {
			return nil, err
		}
		parts = append(parts, s)
	}
	if len(q.Exclude) > 0 {
		s, err := c.match(q.Exclude)
		if err != nil {
			return nil, err
		}
		parts = append(parts, not{inner: s})
	}
	if q.Where != nil {
		s, err := c.predicate(q.Where)
		if err != nil {
			return nil, err
		}
		parts = append(parts, s)
	}

	if len(parts) == 0 {
		return nil, nil
	}
	return parts, nil
}

// compiler turns predicates into squirrel conditions for one model.
type compiler struct {
	model  *schema.Model
	prefix string
}

func (c *compiler) column(field string) (string, error) {
	col, ok := c.model.Column(field)
	if !ok {
		return "", &storage.UnknownModelError{Model: c.model.Name, Name: field}
	}
	return c.prefix + "." + quoteIdent(col), nil
}

func (c *compiler) predicate(p query.Predicate) (sq.Sqlizer, error) {
	switch v := p.(type) {
	case query.Match:
		return c.match(v)
	case query.Not:
		if v.Inner == nil {
			return sq.Expr("1=1"), nil
		}
		inner, err := c.predicate(v.Inner)
		if err != nil {
			return nil, err
		}
		return not{inner: inner}, nil
	case query.And:
		out := make(sq.And, 0, len(v))
		for _, child := range v {
			s, err := c.predicate(child)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case query.Or:
		out := make(sq.Or, 0, len(v))
		for _, child := range v {
			s, err := c.predicate(child)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported predicate %T", p)
	}
}

func (c *compiler) match(lookups []query.Lookup) (sq.Sqlizer, error) {
	out := make(sq.And, 0, len(lookups))
	for _, l := range lookups {
		s, err := c.lookup(l)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (c *compiler) lookup(l query.Lookup) (sq.Sqlizer, error) {
	col, err := c.column(l.Field)
	if err != nil {
		return nil, err
	}
	value, err := storage.CoerceOperand(c.model, l)
	if err != nil {
		return nil, err
	}

	switch l.Op {
	case query.OpExact, "":
		return sq.Eq{col: value}, nil
	case query.OpIn:
		return sq.Eq{col: value.([]any)}, nil
	case query.OpLessThan:
		return sq.Lt{col: value}, nil
	case query.OpGreaterThan:
		return sq.Gt{col: value}, nil
	case query.OpLessOrEqual:
		return sq.LtOrEq{col: value}, nil
	case query.OpGreaterOrEqual:
		return sq.GtOrEq{col: value}, nil
	case query.OpStartsWith:
		return sq.Expr(fmt.Sprintf("substr(%s, 1, length(?)) = ?", col), value, value), nil
	case query.OpEndsWith:
		return sq.Expr(fmt.Sprintf("(? = '' OR substr(%s, -length(?)) = ?)", col), value, value, value), nil
	case query.OpContains:
		return sq.Expr(fmt.Sprintf("instr(%s, ?) > 0", col), value), nil
	default:
		return nil, fmt.Errorf("unsupported operator %q", l.Op)
	}
}

// not negates a condition. A NULL comparison counts as false before
// negation, so rows with NULL columns are kept by an exclusion.
type not struct {
	inner sq.Sqlizer
}

func (n not) ToSql() (string, []any, error) {
	sql, args, err := n.inner.ToSql()
	if err != nil {
		return "", nil, err
	}
	return "NOT COALESCE((" + sql + "), 0)", args, nil
}

// annotationExpr renders the aggregate. Plain columns aggregate per row and
// need a GROUP BY on the primary key; one-to-many relations use a
// correlated subquery over the related table.
func annotationExpr(m *schema.Model, a *query.Annotation) (expr string, grouped bool, err error) {
	fn := strings.ToUpper(string(a.Func))

	if col, ok := m.Column(a.Field); ok {
		return fmt.Sprintf("%s(%s)", fn, qualified(baseAlias, col)), true, nil
	}

	rel, ok := m.Relation(a.Field)
	if !ok || rel.Target() == nil {
		return "", false, &storage.UnknownModelError{Model: m.Name, Name: a.Field}
	}
	target := rel.Target()
	sub := fmt.Sprintf("(SELECT %s(%s) FROM %s AS %s WHERE %s = %s)",
		fn,
		qualified("r", target.PrimaryKeyColumn()),
		quoteIdent(target.Table), quoteIdent("r"),
		qualified("r", rel.Column),
		qualified(baseAlias, m.PrimaryKeyColumn()),
	)
	return sub, false, nil
}

func orderColumn(m *schema.Model, q *query.Query, field string) (string, error) {
	if q.Annotation != nil && field == q.Annotation.Alias() {
		return quoteIdent(field), nil
	}
	col, ok := m.Column(field)
	if !ok {
		return "", &storage.UnknownModelError{Model: m.Name, Name: field}
	}
	return qualified(baseAlias, col), nil
}
