package query

import (
	"fmt"
	"strings"
)

// Query describes what to fetch from a single model. The zero value (plus a
// model name) selects every row.
type Query struct {
	// Model is the name of the model being queried.
	Model string `json:"model"`

	// Filter is a conjunction of lookups every row must satisfy.
	Filter []Lookup `json:"filter,omitempty"`

	// Exclude is a conjunction of lookups; rows satisfying all of them are removed.
	Exclude []Lookup `json:"exclude,omitempty"`

	// Where is a composite predicate every row must satisfy.
	Where Predicate `json:"-"`

	// Prefetch lists relationship paths (segments joined by LookupSep) to
	// load alongside each row.
	Prefetch []string `json:"prefetch,omitempty"`

	// Annotation adds one aggregate value to every row.
	Annotation *Annotation `json:"annotation,omitempty"`

	// OrderBy lists sort keys in priority order.
	OrderBy []Order `json:"order_by,omitempty"`
}

// IsFiltered reports whether the query restricts rows at all.
func (q *Query) IsFiltered() bool {
	return len(q.Filter) > 0 || len(q.Exclude) > 0 || q.Where != nil
}

// String renders the query description. Two queries built from the same
// request render identically.
func (q *Query) String() string {
	var sb strings.Builder
	sb.WriteString("model=" + q.Model)
	if len(q.Filter) > 0 {
		sb.WriteString(" filter=" + Match(q.Filter).String())
	}
	if len(q.Exclude) > 0 {
		sb.WriteString(" exclude=" + Match(q.Exclude).String())
	}
	if q.Where != nil {
		sb.WriteString(" where=" + q.Where.String())
	}
	if len(q.Prefetch) > 0 {
		sb.WriteString(" prefetch=[" + strings.Join(q.Prefetch, ", ") + "]")
	}
	if q.Annotation != nil {
		sb.WriteString(" annotate=" + q.Annotation.String())
	}
	if len(q.OrderBy) > 0 {
		keys := make([]string, len(q.OrderBy))
		for i, o := range q.OrderBy {
			keys[i] = o.String()
		}
		sb.WriteString(" order_by=[" + strings.Join(keys, ", ") + "]")
	}
	return sb.String()
}

// Order is a single sort key.
type Order struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

// String renders the key with a leading "-" when descending.
func (o Order) String() string {
	if o.Desc {
		return "-" + o.Field
	}
	return o.Field
}

// sortDirections maps a request direction token to its order-by prefix.
var sortDirections = map[string]string{
	"asc":  "",
	"desc": "-",
}

// ParseDirection maps a sort direction token ("asc" or "desc", any case) to
// whether the order is descending. ok is false for any other token.
func ParseDirection(direction string) (desc bool, ok bool) {
	prefix, ok := sortDirections[strings.ToLower(strings.TrimSpace(direction))]
	if !ok {
		return false, false
	}
	return prefix == "-", true
}

// Aggregate is an aggregate function supported for annotations.
type Aggregate string

const (
	AggregateAvg   Aggregate = "avg"
	AggregateMax   Aggregate = "max"
	AggregateMin   Aggregate = "min"
	AggregateSum   Aggregate = "sum"
	AggregateCount Aggregate = "count"
)

// supportedAggregates lists the operations accepted by ParseAggregate.
var supportedAggregates = map[string]Aggregate{
	"avg":   AggregateAvg,
	"max":   AggregateMax,
	"min":   AggregateMin,
	"sum":   AggregateSum,
	"count": AggregateCount,
}

// ParseAggregate resolves an operation name. ok is false for unsupported
// operations.
func ParseAggregate(op string) (Aggregate, bool) {
	a, ok := supportedAggregates[strings.ToLower(op)]
	return a, ok
}

// Annotation is an aggregate over a field, attached to each row under Alias.
type Annotation struct {
	Func  Aggregate `json:"func"`
	Field string    `json:"field"`
}

// Alias returns the name the aggregate value is exposed under, e.g.
// "articles__count".
func (a *Annotation) Alias() string {
	return a.Field + LookupSep + string(a.Func)
}

// String renders the annotation as "Func(field)".
func (a *Annotation) String() string {
	return fmt.Sprintf("%s(%s)", strings.ToUpper(string(a.Func)), a.Field)
}
