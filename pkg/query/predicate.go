package query

import "strings"

// Connector joins two predicates.
type Connector string

const (
	// AND requires both sides to hold.
	AND Connector = "AND"
	// OR requires either side to hold.
	OR Connector = "OR"
)

// Predicate is a boolean restriction over the rows of a model.
// Implementations are Match, Not, And and Or.
type Predicate interface {
	// String renders the predicate in a stable, human readable form.
	String() string

	predicate()
}

// Match holds when every one of its lookups holds.
type Match []Lookup

// Not negates its inner predicate.
type Not struct {
	Inner Predicate
}

// And holds when all of its children hold.
type And []Predicate

// Or holds when any of its children holds.
type Or []Predicate

func (Match) predicate() {}
func (Not) predicate()   {}
func (And) predicate()   {}
func (Or) predicate()    {}

func (m Match) String() string {
	parts := make([]string, len(m))
	for i, l := range m {
		parts[i] = l.String()
	}
	return "(AND: " + strings.Join(parts, ", ") + ")"
}

func (n Not) String() string {
	if n.Inner == nil {
		return "(NOT)"
	}
	return "(NOT " + n.Inner.String() + ")"
}

func (a And) String() string {
	return joinChildren(AND, a)
}

func (o Or) String() string {
	return joinChildren(OR, o)
}

func joinChildren(conn Connector, children []Predicate) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.String()
	}
	return "(" + string(conn) + ": " + strings.Join(parts, ", ") + ")"
}

// Combine joins p onto acc with the given connector and returns the result.
// A nil acc yields p and a nil p yields acc. When acc already uses the same
// connector its children are extended instead of nesting another level; the
// slices of acc are never written through, so earlier results stay intact.
func Combine(acc, p Predicate, conn Connector) Predicate {
	switch {
	case p == nil:
		return acc
	case acc == nil:
		return p
	}

	switch conn {
	case OR:
		if o, ok := acc.(Or); ok {
			out := make(Or, 0, len(o)+1)
			return append(append(out, o...), p)
		}
		return Or{acc, p}
	default:
		if a, ok := acc.(And); ok {
			out := make(And, 0, len(a)+1)
			return append(append(out, a...), p)
		}
		return And{acc, p}
	}
}
