package query

import "strings"

// LookupSep separates a field name from its operator in a lookup path and
// glues relationship segments together in prefetch paths.
const LookupSep = "__"

// Operator is a field comparison understood by every storage backend.
type Operator string

const (
	// OpExact matches values equal to the operand.
	OpExact Operator = "exact"
	// OpStartsWith matches string values beginning with the operand.
	OpStartsWith Operator = "startswith"
	// OpContains matches string values containing the operand.
	OpContains Operator = "contains"
	// OpEndsWith matches string values ending with the operand.
	OpEndsWith Operator = "endswith"
	// OpLessThan matches values strictly less than the operand.
	OpLessThan Operator = "lt"
	// OpGreaterThan matches values strictly greater than the operand.
	OpGreaterThan Operator = "gt"
	// OpGreaterOrEqual matches values greater than or equal to the operand.
	OpGreaterOrEqual Operator = "gte"
	// OpLessOrEqual matches values less than or equal to the operand.
	OpLessOrEqual Operator = "lte"
	// OpIn matches values contained in the comma separated operand list.
	OpIn Operator = "in"
)

// Suffix returns the operator suffix appended to a field name in a lookup
// path. The exact operator has no suffix.
func (o Operator) Suffix() string {
	if o == OpExact || o == "" {
		return ""
	}
	return LookupSep + string(o)
}

// Lookup is a single field comparison with a raw operand.
type Lookup struct {
	Field string
	Op    Operator
	Value string
}

// Path returns the lookup path, e.g. "name" or "name__startswith".
func (l Lookup) Path() string {
	return l.Field + l.Op.Suffix()
}

// Values returns the operand split as a list. Only meaningful for OpIn.
func (l Lookup) Values() []string {
	return SplitList(l.Value)
}

// String renders the lookup as "path=value".
func (l Lookup) String() string {
	return l.Path() + "=" + l.Value
}

// SplitList splits a membership operand into its items. The token syntax
// "[a,b,c]" leaves a trailing "]" on the operand (and callers sometimes send
// the leading "[" too); both are trimmed before splitting on commas.
// An empty operand yields an empty list.
func SplitList(raw string) []string {
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
