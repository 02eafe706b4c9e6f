package limiter

import "mercator-hq/magicbox/pkg/query"

// Method says whether a token keeps or removes matching rows.
type Method int

const (
	// Filter keeps rows matching the lookup.
	Filter Method = iota
	// Exclude removes rows matching the lookup.
	Exclude
)

// String returns the method name.
func (m Method) String() string {
	if m == Exclude {
		return "exclude"
	}
	return "filter"
}

// Token is a parsed filter value: an operator, the method it applies with,
// and the raw operand that followed the operator prefix.
type Token struct {
	Method  Method
	Op      query.Operator
	Operand string
}

type tokenKind struct {
	method Method
	op     query.Operator
}

// twoCharTokens are checked first so that "!=" and ">=" never parse as a
// one-character token followed by an operand starting with "=".
var twoCharTokens = map[string]tokenKind{
	">=": {Filter, query.OpGreaterOrEqual},
	"<=": {Filter, query.OpLessOrEqual},
	"!=": {Exclude, query.OpExact},
	"![": {Exclude, query.OpIn},
	"!~": {Exclude, query.OpContains},
}

var oneCharTokens = map[byte]tokenKind{
	'^': {Filter, query.OpStartsWith},
	'~': {Filter, query.OpContains},
	'$': {Filter, query.OpEndsWith},
	'<': {Filter, query.OpLessThan},
	'>': {Filter, query.OpGreaterThan},
	'=': {Filter, query.OpExact},
	'[': {Filter, query.OpIn},
}

// ParseToken splits a filter value into its operator prefix and operand.
//
//	"=kirill"   -> Filter  exact "kirill"
//	">=5"       -> Filter  gte   "5"
//	"!=active"  -> Exclude exact "active"
//	"![1,2,3]"  -> Exclude in    "1,2,3]"
//
// The operand is returned untouched; coercion belongs to the storage layer.
// A value without a recognized prefix is a *SyntaxError, never an implicit
// equality.
func ParseToken(value string) (Token, error) {
	if len(value) >= 2 {
		if kind, ok := twoCharTokens[value[:2]]; ok {
			return Token{Method: kind.method, Op: kind.op, Operand: value[2:]}, nil
		}
	}
	if len(value) >= 1 {
		if kind, ok := oneCharTokens[value[0]]; ok {
			return Token{Method: kind.method, Op: kind.op, Operand: value[1:]}, nil
		}
	}
	return Token{}, NewSyntaxError("", value)
}

// Lookup turns the token into a lookup on field.
func (t Token) Lookup(field string) query.Lookup {
	return query.Lookup{Field: field, Op: t.Op, Value: t.Operand}
}
