package repository

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"mercator-hq/magicbox/pkg/config"
	"mercator-hq/magicbox/pkg/limiter"
	"mercator-hq/magicbox/pkg/querystring"
)

// Pairs is an insertion-ordered string mapping used for sort orders
// (field → direction) and aggregates (operation → field).
type Pairs = orderedmap.OrderedMap[string, string]

// NewPairs returns an empty Pairs.
func NewPairs() *Pairs {
	return orderedmap.New[string, string]()
}

// Request is everything a caller asked for. The zero value selects every
// row of the model.
type Request struct {
	// Filters is the filter tree.
	Filters *limiter.FilterSpec

	// Includes lists relationship chains such as "articles.comments".
	Includes []string

	// Aggregate maps an operation to a field. Only the last pair is used.
	Aggregate *Pairs

	// Sort maps a field or annotation alias to "asc" or "desc".
	Sort *Pairs

	// Input is the payload for Create.
	Input map[string]any
}

// IncludesFrom normalizes an include value into a list. A single string
// becomes a one-element list. Decoded lists and maps contribute their
// string values in order.
func IncludesFrom(value any) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []string:
		return append([]string(nil), v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case *querystring.Params:
		var out []string
		for pair := v.Oldest(); pair != nil; pair = pair.Next() {
			out = append(out, IncludesFrom(pair.Value)...)
		}
		return out
	default:
		return nil
	}
}

// pairsFrom reads a decoded sub-map of scalar values. A key given several
// times keeps its last value. Anything else yields nil.
func pairsFrom(value any) *Pairs {
	params, ok := value.(*querystring.Params)
	if !ok {
		return nil
	}
	out := NewPairs()
	for pair := params.Oldest(); pair != nil; pair = pair.Next() {
		switch v := pair.Value.(type) {
		case string:
			out.Set(pair.Key, v)
		case []string:
			if len(v) > 0 {
				out.Set(pair.Key, v[len(v)-1])
			}
		}
	}
	return out
}

// RequestFromParams binds decoded query parameters and a decoded body to a
// Request. names selects which top-level parameters hold each part, e.g.
// filters[age]=>30&include=articles&aggregate[count]=articles&sort[age]=desc.
func RequestFromParams(params *querystring.Params, names config.ParamsConfig, body map[string]any) Request {
	req := Request{Input: body}
	if params == nil {
		return req
	}

	if v, ok := params.Get(names.Filters); ok {
		if nested, ok := v.(*querystring.Params); ok {
			req.Filters = limiter.FromParams(nested)
		}
	}
	if v, ok := params.Get(names.Include); ok {
		req.Includes = IncludesFrom(v)
	}
	if v, ok := params.Get(names.Aggregate); ok {
		req.Aggregate = pairsFrom(v)
	}
	if v, ok := params.Get(names.Sort); ok {
		req.Sort = pairsFrom(v)
	}
	return req
}
