package querystring

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Params is an insertion-ordered parameter map. Values are string, []string
// or *Params.
type Params = orderedmap.OrderedMap[string, any]

// NewParams returns an empty parameter map.
func NewParams() *Params {
	return orderedmap.New[string, any]()
}

// Pair is one query-string key with every value given for it, in request order.
type Pair struct {
	Key    string
	Values []string
}

// bracketSegment matches the non-empty contents of each [...] in a key.
var bracketSegment = regexp.MustCompile(`\[(.+?)\]`)

// Decode folds pairs into a nested parameter map.
//
// For each pair the base name is the part of the key before the first "[",
// and the segments are the bracket contents that follow. A single value is
// stored as a string, several as a []string. Without segments the value is
// assigned to the base name outright, replacing whatever was there, nested
// map included. With segments a map is created at the base name (replacing
// an earlier scalar) and each segment but the last descends one level,
// creating maps as needed; the last segment receives the value.
func Decode(pairs []Pair) *Params {
	result := NewParams()

	for _, pair := range pairs {
		base := pair.Key
		if i := strings.IndexByte(base, '['); i >= 0 {
			base = base[:i]
		}

		var value any = pair.Values
		if len(pair.Values) == 1 {
			value = pair.Values[0]
		}

		matches := bracketSegment.FindAllStringSubmatch(pair.Key, -1)
		if len(matches) == 0 {
			result.Set(base, value)
			continue
		}

		current := child(result, base)
		for i, m := range matches {
			segment := m[1]
			if i == len(matches)-1 {
				current.Set(segment, value)
				break
			}
			current = child(current, segment)
		}
	}

	return result
}

// child returns the map stored under key, creating it when key is absent or
// holds a scalar.
func child(p *Params, key string) *Params {
	if existing, ok := p.Get(key); ok {
		if nested, ok := existing.(*Params); ok {
			return nested
		}
	}
	nested := NewParams()
	p.Set(key, nested)
	return nested
}

// ParsePairs splits a raw query string into pairs. Keys keep the order of
// their first appearance and repeated keys collect all their values, which
// is how web frameworks expose multi-valued query parameters.
func ParsePairs(rawQuery string) ([]Pair, error) {
	var pairs []Pair
	index := make(map[string]int)

	for _, part := range strings.Split(rawQuery, "&") {
		if part == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(part, "=")

		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, fmt.Errorf("invalid query key %q: %w", rawKey, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, fmt.Errorf("invalid query value for %q: %w", key, err)
		}

		if i, seen := index[key]; seen {
			pairs[i].Values = append(pairs[i].Values, value)
			continue
		}
		index[key] = len(pairs)
		pairs = append(pairs, Pair{Key: key, Values: []string{value}})
	}

	return pairs, nil
}

// FromValues converts url.Values into pairs. url.Values does not remember
// key order, so keys are sorted to keep decoding deterministic.
func FromValues(values url.Values) []Pair {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]Pair, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, Pair{Key: k, Values: values[k]})
	}
	return pairs
}

// DecodeQuery parses and decodes a raw query string.
func DecodeQuery(rawQuery string) (*Params, error) {
	pairs, err := ParsePairs(rawQuery)
	if err != nil {
		return nil, err
	}
	return Decode(pairs), nil
}

// ToMap converts params into plain Go maps, recursively. Useful for JSON
// output and for comparing against literals in tests.
func ToMap(p *Params) map[string]any {
	out := make(map[string]any, p.Len())
	for pair := p.Oldest(); pair != nil; pair = pair.Next() {
		if nested, ok := pair.Value.(*Params); ok {
			out[pair.Key] = ToMap(nested)
			continue
		}
		out[pair.Key] = pair.Value
	}
	return out
}

// Keys returns the keys of p in insertion order.
func Keys(p *Params) []string {
	keys := make([]string, 0, p.Len())
	for pair := p.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}
