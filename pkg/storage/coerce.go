package storage

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"mercator-hq/magicbox/pkg/query"
	"mercator-hq/magicbox/pkg/schema"
)

// DateTimeLayout is the stored form of datetime values. Values are kept in
// UTC with a fixed width fraction so that text order is time order.
const DateTimeLayout = "2006-01-02T15:04:05.000000Z"

var dateTimeInputLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Coerce converts a raw operand to the canonical Go value for t:
// int64, float64, bool or string.
func Coerce(field string, t schema.FieldType, raw string) (any, error) {
	fail := func(err error) error {
		return &CoercionError{Field: field, Value: raw, Type: string(t), Cause: err}
	}

	switch t {
	case schema.TypeInteger:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fail(err)
		}
		return n, nil
	case schema.TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fail(err)
		}
		return f, nil
	case schema.TypeBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fail(err)
		}
		return b, nil
	case schema.TypeDateTime:
		ts, err := parseDateTime(strings.TrimSpace(raw))
		if err != nil {
			return nil, fail(err)
		}
		return ts.UTC().Format(DateTimeLayout), nil
	case schema.TypeUUID:
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, fail(err)
		}
		return id.String(), nil
	default:
		return raw, nil
	}
}

func parseDateTime(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateTimeInputLayouts {
		ts, err := time.Parse(layout, raw)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// CoerceOperand converts the operand of l for comparison against the field
// it names on m. Text operators keep the operand as a string; membership
// yields a []any.
func CoerceOperand(m *schema.Model, l query.Lookup) (any, error) {
	t := m.TypeOf(l.Field)

	switch l.Op {
	case query.OpStartsWith, query.OpContains, query.OpEndsWith:
		return l.Value, nil
	case query.OpIn:
		items := l.Values()
		out := make([]any, 0, len(items))
		for _, item := range items {
			v, err := Coerce(l.Field, t, item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		return Coerce(l.Field, t, l.Value)
	}
}

// CoerceInput converts a decoded JSON value for storage in a field of type
// t. nil stays nil.
func CoerceInput(field string, t schema.FieldType, v any) (any, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		return Coerce(field, t, val)
	case bool:
		if t == schema.TypeBoolean {
			return val, nil
		}
		return Coerce(field, t, strconv.FormatBool(val))
	case float64:
		switch t {
		case schema.TypeInteger:
			if val != math.Trunc(val) {
				return nil, &CoercionError{Field: field, Value: fmt.Sprint(val), Type: string(t),
					Cause: fmt.Errorf("not an integer")}
			}
			return int64(val), nil
		case schema.TypeFloat:
			return val, nil
		}
		return Coerce(field, t, strconv.FormatFloat(val, 'f', -1, 64))
	case int:
		return CoerceInput(field, t, float64(val))
	case int64:
		if t == schema.TypeInteger {
			return val, nil
		}
		return CoerceInput(field, t, float64(val))
	default:
		return Coerce(field, t, fmt.Sprint(val))
	}
}

// Compare orders two canonical values. ok is false when they are not
// comparable (different kinds, or either is nil).
func Compare(a, b any) (cmp int, ok bool) {
	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return compareOrdered(x, y), true
		case float64:
			return compareOrdered(float64(x), y), true
		}
	case float64:
		switch y := b.(type) {
		case float64:
			return compareOrdered(x, y), true
		case int64:
			return compareOrdered(x, float64(y)), true
		}
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), true
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, true
			case !x:
				return -1, true
			default:
				return 1, true
			}
		}
	}
	return 0, false
}

func compareOrdered[T int64 | float64](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

// Key renders a canonical value as a map key, so that int64(3) and the
// string "3" read back from different drivers land together.
func Key(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
