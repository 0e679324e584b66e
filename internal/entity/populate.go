// internal/entity/populate.go
//
// Population and value coercion.
//
// Populate copies matching keys from a data map (a database row, decoded
// JSON, or form input) into an entity.  Each kind has one coercion
// function.  The boolean table follows the framework's "common truthy"
// rules, under which any non-empty string other than "0" is true.  That
// includes "no" and "false".
package entity

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yanizio/peneus/internal/apperr"
)

// DateTimeLayout is the wire and storage format for date-time values.
const DateTimeLayout = "2006-01-02 15:04:05"

// Accepted input layouts, tried in order.  Date-only input lands on
// midnight.
var dateTimeLayouts = []string{
	DateTimeLayout,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Populate assigns every key of data that names a persisted field of e.
// Unknown keys are ignored.  The "id" key is always applied.  A value that
// cannot be coerced to the field's kind yields an InvalidInput error; fields
// assigned before the failure keep their new values.
func Populate(e Entity, data map[string]any) error {
	if v, ok := data[idColumn]; ok {
		e.base().ID = toID(v)
	}

	for _, s := range slots(e) {
		v, ok := data[s.name]
		if !ok {
			continue
		}
		if v == nil {
			if !s.nullable {
				return apperr.InvalidInput(
					"Cannot assign null to non-nullable property '%s'.", s.name)
			}
			s.set(nil)
			continue
		}
		cv, ok := coerce(s.kind, v)
		if !ok {
			return apperr.InvalidInput(
				"Invalid value for property '%s': expected %s.", s.name, kindName(s.kind))
		}
		s.set(cv)
	}
	return nil
}

func coerce(k Kind, v any) (any, bool) {
	switch k {
	case KindBool:
		return toBool(v)
	case KindInt:
		return toInt(v)
	case KindFloat:
		return toFloat(v)
	case KindString:
		s, ok := v.(string)
		return s, ok
	case KindDateTime:
		return toDateTime(v)
	}
	return nil, false
}

func toBool(v any) (any, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		return x != "" && x != "0", true
	}
	if n, ok := intValue(v); ok {
		return n != 0, true
	}
	return nil, false
}

func toInt(v any) (any, bool) {
	if n, ok := intValue(v); ok {
		return n, true
	}
	switch x := v.(type) {
	case float64:
		return integral(x)
	case float32:
		return integral(float64(x))
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	}
	return nil, false
}

func toFloat(v any) (any, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return f, true
	}
	if n, ok := intValue(v); ok {
		return float64(n), true
	}
	return nil, false
}

func toDateTime(v any) (any, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.In(time.Local), true
	case *time.Time:
		if x == nil {
			return nil, false
		}
		return x.In(time.Local), true
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range dateTimeLayouts {
			if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return t.In(time.Local), true
			}
		}
	}
	return nil, false
}

// toID follows integer-cast semantics: anything unparsable is 0.
func toID(v any) int64 {
	if n, ok := toInt(v); ok {
		return n.(int64)
	}
	return 0
}

func intValue(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	}
	return 0, false
}

func integral(f float64) (any, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return nil, false
	}
	return int64(f), true
}

func kindName(k Kind) string {
	switch k {
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindDateTime:
		return "date-time"
	default:
		return "unsupported"
	}
}
