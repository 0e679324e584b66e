// internal/entity/field.go
//
// Field descriptors and typed storage slots.
//
// Context
// -------
// An entity declares its persisted properties as an ordered list of Field
// values.  Each Field names a column and points at the struct field that
// stores it.  The pointer type alone decides the semantic kind:
//
//	*bool        boolean      BIT
//	*int, *int64 integer      INT
//	*float64     float        DOUBLE
//	*string      string       TEXT
//	*time.Time   date-time    DATETIME
//
// A double pointer (**T) marks the nullable variant.  Any other target is
// unsupported and the field is skipped everywhere: columns, population,
// serialisation.  Read-only fields are skipped the same way.
package entity

import (
	"strconv"
	"time"
)

// Kind is the semantic type of a persisted field.
type Kind int

const (
	KindUnsupported Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindDateTime
)

// SQLType returns the column type used by CreateTable.
func (k Kind) SQLType() string {
	switch k {
	case KindBool:
		return "BIT"
	case KindInt:
		return "INT"
	case KindFloat:
		return "DOUBLE"
	case KindString:
		return "TEXT"
	case KindDateTime:
		return "DATETIME"
	default:
		return ""
	}
}

// Field binds one declared property to its storage.
type Field struct {
	Name     string
	Target   any
	ReadOnly bool
}

// Bind declares a persisted field.
func Bind(name string, target any) Field { return Field{Name: name, Target: target} }

// ReadOnly declares a field that is never persisted, populated, or
// serialised by the entity layer.
func ReadOnly(name string, target any) Field {
	return Field{Name: name, Target: target, ReadOnly: true}
}

// slot is a Field whose target has been classified.
type slot struct {
	name     string
	kind     Kind
	nullable bool
	target   any
}

// slots returns the persisted fields of e in declaration order.
func slots(e Entity) []slot {
	fields := e.Fields()
	out := make([]slot, 0, len(fields))
	for _, f := range fields {
		if f.ReadOnly || f.Name == "" || f.Name == idColumn || isDecimal(f.Name) {
			continue
		}
		if s, ok := classify(f); ok {
			out = append(out, s)
		}
	}
	return out
}

func classify(f Field) (slot, bool) {
	s := slot{name: f.Name, target: f.Target}
	switch t := f.Target.(type) {
	case *bool:
		s.kind = KindBool
		return s, t != nil
	case **bool:
		s.kind, s.nullable = KindBool, true
		return s, t != nil
	case *int:
		s.kind = KindInt
		return s, t != nil
	case **int:
		s.kind, s.nullable = KindInt, true
		return s, t != nil
	case *int64:
		s.kind = KindInt
		return s, t != nil
	case **int64:
		s.kind, s.nullable = KindInt, true
		return s, t != nil
	case *float64:
		s.kind = KindFloat
		return s, t != nil
	case **float64:
		s.kind, s.nullable = KindFloat, true
		return s, t != nil
	case *string:
		s.kind = KindString
		return s, t != nil
	case **string:
		s.kind, s.nullable = KindString, true
		return s, t != nil
	case *time.Time:
		s.kind = KindDateTime
		return s, t != nil
	case **time.Time:
		s.kind, s.nullable = KindDateTime, true
		return s, t != nil
	default:
		return s, false
	}
}

// get returns the current value in canonical form (bool, int64, float64,
// string, time.Time) or nil for an unset nullable slot.
func (s slot) get() any {
	switch t := s.target.(type) {
	case *bool:
		return *t
	case **bool:
		return deref(*t)
	case *int:
		return int64(*t)
	case **int:
		if *t == nil {
			return nil
		}
		return int64(**t)
	case *int64:
		return *t
	case **int64:
		return deref(*t)
	case *float64:
		return *t
	case **float64:
		return deref(*t)
	case *string:
		return *t
	case **string:
		return deref(*t)
	case *time.Time:
		return *t
	case **time.Time:
		return deref(*t)
	}
	return nil
}

// set stores v, which must already be in canonical form or nil.
func (s slot) set(v any) {
	switch t := s.target.(type) {
	case *bool:
		*t = v.(bool)
	case **bool:
		*t = ref[bool](v)
	case *int:
		*t = int(v.(int64))
	case **int:
		if v == nil {
			*t = nil
			return
		}
		n := int(v.(int64))
		*t = &n
	case *int64:
		*t = v.(int64)
	case **int64:
		*t = ref[int64](v)
	case *float64:
		*t = v.(float64)
	case **float64:
		*t = ref[float64](v)
	case *string:
		*t = v.(string)
	case **string:
		*t = ref[string](v)
	case *time.Time:
		*t = v.(time.Time)
	case **time.Time:
		*t = ref[time.Time](v)
	}
}

func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func ref[T any](v any) *T {
	if v == nil {
		return nil
	}
	x := v.(T)
	return &x
}

func isDecimal(s string) bool {
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
