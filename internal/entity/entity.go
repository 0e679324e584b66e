// internal/entity/entity.go
//
// Entity contract and schema derivation.
//
// Context
// -------
// A concrete entity is a struct that embeds Base and declares its fields:
//
//	type Book struct {
//	    entity.Base
//	    Title     string
//	    Published *time.Time
//	}
//
//	func (b *Book) Fields() []entity.Field {
//	    return []entity.Field{
//	        entity.Bind("title", &b.Title),
//	        entity.Bind("published", &b.Published),
//	    }
//	}
//
// Embedding Base is mandatory; the Entity interface carries an unexported
// method that only Base provides, so a bare "generic entity" cannot exist.
//
// The table name defaults to the lowercase type name ("book").  Implement
// TableName to override it, and ViewDefinition to turn the entity into a
// read-only view.
package entity

import (
	"reflect"
	"strings"
)

const idColumn = "id"

// Entity is one persisted row.
type Entity interface {
	Fields() []Field
	base() *Base
}

// View is an Entity backed by a SQL view.
type View interface {
	Entity
	ViewDefinition() string
}

// Factory returns a fresh, empty entity.  It stands in for a class name
// wherever a type is only known at runtime.
type Factory func() Entity

// Base carries the surrogate key.  Zero means the entity is not saved yet.
type Base struct {
	ID int64
}

func (b *Base) base() *Base { return b }

// IDOf returns the id of e.
func IDOf(e Entity) int64 { return e.base().ID }

// Table returns the table (or view) name of e.
func Table(e Entity) string {
	if n, ok := e.(interface{ TableName() string }); ok {
		return n.TableName()
	}
	t := reflect.TypeOf(e)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return strings.ToLower(t.Name())
}

// New returns a fresh entity from f.  A nil data map leaves every field at
// its zero value; otherwise the entity is populated immediately.
func New(f Factory, data map[string]any) (Entity, error) {
	e := f()
	if data == nil {
		return e, nil
	}
	if err := Populate(e, data); err != nil {
		return nil, err
	}
	return e, nil
}

// Column describes one column for dashboards and table creation.
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// Columns returns the column names of e with id first.
func Columns(e Entity) []string {
	ss := slots(e)
	out := make([]string, 0, len(ss)+1)
	out = append(out, idColumn)
	for _, s := range ss {
		out = append(out, s.name)
	}
	return out
}

// Metadata returns name, SQL type, and nullability per column, id first.
func Metadata(e Entity) []Column {
	ss := slots(e)
	out := make([]Column, 0, len(ss)+1)
	out = append(out, Column{Name: idColumn, Type: KindInt.SQLType()})
	for _, s := range ss {
		out = append(out, Column{Name: s.name, Type: s.kind.SQLType(), Nullable: s.nullable})
	}
	return out
}
