// internal/entity/marshal.go
//
// JSON encoding of entities.
//
// Context
// -------
// Objects are written by hand so the key order is stable: id first, then
// the persisted fields in column order.  Date-times leave in
// DateTimeLayout, in the same location Populate reads them in.
//
//------------------------------------------------------------------------------

package entity

import (
	"bytes"
	"time"

	"github.com/goccy/go-json"
)

// Marshal encodes e as a JSON object: id first, then every persisted field
// in column order.  Date-times use DateTimeLayout and unset nullable fields
// encode as null.
//
// Concrete entities typically forward MarshalJSON here.
func Marshal(e Entity) ([]byte, error) { return MarshalExcept(e) }

// MarshalExcept is Marshal without the named columns.
func MarshalExcept(e Entity, omit ...string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeMember(&buf, idColumn, e.base().ID); err != nil {
		return nil, err
	}

	for _, s := range slots(e) {
		if contains(omit, s.name) {
			continue
		}
		buf.WriteByte(',')
		if err := writeMember(&buf, s.name, s.get()); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// values returns the canonical value of every persisted field by name.
// Date-times stay time.Time so the driver binds them natively.
func values(e Entity) map[string]any {
	ss := slots(e)
	out := make(map[string]any, len(ss)+1)
	for _, s := range ss {
		out[s.name] = s.get()
	}
	return out
}

func writeMember(buf *bytes.Buffer, name string, v any) error {
	if t, ok := v.(time.Time); ok {
		v = t.In(time.Local).Format(DateTimeLayout)
	}
	k, err := json.Marshal(name)
	if err != nil {
		return err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
