// Package role defines the ordered authorization levels used by session
// guards.  The numeric values are persisted in the accountrole table, so
// they must never be renumbered.
package role

import (
	"strconv"
	"strings"
)

// Role is an ordered authorization level.
type Role int

const (
	None   Role = 0
	Editor Role = 10
	Admin  Role = 20
)

// Parse maps v onto a Role.  Unknown numbers, non-numeric values, and nil
// all yield None.
func Parse(v any) Role {
	var n int64
	switch x := v.(type) {
	case nil:
		return None
	case Role:
		n = int64(x)
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case *int:
		if x == nil {
			return None
		}
		n = int64(*x)
	case *int64:
		if x == nil {
			return None
		}
		n = *x
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return None
		}
		n = parsed
	default:
		return None
	}

	switch Role(n) {
	case Editor:
		return Editor
	case Admin:
		return Admin
	default:
		return None
	}
}

// AtLeast reports whether r is at or above minimum.
func (r Role) AtLeast(minimum Role) bool { return r >= minimum }

func (r Role) String() string {
	switch r {
	case Editor:
		return "editor"
	case Admin:
		return "admin"
	default:
		return "none"
	}
}
