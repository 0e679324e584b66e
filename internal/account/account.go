// Package account holds the account entities and the service that
// registers, authenticates, and deletes accounts.
//
// Three relations are involved:
//
//	account      one row per person (email, bcrypt hash, display name)
//	accountrole  zero or more role grants per account
//	accountview  read-only join of the two, the shape sessions hand out
package account

import (
	"time"

	"github.com/yanizio/peneus/internal/entity"
)

// Account is one registered person.
type Account struct {
	entity.Base
	Email         string
	PasswordHash  string
	DisplayName   string
	TimeActivated *time.Time
	TimeLastLogin *time.Time
}

func (a *Account) Fields() []entity.Field {
	return []entity.Field{
		entity.Bind("email", &a.Email),
		entity.Bind("passwordHash", &a.PasswordHash),
		entity.Bind("displayName", &a.DisplayName),
		entity.Bind("timeActivated", &a.TimeActivated),
		entity.Bind("timeLastLogin", &a.TimeLastLogin),
	}
}

// MarshalJSON never exposes the password hash.
func (a *Account) MarshalJSON() ([]byte, error) {
	return entity.MarshalExcept(a, "passwordHash")
}

// AccountRole grants Role to one account.
type AccountRole struct {
	entity.Base
	AccountID int64
	Role      int64
}

func (r *AccountRole) Fields() []entity.Field {
	return []entity.Field{
		entity.Bind("accountId", &r.AccountID),
		entity.Bind("role", &r.Role),
	}
}

func (r *AccountRole) MarshalJSON() ([]byte, error) { return entity.Marshal(r) }

// View is the logged-in account as seen by guards and handlers.  Role is
// nil for an account without a grant.  Grant keeps one row per account,
// but rows written by other tools may not, so the view collapses them to
// the highest role and still yields one row per account.
type View struct {
	entity.Base
	Email       string
	DisplayName string
	Role        *int64
}

func (v *View) Fields() []entity.Field {
	return []entity.Field{
		entity.Bind("email", &v.Email),
		entity.Bind("displayName", &v.DisplayName),
		entity.Bind("role", &v.Role),
	}
}

func (v *View) TableName() string { return "accountview" }

func (v *View) ViewDefinition() string {
	return "SELECT account.id, account.email, account.displayName, MAX(accountrole.role) AS role " +
		"FROM account LEFT JOIN accountrole ON accountrole.accountId = account.id " +
		"GROUP BY account.id, account.email, account.displayName"
}

func (v *View) MarshalJSON() ([]byte, error) { return entity.Marshal(v) }
