package management

import (
	"github.com/yanizio/peneus/internal/account"
	"github.com/yanizio/peneus/internal/dashboard"
	"github.com/yanizio/peneus/internal/entity"
)

// RegisterTables exposes the framework's own tables.  Deleting an account
// removes its role grants first.
func RegisterTables(tables *dashboard.Registry) error {
	if err := tables.Register(entity.FactoryOf[account.Account](), dashboard.Rules{
		"email":       "required,email",
		"displayName": "required",
	}); err != nil {
		return err
	}
	if err := tables.Register(entity.FactoryOf[account.AccountRole](), dashboard.Rules{
		"accountId": "required,gt=0",
		"role":      "min=0,max=20",
	}); err != nil {
		return err
	}
	if err := tables.Register(entity.FactoryOf[account.View](), nil); err != nil {
		return err
	}
	tables.OnDelete(entity.Table(&account.Account{}), account.DeleteRoles)
	return nil
}
