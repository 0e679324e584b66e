package main

import (
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/yanizio/peneus/internal/account"
	"github.com/yanizio/peneus/internal/role"
)

var grantCmd = &cobra.Command{
	Use:   "grant <email> <none|editor|admin>",
	Short: "Give an account a role",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := parseRole(args[1])
		if err != nil {
			return err
		}
		a, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		accounts := account.NewService(a.db, a.log)
		acc := accounts.FindByEmail(cmd.Context(), args[0])
		if acc == nil {
			return errors.Errorf("no account with email %q", args[0])
		}
		if err := accounts.Grant(cmd.Context(), acc.ID, r); err != nil {
			return err
		}
		a.log.Infow("role granted", "account", acc.ID, "role", r.String())
		return nil
	},
}

func parseRole(s string) (role.Role, error) {
	for _, r := range []role.Role{role.None, role.Editor, role.Admin} {
		if s == r.String() || s == strconv.Itoa(int(r)) {
			return r, nil
		}
	}
	return role.None, errors.Errorf("unknown role %q", s)
}
