package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/peneus/internal/account"
	"github.com/yanizio/peneus/internal/database"
	"github.com/yanizio/peneus/internal/entity"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create missing tables and refresh views",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := boot(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return migrate(cmd.Context(), a.db, a.log)
	},
}

// schema lists tables before the views that select from them.
func schema() []entity.Entity {
	return []entity.Entity{
		&account.Account{},
		&account.AccountRole{},
		&account.View{},
	}
}

func migrate(ctx context.Context, db database.Executor, log *zap.SugaredLogger) error {
	st := entity.NewStore(db, log)
	for _, e := range schema() {
		table := entity.Table(e)
		_, view := e.(entity.View)
		if !view && st.TableExists(ctx, e) {
			log.Debugw("table exists", "table", table)
			continue
		}
		if !st.CreateTable(ctx, e) {
			return errors.Errorf("create %s failed", table)
		}
		log.Infow("table created", "table", table, "view", view)
	}
	return nil
}
