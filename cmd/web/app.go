package main

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/yanizio/peneus/internal/config"
	"github.com/yanizio/peneus/internal/database"
	"github.com/yanizio/peneus/internal/logger"
	"github.com/yanizio/peneus/internal/vault"
)

// app is what every command needs after boot.
type app struct {
	cfg *config.Config
	log *zap.SugaredLogger
	db  *database.DB
}

func boot(ctx context.Context) (*app, error) {
	early := logger.Bootstrap()

	var secrets config.Secrets
	if os.Getenv("VAULT_ADDR") != "" {
		vc, err := vault.New(early)
		if err != nil {
			return nil, err
		}
		secrets = vc
	}

	cfg, err := config.Load(ctx, secrets)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Paths.Root, cfg.Log.Level, logger.IsTTY())
	if err != nil {
		return nil, errors.Wrap(err, "start logger")
	}

	db, err := database.OpenWithOptions(ctx, cfg.Database.ResolvedDSN(), database.Options{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	log.Infow("database online", "max_open", cfg.Database.MaxOpenConns)

	return &app{cfg: cfg, log: log, db: db}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Warnw("close database", "err", err)
	}
	_ = a.log.Sync()
}
