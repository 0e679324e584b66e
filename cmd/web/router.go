package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	accountapi "github.com/yanizio/peneus/components/account"
	"github.com/yanizio/peneus/components/management"
	"github.com/yanizio/peneus/components/security"
	"github.com/yanizio/peneus/internal/account"
	"github.com/yanizio/peneus/internal/api"
	"github.com/yanizio/peneus/internal/config"
	"github.com/yanizio/peneus/internal/csrf"
	"github.com/yanizio/peneus/internal/dashboard"
	"github.com/yanizio/peneus/internal/database"
	"github.com/yanizio/peneus/internal/guard"
	"github.com/yanizio/peneus/internal/mail"
	"github.com/yanizio/peneus/internal/middleware"
	"github.com/yanizio/peneus/internal/requestinfo"
	"github.com/yanizio/peneus/internal/session"
)

// handlers builds the API registry with every built-in handler.
func handlers(cfg *config.Config, db database.Database, sender mail.Sender, log *zap.SugaredLogger) (*api.Registry, error) {
	accounts := account.NewService(db, log)
	sessions, err := session.New(cfg.App.Name,
		[]byte(cfg.Security.SessionHashKey), blockKey(cfg.Security.SessionBlockKey), accounts)
	if err != nil {
		return nil, err
	}
	tokens := csrf.New(cfg.App.Name, []byte(cfg.Security.CsrfSecret))
	secure := cfg.HTTP.ForceHTTPS

	tables := dashboard.NewRegistry()
	if err := management.RegisterTables(tables); err != nil {
		return nil, err
	}

	reg := api.NewRegistry()
	if err := security.Register(reg, tokens, secure); err != nil {
		return nil, errors.Wrap(err, "register security")
	}
	if err := accountapi.Register(reg, accountapi.Deps{
		AppName:  cfg.App.Name,
		Accounts: accounts,
		Sessions: sessions,
		CSRF:     tokens,
		Mail:     sender,
		Secure:   secure,
		Log:      log,
	}); err != nil {
		return nil, errors.Wrap(err, "register account")
	}
	if err := management.Register(reg, management.Deps{
		DB:       db,
		Tables:   tables,
		Sessions: sessions,
		CSRF:     tokens,
		Log:      log,
	}); err != nil {
		return nil, errors.Wrap(err, "register management")
	}
	return reg, nil
}

// router mounts the dispatcher on /api and metrics on /metrics.
func router(cfg *config.Config, reg *api.Registry, geo *requestinfo.GeoDB, log *zap.SugaredLogger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestinfo.NewEnricher(geo, log).Middleware)
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.Security)
	r.Use(middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS))

	r.Handle("/api", api.NewDispatcher(reg, log, cfg.App.Debug))
	r.With(middleware.Guard(guard.WhitelistGuard(cfg.HTTP.MetricsWhitelist...))).
		Handle("/metrics", promhttp.Handler())
	return r
}

func blockKey(s string) []byte {
	if s == "" {
		return nil
	}
	return []byte(s)
}
