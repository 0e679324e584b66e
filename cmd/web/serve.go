package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yanizio/peneus/internal/mail"
	"github.com/yanizio/peneus/internal/requestinfo"
	"github.com/yanizio/peneus/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := boot(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		geo, err := requestinfo.OpenGeo(a.cfg.GeoIP.DBPath)
		if err != nil {
			a.log.Warnw("geoip disabled", "path", a.cfg.GeoIP.DBPath, "err", err)
		}
		defer geo.Close()

		reg, err := handlers(a.cfg, a.db, mail.NewSender(a.cfg.Mail, a.log), a.log)
		if err != nil {
			return err
		}
		a.log.Infow("handlers registered", "handlers", reg.Names())

		srv := server.New(a.cfg.HTTP.ListenAddr, router(a.cfg, reg, geo, a.log))
		return server.Run(ctx, srv, a.log)
	},
}
