// cmd/web/main.go
//
// Peneus – command-line entry point.
//
// Commands
// --------
//
//	serve    start the HTTP server (/api dispatcher, /metrics)
//	migrate  create missing tables and (re)create views
//	grant    give an account a role
//
// Every command boots the same way: a console logger for early errors,
// Vault when VAULT_ADDR is set, the layered config, then the daily
// rotating logger configured by it.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/yanizio/peneus/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "peneus",
	Short:         "Peneus web framework backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, grantCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Bootstrap().Errorw("command failed", "err", err)
		os.Exit(1)
	}
}
