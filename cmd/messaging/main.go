package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/LeventeLantos/condo-messaging/internal/config"
	"github.com/LeventeLantos/condo-messaging/internal/logger"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "messaging",
		Short:         "WhatsApp inbound pipeline and reply service for condominium tenants",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

// loadConfig reads the environment and configures the global logger from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadAll()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}
