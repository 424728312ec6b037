package main

import (
	"github.com/spf13/cobra"

	"github.com/LeventeLantos/condo-messaging/migrations"
)

func newMigrateCmd() *cobra.Command {
	var down int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the Postgres schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if down > 0 {
				return migrations.Down(cfg.Database.PostgresURL, down)
			}
			return migrations.Up(cfg.Database.PostgresURL)
		},
	}
	cmd.Flags().IntVar(&down, "down", 0, "roll back this many migrations instead of applying")
	return cmd
}
