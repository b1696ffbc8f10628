package main

import (
	"github.com/spf13/cobra"
)

func (a *app) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long:  `Apply all pending migrations to the configured database (sqlite or postgres) and exit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := a.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			cmd.Println("Running migrations...")
			conn, err := openDB(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			log.Infow("migrations_applied", "db_driver", cfg.DB.Driver)
			cmd.Println("Migrations completed successfully")
			return nil
		},
	}
}
