package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"task_manager/internal/auth"
	"task_manager/internal/config"
	"task_manager/internal/logger"
	"task_manager/internal/repository"
	"task_manager/internal/repository/db"
	"task_manager/internal/service"
)

// app carries what every subcommand needs to build its dependencies.
type app struct {
	v          *viper.Viper
	configFile string
}

// NewRootCmd creates the root command. Without a subcommand it serves HTTP.
func NewRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	cmd := &cobra.Command{
		Use:          "task_manager",
		Short:        "Task manager API server",
		Long:         `Task manager serves registration, login and owner-scoped task CRUD behind bearer tokens.`,
		SilenceUsage: true,
		RunE:         a.runServe,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&a.configFile, "config", "", "config file path (default configs/config.yml)")
	cmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	_ = a.v.BindPFlag("log.level", cmd.PersistentFlags().Lookup("log-level"))

	cmd.AddCommand(a.newServeCmd())
	cmd.AddCommand(a.newMigrateCmd())
	cmd.AddCommand(a.newUserCmd())

	return cmd
}

// load reads and validates the configuration and builds the logger from it.
func (a *app) load() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(a.v, a.configFile)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(cfg.Log.Level, cfg.Log.Format), nil
}

// openDB connects and migrates the configured database.
func openDB(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	conn, err := db.Open(ctx, db.Options{
		Driver:         cfg.DB.Driver,
		Path:           cfg.DB.Path,
		DSN:            cfg.DB.DSN,
		MaxOpenConns:   cfg.DB.MaxOpenConns,
		ConnectRetries: cfg.DB.ConnectRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.DB.Driver, err)
	}
	return conn, nil
}

// newServices wires repositories and auth primitives into the service layer.
func newServices(conn *sql.DB, cfg *config.Config, log *logger.Logger) (*service.Service, error) {
	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret:    []byte(cfg.Auth.Secret),
		Algorithm: cfg.Auth.Algorithm,
		TTL:       cfg.Auth.TokenTTL(),
	})
	if err != nil {
		return nil, fmt.Errorf("token manager: %w", err)
	}
	repos := repository.NewRepository(conn, cfg.DB.Driver)
	return service.NewService(repos, service.Deps{
		Hasher: auth.NewHasher(cfg.Auth.BcryptCost),
		Tokens: tokens,
		Log:    log,
	}), nil
}
