package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"task_manager/internal/handlers"
	"task_manager/internal/metrics"
	"task_manager/internal/server"
)

func (a *app) newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE:  a.runServe,
	}
	cmd.Flags().String("port", "", "listen port (overrides server.port)")
	_ = a.v.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	return cmd
}

func (a *app) runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := a.load()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := openDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("db_close_failed", "err", cerr)
		}
	}()

	services, err := newServices(conn, cfg, log)
	if err != nil {
		return err
	}

	opts := []handlers.Option{handlers.WithAllowedOrigins(cfg.CORS.AllowedOrigins)}
	if cfg.Metrics.Enabled {
		opts = append(opts, handlers.WithMetrics(metrics.New(), cfg.Metrics.Path))
	}
	router := handlers.NewHandler(services, log, opts...).InitRoutes()

	srv := server.New(server.Options{
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	})
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(cfg.Server.Host, cfg.Server.Port, router)
	}()
	log.Infow("server_started", "host", cfg.Server.Host, "port", cfg.Server.Port, "db_driver", cfg.DB.Driver)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Infow("server_stopping")
	// allow in-flight requests to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	return <-errCh
}
