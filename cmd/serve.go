package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/showcase-sync/internal/api"
	"github.com/JakeFAU/showcase-sync/internal/app"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health, metrics and per-project preview/sync endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "keep synced records in memory instead of Postgres")
	return cmd
}

func runServe(cmd *cobra.Command, dryRun bool) error {
	e, err := resolveEnv(cmd.Context())
	if err != nil {
		return err
	}
	if !dryRun {
		if err := e.cfg.ValidateSync(); err != nil {
			return err
		}
	}
	a, err := newApp(cmd.Context(), e.cfg, e.logger, app.Options{DryRun: dryRun})
	if err != nil {
		return fmt.Errorf("failed to initialize application services: %w", err)
	}
	defer a.Close()

	logger := e.logger
	handler := api.NewProjectHandler(a.Pipeline(), a.Runner(), logger.Named("api"))
	server := api.NewServer(handler, a.Store(), api.Config{APIKey: e.cfg.Server.APIKey}, logger.Named("api"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", e.cfg.Server.Port),
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := context.WithCancel(cmd.Context())
	defer stop()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server started", zap.Int("port", e.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	default:
		return nil
	}
}
