package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarthak-bm-ai/Feature-Store-CRUD/api"
	"github.com/sarthak-bm-ai/Feature-Store-CRUD/internal/config"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the feature store HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String(config.KeyListen, "", "address the HTTP API listens on (default :8000)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	svc, store, closeNotifier, err := newService(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeNotifier(); err != nil {
			logger.Warn("closing notifier failed", "error", err)
		}
	}()

	if tables, err := store.Ping(ctx); err != nil {
		logger.Warn("feature tables not reachable at startup", "active", tables, "error", err)
	}

	server := api.New(svc, store, logger, api.Options{
		AppName:     settings.AppName,
		Production:  settings.IsProduction(),
		WriteSource: settings.WriteSource,
		CORSOrigins: settings.CORSOrigins,
	})

	errCh := make(chan error, 1)
	go func() { errCh <- server.Listen(settings.Listen) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	if err := svc.Close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
