package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pevans/technews/api"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "Address to listen on (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Listen = listen
	}
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	pipeline, err := newPipeline(cfg, logger)
	if err != nil {
		return err
	}

	store, closeStore, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer closeStore()

	recorder, vitals, closeRecorder, err := newRecorder(cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("failed to set up telemetry: %w", err)
	}
	defer closeRecorder()

	server := api.NewServer(pipeline, store,
		api.WithTelemetry(recorder, vitals),
		api.WithCORSOrigins(cfg.CORSOrigins),
		api.WithCacheTTL(cfg.CacheTTL),
		api.WithLogger(logger))
	defer server.Close()

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting technews API",
			zap.String("addr", cfg.Listen),
			zap.String("upstream", cfg.Upstream.Type),
			zap.String("storage", cfg.Storage.Type),
			zap.String("vitals", vitals.Path()))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
