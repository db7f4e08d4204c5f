package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/couchcryptid/quake-map-service/internal/adapter/http"
	"github.com/couchcryptid/quake-map-service/internal/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the earthquake map over HTTP",
	Long:  `Serves the map page, its marker and legend APIs, and the health, readiness, and metrics endpoints. Every page request runs one fresh render pass.`,
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, false)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := httpadapter.NewServer(a.cfg.HTTPAddr, a.pipeline, a.pipeline, a.logger)

	g, gctx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Warm-up pass so /readyz turns green without waiting for a visitor.
	g.Go(func() error {
		if _, err := a.pipeline.Run(gctx, pipeline.View{}); err != nil {
			a.logger.Warn("warm-up render failed", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown error", "error", err)
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	a.logger.Info("shutdown complete")
	return nil
}
