package main

import (
	"context"
	"fmt"
	"time"

	"github.com/lawnchairsociety/citygen/internal/logger"
	"github.com/lawnchairsociety/citygen/internal/server"
	"github.com/lawnchairsociety/citygen/internal/tileset"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

var (
	serveAddress   string
	serveNoHistory bool
)

func init() {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve live generations over websockets",
		Long: `Start the generation server.

  GET /ws?seed=&dimensions=&interval_ms=&policy=   stream a generation
  GET /api/runs[?limit=]                           list stored runs
  GET /api/runs/{id}                               one run with placements
  GET /healthz                                     health check`,
		RunE: runServe,
	}

	serveCmd.Flags().StringVarP(&serveAddress, "address", "a", "", "Listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveNoHistory, "no-history", false, "Do not store finished runs")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveAddress != "" {
		cfg.Server.Address = serveAddress
	}

	tiles, err := tileset.Load(cfg.Generator.Tileset)
	if err != nil {
		return fmt.Errorf("failed to load tileset: %w", err)
	}

	var store server.RunStore
	if !serveNoHistory {
		db, err := openDatabase(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to open run history: %w", err)
		}
		defer db.Close()
		store = db
		logger.Info("Run history enabled", "driver", db.Dialect().DriverName())
	}

	srv := server.New(cfg, tiles, store)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-cmd.Context().Done():
	}

	logger.Info("Shutting down generation server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warning("Shutdown did not finish cleanly", "error", err)
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
