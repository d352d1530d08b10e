package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/beadscope/beadscope/internal/config"
	"github.com/beadscope/beadscope/internal/engine"
	"github.com/beadscope/beadscope/internal/events"
	"github.com/beadscope/beadscope/internal/export"
	"github.com/beadscope/beadscope/internal/server"
	"github.com/beadscope/beadscope/internal/tracker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the beadscope daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		// Load configuration.
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// Build the tracker gateway.
		runner := tracker.NewRunner(cfg.TrackerBin, cfg.Workdir,
			tracker.WithTimeout(cfg.TrackerTimeout))
		client := tracker.NewClient(runner)

		// Create event publisher.
		var publisher events.Publisher
		if cfg.NATSURL != "" {
			pub, err := events.NewNATSPublisher(cfg.NATSURL)
			if err != nil {
				return err
			}
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		} else {
			publisher = &events.NoopPublisher{}
			logger.Info("events disabled (BEADSCOPE_NATS_URL not set)")
		}

		// Create snapshot exporter if a destination is configured.
		var dests []export.Destination
		if cfg.ExportS3Bucket != "" {
			s3Dest, err := export.NewS3Destination(
				context.Background(),
				cfg.ExportS3Bucket,
				cfg.ExportS3Prefix,
				cfg.ExportS3Region,
				cfg.ExportS3Endpoint,
			)
			if err != nil {
				logger.Error("failed to create S3 export destination", "err", err)
			} else {
				dests = append(dests, s3Dest)
				logger.Info("snapshot export enabled", "bucket", cfg.ExportS3Bucket, "prefix", cfg.ExportS3Prefix)
			}
		}

		// Create the engine and start polling the configured roots.
		eng := engine.New(client, engine.Options{
			PollInterval:  cfg.PollInterval,
			DetectChanges: cfg.DetectChanges,
			Publisher:     publisher,
			Exporter:      export.New(dests, logger),
			Logger:        logger,
		})
		for _, rootID := range cfg.Roots {
			if err := eng.Track(rootID); err != nil {
				logger.Error("failed to track root", "root_id", rootID, "err", err)
				continue
			}
			logger.Info("tracking root", "root_id", rootID)
		}

		// Start HTTP server.
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: server.New(eng, logger).NewHTTPHandler(),
		}

		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		logger.Info("beadscope started",
			"http_addr", cfg.HTTPAddr,
			"tracker_bin", cfg.TrackerBin,
			"workdir", cfg.Workdir,
			"poll_interval", cfg.PollInterval,
		)

		// Wait for SIGINT or SIGTERM.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig)

		// Graceful shutdown. The HTTP server drains first so SSE connections
		// close before their subscribers are torn down.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		eng.Close()
		logger.Info("shutdown complete")
		return nil
	},
}
