package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trip-viewer/di"
)

var (
	serveWatch bool
	serveFile  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the itinerary resource and API",
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveFile != "" {
			cfg.ItineraryFile = serveFile
		}
		container, err := di.NewServerContainer(cfg, logger)
		if err != nil {
			return err
		}
		defer container.ItineraryFileWatcher.Stop()
		defer container.ItineraryRefresherService.Stop()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if serveWatch {
			if err := container.ItineraryFileWatcher.Start(ctx); err != nil {
				logger.Warn("file watcher unavailable, relying on periodic reload", zap.Error(err))
			}
			container.ItineraryRefresherService.StartPeriodicJob(cfg.RefreshInterval)
		}

		return container.ItineraryHttpServer.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveWatch, "watch", true, "Reload the itinerary when the file changes")
	serveCmd.Flags().StringVar(&serveFile, "file", "", "Itinerary file (overrides TRIP_ITINERARY_FILE)")
}
