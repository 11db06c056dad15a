package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"trip-viewer/di"
	"trip-viewer/models/trip"
	services "trip-viewer/service"
	"trip-viewer/util"
)

var (
	viewDay    int
	viewExpand bool
	viewChart  string
	viewFollow bool
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Load the itinerary from the server and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		container, err := di.NewViewerContainer(cfg, logger)
		if err != nil {
			return err
		}
		defer container.Close()

		out := cmd.OutOrStdout()
		board := &notificationBoard{}
		container.LifecycleObserver.Subscribe(func(n services.Notification) {
			board.Add(n)
			util.PrintNotification(out, n.Title, n.Message)
		})

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// registered after the container's own subscriber, so the UI state
		// is already initialized from st when it arrives
		settled := make(chan services.LoadState, 1)
		unsubscribe := container.DataLoader.Subscribe(func(st services.LoadState) {
			if st.IsLoading() {
				return
			}
			select {
			case settled <- st:
			default:
			}
		})
		container.Start(ctx, viewFollow)

		var st services.LoadState
		select {
		case st = <-settled:
		case <-ctx.Done():
			return ctx.Err()
		}
		unsubscribe()

		if st.Phase == services.PhaseError {
			return errors.New(st.Message)
		}
		if viewDay > 0 {
			if err := container.UIStateStore.SelectDay(viewDay - 1); err != nil {
				return err
			}
		}
		renderTrip(out, container, st.Days)

		if viewChart != "" {
			if err := writeChart(viewChart, st.Days); err != nil {
				return err
			}
			fmt.Fprintf(out, "Trip overview chart written to %s\n", viewChart)
		}

		if !viewFollow {
			return nil
		}
		container.DataLoader.Subscribe(func(st services.LoadState) {
			switch st.Phase {
			case services.PhaseLoaded:
				fmt.Fprintln(out)
				renderTrip(out, container, st.Days)
				for _, n := range board.Active(time.Now()) {
					util.PrintNotification(out, n.Title, n.Message)
				}
			case services.PhaseError:
				util.PrintNotification(out, "Error", st.Message)
			}
		})
		<-ctx.Done()
		return nil
	},
}

func renderTrip(out io.Writer, container *di.ViewerContainer, days []trip.TripDay) {
	if len(days) == 0 {
		return
	}
	ui := container.UIStateStore
	selected := ui.SelectedDay()
	if selected >= len(days) {
		selected = 0
	}
	day := days[selected]

	util.PrintTrip(out, days, selected, container.DateFormatter)
	fmt.Fprintln(out)
	util.PrintTripDay(out, day, container.DateFormatter, func(i int) bool {
		return viewExpand || ui.IsExpanded(services.ItemKey(day.Date, i))
	})
}

// notificationBoard keeps notifications until they expire so a reprint can
// show them again.
type notificationBoard struct {
	mu    sync.Mutex
	items []services.Notification
}

func (b *notificationBoard) Add(n services.Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.items = append(b.items, n)
}

// Active drops expired notifications and returns the rest, oldest first.
func (b *notificationBoard) Active(now time.Time) []services.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.items[:0]
	for _, n := range b.items {
		if !n.Expired(now) {
			kept = append(kept, n)
		}
	}
	b.items = kept
	return append([]services.Notification(nil), kept...)
}

func writeChart(path string, days []trip.TripDay) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart file: %w", err)
	}
	defer f.Close()

	if err := util.PlotTripOverview(days, f); err != nil {
		logger.Error("failed to render chart", zap.Error(err))
		return err
	}
	return nil
}

func init() {
	viewCmd.Flags().IntVar(&viewDay, "day", 0, "Day to show, 1-based (default: today during the trip, else the first day)")
	viewCmd.Flags().BoolVar(&viewExpand, "expand", false, "Show item details")
	viewCmd.Flags().StringVar(&viewChart, "chart", "", "Write an HTML overview chart to this file")
	viewCmd.Flags().BoolVar(&viewFollow, "follow", false, "Keep running and reprint on updates")
}
