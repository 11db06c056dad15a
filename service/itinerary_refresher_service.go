package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"trip-viewer/logging"
)

// ItineraryRefresherService periodically reloads the itinerary file. It backs
// up the file watcher on filesystems that do not deliver change events.
type ItineraryRefresherService struct {
	source Reloadable
	logger *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewItineraryRefresherService constructs a new refresher with dependencies.
func NewItineraryRefresherService(source Reloadable, logger *zap.Logger) *ItineraryRefresherService {
	return &ItineraryRefresherService{
		source: source,
		logger: logging.OrNop(logger).Named("ItineraryRefresherService"),
	}
}

// StartPeriodicJob launches the background loop at the given interval.
func (rs *ItineraryRefresherService) StartPeriodicJob(interval time.Duration) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.cancel != nil || interval <= 0 {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	rs.cancel = cancel
	rs.done = make(chan struct{})
	go rs.startPeriodicJob(ctx, interval, rs.done)
}

func (rs *ItineraryRefresherService) startPeriodicJob(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rs.logger.Debug("running periodic itinerary refresher job")
			if err := rs.RefreshItinerary(); err != nil {
				rs.logger.Warn("RefreshItinerary returned error", zap.Error(err))
			}
		}
	}
}

// RefreshItinerary reloads the file once.
func (rs *ItineraryRefresherService) RefreshItinerary() error {
	_, err := rs.source.Reload()
	return err
}

// Stop ends the loop and waits for it to exit.
func (rs *ItineraryRefresherService) Stop() {
	rs.mu.Lock()
	cancel, done := rs.cancel, rs.done
	rs.cancel, rs.done = nil, nil
	rs.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
