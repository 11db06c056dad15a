package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"trip-viewer/logging"
	"trip-viewer/models"
)

var ErrUpdateNotLoaded = errors.New("updated itinerary could not be loaded")

// VersionSource reports the version the server is currently publishing.
type VersionSource interface {
	GetAppVersion(ctx context.Context) (*models.AppVersion, error)
}

// Reloader is the part of the DataLoader an update needs.
type Reloader interface {
	Refresh(ctx context.Context) error
	State() LoadState
}

// UpdateHandler receives detected updates; LifecycleObserver implements it.
type UpdateHandler interface {
	HandleUpdateAvailable(ctx context.Context, update UpdateActivator)
	IsUpdateAvailable() bool
	UpdateApp(ctx context.Context) error
}

// contentUpdate activates a new content version by reloading the itinerary.
type contentUpdate struct {
	reloader Reloader
	version  models.AppVersion
}

func (u *contentUpdate) Activate(ctx context.Context) error {
	if err := u.reloader.Refresh(ctx); err != nil {
		return err
	}
	if st := u.reloader.State(); st.Phase != PhaseLoaded {
		return fmt.Errorf("%w: %s", ErrUpdateNotLoaded, st.Message)
	}
	return nil
}

// VersionWatcher polls the server's version endpoint. A content version that
// differs from the last one seen is handed to the UpdateHandler as an update
// waiting to be activated.
type VersionWatcher struct {
	source   VersionSource
	reloader Reloader
	handler  UpdateHandler
	logger   *zap.Logger

	mu      sync.Mutex
	current *models.AppVersion
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewVersionWatcher(source VersionSource, reloader Reloader, handler UpdateHandler, logger *zap.Logger) *VersionWatcher {
	return &VersionWatcher{
		source:   source,
		reloader: reloader,
		handler:  handler,
		logger:   logging.OrNop(logger).Named("VersionWatcher"),
	}
}

// Current returns the last version seen, or nil before the first check.
func (w *VersionWatcher) Current() *models.AppVersion {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return nil
	}
	v := *w.current
	return &v
}

// CheckNow fetches the server version once. The first successful check only
// records a baseline. It reports whether an update was detected. An update
// still waiting from an earlier failed activation is retried.
func (w *VersionWatcher) CheckNow(ctx context.Context) (bool, error) {
	latest, err := w.source.GetAppVersion(ctx)
	if err != nil {
		w.logger.Debug("version check failed", zap.Error(err))
		return false, err
	}

	w.mu.Lock()
	previous := w.current
	v := *latest
	w.current = &v
	w.mu.Unlock()

	if previous == nil {
		w.logger.Info("baseline version",
			zap.String("version", latest.Version),
			zap.String("contentVersion", latest.ContentVersion))
		return false, nil
	}
	if previous.ContentVersion == latest.ContentVersion && previous.Version == latest.Version {
		if !w.handler.IsUpdateAvailable() {
			return false, nil
		}
		if err := w.handler.UpdateApp(ctx); err != nil {
			w.logger.Warn("waiting update still failing", zap.Error(err))
			return false, err
		}
		w.logger.Info("waiting update applied", zap.String("contentVersion", latest.ContentVersion))
		return false, nil
	}

	w.logger.Info("new version detected",
		zap.String("from", previous.ContentVersion),
		zap.String("to", latest.ContentVersion))
	w.handler.HandleUpdateAvailable(ctx, &contentUpdate{reloader: w.reloader, version: v})
	return true, nil
}

// StartPeriodicJob launches the background polling loop at the given interval.
func (w *VersionWatcher) StartPeriodicJob(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})
	go w.startPeriodicJob(ctx, interval, w.done)
}

func (w *VersionWatcher) startPeriodicJob(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.CheckNow(ctx)
		}
	}
}

// Stop ends the polling loop and waits for it to exit.
func (w *VersionWatcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
