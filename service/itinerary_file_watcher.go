package services

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"trip-viewer/logging"
	"trip-viewer/validation"
)

// Reloadable is the part of ItinerarySource the watchers drive.
type Reloadable interface {
	Path() string
	Reload() (validation.Result, error)
}

// ItineraryFileWatcher reloads the itinerary whenever its file changes. The
// parent directory is watched so that editors which save by rename are seen.
// Bursts of events are collapsed into one reload.
type ItineraryFileWatcher struct {
	source      Reloadable
	watcher     *fsnotify.Watcher
	file        string
	debounceDur time.Duration
	logger      *zap.Logger

	mu      sync.Mutex
	running bool
	closed  bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewItineraryFileWatcher(source Reloadable, logger *zap.Logger) (*ItineraryFileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	file, err := filepath.Abs(source.Path())
	if err != nil {
		watcher.Close()
		return nil, err
	}
	return &ItineraryFileWatcher{
		source:      source,
		watcher:     watcher,
		file:        file,
		debounceDur: 200 * time.Millisecond,
		logger:      logging.OrNop(logger).Named("ItineraryFileWatcher"),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. It does not block.
func (fw *ItineraryFileWatcher) Start(ctx context.Context) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	if fw.running || fw.closed {
		return nil
	}

	dir := filepath.Dir(fw.file)
	if err := fw.watcher.Add(dir); err != nil {
		return err
	}
	fw.running = true
	fw.logger.Info("watching itinerary", zap.String("file", fw.file))

	go fw.run(ctx)
	return nil
}

// Stop ends the watch loop, waits for it and releases the watcher. A
// stopped watcher cannot be restarted.
func (fw *ItineraryFileWatcher) Stop() {
	fw.mu.Lock()
	if fw.closed {
		fw.mu.Unlock()
		return
	}
	fw.closed = true
	running := fw.running
	fw.running = false
	fw.mu.Unlock()

	if running {
		close(fw.stopCh)
		<-fw.doneCh
	}

	if err := fw.watcher.Close(); err != nil {
		fw.logger.Error("error closing watcher", zap.Error(err))
	}
	fw.logger.Info("stopped")
}

func (fw *ItineraryFileWatcher) run(ctx context.Context) {
	defer close(fw.doneCh)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return

		case <-fw.stopCh:
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if fw.relevant(event) {
				fw.logger.Debug("itinerary changed", zap.String("op", event.Op.String()))
				pending = time.After(fw.debounceDur)
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Error("watcher error", zap.Error(err))

		case <-pending:
			pending = nil
			fw.source.Reload()
		}
	}
}

func (fw *ItineraryFileWatcher) relevant(event fsnotify.Event) bool {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != fw.file {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}
