package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"trip-viewer/config"
	"trip-viewer/logging"
)

var (
	// ErrNoInstallPrompt means the platform has not offered installation.
	ErrNoInstallPrompt = errors.New("install prompt is not available")
	// ErrInstallDismissed means the user declined the install prompt.
	ErrInstallDismissed = errors.New("install prompt dismissed by user")
	// ErrNoUpdateWaiting means there is no downloaded update to activate.
	ErrNoUpdateWaiting = errors.New("no update is waiting")
)

// InstallPrompt is a deferred platform install prompt. Prompt shows it and
// reports whether the user accepted.
type InstallPrompt interface {
	Prompt(ctx context.Context) (accepted bool, err error)
}

// UpdateActivator activates a downloaded application version.
type UpdateActivator interface {
	Activate(ctx context.Context) error
}

// NotificationKind identifies a lifecycle notification.
type NotificationKind string

const (
	NotificationOfflineReady  NotificationKind = "offline-ready"
	NotificationUpdateApplied NotificationKind = "update-applied"
	// NotificationUpdateAvailable means automatic activation failed and the
	// update is waiting for UpdateApp.
	NotificationUpdateAvailable NotificationKind = "update-available"
	NotificationAppInstalled    NotificationKind = "app-installed"
)

// Notification is a transient message for the presentation layer. It
// should be dismissed once ExpiresAt has passed.
type Notification struct {
	ID        string
	Kind      NotificationKind
	Title     string
	Message   string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the notification should no longer be shown.
func (n Notification) Expired(now time.Time) bool {
	return !now.Before(n.ExpiresAt)
}

// LifecycleObserver turns the platform's install, update and offline-ready
// signals into state and notifications. It never renders anything.
type LifecycleObserver struct {
	ttl    time.Duration
	now    func() time.Time
	logger *zap.Logger

	mu               sync.Mutex
	installPrompt    InstallPrompt
	pendingUpdate    UpdateActivator
	offlineReadySent bool
	subscribers      map[int]func(Notification)
	nextID           int
}

// NewLifecycleObserver creates an observer whose notifications live for ttl
// (the configured default when ttl is zero).
func NewLifecycleObserver(ttl time.Duration, logger *zap.Logger) *LifecycleObserver {
	if ttl <= 0 {
		ttl = config.NOTIFICATION_TTL_SECONDS * time.Second
	}
	return &LifecycleObserver{
		ttl:         ttl,
		now:         time.Now,
		logger:      logging.OrNop(logger).Named("LifecycleObserver"),
		subscribers: make(map[int]func(Notification)),
	}
}

// CanInstall reports whether an install prompt has been captured.
func (o *LifecycleObserver) CanInstall() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.installPrompt != nil
}

// IsUpdateAvailable reports whether an update is waiting for manual
// activation after automatic activation failed.
func (o *LifecycleObserver) IsUpdateAvailable() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pendingUpdate != nil
}

// HandleInstallPromptAvailable captures the platform's install prompt. The
// returned true tells the platform bridge to suppress its default install UI.
func (o *LifecycleObserver) HandleInstallPromptAvailable(prompt InstallPrompt) bool {
	o.mu.Lock()
	o.installPrompt = prompt
	o.mu.Unlock()
	o.logger.Info("install prompt captured")
	return true
}

// HandleAppInstalled clears the captured prompt once the app is installed.
func (o *LifecycleObserver) HandleAppInstalled() {
	o.mu.Lock()
	o.installPrompt = nil
	o.mu.Unlock()
	o.logger.Info("app installed")
	o.emit(NotificationAppInstalled, "App installed", "The itinerary is now available from your home screen.")
}

// InstallApp replays the captured prompt. It returns ErrInstallDismissed if
// the user declines; the prompt can only be used once either way.
func (o *LifecycleObserver) InstallApp(ctx context.Context) error {
	o.mu.Lock()
	prompt := o.installPrompt
	o.installPrompt = nil
	o.mu.Unlock()

	if prompt == nil {
		return ErrNoInstallPrompt
	}
	accepted, err := prompt.Prompt(ctx)
	if err != nil {
		return fmt.Errorf("install prompt failed: %w", err)
	}
	if !accepted {
		o.logger.Info("install prompt dismissed")
		return ErrInstallDismissed
	}
	o.logger.Info("install prompt accepted")
	return nil
}

// HandleUpdateAvailable activates the waiting version right away. On success
// an update-applied notification is emitted; on failure the update is kept
// for a manual UpdateApp.
func (o *LifecycleObserver) HandleUpdateAvailable(ctx context.Context, update UpdateActivator) {
	o.logger.Info("update available, activating automatically")
	if err := update.Activate(ctx); err != nil {
		o.logger.Warn("automatic update activation failed", zap.Error(err))
		o.mu.Lock()
		o.pendingUpdate = update
		o.mu.Unlock()
		o.emit(NotificationUpdateAvailable, "Update available", "A newer itinerary could not be loaded yet. It will be retried.")
		return
	}
	o.mu.Lock()
	o.pendingUpdate = nil
	o.mu.Unlock()
	o.emit(NotificationUpdateApplied, "Updated", "The latest itinerary is now in use.")
}

// UpdateApp retries activation of a waiting update.
func (o *LifecycleObserver) UpdateApp(ctx context.Context) error {
	o.mu.Lock()
	update := o.pendingUpdate
	o.mu.Unlock()

	if update == nil {
		return ErrNoUpdateWaiting
	}
	if err := update.Activate(ctx); err != nil {
		return fmt.Errorf("update activation failed: %w", err)
	}

	o.mu.Lock()
	if o.pendingUpdate == update {
		o.pendingUpdate = nil
	}
	o.mu.Unlock()
	o.emit(NotificationUpdateApplied, "Updated", "The latest itinerary is now in use.")
	return nil
}

// HandleOfflineReady emits the offline-ready notification, once.
func (o *LifecycleObserver) HandleOfflineReady() {
	o.mu.Lock()
	if o.offlineReadySent {
		o.mu.Unlock()
		return
	}
	o.offlineReadySent = true
	o.mu.Unlock()
	o.emit(NotificationOfflineReady, "Ready offline", "The itinerary has been saved and works without a connection.")
}

// Subscribe registers fn for notifications and returns its unsubscribe func.
func (o *LifecycleObserver) Subscribe(fn func(Notification)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()
	id := o.nextID
	o.nextID++
	o.subscribers[id] = fn
	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		delete(o.subscribers, id)
	}
}

func (o *LifecycleObserver) emit(kind NotificationKind, title, message string) {
	created := o.now()
	n := Notification{
		ID:        uuid.NewString(),
		Kind:      kind,
		Title:     title,
		Message:   message,
		CreatedAt: created,
		ExpiresAt: created.Add(o.ttl),
	}

	o.mu.Lock()
	subs := make([]func(Notification), 0, len(o.subscribers))
	for _, fn := range o.subscribers {
		subs = append(subs, fn)
	}
	o.mu.Unlock()

	o.logger.Debug("notification", zap.String("kind", string(kind)), zap.String("id", n.ID))
	for _, fn := range subs {
		fn(n)
	}
}
