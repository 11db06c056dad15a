package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakePrompt struct {
	accepted bool
	err      error
	calls    int
}

func (p *fakePrompt) Prompt(ctx context.Context) (bool, error) {
	p.calls++
	return p.accepted, p.err
}

type fakeActivator struct {
	errs  []error
	calls int
}

func (a *fakeActivator) Activate(ctx context.Context) error {
	a.calls++
	if len(a.errs) == 0 {
		return nil
	}
	err := a.errs[0]
	a.errs = a.errs[1:]
	return err
}

func collectNotifications(o *LifecycleObserver) *[]Notification {
	var got []Notification
	o.Subscribe(func(n Notification) { got = append(got, n) })
	return &got
}

func TestLifecycleObserver_InstallAccepted(t *testing.T) {
	o := NewLifecycleObserver(time.Second, zaptest.NewLogger(t))
	prompt := &fakePrompt{accepted: true}

	assert.False(t, o.CanInstall())
	assert.True(t, o.HandleInstallPromptAvailable(prompt))
	assert.True(t, o.CanInstall())

	require.NoError(t, o.InstallApp(context.Background()))
	assert.Equal(t, 1, prompt.calls)
	assert.False(t, o.CanInstall())
}

func TestLifecycleObserver_InstallDismissed(t *testing.T) {
	o := NewLifecycleObserver(time.Second, zaptest.NewLogger(t))
	o.HandleInstallPromptAvailable(&fakePrompt{accepted: false})

	err := o.InstallApp(context.Background())

	assert.ErrorIs(t, err, ErrInstallDismissed)
	assert.ErrorIs(t, o.InstallApp(context.Background()), ErrNoInstallPrompt)
}

func TestLifecycleObserver_InstallPromptError(t *testing.T) {
	o := NewLifecycleObserver(time.Second, zaptest.NewLogger(t))
	o.HandleInstallPromptAvailable(&fakePrompt{err: errors.New("prompt already used")})

	err := o.InstallApp(context.Background())

	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInstallDismissed)
}

func TestLifecycleObserver_AppInstalledClearsPrompt(t *testing.T) {
	o := NewLifecycleObserver(time.Second, zaptest.NewLogger(t))
	got := collectNotifications(o)
	o.HandleInstallPromptAvailable(&fakePrompt{accepted: true})

	o.HandleAppInstalled()

	assert.False(t, o.CanInstall())
	require.Len(t, *got, 1)
	assert.Equal(t, NotificationAppInstalled, (*got)[0].Kind)
}

func TestLifecycleObserver_UpdateAppliedAutomatically(t *testing.T) {
	o := NewLifecycleObserver(3*time.Second, zaptest.NewLogger(t))
	now := time.Date(2025, 3, 28, 9, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return now }
	got := collectNotifications(o)
	update := &fakeActivator{}

	o.HandleUpdateAvailable(context.Background(), update)

	assert.Equal(t, 1, update.calls)
	assert.False(t, o.IsUpdateAvailable())
	require.Len(t, *got, 1)
	n := (*got)[0]
	assert.Equal(t, NotificationUpdateApplied, n.Kind)
	assert.NotEmpty(t, n.ID)
	assert.NotEmpty(t, n.Title)
	assert.Equal(t, now.Add(3*time.Second), n.ExpiresAt)
	assert.False(t, n.Expired(now.Add(2*time.Second)))
	assert.True(t, n.Expired(now.Add(3*time.Second)))
}

func TestLifecycleObserver_UpdateFallsBackToManual(t *testing.T) {
	o := NewLifecycleObserver(time.Second, zaptest.NewLogger(t))
	got := collectNotifications(o)
	update := &fakeActivator{errs: []error{errors.New("activation timed out"), errors.New("still busy")}}

	o.HandleUpdateAvailable(context.Background(), update)

	assert.True(t, o.IsUpdateAvailable())
	require.Len(t, *got, 1)
	assert.Equal(t, NotificationUpdateAvailable, (*got)[0].Kind)

	err := o.UpdateApp(context.Background())
	assert.Error(t, err)
	assert.True(t, o.IsUpdateAvailable())
	assert.Len(t, *got, 1)

	require.NoError(t, o.UpdateApp(context.Background()))
	assert.False(t, o.IsUpdateAvailable())
	assert.Equal(t, 3, update.calls)
	require.Len(t, *got, 2)
	assert.Equal(t, NotificationUpdateApplied, (*got)[1].Kind)
}

func TestLifecycleObserver_UpdateAppWithoutUpdate(t *testing.T) {
	o := NewLifecycleObserver(time.Second, zaptest.NewLogger(t))

	assert.ErrorIs(t, o.UpdateApp(context.Background()), ErrNoUpdateWaiting)
}

func TestLifecycleObserver_OfflineReadyEmittedOnce(t *testing.T) {
	o := NewLifecycleObserver(time.Second, zaptest.NewLogger(t))
	got := collectNotifications(o)

	o.HandleOfflineReady()
	o.HandleOfflineReady()

	require.Len(t, *got, 1)
	assert.Equal(t, NotificationOfflineReady, (*got)[0].Kind)
}

func TestLifecycleObserver_Unsubscribe(t *testing.T) {
	o := NewLifecycleObserver(time.Second, zaptest.NewLogger(t))
	var count int
	unsubscribe := o.Subscribe(func(Notification) { count++ })

	unsubscribe()
	o.HandleOfflineReady()

	assert.Equal(t, 0, count)
}
