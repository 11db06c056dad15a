package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"trip-viewer/config"
	services "trip-viewer/service"
)

const containerFixture = `{"days": [
	{"date": "2025-03-29", "title": "Asakusa", "itineraryItems": [{"type": "sight", "name": "Senso-ji"}]},
	{"date": "2025-03-28", "title": "Arrival", "itineraryItems": []}
]}`

func testConfig(t *testing.T, env string) *config.Config {
	t.Helper()
	file := filepath.Join(t.TempDir(), "itinerary.json")
	require.NoError(t, os.WriteFile(file, []byte(containerFixture), 0o644))
	return &config.Config{
		Env:             env,
		Version:         "1.4.0",
		ServerAddress:   ":0",
		ItineraryFile:   file,
		ServerBaseURL:   "http://trip.invalid",
		ResourcePath:    config.ITINERARY_RESOURCE_PATH,
		MaxAttempts:     3,
		RetryBaseDelay:  time.Millisecond,
		ProbeInterval:   time.Hour,
		VersionInterval: time.Hour,
		NotificationTTL: time.Second,
		RateLimitPerSec: 100,
		RateLimitBurst:  100,
		Locale:          "en",
	}
}

func TestViewerContainer_LocalLoadsAndInitializesUI(t *testing.T) {
	timeNow = func() time.Time { return time.Date(2025, 3, 29, 9, 0, 0, 0, time.Local) }
	defer func() { timeNow = time.Now }()

	c, err := NewViewerContainer(testConfig(t, "local"), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	var kinds []services.NotificationKind
	notified := make(chan struct{}, 1)
	c.LifecycleObserver.Subscribe(func(n services.Notification) {
		kinds = append(kinds, n.Kind)
		notified <- struct{}{}
	})

	c.Start(context.Background(), false)

	require.Eventually(t, func() bool {
		return c.DataLoader.State().Phase == services.PhaseLoaded && c.UIStateStore.SelectedDay() == 1
	}, 2*time.Second, 5*time.Millisecond)

	days := c.DataLoader.Data()
	require.Len(t, days, 2)
	assert.Equal(t, "2025-03-28", days[0].Date)
	assert.Equal(t, "Friday", days[0].Weekday)

	<-notified
	assert.Equal(t, []services.NotificationKind{services.NotificationOfflineReady}, kinds)
	assert.NotNil(t, c.VersionWatcher.Current())
}

func TestServerContainer_ServesItinerary(t *testing.T) {
	c, err := NewServerContainer(testConfig(t, "dev"), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.ItineraryFileWatcher.Stop()

	handler := c.ItineraryHttpServer.Handler()
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", config.ITINERARY_RESOURCE_PATH, nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, containerFixture, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("ETag"))
}

func TestServerContainer_RejectsInvalidItinerary(t *testing.T) {
	cfg := testConfig(t, "dev")
	require.NoError(t, os.WriteFile(cfg.ItineraryFile, []byte(`[]`), 0o644))

	_, err := NewServerContainer(cfg, zaptest.NewLogger(t))

	assert.ErrorIs(t, err, services.ErrInvalidItinerary)
}
