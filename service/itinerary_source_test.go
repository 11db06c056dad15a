package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"trip-viewer/util"
	"trip-viewer/validation"
)

func writeItinerary(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestSource(t *testing.T, content string) *ItinerarySource {
	t.Helper()
	path := filepath.Join(t.TempDir(), "itinerary.json")
	writeItinerary(t, path, content)
	return NewItinerarySource(path, "1.4.0", util.NewDateFormatter(util.LocaleEnglish), zaptest.NewLogger(t))
}

func TestItinerarySource_ReloadPublishesNormalizedDays(t *testing.T) {
	s := newTestSource(t, loaderFixture)

	result, err := s.Reload()

	require.NoError(t, err)
	assert.True(t, result.IsValid)
	content := s.Content()
	require.NotNil(t, content)
	require.Len(t, content.Days, 2)
	assert.Equal(t, "2025-03-28", content.Days[0].Date)
	assert.Equal(t, "Saturday", content.Days[1].Weekday)
	assert.Equal(t, util.ContentVersion([]byte(loaderFixture)), content.Version)
	assert.Equal(t, []byte(loaderFixture), content.Raw)

	version, err := s.AppVersion()
	require.NoError(t, err)
	assert.Equal(t, "1.4.0", version.Version)
	assert.Equal(t, content.Version, version.ContentVersion)
}

func TestItinerarySource_InvalidReloadKeepsLastGoodContent(t *testing.T) {
	s := newTestSource(t, loaderFixture)
	_, err := s.Reload()
	require.NoError(t, err)
	good := s.Content()

	writeItinerary(t, s.Path(), `[{"date": "2025-03-28"}]`)
	result, err := s.Reload()

	assert.ErrorIs(t, err, ErrInvalidItinerary)
	assert.False(t, result.IsValid)
	assert.NotEmpty(t, result.Errors)
	assert.Same(t, good, s.Content())
}

func TestItinerarySource_MissingFile(t *testing.T) {
	s := NewItinerarySource(filepath.Join(t.TempDir(), "missing.json"), "1.4.0", nil, zaptest.NewLogger(t))

	_, err := s.Reload()

	assert.Error(t, err)
	assert.Nil(t, s.Content())
	_, err = s.AppVersion()
	assert.ErrorIs(t, err, ErrNoItinerary)
}

func TestItinerarySource_UnchangedFileIsNotRepublished(t *testing.T) {
	s := newTestSource(t, loaderFixture)
	_, err := s.Reload()
	require.NoError(t, err)
	first := s.Content()

	_, err = s.Reload()

	require.NoError(t, err)
	assert.Same(t, first, s.Content())
}

func TestItinerarySource_ConcurrentReloadsDoNotPublishStaleContent(t *testing.T) {
	s := newTestSource(t, loaderFixture)
	older := []byte(loaderFixture)
	newer := []byte(strings.Replace(loaderFixture, "Asakusa", "Ueno", 1))

	gate := make(chan struct{})
	reading := make(chan struct{}, 2)
	var reads int32
	s.readFile = func(string) ([]byte, error) {
		n := atomic.AddInt32(&reads, 1)
		reading <- struct{}{}
		if n == 1 {
			<-gate
			return older, nil
		}
		return newer, nil
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.Reload()
	}()
	<-reading
	go func() {
		defer wg.Done()
		s.Reload()
	}()

	select {
	case <-reading:
		t.Fatal("second reload read the file while the first was still running")
	case <-time.After(50 * time.Millisecond):
	}
	close(gate)
	wg.Wait()

	content := s.Content()
	require.NotNil(t, content)
	assert.Equal(t, newer, content.Raw)
	assert.Equal(t, int32(2), atomic.LoadInt32(&reads))
}

func TestItineraryFileWatcher_ReloadsOnWrite(t *testing.T) {
	s := newTestSource(t, loaderFixture)
	_, err := s.Reload()
	require.NoError(t, err)
	initial := s.Content().Version

	fw, err := NewItineraryFileWatcher(s, zaptest.NewLogger(t))
	require.NoError(t, err)
	fw.debounceDur = 10 * time.Millisecond
	require.NoError(t, fw.Start(context.Background()))
	defer fw.Stop()

	updated := `[{"date": "2025-04-01", "title": "Kyoto", "itineraryItems": []}]`
	writeItinerary(t, s.Path(), updated)

	assert.Eventually(t, func() bool {
		return s.Content().Version != initial
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "Kyoto", s.Content().Days[0].Title)
}

func TestItineraryFileWatcher_IgnoresOtherFiles(t *testing.T) {
	s := newTestSource(t, loaderFixture)
	reloads := &countingReloadable{Reloadable: s}

	fw, err := NewItineraryFileWatcher(reloads, zaptest.NewLogger(t))
	require.NoError(t, err)
	fw.debounceDur = 10 * time.Millisecond
	require.NoError(t, fw.Start(context.Background()))

	writeItinerary(t, filepath.Join(filepath.Dir(s.Path()), "notes.txt"), "hello")
	time.Sleep(100 * time.Millisecond)
	fw.Stop()
	fw.Stop()

	assert.Equal(t, 0, reloads.count())
}

func TestItineraryRefresherService_RefreshItinerary(t *testing.T) {
	s := newTestSource(t, loaderFixture)
	rs := NewItineraryRefresherService(s, zaptest.NewLogger(t))

	require.NoError(t, rs.RefreshItinerary())
	assert.NotNil(t, s.Content())

	writeItinerary(t, s.Path(), `{}`)
	assert.ErrorIs(t, rs.RefreshItinerary(), ErrInvalidItinerary)
}

func TestItineraryRefresherService_PeriodicJob(t *testing.T) {
	s := newTestSource(t, loaderFixture)
	reloads := &countingReloadable{Reloadable: s}
	rs := NewItineraryRefresherService(reloads, zaptest.NewLogger(t))

	rs.StartPeriodicJob(5 * time.Millisecond)
	assert.Eventually(t, func() bool { return reloads.count() >= 2 }, time.Second, 5*time.Millisecond)
	rs.Stop()
	rs.Stop()
}

type countingReloadable struct {
	Reloadable
	mu sync.Mutex
	n  int
}

func (c *countingReloadable) Reload() (validation.Result, error) {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
	return c.Reloadable.Reload()
}

func (c *countingReloadable) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}
