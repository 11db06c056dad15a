package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"trip-viewer/api/itinerary"
	"trip-viewer/config"
	"trip-viewer/logging"
	"trip-viewer/models/trip"
	"trip-viewer/util"
	"trip-viewer/validation"
)

// OFFLINE_NO_DATA_MESSAGE is the error shown when there is neither a
// network nor a cached copy.
const OFFLINE_NO_DATA_MESSAGE = "You are offline and no saved copy of the itinerary is available. Reconnect to the internet and try again."

// INVALID_DATA_MESSAGE_PREFIX prefixes the joined validation errors.
const INVALID_DATA_MESSAGE_PREFIX = "Itinerary data is invalid: "

// ErrLoaderClosed is returned by Refresh after Close.
var ErrLoaderClosed = errors.New("data loader is closed")

// LoadPhase is the variant of a LoadState.
type LoadPhase int

const (
	PhaseLoading LoadPhase = iota
	PhaseLoaded
	PhaseError
)

func (p LoadPhase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseLoaded:
		return "loaded"
	case PhaseError:
		return "error"
	default:
		return fmt.Sprintf("LoadPhase(%d)", int(p))
	}
}

// LoadState is the loader's current phase. Days is set only when Loaded and
// Message only on Error. A state is always replaced wholesale.
type LoadState struct {
	Phase   LoadPhase
	Days    []trip.TripDay
	Message string
}

func (s LoadState) IsLoading() bool {
	return s.Phase == PhaseLoading
}

// ItineraryFetcher issues one request for the itinerary resource.
type ItineraryFetcher interface {
	FetchItinerary(ctx context.Context) ([]byte, error)
}

// Connectivity is the read side of the ConnectivityObserver.
type Connectivity interface {
	IsOnline() bool
	Subscribe(fn func(online bool)) func()
}

// DataLoaderOptions tunes the retry policy. Zero values take the defaults
// from config.
type DataLoaderOptions struct {
	MaxAttempts int
	BaseDelay   time.Duration
	// After is the timer used between attempts; defaults to time.After.
	After     func(d time.Duration) <-chan time.Time
	Formatter *util.DateFormatter
}

// DataLoader fetches, validates and publishes the itinerary. At most one
// fetch sequence is live at a time: a new Refresh supersedes the previous
// one, cancelling its pending retry and discarding its in-flight response.
type DataLoader struct {
	fetcher      ItineraryFetcher
	connectivity Connectivity
	opts         DataLoaderOptions
	logger       *zap.Logger

	// notifyMu serializes state delivery so subscribers observe
	// transitions in the order they were made.
	notifyMu sync.Mutex

	mu          sync.Mutex
	state       LoadState
	generation  uint64
	cancelRun   context.CancelFunc
	subscribers []loadSubscriber
	nextID      int
	unsubscribe func()
	closed      bool

	wg sync.WaitGroup
}

// NewDataLoader creates a loader in the Loading state. Call Start to begin.
func NewDataLoader(fetcher ItineraryFetcher, connectivity Connectivity, opts DataLoaderOptions, logger *zap.Logger) *DataLoader {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = config.DATA_LOADER_MAX_ATTEMPTS
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = config.DATA_LOADER_RETRY_BASE_DELAY_SECONDS * time.Second
	}
	if opts.After == nil {
		opts.After = time.After
	}
	if opts.Formatter == nil {
		opts.Formatter = util.NewDateFormatter(util.LocaleEnglish)
	}
	return &DataLoader{
		fetcher:      fetcher,
		connectivity: connectivity,
		opts:         opts,
		logger:       logging.OrNop(logger).Named("DataLoader"),
		state:        LoadState{Phase: PhaseLoading},
	}
}

// Start begins the first fetch and refetches whenever connectivity comes
// back online. It does not block.
func (l *DataLoader) Start() {
	l.mu.Lock()
	if l.closed || l.unsubscribe != nil {
		l.mu.Unlock()
		return
	}
	l.unsubscribe = l.connectivity.Subscribe(func(online bool) {
		if online {
			l.logger.Info("back online, refetching itinerary")
			l.begin()
		}
	})
	l.mu.Unlock()

	l.begin()
}

// Refresh re-enters Loading from any state with a fresh attempt counter and
// waits for that fetch sequence to end. It returns nil once the sequence
// finishes, even if it finished in the Error state or was superseded.
func (l *DataLoader) Refresh(ctx context.Context) error {
	done, err := l.begin()
	if err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current LoadState.
func (l *DataLoader) State() LoadState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *DataLoader) Data() []trip.TripDay {
	return l.State().Days
}

func (l *DataLoader) IsLoading() bool {
	return l.State().IsLoading()
}

// Err returns the error message, or "" when not in the Error state.
func (l *DataLoader) Err() string {
	return l.State().Message
}

type loadSubscriber struct {
	id int
	fn func(LoadState)
}

// Subscribe registers fn to be called synchronously on every state change.
// Subscribers run in registration order. fn must not call Refresh or Close
// synchronously.
func (l *DataLoader) Subscribe(fn func(LoadState)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextID
	l.nextID++
	l.subscribers = append(l.subscribers, loadSubscriber{id: id, fn: fn})
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		for i, sub := range l.subscribers {
			if sub.id == id {
				l.subscribers = append(l.subscribers[:i:i], l.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Close cancels any pending retry, ignores any in-flight response and waits
// for the fetch goroutine to exit. No state change is published afterwards.
func (l *DataLoader) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.closed = true
	if l.cancelRun != nil {
		l.cancelRun()
		l.cancelRun = nil
	}
	unsubscribe := l.unsubscribe
	l.unsubscribe = nil
	l.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	l.wg.Wait()
}

// begin supersedes the current sequence and starts a new one.
func (l *DataLoader) begin() (<-chan struct{}, error) {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil, ErrLoaderClosed
	}
	if l.cancelRun != nil {
		l.cancelRun()
	}
	l.generation++
	gen := l.generation
	ctx, cancel := context.WithCancel(context.Background())
	l.cancelRun = cancel
	changed := l.state.Phase != PhaseLoading
	l.state = LoadState{Phase: PhaseLoading}
	subs := l.snapshotSubscribersLocked()
	done := make(chan struct{})
	l.wg.Add(1)
	l.mu.Unlock()

	if changed {
		for _, fn := range subs {
			fn(LoadState{Phase: PhaseLoading})
		}
	}

	go l.run(ctx, gen, done)
	return done, nil
}

func (l *DataLoader) run(ctx context.Context, gen uint64, done chan struct{}) {
	defer l.wg.Done()
	defer close(done)

	for attempt := 1; ; attempt++ {
		l.logger.Debug("fetching itinerary", zap.Int("attempt", attempt), zap.Uint64("generation", gen))
		body, err := l.fetcher.FetchItinerary(ctx)
		if ctx.Err() != nil {
			l.logger.Debug("fetch superseded, dropping response", zap.Uint64("generation", gen))
			return
		}

		if err == nil {
			days, problem := l.decode(body)
			if problem != "" {
				l.logger.Warn("itinerary failed validation", zap.String("errors", problem))
				l.setState(gen, LoadState{Phase: PhaseError, Message: problem})
				return
			}
			l.logger.Info("itinerary loaded", zap.Int("days", len(days)), zap.Int("attempt", attempt))
			l.setState(gen, LoadState{Phase: PhaseLoaded, Days: days})
			return
		}

		if l.isOffline(err) {
			l.logger.Warn("fetch failed while offline", zap.Error(err))
			l.setState(gen, LoadState{Phase: PhaseError, Message: OFFLINE_NO_DATA_MESSAGE})
			return
		}

		if attempt >= l.opts.MaxAttempts {
			l.logger.Error("giving up on itinerary fetch", zap.Int("attempts", attempt), zap.Error(err))
			l.setState(gen, LoadState{Phase: PhaseError, Message: err.Error()})
			return
		}

		wait := time.Duration(attempt) * l.opts.BaseDelay
		l.logger.Warn("fetch failed, retrying",
			zap.Int("attempt", attempt), zap.Int("max_attempts", l.opts.MaxAttempts),
			zap.Duration("wait", wait), zap.Error(err))
		select {
		case <-l.opts.After(wait):
		case <-ctx.Done():
			return
		}

		if !l.connectivity.IsOnline() {
			l.logger.Warn("went offline during backoff, not retrying")
			l.setState(gen, LoadState{Phase: PhaseError, Message: OFFLINE_NO_DATA_MESSAGE})
			return
		}
	}
}

func (l *DataLoader) isOffline(err error) bool {
	return errors.Is(err, itinerary.ErrOffline) || !l.connectivity.IsOnline()
}

// decode validates and normalizes a response. A non-empty problem means a
// content error, which is never retried.
func (l *DataLoader) decode(body []byte) ([]trip.TripDay, string) {
	result := validation.ValidateJSON(body)
	if !result.IsValid {
		return nil, INVALID_DATA_MESSAGE_PREFIX + result.Message()
	}
	days, err := trip.DecodeDays(body)
	if err != nil {
		return nil, INVALID_DATA_MESSAGE_PREFIX + err.Error()
	}
	return NormalizeTripDays(days, l.opts.Formatter), ""
}

// setState publishes st if gen is still the live sequence.
func (l *DataLoader) setState(gen uint64, st LoadState) {
	l.notifyMu.Lock()
	defer l.notifyMu.Unlock()

	l.mu.Lock()
	if l.closed || gen != l.generation {
		l.mu.Unlock()
		return
	}
	l.state = st
	if l.cancelRun != nil {
		l.cancelRun()
		l.cancelRun = nil
	}
	subs := l.snapshotSubscribersLocked()
	l.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

func (l *DataLoader) snapshotSubscribersLocked() []func(LoadState) {
	subs := make([]func(LoadState), 0, len(l.subscribers))
	for _, sub := range l.subscribers {
		subs = append(subs, sub.fn)
	}
	return subs
}
