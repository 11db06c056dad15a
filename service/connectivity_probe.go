package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"trip-viewer/logging"
)

// Pinger is anything that can tell whether the itinerary server is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectivityProbe is the platform event bridge for connectivity: it pings
// the itinerary server on an interval and feeds the result to a
// ConnectivityObserver.
type ConnectivityProbe struct {
	pinger   Pinger
	observer *ConnectivityObserver
	timeout  time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewConnectivityProbe(pinger Pinger, observer *ConnectivityObserver, logger *zap.Logger) *ConnectivityProbe {
	return &ConnectivityProbe{
		pinger:   pinger,
		observer: observer,
		timeout:  3 * time.Second,
		logger:   logging.OrNop(logger).Named("ConnectivityProbe"),
	}
}

// CheckNow pings once and reports the result to the observer.
func (p *ConnectivityProbe) CheckNow(parent context.Context) bool {
	ctx, cancel := context.WithTimeout(parent, p.timeout)
	defer cancel()

	err := p.pinger.Ping(ctx)
	if parent.Err() != nil {
		// stopped mid-ping; the result says nothing about the network
		return p.observer.IsOnline()
	}
	if err != nil {
		p.logger.Debug("ping failed", zap.Error(err))
	}
	online := err == nil
	p.observer.SetOnline(online)
	return online
}

// StartPeriodicJob launches the background probe loop at the given interval.
func (p *ConnectivityProbe) StartPeriodicJob(interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	go p.startPeriodicJob(ctx, interval, p.done)
}

func (p *ConnectivityProbe) startPeriodicJob(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.CheckNow(ctx)
		}
	}
}

// Stop ends the probe loop and waits for it to exit.
func (p *ConnectivityProbe) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
