package services

import (
	"sync"

	"go.uber.org/zap"

	"trip-viewer/logging"
)

// ConnectivityObserver holds the current online/offline state. SetOnline is
// the single writer (the platform bridge); any number of readers may call
// IsOnline or subscribe. Every transition is reported, without debouncing.
type ConnectivityObserver struct {
	mu          sync.RWMutex
	online      bool
	nextID      int
	subscribers map[int]func(online bool)
	logger      *zap.Logger
}

// NewConnectivityObserver starts from the platform's current flag.
func NewConnectivityObserver(initiallyOnline bool, logger *zap.Logger) *ConnectivityObserver {
	return &ConnectivityObserver{
		online:      initiallyOnline,
		subscribers: make(map[int]func(bool)),
		logger:      logging.OrNop(logger).Named("ConnectivityObserver"),
	}
}

func (c *ConnectivityObserver) IsOnline() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.online
}

// SetOnline records a platform online/offline event. Subscribers are called
// synchronously, only when the state actually changes.
func (c *ConnectivityObserver) SetOnline(online bool) {
	c.mu.Lock()
	if c.online == online {
		c.mu.Unlock()
		return
	}
	c.online = online
	subs := make([]func(bool), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	c.logger.Info("connectivity changed", zap.Bool("online", online))
	for _, fn := range subs {
		fn(online)
	}
}

// Subscribe registers fn for transitions and returns its unsubscribe func.
func (c *ConnectivityObserver) Subscribe(fn func(online bool)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.subscribers[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subscribers, id)
	}
}
