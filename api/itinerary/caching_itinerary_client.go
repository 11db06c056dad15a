package itinerary

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	cachedao "trip-viewer/dao/redis"
	"trip-viewer/logging"
)

// ErrOffline is returned when the network is known to be down and no cached
// copy of the resource exists.
var ErrOffline = errors.New("network unavailable")

// OfflineCache is the URL-keyed byte store behind the caching client.
type OfflineCache interface {
	Put(url string, body []byte, etag string) error
	Get(url string) (*cachedao.CachedResponse, error)
	Delete(url string) error
	ListCachedURLs() ([]string, error)
}

// CachingItineraryClient puts the offline cache in front of the network
// client: network first, cached copy on failure. The cached copy's ETag is
// sent for revalidation and a 304 is served from the cache. A cache hit is
// returned exactly like a network success.
type CachingItineraryClient struct {
	ItineraryAPI
	cache    OfflineCache
	url      string
	isOnline func() bool
	logger   *zap.Logger

	mu         sync.Mutex
	onCached   func()
	cachedOnce sync.Once
	pruneOnce  sync.Once
}

// NewCachingItineraryClient wraps network. url is the cache key. isOnline
// may be nil, in which case the network is always tried first.
func NewCachingItineraryClient(network ItineraryAPI, cache OfflineCache, url string, isOnline func() bool, logger *zap.Logger) *CachingItineraryClient {
	return &CachingItineraryClient{
		ItineraryAPI: network,
		cache:        cache,
		url:          url,
		isOnline:     isOnline,
		logger:       logging.OrNop(logger).Named("CachingItineraryClient"),
	}
}

// OnCached registers fn to run once, after the first response is stored.
func (c *CachingItineraryClient) OnCached(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onCached = fn
}

func (c *CachingItineraryClient) FetchItinerary(ctx context.Context) ([]byte, error) {
	entry := c.lookup()

	netErr := ErrOffline
	if c.isOnline == nil || c.isOnline() {
		etag := ""
		if entry != nil {
			etag = entry.ETag
		}
		res, err := c.ItineraryAPI.FetchItineraryIfNoneMatch(ctx, etag)
		switch {
		case err == nil && res.NotModified && entry != nil:
			c.logger.Debug("itinerary not modified, serving cached copy", zap.String("url", c.url), zap.String("etag", etag))
			c.markCached()
			return entry.Body, nil
		case err == nil && !res.NotModified:
			c.store(res.Body, res.ETag)
			return res.Body, nil
		case err == nil:
			err = fmt.Errorf("server answered not modified for %s without a cached copy", c.url)
		}
		if ctx.Err() != nil {
			return nil, err
		}
		netErr = err
		c.logger.Debug("network fetch failed, trying offline cache", zap.String("url", c.url), zap.Error(err))
	}

	if entry != nil {
		c.logger.Info("serving itinerary from offline cache",
			zap.String("url", c.url), zap.Time("stored_at", entry.StoredAt))
		return entry.Body, nil
	}
	return nil, netErr
}

func (c *CachingItineraryClient) lookup() *cachedao.CachedResponse {
	entry, err := c.cache.Get(c.url)
	if err != nil {
		c.logger.Warn("offline cache lookup failed", zap.String("url", c.url), zap.Error(err))
		return nil
	}
	return entry
}

func (c *CachingItineraryClient) store(body []byte, etag string) {
	if err := c.cache.Put(c.url, body, etag); err != nil {
		c.logger.Warn("failed to store itinerary in offline cache", zap.String("url", c.url), zap.Error(err))
		return
	}
	c.markCached()
}

// markCached runs once a current copy is known to be in the cache.
func (c *CachingItineraryClient) markCached() {
	c.pruneOnce.Do(c.pruneOutdated)

	c.mu.Lock()
	fn := c.onCached
	c.mu.Unlock()
	if fn != nil {
		c.cachedOnce.Do(fn)
	}
}

// pruneOutdated drops entries cached under any other resource URL.
func (c *CachingItineraryClient) pruneOutdated() {
	urls, err := c.cache.ListCachedURLs()
	if err != nil {
		c.logger.Warn("failed to list offline cache", zap.Error(err))
		return
	}
	for _, url := range urls {
		if url == c.url {
			continue
		}
		if err := c.cache.Delete(url); err != nil {
			c.logger.Warn("failed to prune offline cache entry", zap.String("url", url), zap.Error(err))
			continue
		}
		c.logger.Info("pruned outdated offline cache entry", zap.String("url", url))
	}
}
