package redis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"trip-viewer/db"
)

// OFFLINE_CACHE_KEY_FORMAT keys cached responses by request URL.
const OFFLINE_CACHE_KEY_FORMAT = "offline_cache_v1:%s"

// CachedResponse is a stored copy of a successful GET.
type CachedResponse struct {
	URL      string    `json:"url"`
	Body     []byte    `json:"body"`
	ETag     string    `json:"etag,omitempty"`
	StoredAt time.Time `json:"stored_at"`
}

// RedisOfflineCacheDAO is the offline cache: a byte store keyed by URL.
type RedisOfflineCacheDAO struct {
	client db.RedisClient
	now    func() time.Time
}

// NewRedisOfflineCacheDAO initializes a RedisOfflineCacheDAO with the Redis client.
func NewRedisOfflineCacheDAO(client db.RedisClient) *RedisOfflineCacheDAO {
	return &RedisOfflineCacheDAO{client: client, now: time.Now}
}

// Put stores body as the latest response for url.
func (dao *RedisOfflineCacheDAO) Put(url string, body []byte, etag string) error {
	entry := CachedResponse{URL: url, Body: body, ETag: etag, StoredAt: dao.now()}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cached response for %s: %w", url, err)
	}
	if err := dao.client.Set(fmt.Sprintf(OFFLINE_CACHE_KEY_FORMAT, url), string(data)); err != nil {
		return fmt.Errorf("failed to set cached response in redis: %w", err)
	}
	return nil
}

// Get returns the cached response for url, or nil on a cache miss.
func (dao *RedisOfflineCacheDAO) Get(url string) (*CachedResponse, error) {
	str, err := dao.client.Get(fmt.Sprintf(OFFLINE_CACHE_KEY_FORMAT, url))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cached response from redis: %w", err)
	}
	var entry CachedResponse
	if err := json.Unmarshal([]byte(str), &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached response JSON: %w", err)
	}
	return &entry, nil
}

func (dao *RedisOfflineCacheDAO) Delete(url string) error {
	key := fmt.Sprintf(OFFLINE_CACHE_KEY_FORMAT, url)
	if err := dao.client.Del(key); err != nil {
		return fmt.Errorf("failed to delete cached response %s: %w", key, err)
	}
	return nil
}

// ListCachedURLs returns the URLs of all cached responses.
func (dao *RedisOfflineCacheDAO) ListCachedURLs() ([]string, error) {
	keys, err := dao.client.Keys(fmt.Sprintf(OFFLINE_CACHE_KEY_FORMAT, "*"))
	if err != nil {
		return nil, fmt.Errorf("failed to list cached response keys: %w", err)
	}
	prefix := fmt.Sprintf(OFFLINE_CACHE_KEY_FORMAT, "")
	urls := make([]string, 0, len(keys))
	for _, k := range keys {
		urls = append(urls, strings.TrimPrefix(k, prefix))
	}
	return urls, nil
}
