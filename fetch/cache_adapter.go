package fetch

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/birbparty/birb-fetch/internal/cache"
	"github.com/sirupsen/logrus"
)

// Cache is the store behind the cache adapter.
type Cache = cache.Cache

// CacheEntry is one record of a serialized cache.
type CacheEntry = cache.Entry

// ErrCacheMiss is returned by Cache.Get when a key is absent.
var ErrCacheMiss = cache.ErrKeyNotFound

// cacheAdapter serves fingerprint hits from the active cache and stores the
// sanitized copy of successful misses. Failures are never stored.
func (r *Runtime) cacheAdapter() Adapter {
	return func(ctx context.Context, cfg *RequestConfig) (*Response, error) {
		key, err := Fingerprint(cfg)
		if err != nil {
			return nil, err
		}

		client, store := r.collaborators()
		obs := r.observer()
		log := r.log(ctx).WithField("fingerprint", key)

		raw, err := store.Get(ctx, key)
		switch {
		case err == nil:
			var cached CachedResponse
			if decodeErr := json.Unmarshal(raw, &cached); decodeErr != nil {
				log.WithError(decodeErr).Warn("Discarding unreadable cache entry")
				break
			}
			obs.OnCacheHit(key)
			log.Debug("Cache hit")
			return cached.Response(cfg), nil
		case !errors.Is(err, cache.ErrKeyNotFound):
			log.WithError(err).Warn("Cache lookup failed")
		}
		obs.OnCacheMiss(key)

		next := cfg.Clone()
		next.Adapter = nil
		resp, err := client.Do(ctx, &next)
		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(NewCachedResponse(resp))
		if err != nil {
			log.WithError(err).Warn("Response not cacheable")
			return resp, nil
		}
		if err := store.Set(ctx, key, value, 0); err != nil {
			log.WithError(err).Warn("Cache store failed")
		} else {
			log.WithFields(logrus.Fields{"status": resp.Status, "bytes": len(resp.Data)}).Debug("Cached response")
		}
		return resp, nil
	}
}
