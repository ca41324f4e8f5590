// internal/search/sources/cache.go
package sources

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	stderrors "expert-search/internal/common/errors"
	"expert-search/internal/common/logger"
	"expert-search/internal/common/metrics"
	"expert-search/internal/models"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "search:ranked:"

// Ranker is the ranked collaborator a CachedRanker wraps.
type Ranker interface {
	RankedSearch(ctx context.Context, query string) ([]models.Candidate, error)
}

// CachedRanker memoizes ranked results in Redis. Cache failures fall through to the inner ranker.
type CachedRanker struct {
	inner  Ranker
	client redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedRanker(inner Ranker, client redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedRanker {
	return &CachedRanker{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"source": "ranked-cache"}),
	}
}

// CacheKey is the Redis key for a query; case differences share an entry.
func CacheKey(query string) string {
	sum := sha1.Sum([]byte(strings.ToLower(query)))
	return cacheKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *CachedRanker) RankedSearch(ctx context.Context, query string) ([]models.Candidate, error) {
	key := CacheKey(query)

	raw, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		var cached []models.Candidate
		jsonErr := json.Unmarshal([]byte(raw), &cached)
		if jsonErr == nil {
			metrics.SearchCacheRequests.WithLabelValues("hit").Inc()
			return cached, nil
		}
		c.cacheFailed("decode", key, jsonErr)
	case errors.Is(err, redis.Nil):
		metrics.SearchCacheRequests.WithLabelValues("miss").Inc()
	default:
		c.cacheFailed("get", key, err)
	}

	candidates, err := c.inner.RankedSearch(ctx, query)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(candidates)
	if err != nil {
		return candidates, nil
	}
	if err := c.client.Set(ctx, key, string(data), c.ttl).Err(); err != nil {
		c.logger.Warn("failed to store ranked results", map[string]interface{}{
			"key":   key,
			"error": stderrors.NewCacheUnavailableError(err),
		})
	}
	return candidates, nil
}

func (c *CachedRanker) cacheFailed(op, key string, err error) {
	metrics.SearchCacheRequests.WithLabelValues("error").Inc()
	c.logger.Warn("ranked cache unavailable, querying ranker directly", map[string]interface{}{
		"op":    op,
		"key":   key,
		"error": stderrors.NewCacheUnavailableError(err),
	})
}
