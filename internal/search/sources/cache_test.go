// internal/search/sources/cache_test.go
package sources

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"expert-search/internal/common/logger"
	"expert-search/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRanker struct {
	calls   int
	results []models.Candidate
	err     error
}

func (r *countingRanker) RankedSearch(ctx context.Context, query string) ([]models.Candidate, error) {
	r.calls++
	return r.results, r.err
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey("Go Mentor"), CacheKey("go mentor"))
	assert.NotEqual(t, CacheKey("go mentor"), CacheKey("rust mentor"))
	assert.Regexp(t, `^search:ranked:[0-9a-f]{40}$`, CacheKey("x"))
}

func TestCachedRanker_MissThenHit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	inner := &countingRanker{results: []models.Candidate{{ID: "e-1", Availability: "weekends"}}}
	cached := NewCachedRanker(inner, client, time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	first, err := cached.RankedSearch(ctx, "Design Mentor")
	require.NoError(t, err)
	second, err := cached.RankedSearch(ctx, "design mentor")
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, time.Minute, mr.TTL(CacheKey("design mentor")))
}

func TestCachedRanker_InnerErrorIsNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	inner := &countingRanker{err: errors.New("ranker down")}
	cached := NewCachedRanker(inner, client, time.Minute, logger.NewTestLogger(t))

	_, err := cached.RankedSearch(context.Background(), "q")

	require.Error(t, err)
	assert.False(t, mr.Exists(CacheKey("q")))
}

func TestCachedRanker_CorruptEntryFallsThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	require.NoError(t, mr.Set(CacheKey("q"), "not json"))

	inner := &countingRanker{results: []models.Candidate{{ID: "e-2"}}}
	cached := NewCachedRanker(inner, client, time.Minute, logger.NewTestLogger(t))

	got, err := cached.RankedSearch(context.Background(), "q")

	require.NoError(t, err)
	assert.Equal(t, []string{"e-2"}, models.CandidateIDs(got))
	assert.Equal(t, 1, inner.calls)
}

func TestCachedRanker_RedisErrorsDegradeToInner(t *testing.T) {
	client, mock := redismock.NewClientMock()
	defer client.Close()

	results := []models.Candidate{{ID: "e-3", Availability: "tbd"}}
	payload, err := json.Marshal(results)
	require.NoError(t, err)

	key := CacheKey("python expert")
	mock.ExpectGet(key).SetErr(errors.New("connection refused"))
	mock.ExpectSet(key, string(payload), 30*time.Second).SetErr(errors.New("connection refused"))

	inner := &countingRanker{results: results}
	cached := NewCachedRanker(inner, client, 30*time.Second, logger.NewTestLogger(t))

	got, err := cached.RankedSearch(context.Background(), "python expert")

	require.NoError(t, err)
	assert.Equal(t, results, got)
	assert.Equal(t, 1, inner.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}
