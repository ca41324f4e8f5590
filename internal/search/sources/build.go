// internal/search/sources/build.go
package sources

import (
	"database/sql"
	"errors"
	"fmt"

	"expert-search/internal/common/config"
	"expert-search/internal/common/logger"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
)

var (
	ErrPostgresRequired      = errors.New("postgres connection required")
	ErrElasticsearchRequired = errors.New("elasticsearch client required for the elasticsearch ranker")
)

// Backends are the connected stores the sources run on. Elasticsearch and Redis are
// optional depending on the search configuration.
type Backends struct {
	Postgres      *sql.DB
	Elasticsearch *elasticsearch.Client
	Redis         redis.Cmdable
}

// Set is the assembled collaborator trio for an orchestrator.
type Set struct {
	Ranker    Ranker
	Directory *PostgresDirectory
}

// Build wires the configured ranker, an optional Redis cache in front of it and the
// Postgres directory.
func Build(cfg *config.Config, b Backends, log logger.Logger) (*Set, error) {
	if b.Postgres == nil {
		return nil, ErrPostgresRequired
	}

	var ranker Ranker
	switch cfg.Search.Ranker {
	case config.RankerElasticsearch:
		if b.Elasticsearch == nil {
			return nil, ErrElasticsearchRequired
		}
		ranker = NewElasticsearchRanker(b.Elasticsearch, cfg.Search.IndexName, cfg.Search.MaxResults, log)
	case config.RankerSemantic:
		ranker = NewSemanticClient(
			cfg.APIs.Semantic.BaseURL,
			cfg.APIs.Semantic.APIKey,
			config.GetDuration(cfg.APIs.Semantic.Timeout),
			cfg.Search.MaxResults,
			log,
		)
	default:
		return nil, fmt.Errorf("unknown ranker %q", cfg.Search.Ranker)
	}

	if ttl := cfg.Search.CacheTTLDuration(); ttl > 0 && b.Redis != nil {
		ranker = NewCachedRanker(ranker, b.Redis, ttl, log)
	}

	return &Set{
		Ranker:    ranker,
		Directory: NewPostgresDirectory(b.Postgres, cfg.Search.FallbackLimit, cfg.Search.MaxResults, log),
	}, nil
}
