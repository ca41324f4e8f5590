//go:build e2e

// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"expert-search/internal/common/config"
	"expert-search/internal/common/database"
	"expert-search/internal/common/logger"
	"expert-search/internal/models"
	"expert-search/internal/search/orchestrator"
	"expert-search/internal/search/sources"
)

const e2eIndex = "experts_e2e"

// Seed data: only e1 is free on weekends and e2 is the only Tuesday-morning match.
var seedExperts = []models.Candidate{
	{ID: "e1", Name: "Ana Weekend", Headline: "Product designer", Skills: []string{"figma", "ux"}, Availability: "Weekends only"},
	{ID: "e2", Name: "Ben Okafor", Headline: "Rust mentor", Skills: []string{"rust", "systems"}, Availability: "Tuesdays around 10:15am"},
	{ID: "e3", Name: "Cy Evenings", Headline: "Python data engineer", Skills: []string{"python"}, Availability: "Mon-Fri after 6pm"},
}

type stack struct {
	cfg  *config.Config
	db   *sql.DB
	es   *elasticsearch.Client
	orch *orchestrator.Orchestrator
}

func setupStack(t *testing.T) *stack {
	t.Helper()

	cfg, err := config.Load()
	require.NoError(t, err)

	// E2E runs against the local docker-compose services.
	cfg.Database.Postgres.Host = envOr("E2E_POSTGRES_HOST", "localhost")
	cfg.Database.Elasticsearch.URL = envOr("E2E_ELASTICSEARCH_URL", "http://localhost:9200")
	cfg.Database.Elasticsearch.Addresses = nil
	cfg.Search.Ranker = config.RankerElasticsearch
	cfg.Search.IndexName = e2eIndex
	cfg.Search.CacheTTL = 0

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err, "PostgreSQL connection failed")
	require.NoError(t, pg.Ping(context.Background()), "PostgreSQL ping failed")
	t.Cleanup(func() { pg.Close() })

	esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
	require.NoError(t, err)
	require.NoError(t, esClient.Ping(context.Background()), "Elasticsearch ping failed")

	s := &stack{cfg: cfg, db: pg.DB, es: esClient.Client}
	s.seedPostgres(t)
	s.seedElasticsearch(t)

	log := logger.NewZapAdapter(zaptest.NewLogger(t))
	set, err := sources.Build(cfg, sources.Backends{Postgres: s.db, Elasticsearch: s.es}, log)
	require.NoError(t, err)

	s.orch, err = orchestrator.New(set.Ranker, set.Directory, set.Directory, orchestrator.WithLogger(log))
	require.NoError(t, err)
	return s
}

func (s *stack) seedPostgres(t *testing.T) {
	ctx := context.Background()
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS experts (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			headline TEXT,
			skills TEXT,
			bio TEXT,
			availability TEXT
		)`)
	require.NoError(t, err)

	for _, e := range seedExperts {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO experts (id, name, headline, skills, availability)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET
				name = EXCLUDED.name, headline = EXCLUDED.headline,
				skills = EXCLUDED.skills, availability = EXCLUDED.availability`,
			e.ID, e.Name, e.Headline, strings.Join(e.Skills, ","), e.Availability)
		require.NoError(t, err)
	}
	t.Cleanup(func() {
		ids := models.CandidateIDs(seedExperts)
		for _, id := range ids {
			s.db.Exec(`DELETE FROM experts WHERE id = $1`, id)
		}
	})
}

func (s *stack) seedElasticsearch(t *testing.T) {
	for _, e := range seedExperts {
		body, err := json.Marshal(e)
		require.NoError(t, err)

		res, err := s.es.Index(e2eIndex, bytes.NewReader(body),
			s.es.Index.WithDocumentID(e.ID),
			s.es.Index.WithRefresh("true"),
		)
		require.NoError(t, err)
		require.False(t, res.IsError(), "index %s: %s", e.ID, res.String())
		res.Body.Close()
	}
	t.Cleanup(func() {
		res, err := s.es.Indices.Delete([]string{e2eIndex})
		if err == nil {
			res.Body.Close()
		}
	})
}

func TestSearchE2E(t *testing.T) {
	s := setupStack(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	t.Run("ranked and filtered", func(t *testing.T) {
		out := s.orch.Search(ctx, "product designer available on weekend", true)

		assert.Equal(t, orchestrator.ProvenanceRankedAndFiltered, out.Provenance)
		assert.Equal(t, []string{"e1"}, out.IDs())
		assert.Empty(t, out.Diagnostics.Errors)
	})

	t.Run("filtering disabled keeps ranking", func(t *testing.T) {
		out := s.orch.Search(ctx, "product designer", false)

		assert.Equal(t, orchestrator.ProvenanceUnfiltered, out.Provenance)
		require.NotEmpty(t, out.Candidates)
		assert.Equal(t, "e1", out.Candidates[0].ID)
	})

	t.Run("broadened fallback", func(t *testing.T) {
		// Only e1 ranks for "designer"; nobody ranked is free Tuesday morning.
		out := s.orch.Search(ctx, "designer on tuesday at 10am", true)

		assert.Equal(t, orchestrator.ProvenanceBroadenedFallback, out.Provenance)
		assert.True(t, out.Diagnostics.FallbackUsed)
		assert.Contains(t, out.IDs(), "e2")
		assert.NotContains(t, out.IDs(), "e1")
	})

	t.Run("compare with plain lookup", func(t *testing.T) {
		constrained, plain := s.orch.Compare(ctx, "rust")

		assert.Equal(t, []string{"e2"}, constrained.IDs())
		assert.Contains(t, plain.IDs(), "e2")
		assert.NotEqual(t, constrained.Diagnostics.InvocationID, plain.Diagnostics.InvocationID)
	})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
