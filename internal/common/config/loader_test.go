// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const baseYAML = `
camunda:
  broker_address: localhost:26500
database:
  postgres:
    host: localhost
    database: experts
    user: search
  elasticsearch:
    addresses:
      - http://localhost:9200
  redis:
    address: localhost:6379
workers:
  expert-search:
    enabled: true
  match-availability:
    enabled: false
    timeout: 5000
`

func TestLoadFromFile_Defaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, baseYAML))
	require.NoError(t, err)

	assert.Equal(t, "expert-search", cfg.App.Name)
	assert.Equal(t, RankerElasticsearch, cfg.Search.Ranker)
	assert.Equal(t, "experts", cfg.Search.IndexName)
	assert.Equal(t, 20, cfg.Search.MaxResults)
	assert.Equal(t, 500, cfg.Search.FallbackLimit)
	assert.Equal(t, 300*time.Millisecond, cfg.Search.Debounce())
	assert.Equal(t, time.Duration(0), cfg.Search.CacheTTLDuration())
	assert.Equal(t, "http://localhost:9200", cfg.Database.Elasticsearch.URL)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, "info", cfg.Logging.Level)

	es := GetWorkerConfig(cfg, "expert-search")
	assert.True(t, es.Enabled)
	assert.Equal(t, 5, es.MaxJobsActive)
	assert.Equal(t, 30000, es.Timeout)

	assert.False(t, IsWorkerEnabled(cfg, "match-availability"))
	assert.Equal(t, 5000, GetWorkerConfig(cfg, "match-availability").Timeout)
	assert.True(t, IsWorkerEnabled(cfg, "extract-availability-constraints"))
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_SEMANTIC_URL", "http://semantic.local")
	body := baseYAML + `
search:
  ranker: semantic
  cache_ttl: 60
apis:
  semantic:
    base_url: ${TEST_SEMANTIC_URL}
`
	cfg, err := LoadFromFile(writeConfig(t, body))
	require.NoError(t, err)

	assert.Equal(t, RankerSemantic, cfg.Search.Ranker)
	assert.Equal(t, "http://semantic.local", cfg.APIs.Semantic.BaseURL)
	assert.Equal(t, time.Minute, cfg.Search.CacheTTLDuration())
	assert.Equal(t, 10000, cfg.APIs.Semantic.Timeout)
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Camunda.BrokerAddress = "localhost:26500"
		cfg.Database.Postgres = PostgresConfig{Host: "db", Database: "experts", User: "search"}
		cfg.Database.Elasticsearch.URL = "http://es:9200"
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing broker", mutate: func(c *Config) { c.Camunda.BrokerAddress = "" }, wantErr: "camunda.broker_address"},
		{name: "missing postgres host", mutate: func(c *Config) { c.Database.Postgres.Host = "" }, wantErr: "database.postgres.host"},
		{name: "elasticsearch ranker without address", mutate: func(c *Config) { c.Database.Elasticsearch.URL = "" }, wantErr: "elasticsearch"},
		{name: "semantic ranker without url", mutate: func(c *Config) { c.Search.Ranker = RankerSemantic }, wantErr: "apis.semantic.base_url"},
		{name: "unknown ranker", mutate: func(c *Config) { c.Search.Ranker = "bm25" }, wantErr: "search.ranker"},
		{name: "cache without redis", mutate: func(c *Config) { c.Search.CacheTTL = 30 }, wantErr: "database.redis.address"},
		{name: "negative cache ttl", mutate: func(c *Config) { c.Search.CacheTTL = -1 }, wantErr: "cache_ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "experts", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=experts sslmode=disable", p.GetDSN())
}
