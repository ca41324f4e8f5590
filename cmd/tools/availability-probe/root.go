// cmd/tools/availability-probe/root.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"expert-search/internal/common/config"
	"expert-search/internal/common/database"
	"expert-search/internal/common/logger"
	"expert-search/internal/search/orchestrator"
	"expert-search/internal/search/sources"

	"github.com/spf13/cobra"
)

// backend is a live orchestrator plus whatever must be released after use.
type backend struct {
	orch     *orchestrator.Orchestrator
	debounce time.Duration
	close    func()
}

type app struct {
	in       io.Reader
	out      io.Writer
	cfgPath  string
	logLevel string
	open     func(ctx context.Context, a *app) (*backend, error)
}

func newApp(in io.Reader, out io.Writer) *app {
	return &app{in: in, out: out, open: openBackend}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "availability-probe",
		Short:         "Inspect availability constraint extraction, matching and search outcomes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)

	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "path to a config.yaml (default: discovered like the worker)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level for live searches")

	root.AddCommand(newExtractCmd(a))
	root.AddCommand(newMatchCmd(a))
	root.AddCommand(newSearchCmd(a))
	root.AddCommand(newWatchCmd(a))
	return root
}

func (a *app) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.cfgPath != "" {
		return config.LoadFromFile(a.cfgPath)
	}
	return config.Load()
}

// openBackend connects the configured stores once, without the worker's retry loop.
// A Redis failure only disables the cache.
func openBackend(ctx context.Context, a *app) (*backend, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	log := logger.NewStructured(a.logLevel, "console")

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		return nil, err
	}
	if err := pg.Ping(ctx); err != nil {
		pg.Close()
		return nil, err
	}

	closers := []func(){func() { pg.Close() }}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	backends := sources.Backends{Postgres: pg.DB}
	if cfg.Search.Ranker == config.RankerElasticsearch {
		esClient, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err == nil {
			err = esClient.Ping(ctx)
		}
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("elasticsearch: %w", err)
		}
		backends.Elasticsearch = esClient.Client
	}
	if cfg.Search.CacheTTL > 0 {
		rdb, err := database.NewRedis(cfg.Database.Redis)
		if err == nil {
			if err = rdb.Ping(ctx); err != nil {
				rdb.Close()
			}
		}
		if err != nil {
			log.Warn("redis unavailable, ranked cache disabled", map[string]interface{}{"error": err.Error()})
		} else {
			backends.Redis = rdb.Client
			closers = append(closers, func() { rdb.Close() })
		}
	}

	set, err := sources.Build(cfg, backends, log)
	if err != nil {
		closeAll()
		return nil, err
	}
	orch, err := orchestrator.New(set.Ranker, set.Directory, set.Directory, orchestrator.WithLogger(log))
	if err != nil {
		closeAll()
		return nil, err
	}

	return &backend{orch: orch, debounce: cfg.Search.Debounce(), close: closeAll}, nil
}
