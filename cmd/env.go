package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/madalingavanarescu/competeai/internal/analyzer"
	"github.com/madalingavanarescu/competeai/internal/content"
	"github.com/madalingavanarescu/competeai/internal/fetch"
	"github.com/madalingavanarescu/competeai/internal/orchestrator"
	"github.com/madalingavanarescu/competeai/internal/store"
	anthropicpkg "github.com/madalingavanarescu/competeai/pkg/anthropic"
	"github.com/madalingavanarescu/competeai/pkg/firecrawl"
	"github.com/madalingavanarescu/competeai/pkg/jina"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = "competeai.db"
		}
		return store.NewSQLite(path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initFetcher builds the scrape chain: Firecrawl first, Jina Reader as
// fallback. Fetchers without a configured key are left out.
func initFetcher() fetch.Fetcher {
	var fetchers []fetch.Fetcher
	if cfg.Firecrawl.Key != "" {
		client := firecrawl.NewClient(cfg.Firecrawl.Key, firecrawl.WithBaseURL(cfg.Firecrawl.BaseURL))
		fetchers = append(fetchers, fetch.NewFirecrawlFetcher(client))
	}
	jinaClient := jina.NewClient(cfg.Jina.Key, jina.WithBaseURL(cfg.Jina.BaseURL))
	fetchers = append(fetchers, fetch.NewJinaFetcher(jinaClient))
	return fetch.NewChain(fetchers...)
}

// initOrchestrator wires the full pipeline. A missing Anthropic key is a
// configuration error surfaced here, before any job runs.
func initOrchestrator(st store.Store) (*orchestrator.Orchestrator, error) {
	aiClient, err := anthropicpkg.NewClient(cfg.Anthropic.Key)
	if err != nil {
		return nil, eris.Wrap(err, "init anthropic client")
	}
	if cfg.Anthropic.RequestsPerMinute > 0 {
		aiClient = anthropicpkg.WithRateLimit(aiClient, cfg.Anthropic.RequestsPerMinute)
	}

	fetcher := initFetcher()
	an := analyzer.New(aiClient, fetcher, cfg.Anthropic.Model)
	gen := content.NewGenerator()

	return orchestrator.New(st, an, fetcher, gen, orchestratorConfig()), nil
}

func orchestratorConfig() orchestrator.Config {
	a := cfg.Analysis
	return orchestrator.Config{
		ContextAttempts:    a.ContextAttempts,
		ContextBackoff:     time.Duration(a.ContextBackoffSecs) * time.Second,
		DiscoveryAttempts:  a.DiscoveryAttempts,
		DiscoveryBackoff:   time.Duration(a.DiscoveryBackoffSecs) * time.Second,
		MinCandidates:      a.MinCandidates,
		CompetitorAttempts: a.CompetitorAttempts,
		ScrapeTimeout:      time.Duration(a.ScrapeTimeoutSecs) * time.Second,
		AnalysisTimeout:    time.Duration(a.AnalysisTimeoutSecs) * time.Second,
	}
}
