package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/contentagent/config"
	"github.com/mohammad-safakhou/contentagent/internal/pipeline"
	"github.com/mohammad-safakhou/contentagent/internal/queue/streams"
	"github.com/mohammad-safakhou/contentagent/internal/runtime"
	"github.com/mohammad-safakhou/contentagent/internal/store"
	openai_provider "github.com/mohammad-safakhou/contentagent/provider/openai"
	"github.com/mohammad-safakhou/contentagent/tools/web_fetch"
	"github.com/mohammad-safakhou/contentagent/tools/web_search"
)

// app holds the shared dependencies of every command.
type app struct {
	cfg       *config.Config
	store     *store.Store
	rdb       *redis.Client
	llm       *openai_provider.Client
	registry  *streams.SchemaRegistry
	telemetry *runtime.Telemetry
}

func newLogger(prefix string) *log.Logger {
	return log.New(os.Stdout, prefix, log.LstdFlags)
}

// loadApp connects to Postgres and, when withRedis is set, to Redis.
func loadApp(ctx context.Context, cfgPath string, withRedis bool) (*app, error) {
	cfg := config.LoadConfig(cfgPath)

	tele, err := runtime.SetupTelemetry(ctx, cfg.Telemetry, runtime.TelemetryOptions{ServiceName: cfg.Telemetry.ServiceName})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}
	dsn, err := runtime.BuildPostgresDSN(cfg)
	if err != nil {
		return nil, err
	}
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	registry, err := streams.NewContentRegistry()
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	a := &app{
		cfg:       cfg,
		store:     st,
		llm:       openai_provider.NewOpenAIClient(cfg.LLM),
		registry:  registry,
		telemetry: tele,
	}
	if withRedis {
		a.rdb, err = runtime.NewRedisClient(ctx, cfg.Storage.Redis)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
	}
	return a, nil
}

func (a *app) Close(ctx context.Context) {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
	if a.store != nil {
		_ = a.store.Close()
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		log.Printf("warn: telemetry shutdown: %v", err)
	}
}

// orchestrator wires the content pipeline from configuration.
func (a *app) orchestrator(ctx context.Context) (*pipeline.Orchestrator, error) {
	scraper, err := web_fetch.NewScraper(a.cfg.Scraper)
	if err != nil {
		return nil, fmt.Errorf("scraper: %w", err)
	}
	searcher, err := web_search.NewSearcher(ctx, a.cfg.Search)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return pipeline.NewOrchestrator(pipeline.Deps{
		Generator: a.llm,
		Embedder:  a.llm,
		Scraper:   scraper,
		Searcher:  searcher,
		Store:     a.store,
		Models:    a.cfg.LLM.Models,
		Pipeline:  a.cfg.Pipeline,
		Scraping:  a.cfg.Scraper,
		Assets:    a.cfg.Assets,
		Logger:    newLogger("[PIPELINE] "),
		Meter:     a.telemetry.Meter,
		Tracer:    a.telemetry.Tracer,
	})
}
