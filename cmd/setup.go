package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lunbi/lunbi/db"
	"github.com/lunbi/lunbi/internal/assistant"
	"github.com/lunbi/lunbi/internal/config"
	"github.com/lunbi/lunbi/internal/database"
	"github.com/lunbi/lunbi/internal/knowledge"
	"github.com/lunbi/lunbi/internal/llm"
	"github.com/lunbi/lunbi/internal/log"
	"github.com/lunbi/lunbi/internal/prompt"
	"github.com/lunbi/lunbi/internal/source"
	"github.com/lunbi/lunbi/internal/translate"
)

// app bundles the wired components shared by serve and ask.
type app struct {
	Config  *config.Config
	Logger  log.Logger
	Pool    *pgxpool.Pool
	Service *prompt.Service
}

// Close releases process-wide resources.
func (a *app) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

// setup loads configuration and constructs the full pipeline. Clients are
// built once per process and passed by reference into the components.
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	logger := log.New(log.Config{Level: slog.LevelInfo, JSON: cfg.LogJSON})
	slog.SetDefault(logger)

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	pool, err := database.Connect(ctx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	model, err := llm.New(ctx, llm.Config{
		ModelName:     cfg.ModelName,
		EmbedderModel: cfg.EmbedderModel,
		Temperature:   cfg.Temperature,
	}, logger.With("component", "llm"))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("initializing model client: %w", err)
	}

	store, err := knowledge.New(pool, model.Embedder(), logger.With("component", "knowledge"))
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("initializing knowledge store: %w", err)
	}

	translator := translate.New(model, logger.With("component", "translate"))
	pipeline := assistant.New(store, model, logger.With("component", "assistant"))

	sourceStore := source.NewStore(pool, logger.With("component", "source"))
	catalog := source.NewCatalog(sourceStore, logger.With("component", "catalog"))
	resolver := source.NewResolver(sourceStore, catalog, logger.With("component", "resolver"))

	promptStore := prompt.NewStore(pool, logger.With("component", "prompt"))
	service := prompt.NewService(pipeline, translator, resolver, promptStore,
		cfg.DefaultLanguage, logger.With("component", "service"))

	return &app{
		Config:  cfg,
		Logger:  logger,
		Pool:    pool,
		Service: service,
	}, nil
}
