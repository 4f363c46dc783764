// Package app wires the driven adapters and core services into a
// running application.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ragify/ragify/internal/adapters/driven/ai"
	"github.com/ragify/ragify/internal/adapters/driven/config/file"
	"github.com/ragify/ragify/internal/adapters/driven/storage/memory"
	"github.com/ragify/ragify/internal/adapters/driven/storage/sqlite"
	"github.com/ragify/ragify/internal/adapters/driven/storage/uploads"
	"github.com/ragify/ragify/internal/core/domain"
	"github.com/ragify/ragify/internal/core/ports/driven"
	"github.com/ragify/ragify/internal/core/services"
	"github.com/ragify/ragify/internal/extractors"
	"github.com/ragify/ragify/internal/logger"
	"github.com/ragify/ragify/internal/postprocessors"
)

// Config is the configuration layer: the config store and the settings
// materialised from it. Loading it performs no network access.
type Config struct {
	// Dir is the configuration directory.
	Dir string
	// Store is the TOML config store.
	Store *file.ConfigStore
	// Settings materialises domain.Settings from defaults, Store and the environment.
	Settings *services.SettingsService
}

// LoadConfig opens the configuration in dir. An empty dir uses
// file.DefaultDir.
func LoadConfig(dir string) (*Config, error) {
	if dir == "" {
		d, err := file.DefaultDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	store, err := file.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}

	return &Config{
		Dir:      dir,
		Store:    store,
		Settings: services.NewSettingsService(store, dir, os.Getenv),
	}, nil
}

// Options changes how the application is assembled.
type Options struct {
	// Ephemeral keeps sessions in memory instead of on disk.
	Ephemeral bool
}

// App is the assembled application.
type App struct {
	*Runtime

	Config   *Config
	Settings domain.Settings
	Prompts  *file.PromptStore
	Uploads  driven.UploadStore

	ai *ai.InitResult
}

// New builds the application from its configuration. It fails with
// guidance when the embedding or LLM provider is not configured.
func New(ctx context.Context, cfg *Config, opts Options) (*App, error) {
	settings, err := cfg.Settings.Get()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	segmenter, err := postprocessors.NewSegmenter(settings.Segment)
	if err != nil {
		return nil, fmt.Errorf("build segmenter: %w", err)
	}

	store, err := uploads.NewStore(settings.Storage.UploadsDir)
	if err != nil {
		return nil, err
	}

	prompts, err := file.NewPromptStore(filepath.Join(cfg.Dir, "prompts"))
	if err != nil {
		return nil, err
	}

	aiResult, err := ai.Init(ctx, settings)
	if err != nil {
		return nil, err
	}

	registry := extractors.NewDefaultRegistry(extractors.Options{
		FetchTimeout:       settings.Ingest.FetchTimeout,
		Retries:            settings.Resilience.MaxRetries,
		RetryWait:          settings.Resilience.Backoff,
		TranscriptLanguage: settings.Ingest.TranscriptLanguage,
	})

	var opener driven.SessionOpener = sqlite.Opener{}
	if opts.Ephemeral {
		opener = memory.NewOpener()
	}

	indexer := services.NewIndexer(aiResult.EmbeddingService, settings.Embedding.BatchSize)
	retriever := services.NewRetriever(aiResult.EmbeddingService, settings.Retrieval.TopK)

	runtime := NewRuntime(
		services.NewSessionManager(cfg.Store, opener, settings.Storage.DataDir),
		services.NewIngestService(registry, segmenter, indexer, store, settings.Ingest),
		services.NewChatService(retriever, aiResult.LLMService, prompts, settings.LLM.Temperature),
	)

	logger.Debug("embedding model %s, llm model %s",
		aiResult.EmbeddingService.ModelName(), aiResult.LLMService.ModelName())

	return &App{
		Runtime:  runtime,
		Config:   cfg,
		Settings: *settings,
		Prompts:  prompts,
		Uploads:  store,
		ai:       aiResult,
	}, nil
}

// Close releases the session and the AI clients.
func (a *App) Close() error {
	err := a.Runtime.Close()
	if a.ai != nil {
		a.ai.Close()
	}
	return err
}
