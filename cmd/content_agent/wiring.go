package main

import (
	"context"
	"fmt"
	"log"

	"github.com/jonathan/content-engine/internal/config"
	"github.com/jonathan/content-engine/internal/content"
	"github.com/jonathan/content-engine/internal/db"
	"github.com/jonathan/content-engine/internal/generation"
	"github.com/jonathan/content-engine/internal/images"
	"github.com/jonathan/content-engine/internal/llm"
	"github.com/jonathan/content-engine/internal/prompts"
)

// loadConfig reads the optional config file, overlays the environment and
// validates the result.
func loadConfig(path string) (config.Config, error) {
	var fileCfg config.Config
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, err
		}
		fileCfg = *loaded
	}

	cfg := fileCfg.MergeWithDefaults(config.FromEnv())
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// components are the collaborators shared by serve and generate.
type components struct {
	client llm.Client
	db     *db.DB // nil when running on the in-memory store
	store  content.Store
	worker *generation.Worker
	images images.Generator
}

// Close releases the LLM client and the database pool.
func (c *components) Close() {
	if c.client != nil {
		if err := c.client.Close(); err != nil {
			log.Printf("[main] closing llm client: %v", err)
		}
	}
	if c.db != nil {
		c.db.Close()
	}
}

// buildComponents wires storage, prompts, the LLM engine and the worker.
func buildComponents(ctx context.Context, cfg config.Config) (*components, error) {
	provider, err := llm.ParseProvider(cfg.LLMProvider)
	if err != nil {
		return nil, err
	}
	apiKey := cfg.LLMAPIKey()
	if apiKey == "" {
		return nil, fmt.Errorf("an API key for llm provider %q is required", provider)
	}

	c := &components{}

	var settings prompts.SettingsStore
	var profiles generation.Profiles
	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL, db.WithScheduleHour(cfg.Hour()))
		if err != nil {
			return nil, err
		}
		if err := database.EnsureSchema(ctx); err != nil {
			database.Close()
			return nil, err
		}
		c.db = database
		c.store = database
		settings = database
		profiles = database
	} else {
		log.Printf("[main] DATABASE_URL not set, content records are kept in memory")
		c.store = content.NewMemoryStore(cfg.Hour())
	}

	resolver := prompts.NewResolver(settings)

	llmCfg := llm.DefaultConfig(provider)
	if provider == llm.ProviderOpenAI {
		llmCfg.BaseURL = cfg.OpenAIBaseURL
	}
	client, err := llm.NewClient(ctx, llmCfg, apiKey)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create llm client: %w", err)
	}
	c.client = client

	c.worker = generation.NewWorker(llm.NewEngine(client, resolver), profiles, cfg.StructuredPlatforms)

	if cfg.OpenAIAPIKey != "" {
		gen, err := images.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.ImageModel, resolver)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create image generator: %w", err)
		}
		c.images = gen
	} else {
		log.Printf("[main] OPENAI_API_KEY not set, image generation is disabled")
	}

	return c, nil
}
