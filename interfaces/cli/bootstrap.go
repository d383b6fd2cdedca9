package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/balizero/zantara-agentic/application"
	"github.com/balizero/zantara-agentic/domain/conversation"
	"github.com/balizero/zantara-agentic/domain/knowledge"
	"github.com/balizero/zantara-agentic/infrastructure/config"
	"github.com/balizero/zantara-agentic/infrastructure/gateway"
	"github.com/balizero/zantara-agentic/infrastructure/logging"
	"github.com/balizero/zantara-agentic/infrastructure/storage/badger"
	"github.com/balizero/zantara-agentic/infrastructure/storage/memory"
	"github.com/balizero/zantara-agentic/infrastructure/storage/postgres"
	"github.com/balizero/zantara-agentic/infrastructure/storage/redis"
	"github.com/balizero/zantara-agentic/infrastructure/toolkit"
)

// runtime is everything a command needs after bootstrap.
type runtime struct {
	cfg          *config.Config
	orchestrator *application.Orchestrator
	closers      []func() error
}

// Close releases backend connections.
func (r *runtime) Close() {
	for _, c := range r.closers {
		if err := c(); err != nil {
			logging.Warn().Add(logging.ErrorField(err)).Msg("shutdown close failed")
		}
	}
}

// loadConfig loads the file given with --config, or defaults.
func (a *App) loadConfig() (*config.Config, error) {
	if a.configPath == "" {
		return config.Default(), nil
	}
	return config.NewLoader().LoadFile(a.configPath)
}

// bootstrap builds the full service graph from configuration.
func (a *App) bootstrap(ctx context.Context) (*runtime, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	gw, err := buildGateway(cfg)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg}
	store, closer, err := buildMemory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if closer != nil {
		rt.closers = append(rt.closers, closer)
	}

	registry := memory.NewToolRegistry()
	knowledgeStore := memory.NewKnowledgeStore(cfg.Knowledge.Dimension)
	embedder := hashingEmbedder(cfg.Knowledge.Dimension)
	graph := toolkit.NewGraph()
	tools := []error{
		registry.Register(toolkit.NewVectorSearch(knowledgeStore, embedder, cfg.Knowledge.TopK)),
		registry.Register(toolkit.NewGraphSearch(graph)),
		registry.Register(toolkit.NewCalculator()),
	}
	for _, err := range tools {
		if err != nil {
			return nil, fmt.Errorf("registering tools: %w", err)
		}
	}

	engine := application.NewEngine(registry,
		application.WithStreamSendTimeout(cfg.Reasoning.StreamSendTimeout))

	rt.orchestrator = application.NewOrchestrator(application.OrchestratorConfig{
		Engine:   engine,
		Gateway:  gw,
		Memory:   store,
		MaxSteps: cfg.Reasoning.MaxSteps,
	})
	return rt, nil
}

// buildGateway assembles the provider fallback chain from config.
func buildGateway(cfg *config.Config) (gateway.Gateway, error) {
	var providers []gateway.Provider
	for _, pc := range cfg.Gateway.Providers {
		spec := gateway.ProviderConfig{
			APIKey:     pc.APIKey,
			BaseURL:    pc.BaseURL,
			ModelFlash: pc.ModelFlash,
			ModelPro:   pc.ModelPro,
			Timeout:    int(pc.Timeout / time.Second),
		}
		switch pc.Name {
		case "openrouter":
			providers = append(providers, gateway.NewOpenRouterProvider(spec))
		case "deepseek":
			providers = append(providers, gateway.NewDeepSeekProvider(spec))
		default:
			return nil, fmt.Errorf("unknown provider %q", pc.Name)
		}
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no LLM providers configured; set gateway.providers in the config file")
	}
	fallback, err := gateway.NewFallback(gateway.FallbackConfig{
		Providers:        providers,
		BreakerThreshold: cfg.Gateway.BreakerThreshold,
		BreakerCooldown:  cfg.Gateway.BreakerCooldown,
		Temperature:      cfg.Gateway.Temperature,
		MaxTokens:        cfg.Gateway.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	return fallback, nil
}

// buildMemory selects the conversation store backend.
func buildMemory(ctx context.Context, cfg *config.Config) (conversation.Store, func() error, error) {
	switch cfg.Memory.Backend {
	case "redis":
		rc := redis.DefaultConfig()
		rc.Addr = cfg.Memory.Redis.Addr
		rc.Password = cfg.Memory.Redis.Password
		rc.DB = cfg.Memory.Redis.DB
		store, err := redis.NewConversationStore(rc)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case "postgres":
		store, err := postgres.NewConversationStore(ctx, cfg.Memory.Postgres.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, func() error { store.Close(); return nil }, nil
	case "badger":
		store, err := badger.Open(cfg.Memory.Badger.Dir)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	default:
		return memory.NewConversationStore(), nil, nil
	}
}

// hashingEmbedder is the offline fallback embedder: deterministic word
// hashing. A real deployment swaps in an embedding provider.
func hashingEmbedder(dim int) knowledge.Embedder {
	return knowledge.EmbedFunc(func(_ context.Context, text string) ([]float32, error) {
		v := make([]float32, dim)
		h := 0
		for _, r := range text {
			if r == ' ' || r == '\n' || r == '\t' {
				if h != 0 {
					if h < 0 {
						h = -h
					}
					v[h%dim]++
					h = 0
				}
				continue
			}
			h = h*31 + int(r)
		}
		if h != 0 {
			if h < 0 {
				h = -h
			}
			v[h%dim]++
		}
		return v, nil
	})
}
