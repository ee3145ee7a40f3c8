package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"lexrag/config"
	"lexrag/internal/adapter/cache"
	"lexrag/internal/adapter/embedding"
	"lexrag/internal/adapter/lawapi"
	"lexrag/internal/adapter/llm"
	"lexrag/internal/adapter/retriever"
	"lexrag/internal/adapter/session"
	"lexrag/internal/adapter/store"
	"lexrag/internal/metrics"
	"lexrag/internal/port"
	"lexrag/internal/prompt"
	"lexrag/internal/usecase"
)

// closers runs cleanup functions in reverse order.
type closers []func()

func (c *closers) add(fn func()) { *c = append(*c, fn) }

func (c closers) Close() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func newEmbedder(ctx context.Context, cfg *config.Config, cl *closers) (port.Embedder, error) {
	e := cfg.Embedding
	var (
		embedder port.Embedder
		err      error
	)
	switch e.Provider {
	case "openai":
		var oe *embedding.OpenAIEmbedder
		oe, err = embedding.NewOpenAIEmbedder(e.APIKeyEnv, e.Model)
		if err == nil {
			if e.BaseURL != "" {
				oe.WithBaseURL(e.BaseURL)
			}
			embedder = oe.WithDimension(e.Dimension)
		}
	case "jina":
		embedder, err = embedding.NewJinaEmbedder(e.APIKeyEnv, e.Model)
	case "ollama":
		embedder, err = embedding.NewOllamaEmbedder(e.Model, e.BaseURL)
	case "compatible":
		embedder, err = embedding.NewOpenAICompatibleEmbedder(e.APIKeyEnv, e.Model, e.BaseURL)
	case "gemini":
		var ge *embedding.GeminiEmbedder
		ge, err = embedding.NewGeminiEmbedder(ctx, e.APIKeyEnv, e.Model, e.Dimension)
		if err == nil {
			cl.add(func() { _ = ge.Close() })
			embedder = ge
		}
	case "mock":
		embedder = embedding.NewMockEmbedder(e.Dimension)
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", e.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return embedder, nil
}

func newLLM(ctx context.Context, cfg *config.Config, cl *closers) (port.LLM, error) {
	l := cfg.LLM
	switch l.Provider {
	case "openai":
		return llm.NewOpenAIClient(l.APIKeyEnv, l.Model, l.BaseURL, l.Timeout)
	case "gemini":
		g, err := llm.NewGeminiClient(ctx, l.APIKeyEnv, l.Model)
		if err != nil {
			return nil, err
		}
		cl.add(func() { _ = g.Close() })
		return g, nil
	case "mock":
		return llm.NewMockLLM(), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", l.Provider)
	}
}

// openIndex opens the configured vector collection. For the bolt backend,
// prepare (if set) runs on the store before the collection is loaded.
func openIndex(ctx context.Context, cfg *config.Config, embedder port.Embedder, prepare func(*store.BoltStore) error, cl *closers) (*store.Collection, error) {
	var vs port.VectorStore
	switch cfg.Index.Backend {
	case "bolt":
		if err := config.EnsureDir(cfg.Index.Path); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
		bolt, err := store.NewBoltStore(cfg.Index.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open index store: %w", err)
		}
		cl.add(func() { _ = bolt.Close() })
		if prepare != nil {
			if err := prepare(bolt); err != nil {
				return nil, err
			}
		}
		vs, err = store.NewBoltVectorStore(bolt.DB(), cfg.Index.Collection, embedder.Dimension())
		if err != nil {
			return nil, fmt.Errorf("failed to open collection: %w", err)
		}
	case "pgvector":
		dsn := os.Getenv(cfg.Index.PostgresEnv)
		if dsn == "" {
			return nil, fmt.Errorf("postgres connection string not found in environment variable: %s", cfg.Index.PostgresEnv)
		}
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		cl.add(pool.Close)
		vs, err = store.NewPgVectorStore(ctx, pool, cfg.Index.Collection, embedder.Dimension())
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported index backend: %s", cfg.Index.Backend)
	}
	return store.NewCollection(vs, embedder, cfg.Embedding.BatchSize), nil
}

func newSessionStore(ctx context.Context, cfg *config.Config, cl *closers) (port.SessionStore, error) {
	switch cfg.Session.Backend {
	case "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Session.RedisAddr, DB: cfg.Session.RedisDB})
		cl.add(func() { _ = client.Close() })
		rs := session.NewRedisStore(client, cfg.Session.TTL)
		if err := rs.Ping(ctx); err != nil {
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Session.RedisAddr, err)
		}
		return rs, nil
	default:
		return nil, fmt.Errorf("unsupported session backend: %s", cfg.Session.Backend)
	}
}

// newLawSearcher returns nil when no OC user id is configured.
func newLawSearcher(cfg *config.Config) (port.LawSearcher, error) {
	a := cfg.LawAPI
	oc := a.OC
	if oc == "" && a.OCEnv != "" {
		oc = os.Getenv(a.OCEnv)
	}
	if oc == "" {
		return nil, nil
	}
	client, err := lawapi.NewClient(a.BaseURL, oc,
		lawapi.WithDisplay(a.Display),
		lawapi.WithSearchMode(a.SearchMode),
		lawapi.WithRateLimit(a.RatePerSecond),
		lawapi.WithRetries(a.MaxRetries, 500*time.Millisecond),
		lawapi.WithTimeout(a.Timeout),
	)
	if err != nil {
		return nil, err
	}
	if a.CacheSize > 0 {
		return cache.NewCachedSearcher(client, a.CacheSize, a.CacheTTL), nil
	}
	return client, nil
}

// pipeline bundles the question answering components.
type pipeline struct {
	llm        port.LLM
	collection *store.Collection
	retrieve   *usecase.RetrieveUseCase
	pack       *usecase.PackUseCase
	answer     *usecase.AnswerUseCase
}

func newPipeline(ctx context.Context, cfg *config.Config, m *metrics.Metrics, cl *closers) (*pipeline, error) {
	model, err := newLLM(ctx, cfg, cl)
	if err != nil {
		return nil, fmt.Errorf("failed to create llm: %w", err)
	}
	p := &pipeline{llm: model}

	// Disabled searchers stay untyped nil so the use case sees them as absent.
	var vector usecase.VectorSearcher
	if cfg.Retrieve.UseVector {
		embedder, err := newEmbedder(ctx, cfg, cl)
		if err != nil {
			return nil, err
		}
		p.collection, err = openIndex(ctx, cfg, embedder, nil, cl)
		if err != nil {
			return nil, err
		}
		vector = retriever.NewSemanticRetriever(p.collection, nil)
	}

	var external usecase.ExternalSearcher
	if cfg.Retrieve.UseExternal {
		searcher, err := newLawSearcher(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create law API client: %w", err)
		}
		if searcher == nil {
			logger.Warn("law API OC not configured, external precedent search disabled")
		} else {
			external = retriever.NewExternalRetriever(searcher, cfg.LawAPI.MaxContentLen, cfg.LawAPI.Concurrency, logger.Named("law_api"))
		}
	}

	clarifier := retriever.NewClarifier(model, cfg.Retrieve.Clarify, logger.Named("clarifier"))
	p.retrieve = usecase.NewRetrieveUseCase(clarifier, vector, external, usecase.RetrieveOptions{
		TopN:         cfg.Retrieve.TopN,
		UseVector:    cfg.Retrieve.UseVector,
		UseExternal:  cfg.Retrieve.UseExternal,
		DebugDumpDir: cfg.Pack.DebugDumpDir,
	}, m, logger.Named("retrieve"))
	p.pack = usecase.NewPackUseCase(cfg.Pack.MaxContextLen, cfg.Pack.TruncationMarker, m)
	p.answer = usecase.NewAnswerUseCase(p.retrieve, p.pack, model, m, logger.Named("answer"))
	return p, nil
}

func systemPrompt(cfg *config.Config) (string, error) {
	return prompt.SystemPrompt(cfg.LLM.SystemPromptFile)
}
