package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lexrag/internal/domain"
	"lexrag/internal/logging"
	"lexrag/internal/metrics"
)

// QueryClarifier rewrites questions for each search path.
type QueryClarifier interface {
	Semantic(ctx context.Context, query string) string
	Keyword(ctx context.Context, query string) string
}

// VectorSearcher searches the local judgment collection.
type VectorSearcher interface {
	Search(ctx context.Context, text string, topN int) ([]domain.SearchResult, error)
}

// ExternalSearcher searches the public precedent database.
type ExternalSearcher interface {
	Search(ctx context.Context, keyword string) ([]domain.SearchResult, error)
}

// RetrieveOptions selects search paths and tuning.
type RetrieveOptions struct {
	TopN         int
	UseVector    bool
	UseExternal  bool
	DebugDumpDir string // empty disables JSON dumps
}

// RetrieveUseCase runs clarification and both search paths for a question.
type RetrieveUseCase struct {
	clarifier QueryClarifier
	vector    VectorSearcher
	external  ExternalSearcher
	opts      RetrieveOptions
	metrics   *metrics.Metrics
	logger    logging.Logger
}

// NewRetrieveUseCase creates a new retrieve use case.
func NewRetrieveUseCase(
	clarifier QueryClarifier,
	vector VectorSearcher,
	external ExternalSearcher,
	opts RetrieveOptions,
	m *metrics.Metrics,
	logger logging.Logger,
) *RetrieveUseCase {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.TopN <= 0 {
		opts.TopN = 5
	}
	return &RetrieveUseCase{
		clarifier: clarifier,
		vector:    vector,
		external:  external,
		opts:      opts,
		metrics:   m,
		logger:    logger,
	}
}

// Retrieve returns the vector and external contexts for query. A context is
// nil only when its path is disabled. Vector search errors are returned;
// external search errors are logged and yield an empty external context.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, query string) (vector, external *domain.RetrievalContext, err error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil, domain.ErrEmptyQuery
	}

	if u.opts.UseVector && u.vector != nil {
		vector, err = u.retrieveVector(ctx, query)
		if err != nil {
			return nil, nil, err
		}
		u.dump("context_rag.json", vector)
	}

	if u.opts.UseExternal && u.external != nil {
		external = u.retrieveExternal(ctx, query)
		u.dump("context_api.json", external)
	}

	return vector, external, nil
}

func (u *RetrieveUseCase) clarify(ctx context.Context, query string, rewrite func(context.Context, string) string) string {
	start := time.Now()
	defer u.metrics.ObserveStage(metrics.StageClarify, start)
	return rewrite(ctx, query)
}

func (u *RetrieveUseCase) retrieveVector(ctx context.Context, query string) (*domain.RetrievalContext, error) {
	expanded := query
	if u.clarifier != nil {
		expanded = u.clarify(ctx, query, u.clarifier.Semantic)
	}

	start := time.Now()
	results, err := u.vector.Search(ctx, expanded, u.opts.TopN)
	u.metrics.ObserveStage(metrics.StageVector, start)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	u.metrics.ObserveResults("vector", len(results))
	u.logger.Debug("vector search done", logging.String("expanded_query", expanded), logging.Int("results", len(results)))
	return domain.NewRetrievalContext(query, expanded, results), nil
}

func (u *RetrieveUseCase) retrieveExternal(ctx context.Context, query string) *domain.RetrievalContext {
	keyword := query
	if u.clarifier != nil {
		keyword = u.clarify(ctx, query, u.clarifier.Keyword)
	}

	start := time.Now()
	results, err := u.external.Search(ctx, keyword)
	u.metrics.ObserveStage(metrics.StageExternal, start)
	if err != nil {
		u.metrics.IncExternalFailures()
		u.logger.Warn("external precedent search failed, continuing without it",
			logging.String("keyword", keyword), logging.Err(err))
		results = nil
	}
	u.metrics.ObserveResults("external", len(results))
	u.logger.Debug("external search done", logging.String("keyword", keyword), logging.Int("results", len(results)))
	return domain.NewRetrievalContext(query, keyword, results)
}

func (u *RetrieveUseCase) dump(name string, rc *domain.RetrievalContext) {
	if u.opts.DebugDumpDir == "" || rc == nil {
		return
	}
	if err := writeJSON(filepath.Join(u.opts.DebugDumpDir, name), rc); err != nil {
		u.logger.Warn("failed to write debug dump", logging.String("file", name), logging.Err(err))
	}
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
