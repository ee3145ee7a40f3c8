package retriever

import (
	"context"
	"strings"

	"lexrag/internal/logging"
	"lexrag/internal/port"
	"lexrag/internal/prompt"
)

// Clarifier rewrites a user's question into search-friendly text: a full
// sentence for vector search and a keyword string for the precedent API.
// Any failure falls back to the original question.
type Clarifier struct {
	llm     port.LLM
	enabled bool
	logger  logging.Logger
}

func NewClarifier(llm port.LLM, enabled bool, logger logging.Logger) *Clarifier {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Clarifier{llm: llm, enabled: enabled, logger: logger}
}

// Semantic rewrites query into one natural sentence for similarity search.
func (c *Clarifier) Semantic(ctx context.Context, query string) string {
	return c.rewrite(ctx, prompt.ClarifySemantic, query)
}

// Keyword reduces query to noun-centric legal keywords.
func (c *Clarifier) Keyword(ctx context.Context, query string) string {
	return c.rewrite(ctx, prompt.ClarifyKeyword, query)
}

// Clarify returns both rewrites.
func (c *Clarifier) Clarify(ctx context.Context, query string) (semantic, keyword string) {
	return c.Semantic(ctx, query), c.Keyword(ctx, query)
}

func (c *Clarifier) rewrite(ctx context.Context, tmpl, query string) string {
	if !c.enabled || c.llm == nil {
		return query
	}

	p, err := prompt.Render(tmpl, prompt.QueryData{Query: query})
	if err != nil {
		c.logger.Warn("clarification prompt failed", logging.String("template", tmpl), logging.Err(err))
		return query
	}

	gen, err := c.llm.Generate(ctx, port.GenerateRequest{Prompt: p})
	if err != nil {
		c.logger.Warn("clarification failed, using original query", logging.String("template", tmpl), logging.Err(err))
		return query
	}

	out := strings.Trim(strings.TrimSpace(gen.Text), `"`)
	if out == "" {
		return query
	}
	return out
}
