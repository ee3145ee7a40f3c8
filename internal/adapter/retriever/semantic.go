package retriever

import (
	"context"
	"fmt"

	"lexrag/internal/domain"
	"lexrag/internal/port"
)

// Collection is the text-level view of the vector index.
type Collection interface {
	Query(ctx context.Context, text string, n int, where map[string]string) ([]port.VectorResult, error)
}

type SemanticRetriever struct {
	collection Collection
	where      map[string]string
}

// NewSemanticRetriever searches collection; where restricts results (for
// example to one partition) and may be nil.
func NewSemanticRetriever(collection Collection, where map[string]string) *SemanticRetriever {
	return &SemanticRetriever{collection: collection, where: where}
}

func (r *SemanticRetriever) Search(ctx context.Context, text string, topN int) ([]domain.SearchResult, error) {
	if r.collection == nil {
		return nil, fmt.Errorf("semantic search not available: %w", domain.ErrIndexUnavailable)
	}

	hits, err := r.collection.Query(ctx, text, topN, r.where)
	if err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(hits))
	for _, hit := range hits {
		distance := hit.Distance
		rationale := hit.Metadata[domain.MetaRationale]
		results = append(results, domain.SearchResult{
			Distance:   &distance,
			Content:    hit.Document,
			LawType:    hit.Metadata[domain.MetaLawType],
			Title:      hit.Metadata[domain.MetaTitle],
			CaseNumber: hit.Metadata[domain.MetaCaseNumber],
			Rationale:  &rationale,
		})
	}
	return results, nil
}
