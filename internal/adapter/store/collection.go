package store

import (
	"context"
	"fmt"

	"lexrag/internal/port"
)

// Collection pairs a VectorStore with an Embedder so callers add and query by text.
type Collection struct {
	store     port.VectorStore
	embedder  port.Embedder
	batchSize int
}

func NewCollection(store port.VectorStore, embedder port.Embedder, batchSize int) *Collection {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Collection{store: store, embedder: embedder, batchSize: batchSize}
}

// Add embeds documents and upserts them with their metadata and ids.
// The three slices must have the same length.
func (c *Collection) Add(ctx context.Context, documents []string, metadatas []map[string]string, ids []string) error {
	if len(documents) != len(metadatas) || len(documents) != len(ids) {
		return fmt.Errorf("mismatched lengths: %d documents, %d metadatas, %d ids", len(documents), len(metadatas), len(ids))
	}

	for start := 0; start < len(documents); start += c.batchSize {
		end := start + c.batchSize
		if end > len(documents) {
			end = len(documents)
		}

		vectors, err := c.embedder.Embed(ctx, documents[start:end])
		if err != nil {
			return fmt.Errorf("failed to embed documents: %w", err)
		}
		if len(vectors) != end-start {
			return fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), end-start)
		}

		items := make([]port.VectorItem, 0, end-start)
		for i := start; i < end; i++ {
			items = append(items, port.VectorItem{
				ID:       ids[i],
				Vector:   vectors[i-start],
				Document: documents[i],
				Metadata: metadatas[i],
			})
		}
		if err := c.store.Upsert(ctx, items); err != nil {
			return fmt.Errorf("failed to store documents: %w", err)
		}
	}
	return nil
}

// Query embeds text and returns the n nearest documents matching where.
func (c *Collection) Query(ctx context.Context, text string, n int, where map[string]string) ([]port.VectorResult, error) {
	vectors, err := c.embedder.Embed(ctx, []string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("embedding returned empty result")
	}
	results, err := c.store.Search(ctx, vectors[0], n, where)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	if results == nil {
		results = []port.VectorResult{}
	}
	return results, nil
}

// Delete removes documents whose metadata matches where.
func (c *Collection) Delete(ctx context.Context, where map[string]string) (int, error) {
	return c.store.DeleteWhere(ctx, where)
}

// Count returns the number of stored documents.
func (c *Collection) Count(ctx context.Context) (int, error) {
	return c.store.Count(ctx)
}
