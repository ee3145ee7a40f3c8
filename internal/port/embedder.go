package port

import "context"

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}

// VectorStore stores documents with their embeddings and metadata.
type VectorStore interface {
	// Upsert adds or replaces items by ID.
	Upsert(ctx context.Context, items []VectorItem) error

	// Search returns the k nearest items to the query whose metadata contains
	// every key/value pair in where. A nil where matches everything.
	Search(ctx context.Context, query []float32, k int, where map[string]string) ([]VectorResult, error)

	// DeleteWhere removes every item whose metadata matches where and reports how many.
	DeleteWhere(ctx context.Context, where map[string]string) (int, error)

	// Count returns the number of stored items.
	Count(ctx context.Context) (int, error)
}

// VectorItem is a document to be stored.
type VectorItem struct {
	ID       string
	Vector   []float32
	Document string
	Metadata map[string]string
}

// VectorResult is a search hit. Distance is cosine distance (lower is closer).
type VectorResult struct {
	ID       string
	Distance float64
	Document string
	Metadata map[string]string
}

// MatchesWhere reports whether metadata contains every pair in where.
func MatchesWhere(metadata, where map[string]string) bool {
	for k, v := range where {
		if metadata[k] != v {
			return false
		}
	}
	return true
}
