package store

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.etcd.io/bbolt"
	"lexrag/internal/port"
)

// BoltVectorStore implements VectorStore for one collection using BoltDB for persistence.
// Uses brute-force search over an in-memory copy of the bucket.
type BoltVectorStore struct {
	db        *bbolt.DB
	bucket    []byte
	dimension int
	mu        sync.RWMutex
	// In-memory cache for fast search
	entries map[string]vectorEntry
}

type vectorEntry struct {
	vector   []float32
	document string
	metadata map[string]string
}

type storedVector struct {
	Vector   []float32         `json:"v"`
	Document string            `json:"d"`
	Metadata map[string]string `json:"m,omitempty"`
}

// NewBoltVectorStore opens (creating if needed) a collection in db.
func NewBoltVectorStore(db *bbolt.DB, collection string, dimension int) (*BoltVectorStore, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	bucket := collectionBucket(collection)

	err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create collection bucket: %w", err)
	}

	store := &BoltVectorStore{
		db:        db,
		bucket:    bucket,
		dimension: dimension,
		entries:   make(map[string]vectorEntry),
	}

	if err := store.load(); err != nil {
		return nil, fmt.Errorf("failed to load vectors: %w", err)
	}

	return store, nil
}

func (s *BoltVectorStore) load() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var stored storedVector
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil // Skip corrupted entries
			}
			s.entries[string(k)] = vectorEntry{
				vector:   stored.Vector,
				document: stored.Document,
				metadata: stored.Metadata,
			}
			return nil
		})
	})
}

// Upsert adds or replaces items in the collection.
func (s *BoltVectorStore) Upsert(ctx context.Context, items []port.VectorItem) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := make(map[string]vectorEntry, len(items))
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return fmt.Errorf("collection bucket not found")
		}

		for _, item := range items {
			if len(item.Vector) != s.dimension {
				return fmt.Errorf("vector dimension mismatch for %s: expected %d, got %d", item.ID, s.dimension, len(item.Vector))
			}

			data, err := json.Marshal(storedVector{
				Vector:   item.Vector,
				Document: item.Document,
				Metadata: item.Metadata,
			})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(item.ID), data); err != nil {
				return err
			}
			staged[item.ID] = vectorEntry{
				vector:   item.Vector,
				document: item.Document,
				metadata: item.Metadata,
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Only touch the cache once the transaction committed
	for id, e := range staged {
		s.entries[id] = e
	}
	return nil
}

// Search returns the k items closest to query by cosine distance among those matching where.
func (s *BoltVectorStore) Search(ctx context.Context, query []float32, k int, where map[string]string) ([]port.VectorResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(query) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(query))
	}
	if k <= 0 {
		return []port.VectorResult{}, nil
	}

	results := make([]port.VectorResult, 0, len(s.entries))
	for id, e := range s.entries {
		if !port.MatchesWhere(e.metadata, where) {
			continue
		}
		results = append(results, port.VectorResult{
			ID:       id,
			Distance: cosineDistance(query, e.vector),
			Document: e.document,
			Metadata: e.metadata,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// DeleteWhere removes every item whose metadata matches where.
func (s *BoltVectorStore) DeleteWhere(ctx context.Context, where map[string]string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string
	for id, e := range s.entries {
		if port.MatchesWhere(e.metadata, where) {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}
		for _, id := range ids {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		delete(s.entries, id)
	}
	return len(ids), nil
}

// Count returns the number of items in the collection.
func (s *BoltVectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

// Dimension returns the vector dimension the collection accepts.
func (s *BoltVectorStore) Dimension() int {
	return s.dimension
}

// cosineDistance returns 1 - cosine similarity, in [0, 2].
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return 1
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 1
	}

	d := 1 - dotProduct/(math.Sqrt(normA)*math.Sqrt(normB))
	if d < 0 {
		d = 0
	}
	return d
}
