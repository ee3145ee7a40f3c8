package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"lexrag/internal/port"
)

// PgVectorStore implements VectorStore on PostgreSQL with the pgvector extension.
// Distance is cosine distance (the <=> operator).
type PgVectorStore struct {
	db        *pgxpool.Pool
	table     string
	dimension int
}

// NewPgVectorStore ensures the collection table exists and returns a store over it.
func NewPgVectorStore(ctx context.Context, db *pgxpool.Pool, collection string, dimension int) (*PgVectorStore, error) {
	if collection == "" {
		return nil, fmt.Errorf("collection name is required")
	}
	s := &PgVectorStore{
		db:        db,
		table:     pgx.Identifier{collection}.Sanitize(),
		dimension: dimension,
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PgVectorStore) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			document TEXT NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding vector(%d) NOT NULL
		)`, s.table, s.dimension),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s USING GIN (metadata)`,
			pgx.Identifier{strings.Trim(s.table, `"`) + "_metadata_idx"}.Sanitize(), s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to prepare pgvector schema: %w", err)
		}
	}
	return nil
}

// formatVector formats an embedding vector as a pgvector literal
func formatVector(embedding []float32) string {
	if len(embedding) == 0 {
		return "[]"
	}
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = fmt.Sprintf("%.6f", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func whereJSON(where map[string]string) (string, error) {
	if len(where) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(where)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Upsert inserts or replaces items in a single batch.
func (s *PgVectorStore) Upsert(ctx context.Context, items []port.VectorItem) error {
	if len(items) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, document, metadata, embedding)
		VALUES ($1, $2, $3::jsonb, $4::vector)
		ON CONFLICT (id) DO UPDATE SET
			document = EXCLUDED.document,
			metadata = EXCLUDED.metadata,
			embedding = EXCLUDED.embedding`, s.table)

	batch := &pgx.Batch{}
	for _, item := range items {
		if len(item.Vector) != s.dimension {
			return fmt.Errorf("vector dimension mismatch for %s: expected %d, got %d", item.ID, s.dimension, len(item.Vector))
		}
		meta, err := whereJSON(item.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		batch.Queue(query, item.ID, item.Document, meta, formatVector(item.Vector))
	}

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()
	for range items {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to upsert vector: %w", err)
		}
	}
	return nil
}

// Search returns the k nearest rows whose metadata contains where.
func (s *PgVectorStore) Search(ctx context.Context, query []float32, k int, where map[string]string) ([]port.VectorResult, error) {
	if len(query) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(query))
	}
	filter, err := whereJSON(where)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf(`
		SELECT id, document, metadata, embedding <=> $1::vector AS distance
		FROM %s
		WHERE metadata @> $2::jsonb
		ORDER BY embedding <=> $1::vector
		LIMIT $3`, s.table)

	rows, err := s.db.Query(ctx, sql, formatVector(query), filter, k)
	if err != nil {
		return nil, fmt.Errorf("failed to query vectors: %w", err)
	}
	defer rows.Close()

	results := []port.VectorResult{}
	for rows.Next() {
		var r port.VectorResult
		if err := rows.Scan(&r.ID, &r.Document, &r.Metadata, &r.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan vector row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vector rows: %w", err)
	}
	return results, nil
}

// DeleteWhere removes rows whose metadata contains where.
func (s *PgVectorStore) DeleteWhere(ctx context.Context, where map[string]string) (int, error) {
	filter, err := whereJSON(where)
	if err != nil {
		return 0, err
	}
	tag, err := s.db.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE metadata @> $1::jsonb`, s.table), filter)
	if err != nil {
		return 0, fmt.Errorf("failed to delete vectors: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Count returns the number of rows in the collection.
func (s *PgVectorStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, fmt.Sprintf(`SELECT count(*) FROM %s`, s.table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count vectors: %w", err)
	}
	return n, nil
}
