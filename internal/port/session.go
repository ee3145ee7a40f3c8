package port

import (
	"context"

	"lexrag/internal/domain"
)

// SessionStore persists sessions. Get returns domain.ErrSessionNotFound for
// unknown ids; implementations return copies so callers mutate then Put.
type SessionStore interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
	Put(ctx context.Context, s *domain.Session) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}
