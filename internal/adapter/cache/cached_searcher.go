package cache

import (
	"context"
	"time"

	"lexrag/internal/port"
)

// CachedSearcher memoizes precedent detail lookups. Precedents do not change
// once published, so only the TTL bounds staleness. Search results are not
// cached because new rulings are added to the database.
type CachedSearcher struct {
	searcher port.LawSearcher
	details  *LRU[*port.PrecedentDetail]
}

func NewCachedSearcher(searcher port.LawSearcher, maxSize int, ttl time.Duration) *CachedSearcher {
	return &CachedSearcher{
		searcher: searcher,
		details:  NewLRU[*port.PrecedentDetail](maxSize, ttl),
	}
}

func (s *CachedSearcher) Search(ctx context.Context, query string) ([]port.LawSearchItem, error) {
	return s.searcher.Search(ctx, query)
}

// FetchDetail serves from cache when possible. A nil detail (no match) is
// cached as well.
func (s *CachedSearcher) FetchDetail(ctx context.Context, link string) (*port.PrecedentDetail, error) {
	if d, hit := s.details.Get(link); hit {
		return d, nil
	}

	d, err := s.searcher.FetchDetail(ctx, link)
	if err != nil {
		return nil, err
	}

	s.details.Put(link, d)
	return d, nil
}
