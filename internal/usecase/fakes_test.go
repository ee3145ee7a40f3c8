package usecase

import (
	"context"
	"errors"
	"sync"

	"lexrag/internal/domain"
)

type fakeDoc struct {
	id   string
	text string
	meta map[string]string
}

// fakeIndex is an in-memory DocumentIndex that records the order of calls.
type fakeIndex struct {
	mu   sync.Mutex
	docs []fakeDoc
	ops  []string
}

func (f *fakeIndex) Add(_ context.Context, documents []string, metadatas []map[string]string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "add")
	for i := range documents {
		f.docs = append(f.docs, fakeDoc{id: ids[i], text: documents[i], meta: metadatas[i]})
	}
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, where map[string]string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "delete")
	kept := f.docs[:0]
	n := 0
	for _, d := range f.docs {
		match := true
		for k, v := range where {
			if d.meta[k] != v {
				match = false
			}
		}
		if match {
			n++
			continue
		}
		kept = append(kept, d)
	}
	f.docs = kept
	return n, nil
}

func (f *fakeIndex) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs), nil
}

func (f *fakeIndex) ids() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.docs))
	for _, d := range f.docs {
		out = append(out, d.id)
	}
	return out
}

type fakeClarifier struct{}

func (fakeClarifier) Semantic(_ context.Context, q string) string { return "semantic:" + q }
func (fakeClarifier) Keyword(_ context.Context, q string) string  { return "keyword:" + q }

type fakeVector struct {
	results []domain.SearchResult
	err     error
	gotText string
	gotTopN int
}

func (f *fakeVector) Search(_ context.Context, text string, topN int) ([]domain.SearchResult, error) {
	f.gotText = text
	f.gotTopN = topN
	return f.results, f.err
}

type fakeExternal struct {
	results    []domain.SearchResult
	err        error
	gotKeyword string
}

func (f *fakeExternal) Search(_ context.Context, keyword string) ([]domain.SearchResult, error) {
	f.gotKeyword = keyword
	return f.results, f.err
}

var errBoom = errors.New("boom")

func ptr[T any](v T) *T { return &v }
