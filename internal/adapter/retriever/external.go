package retriever

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"lexrag/internal/domain"
	"lexrag/internal/logging"
	"lexrag/internal/port"
)

// ExternalRetriever searches the public precedent database and loads each
// hit's detail document.
type ExternalRetriever struct {
	searcher    port.LawSearcher
	maxLen      int
	marker      string
	concurrency int
	logger      logging.Logger
}

func NewExternalRetriever(searcher port.LawSearcher, maxLen, concurrency int, logger logging.Logger) *ExternalRetriever {
	if maxLen <= 0 {
		maxLen = 8000
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &ExternalRetriever{
		searcher:    searcher,
		maxLen:      maxLen,
		marker:      "...",
		concurrency: concurrency,
		logger:      logger,
	}
}

// Search returns results in search order. Precedents the service reports as
// missing, and those whose detail request fails, are skipped. The search
// fails only when the listing fails or every detail request does.
func (r *ExternalRetriever) Search(ctx context.Context, keyword string) ([]domain.SearchResult, error) {
	items, err := r.searcher.Search(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("precedent search failed: %w", err)
	}

	details := make([]*port.PrecedentDetail, len(items))
	errs := make([]error, len(items))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			d, err := r.searcher.FetchDetail(ctx, item.DetailLink)
			if err != nil {
				errs[i] = fmt.Errorf("precedent detail %s: %w", item.ID, err)
				return nil
			}
			details[i] = d
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]domain.SearchResult, 0, len(details))
	failed := 0
	var lastErr error
	for i, d := range details {
		if errs[i] != nil {
			failed++
			lastErr = errs[i]
			r.logger.Warn("skipping precedent", logging.String("id", items[i].ID), logging.Err(errs[i]))
			continue
		}
		if d == nil {
			continue
		}
		results = append(results, r.toResult(d))
	}
	if failed > 0 && failed == len(items) {
		return nil, lastErr
	}
	return results, nil
}

func (r *ExternalRetriever) toResult(d *port.PrecedentDetail) domain.SearchResult {
	content := strings.TrimSpace(strings.TrimSpace(d.Issue) + "\n" + strings.TrimSpace(d.Summary))
	return domain.SearchResult{
		Distance:   nil,
		Content:    domain.TruncateRunes(content, r.maxLen, r.marker),
		LawType:    d.CaseTypeName,
		Title:      d.CaseName,
		CaseNumber: CaseNumber(d),
		Rationale:  nil,
	}
}

// CaseNumber formats the citation as "(court date decision number type)".
func CaseNumber(d *port.PrecedentDetail) string {
	return fmt.Sprintf("(%s %s %s %s %s)", d.CourtName, d.DecisionDate, d.Decision, d.CaseNumber, d.JudgmentType)
}
