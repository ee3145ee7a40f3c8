package usecase

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"lexrag/internal/domain"
	"lexrag/internal/metrics"
)

// PackUseCase renders retrieved results into bounded prompt context.
type PackUseCase struct {
	maxLen  int
	marker  string
	metrics *metrics.Metrics
}

// NewPackUseCase creates a context assembler that truncates each source's
// block to maxLen runes followed by marker.
func NewPackUseCase(maxLen int, marker string, m *metrics.Metrics) *PackUseCase {
	if maxLen <= 0 {
		maxLen = 8000
	}
	return &PackUseCase{maxLen: maxLen, marker: marker, metrics: m}
}

// SortResults orders results by ascending distance. Results without a
// distance go last; ties keep their input order.
func SortResults(results []domain.SearchResult) []domain.SearchResult {
	sorted := append([]domain.SearchResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].Distance, sorted[j].Distance
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return sorted
}

// Render formats sorted results into one block per case joined by blank lines.
// The result is truncated to the configured length.
func (u *PackUseCase) Render(results []domain.SearchResult) string {
	blocks := make([]string, 0, len(results))
	for _, r := range SortResults(results) {
		blocks = append(blocks, renderResult(r))
	}
	return domain.TruncateRunes(strings.Join(blocks, "\n\n"), u.maxLen, u.marker)
}

func renderResult(r domain.SearchResult) string {
	distance := "N/A"
	if r.Distance != nil {
		distance = fmt.Sprintf("%.3f", *r.Distance)
	}
	rationale := ""
	if r.Rationale != nil {
		rationale = *r.Rationale
	}
	return fmt.Sprintf("[%s / %s]\n제목: %s\n유사도거리: %s\n선정이유: %s\n내용: %s",
		r.LawType, r.CaseNumber, r.Title, distance, rationale, r.Content)
}

// Pack renders each source separately. A nil context renders as "".
func (u *PackUseCase) Pack(vector, external *domain.RetrievalContext) (vectorText, externalText string) {
	defer u.metrics.ObserveStage(metrics.StagePack, time.Now())
	if vector != nil {
		vectorText = u.Render(vector.Results)
	}
	if external != nil {
		externalText = u.Render(external.Results)
	}
	return vectorText, externalText
}
