package port

import "context"

// LawSearcher queries the public precedent database.
type LawSearcher interface {
	// Search returns summary items for a keyword query. A single-object
	// response is returned as a one-element slice.
	Search(ctx context.Context, query string) ([]LawSearchItem, error)

	// FetchDetail loads a precedent by its detail link. It returns nil, nil when
	// the service reports no matching precedent.
	FetchDetail(ctx context.Context, link string) (*PrecedentDetail, error)
}

// LawSearchItem is one row of a precedent search.
type LawSearchItem struct {
	ID         string
	CaseName   string
	CaseNumber string
	DetailLink string
}

// PrecedentDetail is the subset of a precedent document used for answers.
type PrecedentDetail struct {
	Issue        string // 판시사항
	Summary      string // 판결요지
	CaseTypeName string // 사건종류명
	CaseName     string // 사건명
	CourtName    string // 법원명
	DecisionDate string // 선고일자
	Decision     string // 선고
	CaseNumber   string // 사건번호
	JudgmentType string // 판결유형
}
