// Package lawapi is a client for the precedent search of the national law
// information open API (law.go.kr DRF).
package lawapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
	"lexrag/internal/domain"
	"lexrag/internal/port"
)

const (
	searchPath     = "/DRF/lawSearch.do"
	initialBackoff = 500 * time.Millisecond
)

// Client implements port.LawSearcher.
type Client struct {
	baseURL    string
	oc         string
	display    int
	searchMode int
	maxRetries int
	backoff    time.Duration
	limiter    *rate.Limiter
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpClient = c }
}

// WithRateLimit caps outgoing requests per second. Zero disables limiting.
func WithRateLimit(perSecond float64) Option {
	return func(cl *Client) {
		if perSecond > 0 {
			cl.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		} else {
			cl.limiter = nil
		}
	}
}

func WithRetries(maxRetries int, backoff time.Duration) Option {
	return func(cl *Client) {
		if maxRetries > 0 {
			cl.maxRetries = maxRetries
		}
		cl.backoff = backoff
	}
}

// WithTimeout bounds each HTTP request.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.httpClient.Timeout = d
		}
	}
}

// WithDisplay sets the number of search rows requested.
func WithDisplay(n int) Option {
	return func(cl *Client) {
		if n > 0 {
			cl.display = n
		}
	}
}

// WithSearchMode selects 1 (case name) or 2 (full text) search.
func WithSearchMode(mode int) Option {
	return func(cl *Client) {
		if mode > 0 {
			cl.searchMode = mode
		}
	}
}

// NewClient creates a client for baseURL authenticated by the OC user id.
func NewClient(baseURL, oc string, opts ...Option) (*Client, error) {
	if oc == "" {
		return nil, errors.New("law API OC is required")
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		oc:         oc,
		display:    40,
		searchMode: 2,
		maxRetries: 3,
		backoff:    initialBackoff,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Search runs a precedent search. The service returns a bare object instead
// of an array when there is exactly one hit; both come back as a slice.
func (c *Client) Search(ctx context.Context, query string) ([]port.LawSearchItem, error) {
	params := url.Values{}
	params.Set("OC", c.oc)
	params.Set("target", "prec")
	params.Set("type", "JSON")
	params.Set("search", strconv.Itoa(c.searchMode))
	params.Set("query", query)
	params.Set("display", strconv.Itoa(c.display))

	body, err := c.get(ctx, c.baseURL+searchPath+"?"+params.Encode())
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: search response is not JSON", domain.ErrMalformedResponse)
	}

	items := []port.LawSearchItem{}
	for _, prec := range asList(gjson.GetBytes(body, "PrecSearch.prec")) {
		items = append(items, port.LawSearchItem{
			ID:         prec.Get("판례일련번호").String(),
			CaseName:   prec.Get("사건명").String(),
			CaseNumber: prec.Get("사건번호").String(),
			DetailLink: prec.Get("판례상세링크").String(),
		})
	}
	return items, nil
}

// FetchDetail loads the JSON form of a precedent from its (HTML) detail link.
// It returns nil, nil when the response carries no PrecService object, which
// is how the service reports an unknown precedent.
func (c *Client) FetchDetail(ctx context.Context, link string) (*port.PrecedentDetail, error) {
	if link == "" {
		return nil, nil
	}
	target := strings.Replace(link, "HTML", "JSON", 1)
	if !strings.HasPrefix(target, "http://") && !strings.HasPrefix(target, "https://") {
		target = c.baseURL + target
	}

	body, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: detail response is not JSON", domain.ErrMalformedResponse)
	}

	svc := gjson.GetBytes(body, "PrecService")
	if !svc.Exists() || !svc.IsObject() {
		return nil, nil
	}
	return &port.PrecedentDetail{
		Issue:        svc.Get("판시사항").String(),
		Summary:      svc.Get("판결요지").String(),
		CaseTypeName: svc.Get("사건종류명").String(),
		CaseName:     svc.Get("사건명").String(),
		CourtName:    svc.Get("법원명").String(),
		DecisionDate: svc.Get("선고일자").String(),
		Decision:     svc.Get("선고").String(),
		CaseNumber:   svc.Get("사건번호").String(),
		JudgmentType: svc.Get("판결유형").String(),
	}, nil
}

// asList normalizes an object-or-array JSON value to a slice.
func asList(v gjson.Result) []gjson.Result {
	switch {
	case !v.Exists():
		return nil
	case v.IsArray():
		return v.Array()
	case v.IsObject():
		return []gjson.Result{v}
	default:
		return nil
	}
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("law API returned status %d", e.code)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code >= 500 || se.code == http.StatusTooManyRequests
	}
	return true
}

func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	backoff := c.backoff
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		body, err := c.getOnce(ctx, target)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return nil, fmt.Errorf("%w: %v", domain.ErrExternalSearch, lastErr)
}

func (c *Client) getOnce(ctx context.Context, target string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{code: resp.StatusCode}
	}
	return body, nil
}
