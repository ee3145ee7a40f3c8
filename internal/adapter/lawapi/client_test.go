package lawapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"lexrag/internal/domain"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(srv.URL, "tester", WithRetries(3, 0), WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func TestSearch_ArrayResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, searchPath, r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "tester", q.Get("OC"))
		assert.Equal(t, "prec", q.Get("target"))
		assert.Equal(t, "JSON", q.Get("type"))
		assert.Equal(t, "2", q.Get("search"))
		assert.Equal(t, "40", q.Get("display"))
		assert.Equal(t, "보증금 반환", q.Get("query"))

		_, _ = w.Write([]byte(`{"PrecSearch": {"totalCnt": "2", "prec": [
			{"판례일련번호": "1", "사건명": "보증금반환", "사건번호": "2020다1", "판례상세링크": "/DRF/lawService.do?OC=tester&target=prec&ID=1&type=HTML"},
			{"판례일련번호": "2", "사건명": "손해배상", "사건번호": "2021다2", "판례상세링크": "/DRF/lawService.do?OC=tester&target=prec&ID=2&type=HTML"}
		]}}`))
	}))
	defer srv.Close()

	items, err := newTestClient(t, srv).Search(context.Background(), "보증금 반환")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "보증금반환", items[0].CaseName)
	assert.Equal(t, "2021다2", items[1].CaseNumber)
}

func TestSearch_SingleObjectResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"PrecSearch": {"totalCnt": "1", "prec":
			{"판례일련번호": "7", "사건명": "사기", "판례상세링크": "/DRF/lawService.do?ID=7&type=HTML"}
		}}`))
	}))
	defer srv.Close()

	items, err := newTestClient(t, srv).Search(context.Background(), "사기")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "7", items[0].ID)
}

func TestSearch_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"PrecSearch": {"totalCnt": "0"}}`))
	}))
	defer srv.Close()

	items, err := newTestClient(t, srv).Search(context.Background(), "없음")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestSearch_Malformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>error</html>`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Search(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedResponse))
}

func TestSearch_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"PrecSearch": {}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSearch_NoRetryOnClientError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Search(context.Background(), "q")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrExternalSearch))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/DRF/lawService.do", r.URL.Path)
		assert.Equal(t, "JSON", r.URL.Query().Get("type"))

		_, _ = w.Write([]byte(`{"PrecService": {
			"판시사항": " 임대차보증금 반환 ",
			"판결요지": "임대인은 보증금을 반환하여야 한다.",
			"사건종류명": "민사",
			"사건명": "보증금반환",
			"법원명": "대법원",
			"선고일자": "20200101",
			"선고": "선고",
			"사건번호": "2019다12345",
			"판결유형": "판결"
		}}`))
	}))
	defer srv.Close()

	d, err := newTestClient(t, srv).FetchDetail(context.Background(), "/DRF/lawService.do?OC=tester&target=prec&ID=1&type=HTML")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, " 임대차보증금 반환 ", d.Issue)
	assert.Equal(t, "민사", d.CaseTypeName)
	assert.Equal(t, "대법원", d.CourtName)
	assert.Equal(t, "2019다12345", d.CaseNumber)
	assert.Equal(t, "판결", d.JudgmentType)
}

func TestFetchDetail_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Law": "일치하는 판례가 없습니다.  판례명을 확인하여 주십시오."}`))
	}))
	defer srv.Close()

	d, err := newTestClient(t, srv).FetchDetail(context.Background(), "/DRF/lawService.do?ID=9&type=HTML")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestNewClient_RequiresOC(t *testing.T) {
	_, err := NewClient("https://www.law.go.kr", "")
	assert.Error(t, err)
}

func TestAsList(t *testing.T) {
	assert.Len(t, asList(gjson.Parse(`[1,2,3]`)), 3)
	assert.Len(t, asList(gjson.Parse(`{"a":1}`)), 1)
	assert.Nil(t, asList(gjson.Parse(`"text"`)))
}
