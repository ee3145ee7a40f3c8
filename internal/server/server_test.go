package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lexrag/config"
	"lexrag/internal/adapter/llm"
	"lexrag/internal/adapter/session"
	"lexrag/internal/metrics"
	"lexrag/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAsker struct{}

func (stubAsker) Ask(_ context.Context, query, _ string) (*usecase.Answer, error) {
	return &usecase.Answer{Query: query, Text: "답변: " + query}, nil
}

type stubRebuilder struct {
	calls    int
	lawTypes []config.LawType
}

func (r *stubRebuilder) Rebuild(_ context.Context, lawTypes []config.LawType, _ func(usecase.IndexResult)) ([]usecase.IndexResult, error) {
	r.calls++
	r.lawTypes = lawTypes
	return []usecase.IndexResult{{LawType: "민법", Added: 3}}, nil
}

type testEnv struct {
	srv       *Server
	mock      *llm.MockLLM
	rebuilder *stubRebuilder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mock := llm.NewMockLLM()
	conv := usecase.NewConversationUseCase(session.NewMemoryStore(), mock, stubAsker{}, "시스템", nil)
	rb := &stubRebuilder{}
	srv := New(conv, rb, []config.LawType{{Name: "민법"}}, metrics.New(), nil)
	return &testEnv{srv: srv, mock: mock, rebuilder: rb}
}

func (e *testEnv) do(t *testing.T, method, path string, params url.Values, body string) *httptest.ResponseRecorder {
	t.Helper()
	target := path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (e *testEnv) session(t *testing.T) string {
	t.Helper()
	w := e.do(t, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	return decode(t, w)["session_id"].(string)
}

func TestInitOrRestore(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	sid := body["session_id"].(string)
	assert.NotEmpty(t, sid)
	_, hasActive := body["active_conv_id"]
	assert.False(t, hasActive)

	w = env.do(t, http.MethodPost, "/new_conversation", url.Values{"session_id": {sid}}, "")
	require.Equal(t, http.StatusOK, w.Code)
	created := decode(t, w)
	assert.Equal(t, "대화 1", created["title"])
	assert.Equal(t, []any{}, created["history"])

	body = decode(t, env.do(t, http.MethodGet, "/", nil, ""))
	assert.Equal(t, sid, body["session_id"])
	assert.Equal(t, created["conversation_id"], body["active_conv_id"])
	assert.Equal(t, "대화 1", body["title"])
}

func TestAskAndDetail(t *testing.T) {
	env := newTestEnv(t)
	sid := env.session(t)

	w := env.do(t, http.MethodPost, "/ask", nil, `{"session_id":"`+sid+`","conv_id":"","query":"전세 사기"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "답변: 전세 사기", body["answer"])
	cid := body["conversation_id"].(string)

	w = env.do(t, http.MethodGet, "/get_conversation_detail", url.Values{"session_id": {sid}, "conversation_id": {cid}}, "")
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode(t, w)
	hist := detail["history"].([]any)
	require.Len(t, hist, 2)
	assert.Equal(t, map[string]any{"role": "user", "content": "전세 사기"}, hist[0])

	w = env.do(t, http.MethodGet, "/get_conversations", url.Values{"session_id": {sid}}, "")
	list := decode(t, w)["conversations"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, true, list[0].(map[string]any)["is_active"])
}

func TestAsk_Errors(t *testing.T) {
	env := newTestEnv(t)
	sid := env.session(t)

	w := env.do(t, http.MethodPost, "/ask", nil, `{"session_id":"missing","query":"q"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "error", decode(t, w)["status"])

	w = env.do(t, http.MethodPost, "/ask", nil, `{"session_id":"`+sid+`","query":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/ask", nil, `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConversationNotFound(t *testing.T) {
	env := newTestEnv(t)
	sid := env.session(t)
	params := url.Values{"session_id": {sid}, "conversation_id": {"nope"}}

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/get_conversation_detail"},
		{http.MethodPost, "/switch_conversation"},
		{http.MethodDelete, "/delete_conversation"},
		{http.MethodGet, "/download_conversation"},
	} {
		w := env.do(t, tc.method, tc.path, params, "")
		assert.Equal(t, http.StatusNotFound, w.Code, tc.path)
		assert.Equal(t, "error", decode(t, w)["status"], tc.path)
	}
}

func TestSwitchAndDelete(t *testing.T) {
	env := newTestEnv(t)
	sid := env.session(t)
	q := url.Values{"session_id": {sid}}

	c1 := decode(t, env.do(t, http.MethodPost, "/new_conversation", q, ""))["conversation_id"].(string)
	c2 := decode(t, env.do(t, http.MethodPost, "/new_conversation", q, ""))["conversation_id"].(string)

	w := env.do(t, http.MethodPost, "/switch_conversation", url.Values{"session_id": {sid}, "conversation_id": {c1}}, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "대화 1", decode(t, w)["title"])

	w = env.do(t, http.MethodDelete, "/delete_conversation", url.Values{"session_id": {sid}, "conversation_id": {c1}}, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "대화 삭제됨", body["message"])
	assert.Equal(t, c2, body["active_conv_id"])

	w = env.do(t, http.MethodDelete, "/delete_conversation", url.Values{"session_id": {sid}, "conversation_id": {c2}}, "")
	body = decode(t, w)
	assert.Nil(t, body["active_conv_id"])
	assert.Equal(t, []any{}, body["history"])
	assert.ElementsMatch(t, []string{c1, c2}, env.mock.Deleted)
}

func TestDownloadConversation(t *testing.T) {
	env := newTestEnv(t)
	sid := env.session(t)

	cid := decode(t, env.do(t, http.MethodPost, "/new_conversation", url.Values{"session_id": {sid}}, ""))["conversation_id"].(string)
	params := url.Values{"session_id": {sid}, "conversation_id": {cid}}

	w := env.do(t, http.MethodGet, "/download_conversation", params, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["message"], "의 대화 내용이 없습니다.")

	env.do(t, http.MethodPost, "/ask", nil, `{"session_id":"`+sid+`","conv_id":"`+cid+`","query":"질문"}`)

	w = env.do(t, http.MethodGet, "/download_conversation", params, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
	assert.Contains(t, w.Body.String(), "  - [사용자]:\n질문\n\n")
}

func TestUpdateDB(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/update_db", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DB 업데이트 완료", decode(t, w)["message"])
	assert.Equal(t, 1, env.rebuilder.calls)
	assert.Equal(t, "민법", env.rebuilder.lawTypes[0].Name)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "lexrag_")
}
