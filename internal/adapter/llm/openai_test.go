package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lexrag/internal/domain"
	"lexrag/internal/port"
)

func newTestClient(t *testing.T, url string) *OpenAIClient {
	t.Helper()
	t.Setenv("TEST_LLM_KEY", "secret")
	c, err := NewOpenAIClient("TEST_LLM_KEY", "gpt-5-mini", url, 0)
	require.NoError(t, err)
	return c
}

func TestOpenAIClient_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/responses", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req responsesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-5-mini", req.Model)
		assert.Equal(t, "질문", req.Input)
		assert.Equal(t, "conv_1", req.Conversation)

		_, _ = w.Write([]byte(`{
			"output": [
				{"type": "reasoning", "summary": []},
				{"type": "message", "content": [
					{"type": "output_text", "text": "첫째 "},
					{"type": "refusal", "refusal": "no"},
					{"type": "output_text", "text": "둘째"}
				]}
			]
		}`))
	}))
	defer srv.Close()

	gen, err := newTestClient(t, srv.URL).Generate(context.Background(), port.GenerateRequest{Prompt: "질문", ConversationID: "conv_1"})
	require.NoError(t, err)
	assert.Equal(t, "첫째 둘째", gen.Text)
	assert.Equal(t, "conv_1", gen.ConversationID)
}

func TestOpenAIClient_GenerateWithoutConversation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, has := raw["conversation"]
		assert.False(t, has)
		_, _ = w.Write([]byte(`{"output": []}`))
	}))
	defer srv.Close()

	gen, err := newTestClient(t, srv.URL).Generate(context.Background(), port.GenerateRequest{Prompt: "q"})
	require.NoError(t, err)
	assert.Equal(t, "", gen.Text)
}

func TestOpenAIClient_MalformedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Generate(context.Background(), port.GenerateRequest{Prompt: "q"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrMalformedResponse))
}

func TestOpenAIClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).Generate(context.Background(), port.GenerateRequest{Prompt: "q"})
	assert.Error(t, err)
}

func TestOpenAIClient_Conversations(t *testing.T) {
	var deleted string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/conversations":
			var req conversationRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			require.Len(t, req.Items, 1)
			assert.Equal(t, "system", req.Items[0].Role)
			assert.Equal(t, "message", req.Items[0].Type)
			assert.Equal(t, "너는 법률 상담사다", req.Items[0].Content)
			_, _ = w.Write([]byte(`{"id": "conv_abc", "object": "conversation"}`))
		case r.Method == http.MethodDelete:
			deleted = r.URL.Path
			_, _ = w.Write([]byte(`{"id": "conv_abc", "deleted": true}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	id, err := c.CreateConversation(context.Background(), "너는 법률 상담사다")
	require.NoError(t, err)
	assert.Equal(t, "conv_abc", id)

	require.NoError(t, c.DeleteConversation(context.Background(), id))
	assert.Equal(t, "/conversations/conv_abc", deleted)
}

func TestMockLLM(t *testing.T) {
	m := NewMockLLM()
	ctx := context.Background()

	id, err := m.CreateConversation(ctx, "sys")
	require.NoError(t, err)

	gen, err := m.Generate(ctx, port.GenerateRequest{Prompt: "p", ConversationID: id})
	require.NoError(t, err)
	assert.Equal(t, "mock answer: p", gen.Text)
	assert.Equal(t, 1, m.PromptCount())

	require.NoError(t, m.DeleteConversation(ctx, id))
	assert.Error(t, m.DeleteConversation(ctx, id))
}
