package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lexrag/internal/adapter/llm"
	"lexrag/internal/domain"
)

func newTestAnswer(t *testing.T, mock *llm.MockLLM) *AnswerUseCase {
	t.Helper()
	vec := &fakeVector{results: []domain.SearchResult{{Distance: ptr(0.3), Title: "벡터판례", Content: "벡터내용"}}}
	ext := &fakeExternal{results: []domain.SearchResult{{Title: "외부판례", Content: "외부내용"}}}
	retrieve := NewRetrieveUseCase(nil, vec, ext, RetrieveOptions{UseVector: true, UseExternal: true}, nil, nil)
	return NewAnswerUseCase(retrieve, NewPackUseCase(8000, "...", nil), mock, nil, nil)
}

func TestAsk_PromptCarriesBothContexts(t *testing.T) {
	mock := llm.NewMockLLM()
	mock.Respond = func(string) (string, error) { return "답변입니다", nil }
	uc := newTestAnswer(t, mock)

	ans, err := uc.Ask(context.Background(), "보증금을 돌려받을 수 있나요?", "")
	require.NoError(t, err)
	assert.Equal(t, "답변입니다", ans.Text)
	assert.Equal(t, "보증금을 돌려받을 수 있나요?", ans.Query)
	require.NotNil(t, ans.Vector)
	require.NotNil(t, ans.External)

	require.Len(t, mock.Prompts, 1)
	p := mock.Prompts[0]
	assert.Contains(t, p, "보증금을 돌려받을 수 있나요?")
	assert.Contains(t, p, "벡터내용")
	assert.Contains(t, p, "외부내용")
}

func TestAsk_GenerationError(t *testing.T) {
	mock := llm.NewMockLLM()
	mock.Respond = func(string) (string, error) { return "", errBoom }

	_, err := newTestAnswer(t, mock).Ask(context.Background(), "질문", "")
	assert.ErrorIs(t, err, errBoom)
}

func TestAsk_EmptyModelOutput(t *testing.T) {
	mock := llm.NewMockLLM()
	mock.Respond = func(string) (string, error) { return "", nil }

	ans, err := newTestAnswer(t, mock).Ask(context.Background(), "질문", "conv_1")
	require.NoError(t, err)
	assert.Equal(t, "", ans.Text)
}

func TestFormatAnswerFile(t *testing.T) {
	assert.Equal(t, "=== 사용자 질문 ===\n질문\n=== 생성된 답변 ===\n답변", FormatAnswerFile("질문", "답변"))
}
