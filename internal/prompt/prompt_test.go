package prompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderClarify(t *testing.T) {
	out, err := Render(ClarifySemantic, QueryData{Query: "전세금을 못 받았어요"})
	require.NoError(t, err)
	assert.Contains(t, out, "질문: 전세금을 못 받았어요")
	assert.Contains(t, out, "임차인의 민사·형사적 구제절차")

	out, err = Render(ClarifyKeyword, QueryData{Query: "교통사고"})
	require.NoError(t, err)
	assert.Contains(t, out, "입력: 교통사고")
	assert.Contains(t, out, "보증금 반환 형사처벌")
}

func TestRenderAnswer(t *testing.T) {
	out, err := Render(Answer, AnswerData{
		Query:           "보증금 반환",
		VectorContext:   "[민법 / (2019다1)]",
		ExternalContext: "",
	})
	require.NoError(t, err)
	assert.Contains(t, out, "[사용자 질문]\n보증금 반환")
	assert.Contains(t, out, "<판례 데이터베이스>\n[민법 / (2019다1)]")
	assert.NotContains(t, out, "<법령정보 공동활용 API>")
	assert.NotContains(t, out, "(검색된 판례 없음)")
}

func TestRenderAnswer_NoContext(t *testing.T) {
	out, err := Render(Answer, AnswerData{Query: "q"})
	require.NoError(t, err)
	assert.Contains(t, out, "(검색된 판례 없음)")
	assert.Contains(t, out, "관련 판례를 찾지 못했습니다")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, err := Render("missing.txt", nil)
	assert.Error(t, err)
}

func TestSystemPrompt(t *testing.T) {
	builtin, err := SystemPrompt("")
	require.NoError(t, err)
	assert.Contains(t, builtin, "법률상담봇")

	path := filepath.Join(t.TempDir(), "persona.txt")
	require.NoError(t, os.WriteFile(path, []byte("  custom persona \n"), 0644))
	custom, err := SystemPrompt(path)
	require.NoError(t, err)
	assert.Equal(t, "custom persona", custom)

	_, err = SystemPrompt(filepath.Join(t.TempDir(), "none.txt"))
	assert.Error(t, err)
}
