package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseChunk_Canonical(t *testing.T) {
	chunk := "제목라인\n(2020다12345)\n<쟁점>\nA\n<판결요지>\nB\n<선정이유>\nC"

	rec := ParseChunk(chunk)

	assert.Equal(t, "제목라인", rec.Title)
	assert.Equal(t, "(2020다12345)", rec.CaseNumber)
	assert.Equal(t, "A\nB", rec.Content)
	assert.Equal(t, "A", rec.Issue)
	assert.Equal(t, "B", rec.Holding)
	assert.Equal(t, "C", rec.Rationale)
}

func TestParseChunk_MultiLineTitle(t *testing.T) {
	chunk := "  임대차 보증금 반환과\n  동시이행 관계  \n\n(대법원 2020. 1. 1. 선고 2019다1234 판결)\n<쟁점>\n첫째 줄\n둘째 줄\n<판결요지>\n요지\n"

	rec := ParseChunk(chunk)

	assert.Equal(t, "임대차 보증금 반환과 동시이행 관계", rec.Title)
	assert.Equal(t, "(대법원 2020. 1. 1. 선고 2019다1234 판결)", rec.CaseNumber)
	assert.Equal(t, "첫째 줄\n둘째 줄\n요지", rec.Content)
	assert.Equal(t, "", rec.Rationale)
}

func TestParseChunk_SingleSection(t *testing.T) {
	rec := ParseChunk("제목\n(2021도1)\n<쟁점>\n쟁점 내용")

	assert.Equal(t, "쟁점 내용", rec.Content)
	assert.Equal(t, "", rec.Rationale)
	assert.Equal(t, "", rec.Holding)
}

func TestParseChunk_EmptyAndDegenerate(t *testing.T) {
	inputs := []string{
		"",
		"   \n\n  ",
		"<쟁점>",
		"(only case number)",
		"<a>\n<b>\n<c>",
		"제목\n(2020다1)",
		"제목\n(2020다1)\n<쟁점>\n\n<판결요지>\n\n",
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() {
			rec := ParseChunk(in)
			assert.Equal(t, "", rec.Content, "input %q", in)
			assert.Equal(t, "", rec.Rationale, "input %q", in)
		})
	}
}

func TestParseChunk_NoCaseNumberLine(t *testing.T) {
	// Every line folds into the title and the body starts after the first line.
	rec := ParseChunk("첫 줄\n둘째 줄\n<쟁점>\n내용")

	assert.Equal(t, "", rec.CaseNumber)
	assert.Equal(t, "첫 줄 둘째 줄 <쟁점> 내용", rec.Title)
	assert.Equal(t, "둘째 줄\n내용", rec.Content)
}

func TestParseChunk_TextBeforeFirstTag(t *testing.T) {
	rec := ParseChunk("제목\n(2020다1)\n서두\n<쟁점>\nA\n<판결요지>\nB")

	// Positional sections: the untagged preface becomes the first part.
	assert.Equal(t, "서두\nA", rec.Content)
	assert.Equal(t, "B", rec.Rationale)
}
