package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRetrievalContextNeverNil(t *testing.T) {
	ctx := NewRetrievalContext("q", "eq", nil)
	require.NotNil(t, ctx.Results)
	assert.Len(t, ctx.Results, 0)

	data, err := json.Marshal(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"results":[]`)
}

func TestSearchResultJSONUsesKoreanKeys(t *testing.T) {
	r := SearchResult{Content: "본문", LawType: "민법", Title: "제목", CaseNumber: "(2020다1)"}
	data, err := json.Marshal(r)
	require.NoError(t, err)

	s := string(data)
	assert.Contains(t, s, `"유사도거리":null`)
	assert.Contains(t, s, `"선정이유":null`)
	assert.Contains(t, s, `"판례번호":"(2020다1)"`)
}

func TestSessionConversationOps(t *testing.T) {
	s := &Session{ID: "s1", Conversations: []Conversation{{ID: "a"}, {ID: "b"}, {ID: "c"}}}

	c := s.Conversation("b")
	require.NotNil(t, c)
	c.Title = "changed"
	assert.Equal(t, "changed", s.Conversations[1].Title)

	assert.Nil(t, s.Conversation("zzz"))

	assert.True(t, s.RemoveConversation("b"))
	assert.False(t, s.RemoveConversation("b"))
	require.Len(t, s.Conversations, 2)
	assert.Equal(t, "a", s.Conversations[0].ID)
	assert.Equal(t, "c", s.Conversations[1].ID)
}
