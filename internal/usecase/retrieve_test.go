package usecase

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lexrag/internal/domain"
	"lexrag/internal/metrics"
)

func TestRetrieve_BothPaths(t *testing.T) {
	vec := &fakeVector{results: []domain.SearchResult{{Distance: ptr(0.2), Content: "v"}}}
	ext := &fakeExternal{results: []domain.SearchResult{{Content: "e"}}}
	uc := NewRetrieveUseCase(fakeClarifier{}, vec, ext, RetrieveOptions{TopN: 3, UseVector: true, UseExternal: true}, nil, nil)

	v, e, err := uc.Retrieve(context.Background(), "  전세 보증금  ")
	require.NoError(t, err)

	assert.Equal(t, "semantic:전세 보증금", vec.gotText)
	assert.Equal(t, 3, vec.gotTopN)
	assert.Equal(t, "keyword:전세 보증금", ext.gotKeyword)

	assert.Equal(t, "전세 보증금", v.Query)
	assert.Equal(t, "semantic:전세 보증금", v.ExpandedQuery)
	assert.Len(t, v.Results, 1)
	assert.Equal(t, "keyword:전세 보증금", e.ExpandedQuery)
	assert.Len(t, e.Results, 1)
}

func TestRetrieve_EmptyQuery(t *testing.T) {
	uc := NewRetrieveUseCase(nil, &fakeVector{}, nil, RetrieveOptions{UseVector: true}, nil, nil)
	_, _, err := uc.Retrieve(context.Background(), "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyQuery)
}

func TestRetrieve_DisabledPathsAreNil(t *testing.T) {
	vec := &fakeVector{}
	uc := NewRetrieveUseCase(nil, vec, &fakeExternal{}, RetrieveOptions{UseVector: true}, nil, nil)

	v, e, err := uc.Retrieve(context.Background(), "질문")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.NotNil(t, v.Results)
	assert.Empty(t, v.Results)
	assert.Equal(t, "질문", vec.gotText)
	assert.Nil(t, e)
}

func TestRetrieve_VectorErrorPropagates(t *testing.T) {
	uc := NewRetrieveUseCase(nil, &fakeVector{err: errBoom}, nil, RetrieveOptions{UseVector: true}, nil, nil)
	_, _, err := uc.Retrieve(context.Background(), "질문")
	assert.ErrorIs(t, err, errBoom)
}

func TestRetrieve_ExternalErrorDegrades(t *testing.T) {
	m := metrics.New()
	uc := NewRetrieveUseCase(nil, nil, &fakeExternal{err: errBoom}, RetrieveOptions{UseExternal: true}, m, nil)

	v, e, err := uc.Retrieve(context.Background(), "질문")
	require.NoError(t, err)
	assert.Nil(t, v)
	require.NotNil(t, e)
	assert.Empty(t, e.Results)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ExternalFailures))
}

func TestRetrieve_DebugDumps(t *testing.T) {
	dir := t.TempDir()
	vec := &fakeVector{results: []domain.SearchResult{{Distance: ptr(0.1), Content: "내용", Rationale: ptr("이유")}}}
	uc := NewRetrieveUseCase(nil, vec, &fakeExternal{}, RetrieveOptions{UseVector: true, UseExternal: true, DebugDumpDir: dir}, nil, nil)

	_, _, err := uc.Retrieve(context.Background(), "질문")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "context_rag.json"))
	require.NoError(t, err)
	var rc domain.RetrievalContext
	require.NoError(t, json.Unmarshal(data, &rc))
	assert.Equal(t, "질문", rc.Query)
	require.Len(t, rc.Results, 1)
	assert.Equal(t, "이유", *rc.Results[0].Rationale)
	assert.Contains(t, string(data), "유사도거리")

	assert.FileExists(t, filepath.Join(dir, "context_api.json"))
}
