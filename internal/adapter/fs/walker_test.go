package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestWalkerIncludesExcludes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "민법_판례.pdf"), "x")
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	writeFile(t, filepath.Join(dir, "old", "상법_판례.pdf"), "x")

	w := NewWalker([]string{"**/*.pdf"}, []string{"old/**"})
	files, err := w.Walk(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "민법_판례.pdf", filepath.Base(files[0].Path))
	assert.EqualValues(t, 1, files[0].Size)
}

func TestDiscoverLawTypes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "형법_판례.pdf"), "x")
	writeFile(t, filepath.Join(dir, "민법_판례.pdf"), "x")
	writeFile(t, filepath.Join(dir, "민법_판례_raw.txt"), "x")

	names, err := DiscoverLawTypes(dir, "_판례.pdf")
	require.NoError(t, err)
	assert.Equal(t, []string{"민법", "형법"}, names)
}

func TestCleanDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prep")
	require.NoError(t, CleanDir(dir))

	writeFile(t, filepath.Join(dir, "a.txt"), "x")
	writeFile(t, filepath.Join(dir, "sub", "b.txt"), "x")
	require.NoError(t, CleanDir(dir))

	_, err := os.Stat(filepath.Join(dir, "a.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "sub", "b.txt"))
	assert.NoError(t, err)
}
