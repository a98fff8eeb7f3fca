package usecase

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdrun/internal/adapter/fence"
	"mdrun/internal/adapter/fs"
	"mdrun/internal/adapter/memstore"
)

func writeDoc(t *testing.T, path, content string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func newIndexer(st *memstore.MemoryStore) *IndexUseCase {
	return NewIndexUseCase(st, fs.NewWalker(nil, nil), fs.OSReader{}, fence.NewExtractor())
}

func TestIndex_Incremental(t *testing.T) {
	root := t.TempDir()
	t0 := time.Unix(1_700_000_000, 0)
	a := filepath.Join(root, "a.md")
	b := filepath.Join(root, "sub", "b.md")
	writeDoc(t, a, "```sh\necho a\n```\n\n```py\nprint(1)\n```\n", t0)
	writeDoc(t, b, "```sh\necho b\n```\n", t0)
	writeDoc(t, filepath.Join(root, "c.txt"), "```sh\nnope\n```\n", t0)

	st := memstore.NewMemoryStore()
	idx := newIndexer(st)

	var calls int
	res, err := idx.Index(root, func(processed, total int, _ string) {
		calls++
		assert.Equal(t, 2, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, res.FilesIndexed)
	assert.Equal(t, 3, res.BlocksFound)
	assert.Empty(t, res.Errors)

	stats, err := st.GetStats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Languages["sh"])
	assert.Equal(t, 1, stats.Languages["py"])

	// Unchanged files are skipped, a touched one is re-read, a removed one dropped.
	writeDoc(t, a, "```go\nfmt.Println()\n```\n", t0.Add(time.Minute))
	require.NoError(t, os.Remove(b))

	res, err = idx.Index(root, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesIndexed)
	assert.Equal(t, 1, res.FilesDeleted)
	assert.Equal(t, 1, res.BlocksFound)

	blocks, err := st.ListBlocks()
	require.NoError(t, err)
	require.Len(t, blocks, 1)
	assert.Equal(t, "go", blocks[0].LanguageTag)

	res, err = idx.Index(root, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.FilesIndexed)
	assert.Equal(t, 1, res.FilesSkipped)
}

func TestReindex(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.md")
	writeDoc(t, a, "```sh\necho a\n```\n", time.Unix(1_700_000_000, 0))

	st := memstore.NewMemoryStore()
	idx := newIndexer(st)

	res, err := idx.Reindex([]string{a}, fs.Stat)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesIndexed)
	assert.Equal(t, 1, res.BlocksFound)

	require.NoError(t, os.Remove(a))
	res, err = idx.Reindex([]string{a}, fs.Stat)
	require.NoError(t, err)
	assert.Equal(t, 1, res.FilesDeleted)
	assert.Equal(t, 0, res.BlocksFound)
}

func TestGenerateDocID(t *testing.T) {
	assert.Equal(t, GenerateDocID("/a.md"), GenerateDocID("/a.md"))
	assert.NotEqual(t, GenerateDocID("/a.md"), GenerateDocID("/b.md"))
	assert.Len(t, GenerateDocID("/a.md"), 16)
}
