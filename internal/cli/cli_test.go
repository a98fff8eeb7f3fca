package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdrun/internal/domain"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(bytes.NewReader(nil))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootDir, cfgFile, logLevel = "", "", ""
		runLine, runBlock, runEOL = 0, 0, ""
		renderJSON, listJSON, listLang = false, false, ""
		searchTopK, searchLang, searchJSON = 0, "", false
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(doc, []byte("intro\n\n```go\nfmt.Println(1)\n```\n"), 0644))

	out, err := execute(t, "render", doc, "--line", "4", "--dir", dir)
	require.NoError(t, err)
	assert.Equal(t, "package main\n\nfunc main() {\n\tfmt.Println(1)\n}\n", out)
}

func TestRenderCommand_NoBlockAtLine(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(doc, []byte("intro\n\n```sh\necho\n```\n"), 0644))

	_, err := execute(t, "render", doc, "--line", "1", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fenced code block at")
}

func TestIndexAndList(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("# A\n```sh\necho hi\n```\n"), 0644))

	_, err := execute(t, "index", dir, "--dir", dir)
	require.NoError(t, err)

	out, err := execute(t, "list", "--json", "--dir", dir)
	require.NoError(t, err)

	var blocks []domain.Block
	require.NoError(t, json.Unmarshal([]byte(out), &blocks))
	require.Len(t, blocks, 1)
	assert.Equal(t, "sh", blocks[0].LanguageTag)
	assert.Equal(t, 2, blocks[0].StartLine)
	assert.Equal(t, 4, blocks[0].EndLine)
	assert.Equal(t, 1, blocks[0].Index)
}

func TestSearchCommand(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"),
		[]byte("```sh\necho hello\n```\n\n```py\nimport requests\n```\n"), 0644))

	_, err := execute(t, "index", dir, "--dir", dir)
	require.NoError(t, err)

	out, err := execute(t, "search", "requests", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "a.md:5-7\t#2\tpy")
	assert.Contains(t, out, "    import requests\n")
}

func TestFirstBodyLine(t *testing.T) {
	assert.Equal(t, "x := 1", firstBodyLine("```go\n\n  x := 1\n```"))
	assert.Equal(t, "", firstBodyLine("```go\n```"))
}

func TestListWithoutIndex(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, "list", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no index found")
}

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "init", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "mdrun.yaml")
	assert.FileExists(t, filepath.Join(dir, "mdrun.yaml"))

	_, err = execute(t, "init", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestFormatLanguages(t *testing.T) {
	got := formatLanguages(map[string]int{"sh": 2, "py": 2, "go": 5, "": 1})
	assert.Equal(t, "go: 5, py: 2, sh: 2, -: 1", got)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "<1s", formatDuration(500*time.Millisecond))
	assert.Equal(t, "42s", formatDuration(42*time.Second))
	assert.Equal(t, "2m5s", formatDuration(125*time.Second))
	assert.Equal(t, "1h30m", formatDuration(90*time.Minute))
}
