package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mdrun/internal/adapter/fence"
	"mdrun/internal/adapter/memstore"
	"mdrun/internal/domain"
	"mdrun/internal/port"
	"mdrun/internal/snippet"
)

type fakeExecutor struct {
	got      []domain.FinalizedSnippet
	exitCode int
	err      error
}

func (f *fakeExecutor) Execute(_ context.Context, s domain.FinalizedSnippet, _ port.Stdio) (port.ExecResult, error) {
	f.got = append(f.got, s)
	return port.ExecResult{ExitCode: f.exitCode, Command: []string{"fake"}}, f.err
}

var testMappings = snippet.StaticMappings{
	Languages: map[string]string{"py": "python"},
	Templates: map[string]string{"py": "def main():\n    $snippet\n\nmain()"},
}

func TestPrepare(t *testing.T) {
	u := NewRunUseCase(testMappings, &fakeExecutor{})

	got, err := u.Prepare(Selection{Text: "```py\nx = 1\nprint(x)\n```"})
	require.NoError(t, err)
	assert.Equal(t, "py", got.LanguageTag)
	assert.Equal(t, "python", got.ExternalLanguageID)
	assert.Equal(t, "x = 1\nprint(x)", got.RawBody)
	assert.Equal(t, "def main():\n    x = 1\n    print(x)\n\nmain()", got.RenderedBody)
}

func TestPrepare_CRLFDocument(t *testing.T) {
	u := NewRunUseCase(testMappings, &fakeExecutor{})

	got, err := u.Prepare(Selection{Text: "```sh\r\necho a\r\necho b\r\n```", LineEnding: snippet.CRLF})
	require.NoError(t, err)
	assert.Equal(t, "echo a\necho b", got.RawBody)
	assert.Equal(t, "echo a\r\necho b", got.RenderedBody)
}

func TestPrepare_ForcedOutputLineEnding(t *testing.T) {
	u := NewRunUseCase(testMappings, &fakeExecutor{}, WithOutputLineEnding(snippet.LF))

	got, err := u.Prepare(Selection{Text: "```sh\r\necho a\r\necho b\r\n```", LineEnding: snippet.CRLF})
	require.NoError(t, err)
	assert.Equal(t, "echo a\necho b", got.RenderedBody)
}

func TestPrepare_EmptySelection(t *testing.T) {
	u := NewRunUseCase(testMappings, &fakeExecutor{})

	_, err := u.Prepare(Selection{Text: "  \n"})
	require.ErrorIs(t, err, ErrEmptySelection)
}

func TestPrepare_ParseErrorPassesThrough(t *testing.T) {
	u := NewRunUseCase(testMappings, &fakeExecutor{})

	_, err := u.Prepare(Selection{Text: "```\nbody\n```"})
	require.ErrorIs(t, err, snippet.ErrNoTagDetected)
}

func TestRun_RecordsHistory(t *testing.T) {
	exec := &fakeExecutor{exitCode: 2}
	hist := memstore.NewMemoryStore()
	u := NewRunUseCase(testMappings, exec, WithHistory(hist, 0))

	clock := time.Unix(1_700_000_000, 0)
	u.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}

	res, err := u.Run(context.Background(), Selection{Text: "```sh\necho hi\n```", Path: "/n/a.md", Line: 3}, port.Stdio{})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Record.ExitCode)
	assert.Equal(t, time.Second, res.Record.Duration)
	assert.Equal(t, []string{"fake"}, res.Command)
	require.Len(t, exec.got, 1)
	assert.Equal(t, "echo hi", exec.got[0].RenderedBody)

	runs, err := hist.RecentRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "/n/a.md", runs[0].Path)
	assert.Equal(t, 3, runs[0].Line)
	assert.Equal(t, "sh", runs[0].ExternalLanguageID)
	assert.NotEmpty(t, runs[0].ID)
}

func TestRun_ExecutorErrorIsRecorded(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("boom")}
	hist := memstore.NewMemoryStore()
	u := NewRunUseCase(testMappings, exec, WithHistory(hist, 1))

	_, err := u.Run(context.Background(), Selection{Text: "```sh\necho hi\n```"}, port.Stdio{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")

	runs, err := hist.RecentRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "boom", runs[0].Error)
}

func TestRun_ParseErrorNotExecuted(t *testing.T) {
	exec := &fakeExecutor{}
	u := NewRunUseCase(testMappings, exec)

	_, err := u.Run(context.Background(), Selection{Text: "not a fence"}, port.Stdio{})
	require.ErrorIs(t, err, snippet.ErrNotFenced)
	assert.Empty(t, exec.got)
}

const selectDoc = "# Title\n" +
	"\n" +
	"```sh\n" +
	"echo one\n" +
	"```\n" +
	"\n" +
	"```py\n" +
	"print(2)\n" +
	"```\n"

func TestSelectBlock(t *testing.T) {
	ex := fence.NewExtractor()

	sel, err := SelectBlock(ex, "doc.md", selectDoc, 4, 0)
	require.NoError(t, err)
	assert.Equal(t, "```sh\necho one\n```", sel.Text)
	assert.Equal(t, 3, sel.Line)
	assert.Equal(t, snippet.LF, sel.LineEnding)

	sel, err = SelectBlock(ex, "doc.md", selectDoc, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 7, sel.Line)

	_, err = SelectBlock(ex, "doc.md", selectDoc, 1, 0)
	assert.EqualError(t, err, "no fenced code block at doc.md:1")

	_, err = SelectBlock(ex, "", selectDoc, 0, 5)
	assert.EqualError(t, err, "<stdin> has 2 fenced code blocks, no block #5")

	sel, err = SelectBlock(ex, "doc.md", "```sh\nx\n```\n", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "```sh\nx\n```\n", sel.Text)
}

func TestSelectBlock_SkipsLongFences(t *testing.T) {
	ex := fence.NewExtractor()
	doc := "````sh\necho hi\n````\n\n```py\nprint(1)\n````\n"

	_, err := SelectBlock(ex, "doc.md", doc, 2, 0)
	assert.EqualError(t, err, "no fenced code block at doc.md:2")

	_, err = SelectBlock(ex, "doc.md", doc, 6, 0)
	assert.EqualError(t, err, "no fenced code block at doc.md:6")

	_, err = SelectBlock(ex, "doc.md", doc, 0, 1)
	assert.EqualError(t, err, "doc.md has 0 fenced code blocks, no block #1")
}
