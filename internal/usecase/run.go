package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mdrun/internal/domain"
	"mdrun/internal/port"
	"mdrun/internal/snippet"
)

// ErrEmptySelection is returned before parsing when there is nothing to run.
var ErrEmptySelection = errors.New("No code selected.")

// Selection is the text handed to the parser plus where it came from.
type Selection struct {
	Text       string
	LineEnding snippet.LineEnding // terminator of the source document
	Path       string             // empty for stdin
	Line       int                // first line of the selection, 1-based; 0 if unknown
}

// RunUseCase parses a selection, renders it and hands it to an executor.
type RunUseCase struct {
	mappings     snippet.Mappings
	executor     port.Executor
	history      port.HistoryStore
	historyLimit int
	outputEOL    snippet.LineEnding
	logger       zerolog.Logger
	now          func() time.Time
}

// RunOption configures a RunUseCase.
type RunOption func(*RunUseCase)

// WithHistory records every execution in h, keeping at most limit records
// (0 keeps all).
func WithHistory(h port.HistoryStore, limit int) RunOption {
	return func(u *RunUseCase) {
		u.history = h
		u.historyLimit = limit
	}
}

// WithOutputLineEnding forces the line ending of the rendered snippet instead
// of reusing the source document's.
func WithOutputLineEnding(eol snippet.LineEnding) RunOption {
	return func(u *RunUseCase) {
		u.outputEOL = eol
	}
}

func WithLogger(l zerolog.Logger) RunOption {
	return func(u *RunUseCase) {
		u.logger = l
	}
}

// NewRunUseCase creates a new run use case.
func NewRunUseCase(mappings snippet.Mappings, executor port.Executor, opts ...RunOption) *RunUseCase {
	u := &RunUseCase{
		mappings: mappings,
		executor: executor,
		logger:   zerolog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Prepare parses and finalizes a selection without running it.
func (u *RunUseCase) Prepare(sel Selection) (domain.FinalizedSnippet, error) {
	if strings.TrimSpace(sel.Text) == "" {
		return domain.FinalizedSnippet{}, ErrEmptySelection
	}

	eol := sel.LineEnding
	if eol == 0 {
		eol = snippet.DetectLineEnding(sel.Text)
	}

	parsed, err := snippet.Parse(eol.String(), sel.Text)
	if err != nil {
		return domain.FinalizedSnippet{}, err
	}

	out := eol
	if u.outputEOL != 0 {
		out = u.outputEOL
	}

	finalized := snippet.Finalize(u.mappings, out.String(), parsed)
	u.logger.Debug().
		Str("tag", finalized.LanguageTag).
		Str("language_id", finalized.ExternalLanguageID).
		Str("eol", out.Name()).
		Msg("snippet prepared")
	return finalized, nil
}

// RunResult describes a finished execution.
type RunResult struct {
	Snippet domain.FinalizedSnippet
	Record  domain.RunRecord
	Command []string
}

// Run prepares the selection and executes it. A non-zero exit code of the
// snippet is reported in the result, not as an error.
func (u *RunUseCase) Run(ctx context.Context, sel Selection, stdio port.Stdio) (*RunResult, error) {
	finalized, err := u.Prepare(sel)
	if err != nil {
		return nil, err
	}

	rec := domain.RunRecord{
		ID:                 uuid.NewString(),
		Path:               sel.Path,
		Line:               sel.Line,
		LanguageTag:        finalized.LanguageTag,
		ExternalLanguageID: finalized.ExternalLanguageID,
		StartedAt:          u.now(),
	}

	res, execErr := u.executor.Execute(ctx, finalized, stdio)
	rec.Duration = u.now().Sub(rec.StartedAt)
	rec.ExitCode = res.ExitCode
	if execErr != nil {
		rec.Error = execErr.Error()
	}

	u.record(rec)

	if execErr != nil {
		return nil, fmt.Errorf("run %s snippet: %w", finalized.ExternalLanguageID, execErr)
	}

	u.logger.Info().
		Str("run_id", rec.ID).
		Int("exit_code", rec.ExitCode).
		Dur("duration", rec.Duration).
		Msg("snippet finished")

	return &RunResult{Snippet: finalized, Record: rec, Command: res.Command}, nil
}

// record stores rec in the history. History failures never fail a run.
func (u *RunUseCase) record(rec domain.RunRecord) {
	if u.history == nil {
		return
	}
	if err := u.history.AddRun(rec); err != nil {
		u.logger.Warn().Err(err).Msg("failed to record run")
		return
	}
	if u.historyLimit > 0 {
		if err := u.history.PruneRuns(u.historyLimit); err != nil {
			u.logger.Warn().Err(err).Msg("failed to prune run history")
		}
	}
}
