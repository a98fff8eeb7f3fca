package port

import (
	"context"
	"io"

	"mdrun/internal/domain"
)

// Executor runs a finalized snippet.
type Executor interface {
	Execute(ctx context.Context, s domain.FinalizedSnippet, stdio Stdio) (ExecResult, error)
}

type Stdio struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

type ExecResult struct {
	ExitCode int
	Command  []string
}
