package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"mdrun/internal/domain"
	"mdrun/internal/port"
)

// ErrNoRunner is returned when no command is configured for a language id.
var ErrNoRunner = errors.New("no runner registered")

// Resolver supplies the command and temp file extension for a language id.
type Resolver interface {
	Runner(languageID string) ([]string, bool)
	Extension(languageID string) string
}

// Options tunes a CommandRunner.
type Options struct {
	Timeout   time.Duration // 0 disables the timeout
	WorkDir   string        // working directory of the command; "" keeps the caller's
	TempDir   string        // parent of the per-run temp directory; "" uses os.TempDir
	KeepFiles bool
}

// CommandRunner writes a snippet to a temporary file and runs the command
// configured for its language, the way an editor runs an unsaved buffer.
type CommandRunner struct {
	resolver Resolver
	opts     Options
	logger   zerolog.Logger
}

func NewCommandRunner(resolver Resolver, opts Options, logger zerolog.Logger) *CommandRunner {
	return &CommandRunner{
		resolver: resolver,
		opts:     opts,
		logger:   logger.With().Str("component", "runner").Logger(),
	}
}

func (r *CommandRunner) Execute(ctx context.Context, s domain.FinalizedSnippet, stdio port.Stdio) (port.ExecResult, error) {
	template, ok := r.resolver.Runner(s.ExternalLanguageID)
	if !ok {
		return port.ExecResult{}, fmt.Errorf("%w for %s", ErrNoRunner, s.ExternalLanguageID)
	}

	dir, err := os.MkdirTemp(r.opts.TempDir, "mdrun-")
	if err != nil {
		return port.ExecResult{}, fmt.Errorf("failed to create temp dir: %w", err)
	}
	if r.opts.KeepFiles {
		r.logger.Info().Str("dir", dir).Msg("keeping snippet files")
	} else {
		defer os.RemoveAll(dir)
	}

	file := filepath.Join(dir, "snippet"+r.resolver.Extension(s.ExternalLanguageID))
	if err := os.WriteFile(file, []byte(s.RenderedBody), 0644); err != nil {
		return port.ExecResult{}, fmt.Errorf("failed to write snippet: %w", err)
	}

	argv := Expand(template, file, dir)
	result := port.ExecResult{Command: argv}

	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.opts.WorkDir
	cmd.Stdin = stdio.Stdin
	cmd.Stdout = stdio.Stdout
	cmd.Stderr = stdio.Stderr
	// Children that outlive a killed interpreter must not hold the pipes open.
	cmd.WaitDelay = time.Second

	r.logger.Debug().
		Str("language", s.ExternalLanguageID).
		Strs("argv", argv).
		Msg("running snippet")

	err = cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		result.ExitCode = -1
		return result, fmt.Errorf("snippet did not finish: %w", ctxErr)
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
	default:
		result.ExitCode = -1
		return result, fmt.Errorf("failed to start %s: %w", argv[0], err)
	}

	r.logger.Debug().Int("exit_code", result.ExitCode).Msg("snippet finished")
	return result, nil
}

// Expand substitutes {file} and {dir} in every argument.
func Expand(template []string, file, dir string) []string {
	repl := strings.NewReplacer("{file}", file, "{dir}", dir)
	argv := make([]string, len(template))
	for i, arg := range template {
		argv[i] = repl.Replace(arg)
	}
	return argv
}

func orDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}

// PrintExecutor writes the rendered snippet instead of running it.
type PrintExecutor struct{}

func (PrintExecutor) Execute(_ context.Context, s domain.FinalizedSnippet, stdio port.Stdio) (port.ExecResult, error) {
	w := orDiscard(stdio.Stdout)
	body := s.RenderedBody
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	if _, err := io.WriteString(w, body); err != nil {
		return port.ExecResult{}, err
	}
	return port.ExecResult{}, nil
}
