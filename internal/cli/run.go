package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"mdrun/config"
	"mdrun/internal/adapter/fence"
	"mdrun/internal/adapter/runner"
	"mdrun/internal/adapter/store"
	"mdrun/internal/port"
	"mdrun/internal/snippet"
	"mdrun/internal/usecase"
)

var (
	runLine      int
	runBlock     int
	runEOL       string
	runDryRun    bool
	runNoHistory bool
	runKeepFiles bool
	runTimeout   string
)

var runCmd = &cobra.Command{
	Use:   "run [file|-]",
	Short: "Run a fenced code block",
	Long: `Run a fenced code block from a markdown file or from stdin.

Without --line or --block the whole input must be a single fenced block,
which is what piping an editor selection produces.

Examples:
  mdrun run README.md --line 42
  mdrun run README.md --block 1 --dry-run
  xclip -o | mdrun run -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
	addSelectionFlags(runCmd)
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "print the rendered snippet instead of running it")
	runCmd.Flags().BoolVar(&runNoHistory, "no-history", false, "do not record this run")
	runCmd.Flags().BoolVar(&runKeepFiles, "keep", false, "keep the temporary snippet file")
	runCmd.Flags().StringVar(&runTimeout, "timeout", "", "kill the snippet after this duration (default from config)")
}

func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&runLine, "line", "l", 0, "select the block enclosing this line (1-based)")
	cmd.Flags().IntVarP(&runBlock, "block", "b", 0, "select the n-th block of the file (1-based)")
	cmd.Flags().StringVar(&runEOL, "eol", "", "line ending of the rendered snippet: auto, lf, crlf (default from config)")
	cmd.MarkFlagsMutuallyExclusive("line", "block")
}

// ExitCodeError carries the exit status of a snippet to the process exit code.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("snippet exited with status %d", e.Code)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	sel, err := readSelection(cmd, args)
	if err != nil {
		return err
	}

	opts, err := runOptions(cfg)
	if err != nil {
		return err
	}

	var executor port.Executor
	if runDryRun {
		executor = runner.PrintExecutor{}
	} else {
		timeout := cfg.Run.Timeout
		if runTimeout != "" {
			if timeout, err = parseDuration(runTimeout); err != nil {
				return err
			}
		}
		executor = runner.NewCommandRunner(cfg, runner.Options{
			Timeout:   timeout,
			WorkDir:   workDirFor(sel),
			KeepFiles: runKeepFiles || cfg.Run.KeepFiles,
		}, logger)
	}

	if cfg.History.Enabled && !runNoHistory && !runDryRun {
		st, err := openStore(GetRootDir())
		if err != nil {
			logger.Warn().Err(err).Msg("run history unavailable")
		} else {
			defer st.Close()
			opts = append(opts, usecase.WithHistory(st, cfg.History.Limit))
		}
	}

	uc := usecase.NewRunUseCase(cfg, executor, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	result, err := uc.Run(ctx, sel, port.Stdio{
		Stdin:  cmd.InOrStdin(),
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}

	if result.Record.ExitCode != 0 {
		return &ExitCodeError{Code: result.Record.ExitCode}
	}
	return nil
}

// readSelection loads the selection named by args and the selection flags.
func readSelection(cmd *cobra.Command, args []string) (usecase.Selection, error) {
	path := ""
	var content []byte
	var err error

	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return usecase.Selection{}, fmt.Errorf("failed to read stdin: %w", err)
		}
	} else {
		path, err = filepath.Abs(args[0])
		if err != nil {
			return usecase.Selection{}, fmt.Errorf("invalid path: %w", err)
		}
		content, err = os.ReadFile(path)
		if err != nil {
			return usecase.Selection{}, fmt.Errorf("failed to read %s: %w", args[0], err)
		}
	}

	return usecase.SelectBlock(fence.NewExtractor(), path, string(content), runLine, runBlock)
}

func runOptions(cfg *config.Config) ([]usecase.RunOption, error) {
	opts := []usecase.RunOption{usecase.WithLogger(logger)}

	value := cfg.Run.LineEnding
	if runEOL != "" {
		value = runEOL
	}
	eol, ok, err := snippet.ParseLineEnding(value)
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, usecase.WithOutputLineEnding(eol))
	}
	return opts, nil
}

// workDirFor runs file snippets next to their markdown file so relative
// paths inside them resolve the way the author expects.
func workDirFor(sel usecase.Selection) string {
	if sel.Path == "" {
		return ""
	}
	return filepath.Dir(sel.Path)
}

func openStore(dir string) (*store.BoltStore, error) {
	if err := config.EnsureDataDir(dir); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", config.DataDir(dir), err)
	}
	st, err := store.NewBoltStore(config.IndexDBPath(dir))
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}
	return st, nil
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid duration %q: must not be negative", s)
	}
	return d, nil
}
