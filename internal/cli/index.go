package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"mdrun/config"
	"mdrun/internal/adapter/fence"
	"mdrun/internal/adapter/fs"
	"mdrun/internal/adapter/store"
	"mdrun/internal/usecase"
)

var (
	indexWatch    bool
	indexDebounce time.Duration
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index the fenced code blocks of markdown files",
	Long: `Index the fenced code blocks of every markdown file in a directory so
they can be listed and run by number. The index is stored in .mdrun/index.db
within the target directory.

Examples:
  mdrun index .                 # Index current directory
  mdrun index docs --watch      # Keep the index current while editing`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.Flags().BoolVarP(&indexWatch, "watch", "w", false, "keep watching for changes after the initial scan")
	indexCmd.Flags().DurationVar(&indexDebounce, "debounce", 300*time.Millisecond, "quiet period before re-indexing changed files")
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := GetRootDir()
	if len(args) > 0 {
		var err error
		path, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid path: %w", err)
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	cfg := GetConfig()
	out := cmd.OutOrStdout()

	st, err := openStore(path)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := prepareStore(cmd, st, cfg); err != nil {
		return err
	}

	walker := fs.NewWalker(cfg.Scan.Includes, cfg.Scan.Excludes)
	indexUC := usecase.NewIndexUseCase(st, walker, fs.OSReader{}, fence.NewExtractor())

	fmt.Fprintf(out, "Scanning %s...\n", path)

	result, err := indexUC.Index(path, newProgress(cmd))
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	if err := st.Migrate(cfg); err != nil {
		return fmt.Errorf("failed to update schema info: %w", err)
	}

	fmt.Fprintf(out, "\nIndexing complete:\n")
	fmt.Fprintf(out, "  Files indexed:  %d\n", result.FilesIndexed)
	fmt.Fprintf(out, "  Files skipped:  %d (unchanged)\n", result.FilesSkipped)
	fmt.Fprintf(out, "  Files deleted:  %d (removed)\n", result.FilesDeleted)
	fmt.Fprintf(out, "  Blocks found:   %d\n", result.BlocksFound)
	printWarnings(cmd, result.Errors)

	fmt.Fprintf(out, "\nIndex stored at: %s\n", config.IndexDBPath(path))

	if !indexWatch {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Fprintf(out, "Watching %s for changes (Ctrl-C to stop)...\n", path)
	watcher := fs.NewWatcher(path, walker, indexDebounce, logger)
	return watcher.Run(ctx, func(paths []string) {
		res, err := indexUC.Reindex(paths, fs.Stat)
		if err != nil {
			logger.Error().Err(err).Msg("re-index failed")
			return
		}
		logger.Info().
			Int("indexed", res.FilesIndexed).
			Int("deleted", res.FilesDeleted).
			Int("blocks", res.BlocksFound).
			Msg("index updated")
		printWarnings(cmd, res.Errors)
	})
}

// prepareStore clears or migrates the index when its schema or scan
// patterns no longer match the current config.
func prepareStore(cmd *cobra.Command, st *store.BoltStore, cfg *config.Config) error {
	out := cmd.OutOrStdout()

	migrationResult, err := st.CheckMigration(cfg)
	if err != nil {
		return fmt.Errorf("failed to check migration: %w", err)
	}

	if migrationResult.NeedsRebuild {
		fmt.Fprintf(out, "Index rebuild required: %s\n", migrationResult.Reason)
		fmt.Fprintln(out, "Clearing existing index...")
		if err := st.Clear(); err != nil {
			return fmt.Errorf("failed to clear index: %w", err)
		}
	} else if migrationResult.NeedsMigration {
		fmt.Fprintf(out, "Running schema migration: %s\n", migrationResult.Reason)
		if err := st.Migrate(cfg); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

func printWarnings(cmd *cobra.Command, errs []string) {
	if len(errs) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nWarnings:\n")
	for _, e := range errs {
		fmt.Fprintf(out, "  - %s\n", e)
	}
}

// newProgress returns a progress callback that draws a bar on stderr once
// the total is known.
func newProgress(cmd *cobra.Command) usecase.ProgressFunc {
	var (
		bar         *progressbar.ProgressBar
		barMu       sync.Mutex
		startTime   time.Time
		initialized bool
	)

	return func(processed, total int, currentFile string) {
		barMu.Lock()
		defer barMu.Unlock()

		if !initialized {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(cmd.ErrOrStderr()),
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Indexing[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Fprintln(cmd.ErrOrStderr())
				}),
			)
			initialized = true
		}

		bar.Set(processed)

		if processed > 0 {
			elapsed := time.Since(startTime)
			rate := float64(processed) / elapsed.Seconds()
			remaining := total - processed
			if rate > 0 {
				eta := time.Duration(float64(remaining)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Indexing[reset] ETA: %s", formatDuration(eta)))
			}
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
