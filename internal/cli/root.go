package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mdrun/config"
	"mdrun/internal/logging"
)

var (
	cfgFile  string
	cfg      *config.Config
	rootDir  string
	logLevel string
	logger   zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "mdrun",
	Short: "Run fenced code snippets from markdown files",
	Long: `mdrun extracts a fenced code block from a markdown file, maps its language
tag to a runner, optionally wraps it in a per-language template and runs it.

Example usage:
  mdrun run README.md --line 42     # Run the block around line 42
  mdrun run notes.md --block 2      # Run the second block of notes.md
  pbpaste | mdrun run -             # Run a selection from stdin
  mdrun render README.md --line 42  # Print the snippet as it would run
  mdrun index . && mdrun list       # Index and list every block`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := cfg.Logging.Level
		if logLevel != "" {
			level = logLevel
		}
		logger, err = logging.Setup(cmd.ErrOrStderr(), level)
		if err != nil {
			return err
		}
		logger.Debug().Str("dir", rootDir).Str("config", cfgFile).Msg("config loaded")

		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exitErr *ExitCodeError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./mdrun.yaml or ./.mdrun/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "project directory (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
