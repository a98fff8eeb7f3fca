package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mdrun/internal/adapter/runner"
	"mdrun/internal/usecase"
)

var renderJSON bool

var renderCmd = &cobra.Command{
	Use:   "render [file|-]",
	Short: "Print a fenced code block as it would be run",
	Long: `Print the rendered body of a fenced code block after language mapping and
templating, without running it.

Examples:
  mdrun render README.md --line 42
  mdrun render README.md --block 3 --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	addSelectionFlags(renderCmd)
	renderCmd.Flags().BoolVar(&renderJSON, "json", false, "print the finalized snippet as JSON")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	sel, err := readSelection(cmd, args)
	if err != nil {
		return err
	}

	opts, err := runOptions(cfg)
	if err != nil {
		return err
	}

	finalized, err := usecase.NewRunUseCase(cfg, runner.PrintExecutor{}, opts...).Prepare(sel)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if renderJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(finalized)
	}

	body := finalized.RenderedBody
	if !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	_, err = fmt.Fprint(out, body)
	return err
}
