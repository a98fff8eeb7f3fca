package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mdrun/internal/domain"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent snippet runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print runs as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	dir := GetRootDir()

	st, err := openStore(dir)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.RecentRuns(historyLimit)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		if runs == nil {
			runs = []domain.RunRecord{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded.")
		return nil
	}
	for _, r := range runs {
		fmt.Fprintf(out, "%s  %-12s %-8s %6s  %s\n",
			r.StartedAt.Local().Format(time.DateTime),
			r.ExternalLanguageID,
			runStatus(r),
			formatDuration(r.Duration),
			runSource(dir, r),
		)
	}
	return nil
}

func runStatus(r domain.RunRecord) string {
	if r.Error != "" {
		return "error"
	}
	return fmt.Sprintf("exit %d", r.ExitCode)
}

func runSource(dir string, r domain.RunRecord) string {
	if r.Path == "" {
		return "<stdin>"
	}
	return fmt.Sprintf("%s:%d", relTo(dir, r.Path), r.Line)
}
