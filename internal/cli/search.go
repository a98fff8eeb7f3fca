package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mdrun/config"
	"mdrun/internal/adapter/search"
	"mdrun/internal/domain"
	"mdrun/internal/usecase"
)

var (
	searchTopK int
	searchLang string
	searchJSON bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed code blocks",
	Long: `Rank the indexed fenced code blocks against a query with BM25.
Run "mdrun index" first.

Examples:
  mdrun search docker compose
  mdrun search --lang py requests
  mdrun search deploy --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "k", 0, "number of results (default from config)")
	searchCmd.Flags().StringVar(&searchLang, "lang", "", "only search blocks with this language tag")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	dir := GetRootDir()
	if _, err := os.Stat(config.IndexDBPath(dir)); err != nil {
		return fmt.Errorf("no index found in %s, run \"mdrun index\" first", dir)
	}

	st, err := openStore(dir)
	if err != nil {
		return err
	}
	defer st.Close()

	k := cfg.Search.TopK
	if searchTopK > 0 {
		k = searchTopK
	}

	ranker := search.NewBM25(search.NewTokenizer(), cfg.Search.K1, cfg.Search.B, cfg.Search.PathBoostWeight)
	results, err := usecase.NewSearchUseCase(st, ranker).Search(strings.Join(args, " "), searchLang, k)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if searchJSON {
		if results == nil {
			results = []domain.ScoredBlock{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Fprintln(out, "No matching blocks.")
		return nil
	}
	for _, r := range results {
		fmt.Fprintf(out, "%s:%d-%d\t#%d\t%s\t%.2f\n", relTo(dir, r.Path), r.StartLine, r.EndLine, r.Index, langLabel(r.LanguageTag), r.Score)
		if preview := firstBodyLine(r.Text); preview != "" {
			fmt.Fprintf(out, "    %s\n", preview)
		}
	}
	return nil
}

// firstBodyLine returns the first non-blank line after the opening fence.
func firstBodyLine(text string) string {
	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return ""
	}
	for _, line := range lines[1 : len(lines)-1] {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}
