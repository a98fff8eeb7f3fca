package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"mdrun/config"
	"mdrun/internal/domain"
)

var (
	listLang string
	listJSON bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed fenced code blocks",
	Long: `List the fenced code blocks recorded by "mdrun index".

Examples:
  mdrun list
  mdrun list --lang sh
  mdrun list --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringVar(&listLang, "lang", "", "only list blocks with this language tag")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "print blocks as JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	dir := GetRootDir()
	if _, err := os.Stat(config.IndexDBPath(dir)); err != nil {
		return fmt.Errorf("no index found in %s, run \"mdrun index\" first", dir)
	}

	st, err := openStore(dir)
	if err != nil {
		return err
	}
	defer st.Close()

	blocks, err := st.ListBlocks()
	if err != nil {
		return fmt.Errorf("failed to list blocks: %w", err)
	}
	blocks = filterBlocks(blocks, listLang)

	out := cmd.OutOrStdout()
	if listJSON {
		if blocks == nil {
			blocks = []domain.Block{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(blocks)
	}

	for _, b := range blocks {
		fmt.Fprintf(out, "%s:%d-%d\t#%d\t%s\n", relTo(dir, b.Path), b.StartLine, b.EndLine, b.Index, langLabel(b.LanguageTag))
	}

	stats, err := st.GetStats()
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d blocks in %d files", len(blocks), stats.TotalDocs)
	if listLang == "" && len(stats.Languages) > 0 {
		fmt.Fprintf(out, " (%s)", formatLanguages(stats.Languages))
	}
	fmt.Fprintln(out)
	return nil
}

func filterBlocks(blocks []domain.Block, lang string) []domain.Block {
	if lang == "" {
		return blocks
	}
	var out []domain.Block
	for _, b := range blocks {
		if b.LanguageTag == lang {
			out = append(out, b)
		}
	}
	return out
}

func relTo(dir, path string) string {
	if rel, err := filepath.Rel(dir, path); err == nil {
		return rel
	}
	return path
}

func langLabel(tag string) string {
	if tag == "" {
		return "-"
	}
	return tag
}

// formatLanguages renders per-language counts, most frequent first.
func formatLanguages(langs map[string]int) string {
	type kv struct {
		lang  string
		count int
	}
	var items []kv
	for l, c := range langs {
		items = append(items, kv{langLabel(l), c})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].count != items[j].count {
			return items[i].count > items[j].count
		}
		return items[i].lang < items[j].lang
	})

	s := ""
	for i, it := range items {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s: %d", it.lang, it.count)
	}
	return s
}
