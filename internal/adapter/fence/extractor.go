package fence

import (
	"fmt"
	"strings"

	"mdrun/internal/domain"
	"mdrun/internal/snippet"
)

// Extractor locates fenced code blocks in markdown documents.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

type openFence struct {
	line   int // 0-based
	ticks  int
	indent string
	info   string
}

// Extract returns every closed fenced block of content in document order.
// Only blocks opened and closed by exactly three backticks are returned, since
// those are the only ones snippet.Parse accepts. Longer fences are still
// tracked so that the text they wrap is never read as blocks of its own.
// Line numbers are 1-based. Block.Text is the exact source text from the
// opening fence through the closing fence, line terminators included except
// after the closing fence.
func (e *Extractor) Extract(doc domain.Document, content string) []domain.Block {
	lines := strings.Split(content, "\n")

	var blocks []domain.Block
	var open *openFence

	for i, line := range lines {
		raw := strings.TrimSuffix(line, "\r")
		trimmed := strings.TrimLeft(raw, " \t")
		ticks := countTicks(trimmed)

		if open == nil {
			if ticks < 3 {
				continue
			}
			info := trimmed[ticks:]
			if strings.Contains(info, "`") {
				// Inline code span such as ```a``` on one line.
				continue
			}
			open = &openFence{
				line:   i,
				ticks:  ticks,
				indent: raw[:len(raw)-len(trimmed)],
				info:   strings.TrimSpace(info),
			}
			continue
		}

		if ticks >= open.ticks && strings.TrimSpace(trimmed[ticks:]) == "" {
			if open.ticks != len(snippet.Fence) || ticks != len(snippet.Fence) {
				open = nil
				continue
			}
			blocks = append(blocks, domain.Block{
				ID:          blockID(doc.ID, len(blocks)+1),
				DocID:       doc.ID,
				Path:        doc.Path,
				Index:       len(blocks) + 1,
				StartLine:   open.line + 1,
				EndLine:     i + 1,
				LanguageTag: languageOf(open.info),
				Indent:      open.indent,
				Text:        strings.Join(lines[open.line:i+1], "\n"),
			})
			open = nil
		}
	}

	return blocks
}

// BlockAt returns the block whose fences enclose the 1-based line.
func BlockAt(blocks []domain.Block, line int) (domain.Block, bool) {
	for _, b := range blocks {
		if line >= b.StartLine && line <= b.EndLine {
			return b, true
		}
	}
	return domain.Block{}, false
}

// BlockByIndex returns the block with the given 1-based index.
func BlockByIndex(blocks []domain.Block, index int) (domain.Block, bool) {
	if index < 1 || index > len(blocks) {
		return domain.Block{}, false
	}
	return blocks[index-1], true
}

func countTicks(s string) int {
	n := 0
	for n < len(s) && s[n] == '`' {
		n++
	}
	return n
}

func languageOf(info string) string {
	if f := strings.Fields(info); len(f) > 0 {
		return f[0]
	}
	return ""
}

func blockID(docID string, index int) string {
	return fmt.Sprintf("%s#%d", docID, index)
}
