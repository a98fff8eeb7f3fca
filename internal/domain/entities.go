package domain

import "time"

// ParsedSnippet is the language tag and body extracted from a fenced block.
type ParsedSnippet struct {
	LanguageTag string
	Info        string // rest of the tag line after the language token
	Body        string // lines joined by "\n", structural indent removed
}

// FinalizedSnippet is a parsed snippet after language mapping and templating.
type FinalizedSnippet struct {
	LanguageTag        string `json:"language"`
	ExternalLanguageID string `json:"language_id"`
	RawBody            string `json:"raw_body"`
	RenderedBody       string `json:"rendered_body"`
}

type Document struct {
	ID      string
	Path    string
	ModTime time.Time
}

// Block is a fenced code block located inside a markdown document.
type Block struct {
	ID          string `json:"id"`
	DocID       string `json:"doc_id"`
	Path        string `json:"path"`
	Index       int    `json:"index"`      // 1-based position within the document
	StartLine   int    `json:"start_line"` // line of the opening fence
	EndLine     int    `json:"end_line"`   // line of the closing fence
	LanguageTag string `json:"language"`
	Indent      string `json:"-"`
	Text        string `json:"-"` // raw text from opening to closing fence
}

// RunRecord captures one execution of a snippet.
type RunRecord struct {
	ID                 string        `json:"id"`
	Path               string        `json:"path,omitempty"`
	Line               int           `json:"line,omitempty"`
	LanguageTag        string        `json:"language"`
	ExternalLanguageID string        `json:"language_id"`
	StartedAt          time.Time     `json:"started_at"`
	Duration           time.Duration `json:"duration"`
	ExitCode           int           `json:"exit_code"`
	Error              string        `json:"error,omitempty"`
}

type Stats struct {
	TotalDocs   int
	TotalBlocks int
	Languages   map[string]int
}

// ScoredBlock is a block with its relevance to a search query.
type ScoredBlock struct {
	Block
	Score float64 `json:"score"`
}
