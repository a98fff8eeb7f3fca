// Package snippet turns a selected fenced code block into a runnable snippet:
// Parse extracts the language tag and body, Finalize maps the language and
// applies the configured template.
package snippet

import (
	"strings"

	"mdrun/internal/domain"
)

// Fence is the markdown code fence marker.
const Fence = "```"

// Parse extracts the language tag and body from a selection that starts and
// ends with a fence marker. eol is the line terminator of the document the
// selection came from; it is used to split the selection into lines.
//
// The returned body always uses "\n" between lines. Indentation that precedes
// the opening fence (list nesting and the like) is stripped from every body
// line.
func Parse(eol, text string) (domain.ParsedSnippet, error) {
	if eol == "" {
		panic("snippet: empty line ending")
	}

	// Must be captured before trimming.
	indent, ok := structuralIndent(text)
	if !ok {
		return domain.ParsedSnippet{}, ErrNotFenced
	}

	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, Fence) || !strings.HasSuffix(text, Fence) {
		return domain.ParsedSnippet{}, ErrNotFenced
	}
	text = strings.TrimPrefix(text, Fence)
	text = strings.TrimSuffix(text, Fence)

	lines := strings.Split(text, eol)
	if len(lines) == 0 {
		// strings.Split with a non-empty separator never returns an empty slice.
		panic("snippet: split returned no lines")
	}

	// The closing fence sits on its own line, so the last element is the
	// whitespace in front of it.
	last := lines[len(lines)-1]
	lines = lines[:len(lines)-1]
	if strings.TrimSpace(last) != "" {
		return domain.ParsedSnippet{}, ErrNoNewlineBeforeEnd
	}

	switch len(lines) {
	case 0:
		return domain.ParsedSnippet{}, ErrNoFiletype
	case 1:
		return domain.ParsedSnippet{}, ErrNoCode
	}

	tag, info := splitTagLine(lines[0])
	if tag == "" {
		return domain.ParsedSnippet{}, ErrNoTagDetected
	}

	body := lines[1:]
	if indent != "" {
		for i, line := range body {
			body[i] = strings.TrimPrefix(line, indent)
		}
	}

	return domain.ParsedSnippet{
		LanguageTag: tag,
		Info:        info,
		Body:        strings.Join(body, "\n"),
	}, nil
}

// structuralIndent returns the horizontal whitespace in front of the opening
// fence. Blank lines before the fence are skipped; anything else before it
// means the selection does not start with a fence.
func structuralIndent(text string) (string, bool) {
	for len(text) > 0 {
		line := text
		rest := ""
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			line, rest = text[:i], text[i+1:]
		}
		trimmed := strings.TrimLeft(line, " \t")
		switch {
		case strings.HasPrefix(trimmed, Fence):
			return line[:len(line)-len(trimmed)], true
		case strings.TrimSpace(trimmed) != "":
			return "", false
		}
		text = rest
	}
	return "", false
}

// splitTagLine separates the language token from the rest of the info
// string, e.g. `python title="x"` -> ("python", `title="x"`).
func splitTagLine(line string) (tag, info string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", ""
	}
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}
