package usecase

import (
	"fmt"

	"mdrun/internal/adapter/fence"
	"mdrun/internal/domain"
	"mdrun/internal/port"
	"mdrun/internal/snippet"
)

// SelectBlock picks the text to run out of a whole document.
//
// With line > 0 the fenced block enclosing that line is selected, with
// index > 0 the index-th block. With neither, the whole document is the
// selection.
func SelectBlock(extractor port.BlockExtractor, path, content string, line, index int) (Selection, error) {
	sel := Selection{
		LineEnding: snippet.DetectLineEnding(content),
		Path:       path,
	}

	if line <= 0 && index <= 0 {
		sel.Text = content
		sel.Line = 1
		return sel, nil
	}

	blocks := extractor.Extract(domain.Document{ID: GenerateDocID(path), Path: path}, content)

	var (
		b  domain.Block
		ok bool
	)
	if line > 0 {
		b, ok = fence.BlockAt(blocks, line)
		if !ok {
			return Selection{}, fmt.Errorf("no fenced code block at %s:%d", displayPath(path), line)
		}
	} else {
		b, ok = fence.BlockByIndex(blocks, index)
		if !ok {
			return Selection{}, fmt.Errorf("%s has %d fenced code blocks, no block #%d", displayPath(path), len(blocks), index)
		}
	}

	sel.Text = b.Text
	sel.Line = b.StartLine
	return sel, nil
}

func displayPath(path string) string {
	if path == "" {
		return "<stdin>"
	}
	return path
}
