package snippet

import (
	"fmt"
	"strings"
)

// LineEnding is the line terminator used by a document.
type LineEnding int

const (
	LF LineEnding = iota + 1
	CRLF
)

// String returns the literal terminator. Any value other than LF or CRLF is a
// programming error.
func (e LineEnding) String() string {
	switch e {
	case LF:
		return "\n"
	case CRLF:
		return "\r\n"
	default:
		panic(fmt.Sprintf("snippet: unknown line ending %d", int(e)))
	}
}

// Name is the human readable form used in logs and flags.
func (e LineEnding) Name() string {
	switch e {
	case LF:
		return "lf"
	case CRLF:
		return "crlf"
	default:
		return "unknown"
	}
}

// DetectLineEnding reports the terminator of the first line break in text.
// Text without a line break is treated as LF.
func DetectLineEnding(text string) LineEnding {
	i := strings.IndexByte(text, '\n')
	if i > 0 && text[i-1] == '\r' {
		return CRLF
	}
	return LF
}

// ParseLineEnding converts a flag or config value into a LineEnding.
// "auto" and "" return ok=false so the caller can detect from the document.
func ParseLineEnding(s string) (LineEnding, bool, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return 0, false, nil
	case "lf":
		return LF, true, nil
	case "crlf":
		return CRLF, true, nil
	default:
		return 0, false, fmt.Errorf("unknown line ending %q (want auto, lf or crlf)", s)
	}
}
