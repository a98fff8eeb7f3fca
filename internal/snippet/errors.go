package snippet

import "fmt"

// Kind classifies why a selection could not be parsed.
type Kind int

const (
	KindNotFenced Kind = iota + 1
	KindNoNewlineBeforeEnd
	KindNoFiletype
	KindNoCode
	KindNoTagDetected
)

var kindMessages = map[Kind]string{
	KindNotFenced:          "Selection is not started with ``` or is not ended with ```",
	KindNoNewlineBeforeEnd: "No newline before the end marker of snippet.",
	KindNoFiletype:         "No filetype is specified.",
	KindNoCode:             "No code to run.",
	KindNoTagDetected:      "No filetype detected.",
}

func (k Kind) String() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return fmt.Sprintf("unknown parse failure (%d)", int(k))
}

// ParseError is returned by Parse for every user-facing failure.
// Message is meant to be shown to the user as is.
type ParseError struct {
	Kind    Kind
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

// Is matches another *ParseError of the same kind, so the exported
// sentinels below work with errors.Is.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	return ok && t.Kind == e.Kind
}

func newParseError(k Kind) *ParseError {
	return &ParseError{Kind: k, Message: k.String()}
}

var (
	ErrNotFenced          = newParseError(KindNotFenced)
	ErrNoNewlineBeforeEnd = newParseError(KindNoNewlineBeforeEnd)
	ErrNoFiletype         = newParseError(KindNoFiletype)
	ErrNoCode             = newParseError(KindNoCode)
	ErrNoTagDetected      = newParseError(KindNoTagDetected)
)
