package search

import (
	"strings"
	"unicode"
)

// Tokenizer splits block text into lower-cased search terms. Identifiers are
// broken at underscores and camelCase boundaries so "readConfigFile" matches
// "config".
type Tokenizer struct {
	stopwords map[string]struct{}
}

func NewTokenizer() *Tokenizer {
	return &Tokenizer{stopwords: defaultStopwords()}
}

func (t *Tokenizer) Tokenize(text string) []string {
	words := splitWords(text)
	tokens := make([]string, 0, len(words))

	for _, word := range words {
		for _, part := range splitIdentifier(word) {
			part = strings.ToLower(part)
			if len(part) < 2 {
				continue
			}
			if _, isStop := t.stopwords[part]; isStop {
				continue
			}
			tokens = append(tokens, part)
		}
	}

	return tokens
}

// splitWords splits text into runs of letters, digits and underscores.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
		} else if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}

// splitIdentifier returns word itself followed by its underscore and
// camelCase parts, when there is more than one.
func splitIdentifier(word string) []string {
	var parts []string
	var current []rune
	runes := []rune(word)

	flush := func() {
		if len(current) > 0 {
			parts = append(parts, string(current))
			current = current[:0]
		}
	}

	for i, r := range runes {
		switch {
		case r == '_':
			flush()
			continue
		case unicode.IsUpper(r) && i > 0:
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		current = append(current, r)
	}
	flush()

	if len(parts) <= 1 {
		return []string{word}
	}
	return append([]string{word}, parts...)
}

func defaultStopwords() map[string]struct{} {
	stops := []string{
		"a", "an", "and", "are", "as", "at", "be", "by", "for",
		"from", "has", "he", "in", "is", "it", "its", "of", "on",
		"that", "the", "to", "was", "were", "will", "with", "this",
		"have", "had", "but", "not", "you", "your", "we", "our",
		"they", "their", "she", "her", "his", "so", "can", "been",
		"would", "could", "should", "may", "might", "must", "which",
		"who", "whom", "what", "when", "where", "why", "how", "all",
		"some", "such", "than", "too", "very", "just", "also",
	}
	m := make(map[string]struct{}, len(stops))
	for _, s := range stops {
		m[s] = struct{}{}
	}
	return m
}
