package snippet

import (
	"strings"

	"mdrun/internal/domain"
)

// Placeholder marks where the snippet body goes inside a template.
const Placeholder = "$snippet"

// Mappings is the read-only language configuration consulted by Finalize.
// A false second return value means "not configured".
type Mappings interface {
	LanguageID(tag string) (string, bool)
	Template(tag string) (string, bool)
}

// StaticMappings is a Mappings backed by two plain maps.
type StaticMappings struct {
	Languages map[string]string
	Templates map[string]string
}

func (m StaticMappings) LanguageID(tag string) (string, bool) {
	id, ok := m.Languages[tag]
	return id, ok
}

func (m StaticMappings) Template(tag string) (string, bool) {
	t, ok := m.Templates[tag]
	return t, ok
}

// Finalize resolves the external language id for p and renders its body
// through the template registered for the tag, if any. Line breaks in the
// rendered body are converted to eol.
func Finalize(m Mappings, eol string, p domain.ParsedSnippet) domain.FinalizedSnippet {
	id, ok := m.LanguageID(p.LanguageTag)
	if !ok || id == "" {
		id = p.LanguageTag
	}

	rendered := p.Body
	if tmpl, ok := m.Template(p.LanguageTag); ok {
		rendered = ApplyTemplate(tmpl, p.Body)
	}

	return domain.FinalizedSnippet{
		LanguageTag:        p.LanguageTag,
		ExternalLanguageID: id,
		RawBody:            p.Body,
		RenderedBody:       strings.ReplaceAll(rendered, "\n", eol),
	}
}

// ApplyTemplate substitutes body for the first Placeholder in tmpl.
//
// When the placeholder is preceded on its line only by spaces or tabs, that
// run is the template indentation: it is removed from the placeholder line
// and prepended to every line of body instead. A template without a
// placeholder is returned unchanged.
//
// Tabs are accepted as indentation in addition to spaces. This goes beyond
// the space-only capture of the original placeholder rule; the default Go
// templates indent with a tab and depend on it.
func ApplyTemplate(tmpl, body string) string {
	tmpl = strings.ReplaceAll(tmpl, "\r\n", "\n")

	pos := strings.Index(tmpl, Placeholder)
	if pos < 0 {
		return tmpl
	}

	lineStart := strings.LastIndexByte(tmpl[:pos], '\n') + 1
	indent := tmpl[lineStart:pos]
	if strings.Trim(indent, " \t") != "" {
		// Placeholder follows other text on its line; insert in place.
		indent = ""
	}
	if indent != "" {
		tmpl = tmpl[:lineStart] + tmpl[pos:]
	}

	return strings.Replace(tmpl, Placeholder, Indent(body, indent), 1)
}

// Indent prefixes every line of s with indent.
func Indent(s, indent string) string {
	if indent == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = indent + line
	}
	return strings.Join(lines, "\n")
}
