// Package encoding provides shared text escaping utilities for the
// XML-based output formats.
package encoding

import (
	"strings"
)

// EscapeXMLText escapes the basic XML entities of text content.
func EscapeXMLText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// EscapeXMLAttr escapes text for use in XML attributes.
// Includes quote escaping in addition to basic XML entities.
func EscapeXMLAttr(s string) string {
	s = EscapeXMLText(s)
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\"", "&quot;",
	"'", "&#x27;",
)

// EscapeHTML escapes special characters for HTML content.
// Escapes: & < > " '
// The entity set matches what published TMX corpora carry in <seg> elements.
func EscapeHTML(s string) string {
	return htmlReplacer.Replace(s)
}

// WriteAttr appends ` name="value"` to b with the value attribute-escaped.
func WriteAttr(b *strings.Builder, name, value string) {
	b.WriteByte(' ')
	b.WriteString(name)
	b.WriteString(`="`)
	b.WriteString(EscapeXMLAttr(value))
	b.WriteByte('"')
}
