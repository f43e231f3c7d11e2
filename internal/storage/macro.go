// Package storage builds and parses Confluence storage-format macro
// elements. The wire shapes emitted here (macro names, parameter names,
// CDATA bodies) are consumed by an unmodified Confluence instance and
// must stay byte-compatible.
package storage

import "strings"

// Macro names recognized by both converters.
const (
	MacroNameDiagram = "mermaid"
	MacroNameExpand  = "expand"
	MacroNameCode    = "code"
	MacroNameInfo    = "info"
	MacroNameNote    = "note"
	MacroNameTip     = "tip"
	MacroNameWarning = "warning"
	MacroNameDrawio  = "drawio"

	// MacroNameDiagramLegacy is accepted on extraction for pages written
	// by older tooling that emitted a plugin-specific macro name.
	MacroNameDiagramLegacy = "mermaid-macro"
)

// DiagramMacro wraps diagram source verbatim in the native diagram macro.
func DiagramMacro(code string) string {
	var b strings.Builder
	b.WriteString(`<ac:structured-macro ac:name="` + MacroNameDiagram + `" ac:schema-version="1">`)
	b.WriteString(`<ac:plain-text-body>`)
	writeCDATA(&b, code)
	b.WriteString(`</ac:plain-text-body></ac:structured-macro>`)
	return b.String()
}

// CodeMacro builds a code macro. Empty language or title omits the
// corresponding parameter.
func CodeMacro(language, title, code string) string {
	var b strings.Builder
	b.WriteString(`<ac:structured-macro ac:name="` + MacroNameCode + `">`)
	if language != "" {
		writeParam(&b, "language", language)
	}
	if title != "" {
		writeParam(&b, "title", title)
	}
	b.WriteString(`<ac:plain-text-body>`)
	writeCDATA(&b, code)
	b.WriteString(`</ac:plain-text-body></ac:structured-macro>`)
	return b.String()
}

// ExpandMacro wraps already-valid storage XML in a collapsible container.
func ExpandMacro(title, inner string) string {
	var b strings.Builder
	b.WriteString(`<ac:structured-macro ac:name="` + MacroNameExpand + `">`)
	writeParam(&b, "title", title)
	b.WriteString(`<ac:rich-text-body>`)
	b.WriteString(inner)
	b.WriteString(`</ac:rich-text-body></ac:structured-macro>`)
	return b.String()
}

// InfoMacro wraps already-valid storage XML in an info callout.
func InfoMacro(inner string) string {
	return richBodyMacro(MacroNameInfo, inner)
}

// WarningMacro wraps already-valid storage XML in a warning callout.
func WarningMacro(inner string) string {
	return richBodyMacro(MacroNameWarning, inner)
}

func richBodyMacro(name, inner string) string {
	var b strings.Builder
	b.WriteString(`<ac:structured-macro ac:name="` + name + `">`)
	b.WriteString(`<ac:rich-text-body>`)
	b.WriteString(inner)
	b.WriteString(`</ac:rich-text-body></ac:structured-macro>`)
	return b.String()
}

// DrawioMacro references a draw.io diagram stored as a page attachment.
// Both diagramName and attachment carry the attachment filename.
func DrawioMacro(diagramName string) string {
	var b strings.Builder
	b.WriteString(`<ac:structured-macro ac:name="` + MacroNameDrawio + `" ac:schema-version="1">`)
	writeParam(&b, "diagramName", diagramName)
	writeParam(&b, "attachment", diagramName)
	b.WriteString(`</ac:structured-macro>`)
	return b.String()
}

// ImageAttachment references an uploaded image attachment by filename.
func ImageAttachment(filename string) string {
	return `<ac:image ac:align="center" ac:layout="center">` +
		`<ri:attachment ri:filename="` + EscapeText(filename) + `" />` +
		`</ac:image>`
}

// EditorLink builds the paragraph holding a deep link to an external
// diagram editor, appended after fallback code blocks.
func EditorLink(url, label string) string {
	return `<p><strong><a href="` + EscapeText(url) + `" target="_blank">` +
		EscapeText(label) + `</a></strong></p>`
}

func writeParam(b *strings.Builder, name, value string) {
	b.WriteString(`<ac:parameter ac:name="` + name + `">`)
	b.WriteString(EscapeText(value))
	b.WriteString(`</ac:parameter>`)
}

// writeCDATA emits a CDATA section, splitting any "]]>" in the body so
// the section cannot terminate early.
func writeCDATA(b *strings.Builder, body string) {
	b.WriteString("<![CDATA[")
	b.WriteString(strings.ReplaceAll(body, "]]>", "]]]]><![CDATA[>"))
	b.WriteString("]]>")
}

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

// EscapeText escapes a string for use in storage-format text content or
// attribute values.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

var textUnescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&amp;", "&",
)

// UnescapeText reverses EscapeText.
func UnescapeText(s string) string {
	return textUnescaper.Replace(s)
}
