package storage

import (
	"strings"
	"testing"
)

func TestParseMacros_Single(t *testing.T) {
	doc := "<p>before</p>" + DiagramMacro("graph TD;\n  A-->B;") + "<p>after</p>"

	macros := ParseMacros(doc)
	if len(macros) != 1 {
		t.Fatalf("ParseMacros() returned %d macros, want 1", len(macros))
	}

	m := macros[0]
	if m.Name != "mermaid" {
		t.Errorf("Name = %q, want mermaid", m.Name)
	}
	if m.PlainBody != "graph TD;\n  A-->B;" {
		t.Errorf("PlainBody = %q", m.PlainBody)
	}
	if m.Depth != 0 {
		t.Errorf("Depth = %d, want 0", m.Depth)
	}
	if doc[m.Start:m.End] != DiagramMacro("graph TD;\n  A-->B;") {
		t.Errorf("span [%d:%d] does not cover the macro", m.Start, m.End)
	}
}

func TestParseMacros_Params(t *testing.T) {
	doc := CodeMacro("go", "example", "package main")

	macros := ParseMacros(doc)
	if len(macros) != 1 {
		t.Fatalf("ParseMacros() returned %d macros, want 1", len(macros))
	}
	if got := macros[0].Param("language"); got != "go" {
		t.Errorf("Param(language) = %q, want go", got)
	}
	if got := macros[0].Param("title"); got != "example" {
		t.Errorf("Param(title) = %q, want example", got)
	}
	if got := macros[0].Param("missing"); got != "" {
		t.Errorf("Param(missing) = %q, want empty", got)
	}
}

func TestParseMacros_Nested(t *testing.T) {
	inner := CodeMacro("mermaid", "", "graph TD;")
	doc := ExpandMacro("View source", inner)

	macros := ParseMacros(doc)
	if len(macros) != 2 {
		t.Fatalf("ParseMacros() returned %d macros, want 2", len(macros))
	}

	// Document order: expand first, nested code second.
	expand, code := macros[0], macros[1]
	if expand.Name != "expand" || code.Name != "code" {
		t.Fatalf("names = %q, %q", expand.Name, code.Name)
	}
	if expand.Depth != 0 || code.Depth != 1 {
		t.Errorf("depths = %d, %d, want 0, 1", expand.Depth, code.Depth)
	}
	if expand.Param("title") != "View source" {
		t.Errorf("expand title = %q", expand.Param("title"))
	}
	// The nested code macro's language must not leak into the parent.
	if expand.Param("language") != "" {
		t.Errorf("nested parameter attributed to parent: %q", expand.Param("language"))
	}
	if !strings.Contains(expand.RichBody, `ac:name="code"`) {
		t.Errorf("RichBody should contain the nested macro: %q", expand.RichBody)
	}
	if code.Param("language") != "mermaid" {
		t.Errorf("code language = %q", code.Param("language"))
	}
}

func TestParseMacros_CDATAWithMacroShapedText(t *testing.T) {
	// Macro markup inside a CDATA body is data, not structure.
	payload := `<ac:structured-macro ac:name="fake"></ac:structured-macro>`
	doc := CodeMacro("xml", "", payload)

	macros := ParseMacros(doc)
	if len(macros) != 1 {
		t.Fatalf("ParseMacros() returned %d macros, want 1", len(macros))
	}
	if macros[0].Name != "code" {
		t.Errorf("Name = %q, want code", macros[0].Name)
	}
	if macros[0].PlainBody != payload {
		t.Errorf("PlainBody = %q, want the macro-shaped payload", macros[0].PlainBody)
	}
}

func TestParseMacros_SplitCDATA(t *testing.T) {
	doc := DiagramMacro("a]]>b")

	macros := ParseMacros(doc)
	if len(macros) != 1 {
		t.Fatalf("ParseMacros() returned %d macros, want 1", len(macros))
	}
	if macros[0].PlainBody != "a]]>b" {
		t.Errorf("PlainBody = %q, want a]]>b", macros[0].PlainBody)
	}
}

func TestParseMacros_SelfClosing(t *testing.T) {
	doc := `<ac:structured-macro ac:name="toc" />`

	macros := ParseMacros(doc)
	if len(macros) != 1 {
		t.Fatalf("ParseMacros() returned %d macros, want 1", len(macros))
	}
	if macros[0].Name != "toc" {
		t.Errorf("Name = %q, want toc", macros[0].Name)
	}
	if macros[0].End != len(doc) {
		t.Errorf("End = %d, want %d", macros[0].End, len(doc))
	}
}

func TestParseMacros_Malformed(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want int
	}{
		{
			name: "unclosed macro is dropped",
			doc:  `<ac:structured-macro ac:name="info"><p>text`,
			want: 0,
		},
		{
			name: "unterminated CDATA stops the scan",
			doc:  `<ac:structured-macro ac:name="code"><ac:plain-text-body><![CDATA[oops`,
			want: 0,
		},
		{
			name: "closing tag without opener is ignored",
			doc:  `</ac:structured-macro><p>hi</p>`,
			want: 0,
		},
		{
			name: "valid macro after garbage still parses",
			doc:  `</ac:structured-macro>` + InfoMacro("<p>ok</p>"),
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseMacros(tt.doc); len(got) != tt.want {
				t.Errorf("ParseMacros() returned %d macros, want %d", len(got), tt.want)
			}
		})
	}
}

func TestParseMacros_DocumentOrder(t *testing.T) {
	doc := InfoMacro("<p>a</p>") + "<p>mid</p>" + WarningMacro("<p>b</p>")

	macros := ParseMacros(doc)
	if len(macros) != 2 {
		t.Fatalf("ParseMacros() returned %d macros, want 2", len(macros))
	}
	if macros[0].Name != "info" || macros[1].Name != "warning" {
		t.Errorf("order = %q, %q, want info, warning", macros[0].Name, macros[1].Name)
	}
	if macros[0].Start >= macros[1].Start {
		t.Errorf("spans out of order: %d >= %d", macros[0].Start, macros[1].Start)
	}
}

func TestParseMacros_RoundTripThroughBuilders(t *testing.T) {
	code := "sequenceDiagram\n  Alice->>Bob: hi\n  Note right of Bob: <b>raw</b>"
	doc := DiagramMacro(code)

	macros := ParseMacros(doc)
	if len(macros) != 1 {
		t.Fatalf("ParseMacros() returned %d macros, want 1", len(macros))
	}
	if macros[0].PlainBody != code {
		t.Errorf("PlainBody = %q, want %q", macros[0].PlainBody, code)
	}
}
