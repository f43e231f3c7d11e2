package pipeline

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/coratch/go-md2conf/internal/storage"
)

// TransformStorage applies the tree-level rewrites that turn a goldmark
// HTML fragment into storage format:
//
//   - pre/code elements become code macros (language inferred from the
//     "language-*" class convention, body verbatim in CDATA)
//   - tables gain an explicit border attribute if absent
//   - blockquotes opening with an info/warning sentinel word become the
//     corresponding semantic macro, sentinel line stripped
//
// isProtected reports whether a code body is a placeholder token that a
// later restore pass owns; such blocks are left untouched.
func TransformStorage(fragment string, isProtected func(string) bool) (string, error) {
	body, err := parseBody(fragment)
	if err != nil {
		return "", fmt.Errorf("parsing HTML fragment: %w", err)
	}

	// Collect first, then mutate: rewrites detach nodes from the tree.
	var pres, tables, quotes []*html.Node
	walk(body, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch n.DataAtom {
		case atom.Pre:
			pres = append(pres, n)
		case atom.Table:
			tables = append(tables, n)
		case atom.Blockquote:
			quotes = append(quotes, n)
		}
	})

	for _, pre := range pres {
		rewriteCodeBlock(pre, isProtected)
	}
	for _, table := range tables {
		ensureBorder(table)
	}
	for _, quote := range quotes {
		rewriteCallout(quote)
	}

	return renderChildren(body), nil
}

// parseBody parses an HTML fragment in body context and reattaches the
// resulting nodes under a fresh body node for uniform traversal.
func parseBody(fragment string) (*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return nil, err
	}
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	return body, nil
}

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

// renderChildren serializes the children of n back to markup. Injected
// macro fragments are RawNodes and pass through unescaped.
func renderChildren(n *html.Node) string {
	var buf bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		// Render only fails on unwritable writers; bytes.Buffer never is.
		_ = html.Render(&buf, c)
	}
	return buf.String()
}

// replaceWithRaw swaps a node for raw storage markup.
func replaceWithRaw(n *html.Node, markup string) {
	if n.Parent == nil {
		return
	}
	raw := &html.Node{Type: html.RawNode, Data: markup}
	n.Parent.InsertBefore(raw, n)
	n.Parent.RemoveChild(n)
}

// rewriteCodeBlock turns <pre><code class="language-x">…</code></pre>
// into a code macro. Placeholder tokens and bare pre elements without a
// code child are left alone.
func rewriteCodeBlock(pre *html.Node, isProtected func(string) bool) {
	code := firstElement(pre, atom.Code)
	if code == nil {
		return
	}
	body := textContent(code)
	if isProtected != nil && isProtected(strings.TrimSpace(body)) {
		return
	}
	// Goldmark always terminates the block with a newline; the fence body
	// itself ends at the last code line.
	body = strings.TrimSuffix(body, "\n")
	lang := CanonicalLanguage(classLanguage(code))
	replaceWithRaw(pre, storage.CodeMacro(lang, "", body))
}

func firstElement(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}

// classLanguage extracts the language from a "language-*" class name.
func classLanguage(code *html.Node) string {
	for _, attr := range code.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, cls := range strings.Fields(attr.Val) {
			if lang, ok := strings.CutPrefix(cls, "language-"); ok {
				return lang
			}
		}
	}
	return ""
}

// CanonicalLanguage maps a language name to its canonical chroma alias,
// so "golang" and "go" emit the same code-macro parameter. Unknown
// languages pass through unchanged.
func CanonicalLanguage(lang string) string {
	if lang == "" {
		return ""
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		return lang
	}
	cfg := lexer.Config()
	if len(cfg.Aliases) > 0 {
		return cfg.Aliases[0]
	}
	return strings.ToLower(cfg.Name)
}

// ensureBorder adds border="1" to tables that lack one.
func ensureBorder(table *html.Node) {
	for _, attr := range table.Attr {
		if attr.Key == "border" {
			return
		}
	}
	table.Attr = append(table.Attr, html.Attribute{Key: "border", Val: "1"})
}

// rewriteCallout converts a sentinel blockquote into an info or warning
// macro. Detection ignores case and any leading emoji or punctuation.
func rewriteCallout(quote *html.Node) {
	kind, ok := calloutKind(textContent(quote))
	if !ok {
		return
	}
	stripSentinel(quote)
	inner := renderChildren(quote)
	var markup string
	if kind == storage.MacroNameWarning {
		markup = storage.WarningMacro(inner)
	} else {
		markup = storage.InfoMacro(inner)
	}
	replaceWithRaw(quote, markup)
}

func calloutKind(text string) (string, bool) {
	// Only ASCII letters and digits can start the sentinel word. Unicode
	// letter classes would stop the trim at emoji like U+2139, which is
	// a letterlike symbol, and miss the sentinel behind it.
	t := strings.TrimSpace(text)
	t = strings.TrimLeftFunc(t, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	lower := strings.ToLower(t)
	switch {
	case strings.HasPrefix(lower, "info:"):
		return storage.MacroNameInfo, true
	case strings.HasPrefix(lower, "warning:"):
		return storage.MacroNameWarning, true
	}
	return "", false
}

// stripSentinel removes the sentinel word through its colon from the
// first non-empty text node. When the sentinel lived alone inside a
// strong element (the "**Info:**" authoring style) the whole element and
// a trailing line break go with it.
func stripSentinel(quote *html.Node) {
	text := firstText(quote)
	if text == nil {
		return
	}
	idx := strings.IndexByte(text.Data, ':')
	if idx < 0 {
		return
	}
	text.Data = strings.TrimLeft(text.Data[idx+1:], " ")

	if strings.TrimSpace(text.Data) != "" {
		return
	}
	parent := text.Parent
	if parent == nil || parent.Type != html.ElementNode {
		return
	}
	if parent.DataAtom != atom.Strong && parent.DataAtom != atom.B {
		return
	}
	next := parent.NextSibling
	if grand := parent.Parent; grand != nil {
		grand.RemoveChild(parent)
	}
	// Drop the break and leading whitespace that followed the sentinel.
	for next != nil {
		if next.Type == html.ElementNode && next.DataAtom == atom.Br {
			after := next.NextSibling
			next.Parent.RemoveChild(next)
			next = after
			continue
		}
		if next.Type == html.TextNode {
			next.Data = strings.TrimLeft(next.Data, " \n")
			if next.Data == "" {
				after := next.NextSibling
				next.Parent.RemoveChild(next)
				next = after
				continue
			}
		}
		break
	}
}

func firstText(n *html.Node) *html.Node {
	if n.Type == html.TextNode && strings.TrimSpace(n.Data) != "" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := firstText(c); t != nil {
			return t
		}
	}
	return nil
}
