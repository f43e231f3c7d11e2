package md2conf

import (
	"context"
	"strings"

	"github.com/coratch/go-md2conf/internal/pipeline"
	"github.com/coratch/go-md2conf/internal/storage"
	"github.com/coratch/go-md2conf/internal/yamlutil"
)

// reverseTokenBase seeds the placeholder tokens that carry extracted
// macro content across the generic HTML-to-markdown transform.
const reverseTokenBase = "MDCMACROBLOCK"

// maxMacroPasses bounds the nesting depth the structural unwrapping
// loops will peel. Each pass converts every top-level macro of its
// kind, so the cap only limits how deeply macros may nest.
const maxMacroPasses = 64

// ReverseConverter turns storage-format documents back into markdown.
// Safe for concurrent use after construction.
type ReverseConverter struct {
	opts options
	md   pipeline.MarkdownConverter
}

// NewReverseConverter creates a reverse converter.
func NewReverseConverter(opts ...Option) *ReverseConverter {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &ReverseConverter{opts: o, md: pipeline.NewHTML2MarkdownConverter()}
}

// Convert runs the reverse pipeline: macro extraction behind
// placeholder tokens, structural macro unwrapping, HTML to markdown,
// token restoration, cosmetic cleanup, optional title front matter.
// Macro bodies travel out of band so the generic transform can never
// corrupt them.
func (c *ReverseConverter) Convert(ctx context.Context, in ReverseInput) (*ReverseResult, error) {
	if strings.TrimSpace(in.Storage) == "" {
		return nil, ErrEmptyDocument
	}
	ctx, cancel := context.WithTimeout(ctx, c.opts.timeout)
	defer cancel()

	doc := in.Storage
	tokens := NewTokenSet(doc, reverseTokenBase)

	doc = c.spliceDiagrams(doc, tokens)
	doc = spliceCodeMacros(doc, tokens)
	doc = spliceDrawioMacros(doc, tokens)
	doc = unwrapExpands(doc, tokens)
	doc = rewriteCallouts(doc)

	markdown, err := c.md.ToMarkdown(ctx, doc)
	if err != nil {
		return nil, err
	}

	markdown, unrestored := tokens.Restore(markdown)
	markdown = pipeline.CleanupMarkdown(markdown)

	if title := strings.TrimSpace(in.Title); title != "" {
		markdown = frontMatterHeader(title) + markdown
	}
	return &ReverseResult{Markdown: markdown, Unrestored: unrestored}, nil
}

// spliceDiagrams replaces every diagram macro, current or legacy name,
// with a token restoring to a fenced block.
func (c *ReverseConverter) spliceDiagrams(doc string, tokens *TokenSet) string {
	macros := storage.ParseMacros(doc)
	for i := len(macros) - 1; i >= 0; i-- {
		m := macros[i]
		if m.Name != storage.MacroNameDiagram && m.Name != storage.MacroNameDiagramLegacy {
			continue
		}
		doc = spliceToken(doc, m, tokens, fencedBlock(c.opts.language, m.PlainBody))
	}
	return doc
}

// spliceCodeMacros replaces code macros with tokens restoring to fenced
// blocks carrying the macro's language parameter. Title parameters do
// not survive the round trip.
func spliceCodeMacros(doc string, tokens *TokenSet) string {
	macros := storage.ParseMacros(doc)
	for i := len(macros) - 1; i >= 0; i-- {
		m := macros[i]
		if m.Name != storage.MacroNameCode {
			continue
		}
		doc = spliceToken(doc, m, tokens, fencedBlock(m.Param("language"), m.PlainBody))
	}
	return doc
}

// spliceDrawioMacros replaces draw.io macros with tokens restoring to
// the canonical description and editor-link lines.
func spliceDrawioMacros(doc string, tokens *TokenSet) string {
	macros := storage.ParseMacros(doc)
	for i := len(macros) - 1; i >= 0; i-- {
		m := macros[i]
		if m.Name != storage.MacroNameDrawio {
			continue
		}
		name := m.Param("diagramName")
		if name == "" {
			name = m.Param("attachment")
		}
		doc = spliceToken(doc, m, tokens, DrawioRefLines(name))
	}
	return doc
}

// unwrapExpands peels expand macros one nesting layer per pass,
// leaving each rich body in place between a pair of tokens that
// restore to HTML comments carrying the title. Repeats until no
// expand macro remains.
func unwrapExpands(doc string, tokens *TokenSet) string {
	for pass := 0; pass < maxMacroPasses; pass++ {
		layer := topLevel(storage.ParseMacros(doc), func(name string) bool {
			return name == storage.MacroNameExpand
		})
		if len(layer) == 0 {
			return doc
		}
		for i := len(layer) - 1; i >= 0; i-- {
			m := layer[i]
			opener := tokens.Register("<!-- expand: " + m.Param("title") + " -->")
			closer := tokens.Register("<!-- /expand -->")
			doc = doc[:m.Start] +
				"<p>" + opener + "</p>\n" + m.RichBody + "\n<p>" + closer + "</p>" +
				doc[m.End:]
		}
	}
	return doc
}

// rewriteCallouts converts info, note, tip and warning macros into
// sentinel blockquotes, one nesting layer per pass. The body stays
// inline so its formatting goes through the generic transform.
func rewriteCallouts(doc string) string {
	isCallout := func(name string) bool {
		switch name {
		case storage.MacroNameInfo, storage.MacroNameNote,
			storage.MacroNameTip, storage.MacroNameWarning:
			return true
		}
		return false
	}
	for pass := 0; pass < maxMacroPasses; pass++ {
		layer := topLevel(storage.ParseMacros(doc), isCallout)
		if len(layer) == 0 {
			return doc
		}
		for i := len(layer) - 1; i >= 0; i-- {
			m := layer[i]
			doc = doc[:m.Start] + calloutBlockquote(m.Name, m.RichBody) + doc[m.End:]
		}
	}
	return doc
}

// calloutBlockquote builds the blockquote shape the forward direction
// recognizes by its sentinel line.
func calloutBlockquote(name, body string) string {
	sentinel := "ℹ️ Info:"
	if name == storage.MacroNameWarning {
		sentinel = "⚠️ Warning:"
	}
	return "<blockquote><strong>" + sentinel + "</strong><br/>" + body + "</blockquote>"
}

// topLevel keeps the macros matched by the predicate that are not
// contained inside another matched macro. The result stays sorted by
// start offset, so callers can splice back-to-front without shifting
// earlier spans.
func topLevel(macros []storage.Macro, match func(string) bool) []storage.Macro {
	var selected []storage.Macro
	for _, m := range macros {
		if match(m.Name) {
			selected = append(selected, m)
		}
	}
	var layer []storage.Macro
	for _, m := range selected {
		contained := false
		for _, o := range selected {
			if o.Start < m.Start && m.End <= o.End {
				contained = true
				break
			}
		}
		if !contained {
			layer = append(layer, m)
		}
	}
	return layer
}

// spliceToken swaps a macro's span for a freshly registered token,
// wrapped in a paragraph so it stays block-level through the transform.
func spliceToken(doc string, m storage.Macro, tokens *TokenSet, payload string) string {
	tok := tokens.Register(payload)
	return doc[:m.Start] + "<p>" + tok + "</p>" + doc[m.End:]
}

func fencedBlock(lang, code string) string {
	return "```" + lang + "\n" + code + "\n```"
}

// frontMatterHeader renders the YAML front-matter block carrying the
// page title.
func frontMatterHeader(title string) string {
	header, err := yamlutil.MarshalFrontMatter(struct {
		Title string `yaml:"title"`
	}{Title: title})
	if err != nil {
		return ""
	}
	return header
}
