package md2conf

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Fence is one fenced diagram block located in a source document.
// Ordinal follows document order, first occurrence = 0. Start and End
// are byte offsets of the complete block including its fence lines.
type Fence struct {
	Ordinal int
	Code    string
	Start   int
	End     int
}

// DrawioRef is a draw.io diagram reference: a one-line description
// naming a page attachment, optionally followed by an editor-link line.
type DrawioRef struct {
	Ordinal int
	Name    string
	Start   int
	End     int
}

var (
	fencePatterns   = map[string]*regexp.Regexp{}
	fencePatternsMu sync.Mutex
)

// fencePattern compiles (and caches) the extraction pattern for one
// language tag. The tag must match exactly: a longer word sharing the
// prefix does not open a diagram block.
func fencePattern(lang string) *regexp.Regexp {
	fencePatternsMu.Lock()
	defer fencePatternsMu.Unlock()
	if re, ok := fencePatterns[lang]; ok {
		return re
	}
	re := regexp.MustCompile(`(?ms)^` + "```" + regexp.QuoteMeta(lang) + `[ \t]*\n(.*?)\n` + "```" + `[ \t]*$`)
	fencePatterns[lang] = re
	return re
}

// ExtractFences locates all non-overlapping fenced blocks whose opening
// fence carries exactly the given language tag. The body is preserved
// verbatim; only the single newline after the opening fence and the one
// before the closing fence are trimmed. Pure, no side effects.
func ExtractFences(text, lang string) []Fence {
	var fences []Fence
	for i, m := range fencePattern(lang).FindAllStringSubmatchIndex(text, -1) {
		fences = append(fences, Fence{
			Ordinal: i,
			Code:    text[m[2]:m[3]],
			Start:   m[0],
			End:     m[1],
		})
	}
	return fences
}

var (
	drawioRefPattern  = regexp.MustCompile(`(?m)^> ?📊 ?\*\*Draw\.io Diagram\*\*[:：] *(.+)$`)
	drawioLinkPattern = regexp.MustCompile(`^\n> ?\[[^\]]+\]\([^)]+\)`)
)

// ExtractDrawioRefs locates draw.io reference lines. When the line is
// immediately followed by an editor-link line, the link line joins the
// span so both are replaced together.
func ExtractDrawioRefs(text string) []DrawioRef {
	var refs []DrawioRef
	for i, m := range drawioRefPattern.FindAllStringSubmatchIndex(text, -1) {
		ref := DrawioRef{
			Ordinal: i,
			Name:    strings.TrimSpace(text[m[2]:m[3]]),
			Start:   m[0],
			End:     m[1],
		}
		if link := drawioLinkPattern.FindStringIndex(text[ref.End:]); link != nil {
			ref.End += link[1]
		}
		refs = append(refs, ref)
	}
	return refs
}

// DrawioRefLines renders the canonical markdown form of a draw.io
// reference, the inverse of ExtractDrawioRefs.
func DrawioRefLines(name string) string {
	return fmt.Sprintf("> 📊 **Draw.io Diagram**: %s\n> [Edit in draw.io](https://app.diagrams.net/)", name)
}
