package storage

import (
	"regexp"
	"sort"
	"strings"
)

// Macro is one ac:structured-macro element located in a storage document.
// Start and End are byte offsets of the complete element, so callers can
// splice replacements directly into the original text.
type Macro struct {
	Name      string
	Params    map[string]string
	PlainBody string // decoded CDATA content of ac:plain-text-body
	RichBody  string // raw inner XML of ac:rich-text-body, nested macros included
	Start     int
	End       int
	Depth     int // 0 for top-level macros
}

// Param returns a named parameter value, or "" when absent.
func (m *Macro) Param(name string) string {
	return m.Params[name]
}

const (
	openTag    = "<ac:structured-macro"
	closeTag   = "</ac:structured-macro>"
	cdataOpen  = "<![CDATA["
	cdataClose = "]]>"
)

var attrPattern = regexp.MustCompile(`([A-Za-z0-9:_-]+)\s*=\s*"([^"]*)"`)

type span struct{ start, end int }

type openFrame struct {
	start    int // offset of '<'
	innerPos int // offset just past the opening tag's '>'
	name     string
	children []span // completed child element spans, relative to doc
}

// ParseMacros scans a storage document and returns every structured macro
// in document order, including nested ones. The scan is depth-aware and
// skips CDATA sections, so macro-shaped text inside code bodies is not
// misread as structure. Malformed input (unterminated macros or CDATA)
// yields the macros that did parse; nothing is ever reported as an error.
func ParseMacros(doc string) []Macro {
	var macros []Macro
	var stack []openFrame

	i := 0
	for i < len(doc) {
		next := strings.IndexByte(doc[i:], '<')
		if next < 0 {
			break
		}
		i += next

		switch {
		case strings.HasPrefix(doc[i:], cdataOpen):
			end := strings.Index(doc[i+len(cdataOpen):], cdataClose)
			if end < 0 {
				i = len(doc) // unterminated CDATA, stop scanning
				continue
			}
			i += len(cdataOpen) + end + len(cdataClose)

		case strings.HasPrefix(doc[i:], closeTag):
			if len(stack) > 0 {
				frame := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				end := i + len(closeTag)
				m := buildMacro(doc, frame, end, len(stack))
				macros = append(macros, m)
				if len(stack) > 0 {
					parent := &stack[len(stack)-1]
					parent.children = append(parent.children, span{frame.start, end})
				}
			}
			i += len(closeTag)

		case hasOpenTag(doc[i:]):
			tagEnd := findTagEnd(doc, i)
			if tagEnd < 0 {
				i = len(doc)
				continue
			}
			tag := doc[i : tagEnd+1]
			name := attrValue(tag, "ac:name")
			if strings.HasSuffix(strings.TrimSpace(strings.TrimSuffix(tag, ">")), "/") {
				// Self-closing macro, e.g. <ac:structured-macro ac:name="toc" />
				m := Macro{Name: name, Params: map[string]string{}, Start: i, End: tagEnd + 1, Depth: len(stack)}
				macros = append(macros, m)
				if len(stack) > 0 {
					parent := &stack[len(stack)-1]
					parent.children = append(parent.children, span{i, tagEnd + 1})
				}
			} else {
				stack = append(stack, openFrame{start: i, innerPos: tagEnd + 1, name: name})
			}
			i = tagEnd + 1

		default:
			i++
		}
	}

	// Unclosed frames are dropped: their text passes through untouched.
	sort.SliceStable(macros, func(a, b int) bool { return macros[a].Start < macros[b].Start })
	return macros
}

// hasOpenTag reports whether s starts an opening structured-macro tag
// (and not the closing tag, which shares the prefix).
func hasOpenTag(s string) bool {
	if !strings.HasPrefix(s, openTag) {
		return false
	}
	rest := s[len(openTag):]
	return len(rest) > 0 && (rest[0] == ' ' || rest[0] == '\t' || rest[0] == '\n' || rest[0] == '>' || rest[0] == '/')
}

// findTagEnd returns the offset of the '>' closing the tag opened at
// start, honoring quoted attribute values. Returns -1 when unterminated.
func findTagEnd(doc string, start int) int {
	inQuote := false
	for j := start; j < len(doc); j++ {
		switch doc[j] {
		case '"':
			inQuote = !inQuote
		case '>':
			if !inQuote {
				return j
			}
		}
	}
	return -1
}

func attrValue(tag, name string) string {
	for _, m := range attrPattern.FindAllStringSubmatch(tag, -1) {
		if m[1] == name {
			return UnescapeText(m[2])
		}
	}
	return ""
}

// buildMacro assembles a Macro once its closing tag is found, extracting
// parameters and bodies that belong to this macro's own level. Regions
// covered by completed child macros are masked out so nested parameters
// and bodies are not attributed to the parent.
func buildMacro(doc string, frame openFrame, end, depth int) Macro {
	m := Macro{
		Name:   frame.name,
		Params: map[string]string{},
		Start:  frame.start,
		End:    end,
		Depth:  depth,
	}
	innerStart := frame.innerPos
	innerEnd := end - len(closeTag)
	if innerStart > innerEnd {
		return m
	}
	inner := doc[innerStart:innerEnd]

	// Child spans relative to inner.
	var masks []span
	for _, c := range frame.children {
		masks = append(masks, span{c.start - innerStart, c.end - innerStart})
	}

	extractParams(inner, masks, &m)
	m.PlainBody = extractElement(inner, masks, "ac:plain-text-body", true)
	m.RichBody = extractElement(inner, masks, "ac:rich-text-body", false)
	return m
}

func masked(masks []span, pos int) bool {
	for _, ms := range masks {
		if pos >= ms.start && pos < ms.end {
			return true
		}
	}
	return false
}

// indexOutsideMasks finds needle in s at or after from, skipping matches
// that begin inside a masked region.
func indexOutsideMasks(s string, masks []span, needle string, from int) int {
	for from <= len(s)-len(needle) {
		idx := strings.Index(s[from:], needle)
		if idx < 0 {
			return -1
		}
		pos := from + idx
		if !masked(masks, pos) {
			return pos
		}
		from = pos + 1
	}
	return -1
}

func extractParams(inner string, masks []span, m *Macro) {
	const pOpen = "<ac:parameter"
	const pClose = "</ac:parameter>"
	pos := 0
	for {
		start := indexOutsideMasks(inner, masks, pOpen, pos)
		if start < 0 {
			return
		}
		tagEnd := findTagEnd(inner, start)
		if tagEnd < 0 {
			return
		}
		name := attrValue(inner[start:tagEnd+1], "ac:name")
		valEnd := indexOutsideMasks(inner, masks, pClose, tagEnd+1)
		if valEnd < 0 {
			return
		}
		if name != "" {
			m.Params[name] = UnescapeText(inner[tagEnd+1 : valEnd])
		}
		pos = valEnd + len(pClose)
	}
}

// extractElement returns the body of the first <element> at this macro's
// level. For plain-text bodies the CDATA wrapper is decoded; rich-text
// bodies are returned as raw XML.
func extractElement(inner string, masks []span, element string, plain bool) string {
	open := "<" + element + ">"
	cls := "</" + element + ">"
	start := indexOutsideMasks(inner, masks, open, 0)
	if start < 0 {
		return ""
	}
	bodyStart := start + len(open)
	end := indexOutsideMasks(inner, masks, cls, bodyStart)
	if end < 0 {
		return ""
	}
	body := inner[bodyStart:end]
	if plain {
		return decodeCDATA(body)
	}
	return body
}

// decodeCDATA concatenates the contents of every CDATA section in body,
// reversing the "]]>" split applied when writing. A body without CDATA
// sections is treated as escaped text.
func decodeCDATA(body string) string {
	if !strings.Contains(body, cdataOpen) {
		return UnescapeText(body)
	}
	var b strings.Builder
	rest := body
	for {
		idx := strings.Index(rest, cdataOpen)
		if idx < 0 {
			break
		}
		rest = rest[idx+len(cdataOpen):]
		end := strings.Index(rest, cdataClose)
		if end < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:end])
		rest = rest[end+len(cdataClose):]
	}
	return b.String()
}
