package md2conf

import (
	"fmt"
	"strings"
)

// Span marks a half-open byte range [Start, End) of a source document.
type Span struct {
	Start int
	End   int
}

// TokenSet protects document spans from a lossy transformation by
// replacing them with opaque alphanumeric tokens, then splices the real
// payloads back in afterwards. Tokens carry no markdown or XML
// metacharacters so every converter passes them through untouched.
type TokenSet struct {
	prefix   string
	suffix   string
	payloads []string
}

// NewTokenSet builds a token set whose tokens are guaranteed absent
// from doc. The base prefix is salted with a counter until no token
// shape collides with document text, so user content that happens to
// spell a token literal never gets spliced over.
func NewTokenSet(doc, base string) *TokenSet {
	prefix := base
	for salt := 0; strings.Contains(doc, prefix); salt++ {
		prefix = fmt.Sprintf("%sX%d", base, salt)
	}
	return &TokenSet{prefix: prefix, suffix: "END"}
}

// Token returns the opaque token for ordinal i.
func (t *TokenSet) Token(i int) string {
	return fmt.Sprintf("%s%d%s", t.prefix, i, t.suffix)
}

// Len reports how many payloads have been registered.
func (t *TokenSet) Len() int { return len(t.payloads) }

// IsToken reports whether s is one of this set's tokens.
func (t *TokenSet) IsToken(s string) bool {
	body, ok := strings.CutPrefix(s, t.prefix)
	if !ok {
		return false
	}
	body, ok = strings.CutSuffix(body, t.suffix)
	if !ok || body == "" {
		return false
	}
	for _, r := range body {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Protect replaces each span of doc with a fresh token and records the
// given replacement payload for later restoration. Spans must be
// non-overlapping and sorted by Start; replacement happens back to
// front so earlier offsets stay valid.
func (t *TokenSet) Protect(doc string, spans []Span, payloads []string) string {
	for i := len(spans) - 1; i >= 0; i-- {
		tok := t.Token(len(t.payloads) + i)
		doc = doc[:spans[i].Start] + tok + doc[spans[i].End:]
	}
	t.payloads = append(t.payloads, payloads...)
	return doc
}

// Register records a payload without editing the document and returns
// the token the caller should place manually.
func (t *TokenSet) Register(payload string) string {
	tok := t.Token(len(t.payloads))
	t.payloads = append(t.payloads, payload)
	return tok
}

// Restore splices every registered payload back into doc. A token may
// survive the intermediate transformation verbatim, wrapped in a
// paragraph element, or with markdown escaping applied; all three
// shapes are recognized. Tokens that cannot be found are left in place
// and counted, never silently dropped.
func (t *TokenSet) Restore(doc string) (out string, unrestored int) {
	for i, payload := range t.payloads {
		tok := t.Token(i)
		replaced := false
		for _, variant := range []string{
			"<p>" + tok + "</p>",
			tok,
			escapeMarkdown(tok),
		} {
			if strings.Contains(doc, variant) {
				doc = strings.Replace(doc, variant, payload, 1)
				replaced = true
				break
			}
		}
		if !replaced {
			unrestored++
		}
	}
	return doc, unrestored
}

// escapeMarkdown applies the backslash escaping a markdown serializer
// may add to a token. Tokens are alphanumeric so in practice only the
// identity survives, but digits following letters are occasionally
// escaped by cautious emitters.
func escapeMarkdown(s string) string {
	return strings.NewReplacer(
		`_`, `\_`,
		`*`, `\*`,
		`[`, `\[`,
		`]`, `\]`,
	).Replace(s)
}
