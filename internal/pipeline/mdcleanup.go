package pipeline

import (
	"regexp"
	"strings"
)

// Precompiled regex patterns for performance.
var (
	// "**text** :" artifacts left by the generic converter
	boldColonGap = regexp.MustCompile(`\*\*([^*]+)\*\* ([:：])`)

	// Escaped period after a heading-leading number: "#### 1\." -> "#### 1."
	headingEscapedDot = regexp.MustCompile(`(?m)^(#{1,6} \d+)\\\.`)

	// Three-asterisk horizontal rule
	asteriskRule = regexp.MustCompile(`(?m)^\* \* \*$`)

	// Runs of three or more newlines (two or more blank lines)
	blankLineRun = regexp.MustCompile(`\n{3,}`)

	// Fenced code block delimiter (backticks or tildes)
	fenceDelimiter = regexp.MustCompile("^(```|~~~)")
)

// CleanupMarkdown applies the deterministic cosmetic fixups that follow
// the generic HTML-to-Markdown transform. The steps run in a fixed order;
// each assumes the previous one has already run.
func CleanupMarkdown(content string) string {
	content = collapseBoldColonGap(content)
	content = unescapeHeadingDot(content)
	content = reflowEscapedHyphens(content)
	content = normalizeRules(content)
	content = collapseBlankLines(content)
	content = trimTrailingWhitespace(content)
	return content
}

// collapseBoldColonGap removes the space the generic converter inserts
// between a bold span and a following colon.
func collapseBoldColonGap(content string) string {
	return boldColonGap.ReplaceAllString(content, "**$1**$2")
}

// unescapeHeadingDot fixes numbered headings: "## 1\. Intro" -> "## 1. Intro".
func unescapeHeadingDot(content string) string {
	return headingEscapedDot.ReplaceAllString(content, "$1.")
}

// reflowEscapedHyphens splits lines containing escaped-hyphen sequences
// into one list item per sequence. Lines inside fenced code blocks are
// left alone.
func reflowEscapedHyphens(content string) string {
	lines := strings.Split(content, "\n")
	result := make([]string, 0, len(lines))

	inCode := false
	for _, line := range lines {
		if fenceDelimiter.MatchString(strings.TrimSpace(line)) {
			inCode = !inCode
			result = append(result, line)
			continue
		}
		if inCode || !strings.Contains(line, `\-`) {
			result = append(result, line)
			continue
		}

		parts := strings.Split(line, `\-`)
		result = append(result, strings.TrimRight(parts[0], " \t"))
		for _, part := range parts[1:] {
			if strings.TrimSpace(part) != "" {
				result = append(result, "- "+strings.TrimSpace(part))
			}
		}
	}

	return strings.Join(result, "\n")
}

// normalizeRules converts "* * *" horizontal rules to the canonical "---".
func normalizeRules(content string) string {
	return asteriskRule.ReplaceAllString(content, "---")
}

// collapseBlankLines limits consecutive blank lines to one.
func collapseBlankLines(content string) string {
	return blankLineRun.ReplaceAllString(content, "\n\n")
}

// trimTrailingWhitespace strips per-line trailing whitespace and ensures
// the document ends with exactly one newline.
func trimTrailingWhitespace(content string) string {
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}
