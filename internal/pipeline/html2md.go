package pipeline

import (
	"context"
	"errors"
	"fmt"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
)

// ErrMarkdownConversion indicates Markdown conversion failed.
var ErrMarkdownConversion = errors.New("markdown conversion failed")

// MarkdownConverter abstracts HTML to Markdown conversion.
type MarkdownConverter interface {
	ToMarkdown(ctx context.Context, content string) (string, error)
}

// HTML2MarkdownConverter converts HTML to Markdown using
// html-to-markdown with GitHub-flavored extensions (tables,
// strikethrough, task lists).
type HTML2MarkdownConverter struct {
	conv *md.Converter
}

// NewHTML2MarkdownConverter creates a converter with GFM support.
func NewHTML2MarkdownConverter() *HTML2MarkdownConverter {
	conv := md.NewConverter("", true, nil)
	conv.Use(plugin.GitHubFlavored())
	return &HTML2MarkdownConverter{conv: conv}
}

// ToMarkdown converts an HTML document or fragment to Markdown.
// Cancellation uses the same goroutine + select pattern as ToHTML.
func (c *HTML2MarkdownConverter) ToMarkdown(ctx context.Context, content string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	type result struct {
		md  string
		err error
	}

	done := make(chan result, 1)

	go func() {
		out, err := c.conv.ConvertString(content)
		if err != nil {
			done <- result{err: fmt.Errorf("%w: %v", ErrMarkdownConversion, err)}
			return
		}
		done <- result{md: out}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.md, r.err
	}
}
