package md2conf

import (
	"context"
	"fmt"
	"strings"

	"github.com/coratch/go-md2conf/internal/pipeline"
	"github.com/coratch/go-md2conf/internal/storage"
)

// Token prefixes for span protection. Alphanumeric only so generic
// transforms pass them through unmangled.
const (
	diagramTokenBase = "MDCDIAGRAMBLOCK"
	drawioTokenBase  = "MDCDRAWIOBLOCK"
)

// Converter turns markdown documents into storage-format documents.
// Safe for concurrent use after construction.
type Converter struct {
	opts options
	html pipeline.HTMLConverter
}

// NewConverter creates a forward converter.
func NewConverter(opts ...Option) *Converter {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.renderer == nil {
		o.renderer = NewRenderer()
	}
	return &Converter{opts: o, html: pipeline.NewGoldmarkConverter()}
}

// Convert runs the forward pipeline: front-matter strip, render-mode
// resolution, per-diagram fragment construction, span protection,
// markdown to XHTML, tree post-processing, placeholder restoration.
// Render and upload failures degrade the affected block instead of
// failing the call; only invalid input is fatal.
func (c *Converter) Convert(ctx context.Context, in Input) (*ConvertResult, error) {
	if strings.TrimSpace(in.Markdown) == "" {
		return nil, ErrEmptyDocument
	}
	if err := in.Mode.Validate(); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.opts.timeout)
	defer cancel()

	doc := strings.ReplaceAll(in.Markdown, "\r\n", "\n")
	doc = stripFrontMatter(doc)

	mode := c.resolveMode(in)
	result := &ConvertResult{Mode: mode}

	// Both token sets salt against the document before any protection
	// runs, so a literal token of either flavor inside a fence still
	// triggers the collision check.
	diagrams := NewTokenSet(doc, diagramTokenBase)
	drawio := NewTokenSet(doc, drawioTokenBase)

	if fences := ExtractFences(doc, c.opts.language); len(fences) > 0 {
		spans := make([]Span, len(fences))
		payloads := make([]string, len(fences))
		for i, f := range fences {
			spans[i] = Span{Start: f.Start, End: f.End}
			payloads[i] = c.diagramFragment(ctx, f, mode, in, result)
		}
		doc = diagrams.Protect(doc, spans, payloads)
	}

	if refs := ExtractDrawioRefs(doc); len(refs) > 0 {
		spans := make([]Span, len(refs))
		payloads := make([]string, len(refs))
		for i, ref := range refs {
			spans[i] = Span{Start: ref.Start, End: ref.End}
			payloads[i] = storage.DrawioMacro(ref.Name)
		}
		doc = drawio.Protect(doc, spans, payloads)
	}

	rendered, err := c.html.ToHTML(ctx, doc)
	if err != nil {
		return nil, err
	}

	isProtected := func(s string) bool {
		s = strings.TrimSpace(s)
		return diagrams.IsToken(s) || drawio.IsToken(s)
	}
	out, err := pipeline.TransformStorage(rendered, isProtected)
	if err != nil {
		return nil, err
	}

	out, missedDiagrams := diagrams.Restore(out)
	out, missedDrawio := drawio.Restore(out)
	result.Unrestored = missedDiagrams + missedDrawio
	result.Storage = out
	return result, nil
}

// resolveMode degrades image mode to code blocks when any of its
// preconditions is missing, with a warning naming the gap.
func (c *Converter) resolveMode(in Input) RenderMode {
	mode := in.Mode
	if mode == "" {
		mode = RenderModeMacro
	}
	if mode != RenderModeImage {
		return mode
	}
	switch {
	case in.PageID == "":
		c.opts.logf("image mode needs a page id; falling back to code blocks")
	case in.Uploader == nil:
		c.opts.logf("image mode needs an upload channel; falling back to code blocks")
	case !c.opts.renderer.Available():
		c.opts.logf("image mode needs %s on PATH; falling back to code blocks", c.opts.renderer.Binary)
	default:
		return RenderModeImage
	}
	return RenderModeCodeBlock
}

// diagramFragment builds the storage fragment that replaces one fenced
// diagram block under the resolved mode.
func (c *Converter) diagramFragment(ctx context.Context, f Fence, mode RenderMode, in Input, result *ConvertResult) string {
	switch mode {
	case RenderModeImage:
		frag, err := c.imageFragment(ctx, f, in, result)
		if err != nil {
			c.opts.logf("diagram %d: %v; falling back to code block", f.Ordinal+1, err)
			return c.codeBlockFragment(f)
		}
		return frag
	case RenderModeCodeBlock:
		return c.codeBlockFragment(f)
	default:
		return storage.DiagramMacro(f.Code)
	}
}

// imageFragment renders the diagram, uploads the PNG, and returns an
// attachment image reference. Filenames are deterministic so repeated
// publishes replace attachments instead of accumulating copies.
func (c *Converter) imageFragment(ctx context.Context, f Fence, in Input, result *ConvertResult) (string, error) {
	png, err := c.opts.renderer.Render(ctx, f.Code, c.opts.renderOpts)
	if err != nil {
		return "", err
	}

	filename := fmt.Sprintf("mermaid_diagram_%d.png", f.Ordinal+1)
	if id, ok, err := in.Uploader.AttachmentID(ctx, in.PageID, filename); err == nil && ok {
		c.opts.logf("attachment %s already exists (id %s); replacing", filename, id)
	}
	id, err := in.Uploader.UploadAttachment(ctx, in.PageID, filename, png, "image/png")
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", filename, err)
	}

	result.Attachments = append(result.Attachments, Attachment{
		Filename:    filename,
		Data:        png,
		ContentType: "image/png",
		ID:          id,
	})
	return storage.ImageAttachment(filename), nil
}

// codeBlockFragment wraps the diagram source in a collapsible code
// block with a deep link to the live editor. Always succeeds.
func (c *Converter) codeBlockFragment(f Fence) string {
	inner := storage.CodeMacro(c.opts.language, "", f.Code)
	if url, err := EditorURL(f.Code); err == nil {
		inner += storage.EditorLink(url, "Edit in Live Editor")
	}
	return storage.ExpandMacro("View diagram source", inner)
}

// stripFrontMatter removes a YAML front-matter header at the very start
// of the document. A header without its closing delimiter is malformed
// and left untouched.
func stripFrontMatter(doc string) string {
	if !strings.HasPrefix(doc, "---\n") {
		return doc
	}
	rest := doc[len("---\n"):]
	if idx := strings.Index(rest, "\n---\n"); idx >= 0 {
		return strings.TrimPrefix(rest[idx+len("\n---\n"):], "\n")
	}
	if strings.HasSuffix(rest, "\n---") {
		return ""
	}
	return doc
}
