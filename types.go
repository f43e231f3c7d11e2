package md2conf

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"
)

// RenderMode selects how fenced diagram blocks are represented in the
// storage output.
type RenderMode string

const (
	// RenderModeMacro embeds diagram source in the native diagram macro.
	// Requires the diagram plugin on the Confluence side.
	RenderModeMacro RenderMode = "macro"

	// RenderModeImage renders diagrams locally and uploads the images as
	// page attachments. Requires a page handle, an upload channel, and
	// the rendering tool on PATH; degrades to RenderModeCodeBlock when
	// any precondition is missing.
	RenderModeImage RenderMode = "image"

	// RenderModeCodeBlock wraps diagram source in a collapsible code
	// block with a deep link to a public diagram editor. Always
	// available.
	RenderModeCodeBlock RenderMode = "code-block"
)

// Validate checks that the mode is known. An empty mode is valid and
// means RenderModeMacro.
func (m RenderMode) Validate() error {
	switch m {
	case "", RenderModeMacro, RenderModeImage, RenderModeCodeBlock:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidRenderMode, string(m))
}

// Attachment is a file produced during conversion and owned by the
// content service once uploaded.
type Attachment struct {
	Filename    string
	Data        []byte
	ContentType string
	ID          string // remote id, set after upload
}

// ConvertResult is the outcome of a forward conversion.
type ConvertResult struct {
	// Storage is the converted document in storage format.
	Storage string

	// Attachments lists files uploaded during conversion, in diagram
	// order.
	Attachments []Attachment

	// Unrestored counts placeholder tokens that could not be matched in
	// the transformed output under any known variant. A non-zero value
	// means the tokens were left in place rather than content dropped.
	Unrestored int

	// Mode is the render mode actually used after degradation.
	Mode RenderMode
}

// ReverseResult is the outcome of a reverse conversion.
type ReverseResult struct {
	Markdown   string
	Unrestored int
}

// Input contains forward conversion parameters.
type Input struct {
	Markdown string             // Source document (required)
	Mode     RenderMode         // Diagram representation (default macro)
	PageID   string             // Page handle, required for image mode
	Uploader AttachmentUploader // Upload channel, required for image mode
}

// ReverseInput contains reverse conversion parameters.
type ReverseInput struct {
	Storage string // Storage-format document (required)
	Title   string // Optional page title, emitted as front matter
}

// AttachmentUploader is the narrow upload channel the forward converter
// needs for image mode. Implementations must be idempotent by filename:
// uploading an existing filename replaces its content instead of
// creating a duplicate.
type AttachmentUploader interface {
	// AttachmentID reports the remote id of an existing attachment with
	// the given filename, if any.
	AttachmentID(ctx context.Context, pageID, filename string) (id string, ok bool, err error)

	// UploadAttachment creates or replaces an attachment and returns its
	// remote id.
	UploadAttachment(ctx context.Context, pageID, filename string, data []byte, contentType string) (string, error)
}

// Page is the content-service page handle the publisher works with.
type Page struct {
	ID       string
	Title    string
	SpaceKey string
	Version  int
	WebURL   string
}

// ContentClient is the full collaborator contract the publisher consumes.
// The transport behind it (including retries and authentication) is the
// implementation's concern, not the converter's.
type ContentClient interface {
	AttachmentUploader

	CreatePage(ctx context.Context, spaceKey, title, storage, parentID string) (*Page, error)
	UpdatePage(ctx context.Context, pageID, title, storage string, version int) (*Page, error)
}

// defaultTimeout bounds a single conversion call.
const defaultTimeout = 30 * time.Second

// DefaultDiagramLanguage is the fence language tag treated as diagram
// source.
const DefaultDiagramLanguage = "mermaid"

// options holds shared configuration for converter constructors.
type options struct {
	timeout    time.Duration
	logger     *log.Logger
	language   string
	renderer   *Renderer
	renderOpts RenderOptions
}

func defaultOptions() options {
	return options{
		timeout:    defaultTimeout,
		logger:     log.New(os.Stderr, "[md2conf] ", log.LstdFlags),
		language:   DefaultDiagramLanguage,
		renderOpts: DefaultRenderOptions(),
	}
}

// Option configures a converter.
type Option func(*options)

// WithTimeout sets the conversion timeout.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("md2conf: WithTimeout duration must be positive")
	}
	return func(o *options) {
		o.timeout = d
	}
}

// WithLogger sets the logger used for degradation warnings. Passing nil
// silences them.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithDiagramLanguage overrides the fence language tag treated as
// diagram source.
func WithDiagramLanguage(lang string) Option {
	return func(o *options) {
		if strings.TrimSpace(lang) != "" {
			o.language = lang
		}
	}
}

// WithRenderer replaces the diagram renderer (e.g. by tests).
func WithRenderer(r *Renderer) Option {
	return func(o *options) {
		o.renderer = r
	}
}

// WithRenderOptions sets theme, background and dimensions for rendered
// diagram images.
func WithRenderOptions(ro RenderOptions) Option {
	return func(o *options) {
		o.renderOpts = ro
	}
}

// logf writes a warning when a logger is configured.
func (o *options) logf(format string, args ...any) {
	if o.logger != nil {
		o.logger.Printf(format, args...)
	}
}
