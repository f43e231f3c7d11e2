package md2conf

import (
	"context"
	"fmt"
	"strings"
)

// PublishPhase tracks how far a publish operation progressed.
type PublishPhase string

const (
	// PhasePending means no remote state exists yet.
	PhasePending PublishPhase = "pending"

	// PhasePageCreated means the page exists with fallback content but
	// attachments are not uploaded yet.
	PhasePageCreated PublishPhase = "page-created"

	// PhaseComplete means the page carries its final content.
	PhaseComplete PublishPhase = "complete"
)

// PublishRequest describes one document to publish.
type PublishRequest struct {
	Markdown string
	Title    string
	SpaceKey string
	ParentID string // optional parent page
	PageID   string // set to update an existing page instead of creating one
	Version  int    // current version of the existing page, required with PageID
	Mode     RenderMode
}

// PublishState is the durable remote state of a publish operation. It
// is observable in the result even when the operation fails partway,
// so a caller can Resume instead of recreating the page.
type PublishState struct {
	PageID  string
	Version int
	Phase   PublishPhase
}

// PublishResult is the outcome of a publish operation.
type PublishResult struct {
	Page    *Page
	Convert *ConvertResult
	State   PublishState
}

// Publisher creates and updates remote pages from markdown documents.
// Image-mode publishes run in two phases because attachments need a
// page to attach to: the page is first created with degraded content,
// then attachments upload against its id and the content is replaced.
type Publisher struct {
	client ContentClient
	conv   *Converter
	opts   options
}

// NewPublisher creates a Publisher on the given content client.
func NewPublisher(client ContentClient, opts ...Option) *Publisher {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Publisher{client: client, conv: NewConverter(opts...), opts: o}
}

// Publish converts and publishes one document. On a partial failure
// the returned result still carries the publish state reached so far,
// alongside the error.
func (p *Publisher) Publish(ctx context.Context, req PublishRequest) (*PublishResult, error) {
	if strings.TrimSpace(req.Markdown) == "" {
		return nil, ErrEmptyDocument
	}
	if err := req.Mode.Validate(); err != nil {
		return nil, err
	}

	result := &PublishResult{State: PublishState{Phase: PhasePending}}

	if !p.needsTwoPhase(req) {
		return p.publishSinglePhase(ctx, req, result)
	}

	// Phase 1: the page must exist before anything can attach to it, so
	// it is created with the always-available representation first.
	created, conv, err := p.createOrUpdate(ctx, req, Input{
		Markdown: req.Markdown,
		Mode:     RenderModeCodeBlock,
	})
	if err != nil {
		return result, err
	}
	result.Page = created
	result.Convert = conv
	result.State = PublishState{PageID: created.ID, Version: created.Version, Phase: PhasePageCreated}

	// Phase 2: re-convert against the page id, uploading as we go, then
	// swap in the final content.
	if err := p.finishImagePhase(ctx, req, result); err != nil {
		return result, err
	}
	return result, nil
}

// Resume retries phase 2 of an image-mode publish that failed after
// page creation. The state must carry the page id from the earlier
// attempt.
func (p *Publisher) Resume(ctx context.Context, state PublishState, req PublishRequest) (*PublishResult, error) {
	if state.PageID == "" {
		return nil, ErrNoPageID
	}
	result := &PublishResult{State: state}
	if err := p.finishImagePhase(ctx, req, result); err != nil {
		return result, err
	}
	return result, nil
}

// needsTwoPhase reports whether this request has to create the page
// before converting: image mode with at least one diagram present and
// no existing page to attach to.
func (p *Publisher) needsTwoPhase(req PublishRequest) bool {
	return req.Mode == RenderModeImage &&
		req.PageID == "" &&
		len(ExtractFences(req.Markdown, p.opts.language)) > 0
}

// publishSinglePhase converts once and creates or updates the page.
func (p *Publisher) publishSinglePhase(ctx context.Context, req PublishRequest, result *PublishResult) (*PublishResult, error) {
	in := Input{Markdown: req.Markdown, Mode: req.Mode}
	if req.Mode == RenderModeImage && req.PageID != "" {
		in.PageID = req.PageID
		in.Uploader = p.client
	}
	page, conv, err := p.createOrUpdate(ctx, req, in)
	if err != nil {
		return result, err
	}
	result.Page = page
	result.Convert = conv
	result.State = PublishState{PageID: page.ID, Version: page.Version, Phase: PhaseComplete}
	return result, nil
}

// finishImagePhase re-converts in image mode against the page in
// result.State and updates the page when the content changed.
func (p *Publisher) finishImagePhase(ctx context.Context, req PublishRequest, result *PublishResult) error {
	conv, err := p.conv.Convert(ctx, Input{
		Markdown: req.Markdown,
		Mode:     RenderModeImage,
		PageID:   result.State.PageID,
		Uploader: p.client,
	})
	if err != nil {
		return err
	}
	result.Convert = conv

	if len(conv.Attachments) == 0 {
		// Every render degraded; the fallback content already on the
		// page is what this conversion produced.
		result.State.Phase = PhaseComplete
		return nil
	}

	page, err := p.client.UpdatePage(ctx, result.State.PageID, req.Title, conv.Storage, result.State.Version+1)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPageUpdate, err)
	}
	result.Page = page
	result.State = PublishState{PageID: page.ID, Version: page.Version, Phase: PhaseComplete}
	return nil
}

// createOrUpdate converts the document and writes it to the remote
// side, creating a page or bumping an existing one.
func (p *Publisher) createOrUpdate(ctx context.Context, req PublishRequest, in Input) (*Page, *ConvertResult, error) {
	conv, err := p.conv.Convert(ctx, in)
	if err != nil {
		return nil, nil, err
	}

	if req.PageID != "" {
		page, err := p.client.UpdatePage(ctx, req.PageID, req.Title, conv.Storage, req.Version+1)
		if err != nil {
			return nil, conv, fmt.Errorf("%w: %v", ErrPageUpdate, err)
		}
		return page, conv, nil
	}

	page, err := p.client.CreatePage(ctx, req.SpaceKey, req.Title, conv.Storage, req.ParentID)
	if err != nil {
		return nil, conv, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	return page, conv, nil
}
