package md2conf

import "errors"

// Sentinel errors for library operations.
var (
	ErrEmptyDocument     = errors.New("document content cannot be empty")
	ErrInvalidRenderMode = errors.New("invalid render mode")

	// Renderer errors. Both are per-block recoverable: the converter
	// degrades the affected block instead of failing the call.
	ErrRendererUnavailable = errors.New("rendering tool not available")
	ErrRenderFailed        = errors.New("diagram rendering failed")

	// Publisher errors.
	ErrPageCreate = errors.New("failed to create page")
	ErrPageUpdate = errors.New("failed to update page")
	ErrNoPageID   = errors.New("publish state carries no page id")

	// Config errors.
	ErrConfigNotFound = errors.New("config file not found")
	ErrConfigParse    = errors.New("failed to parse config")
)
