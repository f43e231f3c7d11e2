package md2conf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
)

// CommandRunner abstracts command execution to enable testing without
// real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// ExecRunner implements CommandRunner using os/exec.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// RenderOptions control how a diagram is rasterized.
type RenderOptions struct {
	Theme      string
	Background string
	Width      int
	Height     int
}

// DefaultRenderOptions mirror the mermaid CLI defaults.
func DefaultRenderOptions() RenderOptions {
	return RenderOptions{Theme: "default", Background: "white", Width: 800, Height: 600}
}

// Renderer rasterizes mermaid diagram source to PNG by invoking the
// mermaid CLI (mmdc). Availability is probed once per instance and the
// answer cached; a Renderer is safe for concurrent use.
type Renderer struct {
	Runner   CommandRunner
	Binary   string
	lookPath func(string) (string, error)

	probeOnce sync.Once
	available bool
}

// NewRenderer creates a Renderer backed by the mmdc binary on PATH.
func NewRenderer() *Renderer {
	return &Renderer{Runner: &ExecRunner{}, Binary: "mmdc", lookPath: exec.LookPath}
}

// Available reports whether the renderer binary can be found. The
// probe runs once; later calls return the cached answer.
func (r *Renderer) Available() bool {
	r.probeOnce.Do(func() {
		lookPath := r.lookPath
		if lookPath == nil {
			lookPath = exec.LookPath
		}
		_, err := lookPath(r.Binary)
		r.available = err == nil
	})
	return r.available
}

// BestAvailable reports the richest render mode usable with the given
// collaborators. Image mode needs the renderer binary, a page id, and
// an upload channel; anything less degrades to the collapsible code
// block, which has no preconditions.
func BestAvailable(r *Renderer, pageID string, uploader AttachmentUploader) RenderMode {
	if r != nil && pageID != "" && uploader != nil && r.Available() {
		return RenderModeImage
	}
	return RenderModeCodeBlock
}

// Render rasterizes the diagram source to PNG bytes. The source is
// written to a temporary .mmd file and the output read back from a
// temporary .png, both removed before returning.
func (r *Renderer) Render(ctx context.Context, code string, opts RenderOptions) ([]byte, error) {
	if !r.Available() {
		return nil, fmt.Errorf("%w: %s not found on PATH", ErrRendererUnavailable, r.Binary)
	}

	dir, err := os.MkdirTemp("", "md2conf-render-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	inPath := filepath.Join(dir, "diagram.mmd")
	outPath := filepath.Join(dir, "diagram.png")
	if err := os.WriteFile(inPath, []byte(code), 0o600); err != nil {
		return nil, fmt.Errorf("writing diagram source: %w", err)
	}

	args := []string{
		"-i", inPath,
		"-o", outPath,
		"-t", opts.Theme,
		"-b", opts.Background,
		"-w", fmt.Sprint(opts.Width),
		"-H", fmt.Sprint(opts.Height),
		"--quiet",
	}
	if _, stderr, err := r.Runner.Run(ctx, r.Binary, args...); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, stderr, err)
	}

	png, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading output: %v", ErrRenderFailed, err)
	}
	return png, nil
}
