package md2conf

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
)

// fakeRunner simulates the mermaid CLI: it records its invocation and
// writes Output to the path following "-o".
type fakeRunner struct {
	Output     []byte
	Err        error
	Stderr     string
	CalledWith []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, string, error) {
	f.CalledWith = append([]string{name}, args...)
	if f.Err != nil {
		return "", f.Stderr, f.Err
	}
	for i, a := range args {
		if a == "-o" && i+1 < len(args) {
			if err := os.WriteFile(args[i+1], f.Output, 0o600); err != nil {
				return "", "", err
			}
		}
	}
	return "", "", nil
}

// fakeRenderer returns a Renderer whose binary probe and subprocess are
// both faked.
func fakeRenderer(runner CommandRunner, available bool) *Renderer {
	return &Renderer{
		Runner: runner,
		Binary: "mmdc",
		lookPath: func(string) (string, error) {
			if available {
				return "/usr/bin/mmdc", nil
			}
			return "", errors.New("not found")
		},
	}
}

func TestRenderer_Available(t *testing.T) {
	if r := fakeRenderer(&fakeRunner{}, true); !r.Available() {
		t.Error("Available() = false with binary present")
	}
	if r := fakeRenderer(&fakeRunner{}, false); r.Available() {
		t.Error("Available() = true with binary missing")
	}
}

func TestRenderer_Available_ProbeCached(t *testing.T) {
	calls := 0
	r := &Renderer{
		Runner: &fakeRunner{},
		Binary: "mmdc",
		lookPath: func(string) (string, error) {
			calls++
			return "/usr/bin/mmdc", nil
		},
	}

	r.Available()
	r.Available()
	r.Available()
	if calls != 1 {
		t.Errorf("lookPath called %d times, want 1", calls)
	}
}

func TestRenderer_Render(t *testing.T) {
	png := []byte("\x89PNG fake image bytes")
	runner := &fakeRunner{Output: png}
	r := fakeRenderer(runner, true)

	got, err := r.Render(context.Background(), "graph TD; A-->B;", DefaultRenderOptions())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if string(got) != string(png) {
		t.Errorf("Render() = %q, want %q", got, png)
	}

	if runner.CalledWith[0] != "mmdc" {
		t.Errorf("invoked %q, want mmdc", runner.CalledWith[0])
	}
	joined := strings.Join(runner.CalledWith, " ")
	for _, w := range []string{"-i ", "-o ", "-t default", "-b white", "-w 800", "-H 600", "--quiet"} {
		if !strings.Contains(joined, w) {
			t.Errorf("invocation missing %q: %q", w, joined)
		}
	}
}

func TestRenderer_Render_CustomOptions(t *testing.T) {
	runner := &fakeRunner{Output: []byte("png")}
	r := fakeRenderer(runner, true)

	opts := RenderOptions{Theme: "dark", Background: "transparent", Width: 1200, Height: 900}
	if _, err := r.Render(context.Background(), "graph TD;", opts); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	joined := strings.Join(runner.CalledWith, " ")
	for _, w := range []string{"-t dark", "-b transparent", "-w 1200", "-H 900"} {
		if !strings.Contains(joined, w) {
			t.Errorf("invocation missing %q: %q", w, joined)
		}
	}
}

func TestRenderer_Render_Unavailable(t *testing.T) {
	r := fakeRenderer(&fakeRunner{}, false)

	_, err := r.Render(context.Background(), "graph TD;", DefaultRenderOptions())
	if !errors.Is(err, ErrRendererUnavailable) {
		t.Errorf("Render() error = %v, want ErrRendererUnavailable", err)
	}
}

func TestRenderer_Render_CommandFails(t *testing.T) {
	runner := &fakeRunner{Err: errors.New("exit status 1"), Stderr: "syntax error in diagram"}
	r := fakeRenderer(runner, true)

	_, err := r.Render(context.Background(), "not a diagram", DefaultRenderOptions())
	if !errors.Is(err, ErrRenderFailed) {
		t.Fatalf("Render() error = %v, want ErrRenderFailed", err)
	}
	if !strings.Contains(err.Error(), "syntax error in diagram") {
		t.Errorf("stderr not surfaced: %v", err)
	}
}

func TestBestAvailable(t *testing.T) {
	uploader := &fakeUploader{}

	tests := []struct {
		name     string
		renderer *Renderer
		pageID   string
		uploader AttachmentUploader
		want     RenderMode
	}{
		{
			name:     "all preconditions met",
			renderer: fakeRenderer(&fakeRunner{}, true),
			pageID:   "123",
			uploader: uploader,
			want:     RenderModeImage,
		},
		{
			name:     "no renderer binary",
			renderer: fakeRenderer(&fakeRunner{}, false),
			pageID:   "123",
			uploader: uploader,
			want:     RenderModeCodeBlock,
		},
		{
			name:     "no page id",
			renderer: fakeRenderer(&fakeRunner{}, true),
			uploader: uploader,
			want:     RenderModeCodeBlock,
		},
		{
			name:     "no uploader",
			renderer: fakeRenderer(&fakeRunner{}, true),
			pageID:   "123",
			want:     RenderModeCodeBlock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BestAvailable(tt.renderer, tt.pageID, tt.uploader); got != tt.want {
				t.Errorf("BestAvailable() = %q, want %q", got, tt.want)
			}
		})
	}
}
