package md2conf

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "md2conf.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `mode: image
language: plantuml
timeoutSeconds: 60
render:
  theme: dark
  background: transparent
  width: 1200
  height: 900
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.RenderMode() != RenderModeImage {
		t.Errorf("mode = %q, want image", cfg.Mode)
	}
	if cfg.Language != "plantuml" {
		t.Errorf("language = %q", cfg.Language)
	}
	if cfg.TimeoutSeconds != 60 {
		t.Errorf("timeoutSeconds = %d", cfg.TimeoutSeconds)
	}
	if cfg.Render.Theme != "dark" || cfg.Render.Width != 1200 {
		t.Errorf("render = %+v", cfg.Render)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfig(t, "mode: macro\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	opts := cfg.Options()
	if len(opts) == 0 {
		t.Fatal("Options() returned nothing")
	}
	// Unset render fields fall back to the defaults.
	conv := NewConverter(opts...)
	if conv.opts.renderOpts.Theme != "default" {
		t.Errorf("theme = %q, want default", conv.opts.renderOpts.Theme)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(t *testing.T) string
		wantErr error
	}{
		{
			name:    "missing file",
			setup:   func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.yaml") },
			wantErr: ErrConfigNotFound,
		},
		{
			name:    "empty name",
			setup:   func(*testing.T) string { return "" },
			wantErr: ErrConfigNotFound,
		},
		{
			name: "unknown key rejected",
			setup: func(t *testing.T) string {
				return writeConfig(t, "mode: macro\nbogus: true\n")
			},
			wantErr: ErrConfigParse,
		},
		{
			name: "invalid mode rejected",
			setup: func(t *testing.T) string {
				return writeConfig(t, "mode: hologram\n")
			},
			wantErr: ErrInvalidRenderMode,
		},
		{
			name: "negative timeout rejected",
			setup: func(t *testing.T) string {
				return writeConfig(t, "timeoutSeconds: -5\n")
			},
			wantErr: ErrConfigParse,
		},
		{
			name: "negative dimensions rejected",
			setup: func(t *testing.T) string {
				return writeConfig(t, "render:\n  width: -1\n")
			},
			wantErr: ErrConfigParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(tt.setup(t))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("LoadConfig() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Options(t *testing.T) {
	cfg := &Config{
		Language:       "plantuml",
		TimeoutSeconds: 5,
		Render:         RenderConfig{Theme: "forest", Width: 640},
	}

	conv := NewConverter(cfg.Options()...)
	if conv.opts.language != "plantuml" {
		t.Errorf("language = %q", conv.opts.language)
	}
	if conv.opts.renderOpts.Theme != "forest" {
		t.Errorf("theme = %q", conv.opts.renderOpts.Theme)
	}
	if conv.opts.renderOpts.Width != 640 {
		t.Errorf("width = %d", conv.opts.renderOpts.Width)
	}
	// Height was unset and keeps its default.
	if conv.opts.renderOpts.Height != 600 {
		t.Errorf("height = %d, want 600", conv.opts.renderOpts.Height)
	}
}

func TestConfig_BareNameGetsExtension(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "team.yaml"), []byte("mode: macro\n"), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(wd) }()

	cfg, err := LoadConfig("team")
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Mode != "macro" {
		t.Errorf("mode = %q", cfg.Mode)
	}
}
