package md2conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/coratch/go-md2conf/internal/yamlutil"
)

// Config holds file-based converter configuration.
type Config struct {
	// Mode selects the diagram representation (macro, image, code-block).
	// Empty means macro.
	Mode string `yaml:"mode"`

	// Language overrides the fence language tag treated as diagram
	// source. Empty means mermaid.
	Language string `yaml:"language"`

	// TimeoutSeconds bounds one conversion call. Zero means the default.
	TimeoutSeconds int `yaml:"timeoutSeconds"`

	Render RenderConfig `yaml:"render"`
}

// RenderConfig holds diagram rasterization settings.
type RenderConfig struct {
	Theme      string `yaml:"theme"`      // mermaid theme (default, dark, forest, neutral)
	Background string `yaml:"background"` // background color (white, transparent, #hex)
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
}

// LoadConfig reads a YAML config file. The argument is a path when it
// contains a separator, otherwise a bare name resolved to
// <name>.yaml in the working directory. Unknown keys are rejected.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, fmt.Errorf("%w: empty name", ErrConfigNotFound)
	}

	configPath := nameOrPath
	if !strings.ContainsAny(nameOrPath, "/\\") && filepath.Ext(nameOrPath) == "" {
		configPath = nameOrPath + ".yaml"
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enum fields and numeric ranges.
func (c *Config) Validate() error {
	if err := RenderMode(c.Mode).Validate(); err != nil {
		return err
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: timeoutSeconds must not be negative", ErrConfigParse)
	}
	if c.Render.Width < 0 || c.Render.Height < 0 {
		return fmt.Errorf("%w: render dimensions must not be negative", ErrConfigParse)
	}
	return nil
}

// Options translates the config into converter options, filling unset
// fields with defaults.
func (c *Config) Options() []Option {
	var opts []Option
	if c.Language != "" {
		opts = append(opts, WithDiagramLanguage(c.Language))
	}
	if c.TimeoutSeconds > 0 {
		opts = append(opts, WithTimeout(time.Duration(c.TimeoutSeconds)*time.Second))
	}

	ro := DefaultRenderOptions()
	if c.Render.Theme != "" {
		ro.Theme = c.Render.Theme
	}
	if c.Render.Background != "" {
		ro.Background = c.Render.Background
	}
	if c.Render.Width > 0 {
		ro.Width = c.Render.Width
	}
	if c.Render.Height > 0 {
		ro.Height = c.Render.Height
	}
	opts = append(opts, WithRenderOptions(ro))
	return opts
}

// RenderMode returns the configured mode as a typed value.
func (c *Config) RenderMode() RenderMode {
	return RenderMode(c.Mode)
}
