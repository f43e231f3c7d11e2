package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	md2conf "github.com/coratch/go-md2conf"
)

var errUsage = errors.New("usage: md2conf [flags] <input-file | ->")

// run executes one conversion. Input comes from the positional file
// argument or stdin ("-"); output goes to --out or stdout.
func run(flags *convertFlags, args []string) error {
	if len(args) != 1 {
		return errUsage
	}

	content, err := readInput(args[0])
	if err != nil {
		return err
	}

	opts, mode, err := buildOptions(flags)
	if err != nil {
		return err
	}

	ctx := context.Background()

	var out string
	if flags.reverse {
		rev := md2conf.NewReverseConverter(opts...)
		result, err := rev.Convert(ctx, md2conf.ReverseInput{
			Storage: content,
			Title:   flags.title,
		})
		if err != nil {
			return err
		}
		if result.Unrestored > 0 {
			fmt.Fprintf(os.Stderr, "warning: %d block(s) could not be restored\n", result.Unrestored)
		}
		out = result.Markdown
	} else {
		conv := md2conf.NewConverter(opts...)
		result, err := conv.Convert(ctx, md2conf.Input{
			Markdown: content,
			Mode:     mode,
		})
		if err != nil {
			return err
		}
		if result.Unrestored > 0 {
			fmt.Fprintf(os.Stderr, "warning: %d block(s) could not be restored\n", result.Unrestored)
		}
		out = result.Storage
	}

	return writeOutput(flags.out, out)
}

// buildOptions merges config file settings and flags into converter
// options. Flags win over the config file.
func buildOptions(flags *convertFlags) ([]md2conf.Option, md2conf.RenderMode, error) {
	var opts []md2conf.Option
	mode := md2conf.RenderMode(flags.mode)
	ro := md2conf.DefaultRenderOptions()

	if flags.config != "" {
		cfg, err := md2conf.LoadConfig(flags.config)
		if err != nil {
			return nil, "", err
		}
		opts = append(opts, cfg.Options()...)
		if mode == "" {
			mode = cfg.RenderMode()
		}
		if cfg.Render.Theme != "" {
			ro.Theme = cfg.Render.Theme
		}
		if cfg.Render.Background != "" {
			ro.Background = cfg.Render.Background
		}
		if cfg.Render.Width > 0 {
			ro.Width = cfg.Render.Width
		}
		if cfg.Render.Height > 0 {
			ro.Height = cfg.Render.Height
		}
	}

	if err := mode.Validate(); err != nil {
		return nil, "", err
	}

	if flags.lang != "" {
		opts = append(opts, md2conf.WithDiagramLanguage(flags.lang))
	}
	if flags.theme != "" {
		ro.Theme = flags.theme
	}
	if flags.background != "" {
		ro.Background = flags.background
	}
	if flags.width > 0 {
		ro.Width = flags.width
	}
	if flags.height > 0 {
		ro.Height = flags.height
	}
	opts = append(opts, md2conf.WithRenderOptions(ro))

	if !flags.verbose {
		opts = append(opts, md2conf.WithLogger(nil))
	} else {
		opts = append(opts, md2conf.WithLogger(log.New(os.Stderr, "[md2conf] ", log.LstdFlags)))
	}
	return opts, mode, nil
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- input path is user-provided
	if err != nil {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return string(data), nil
}

func writeOutput(path, content string) error {
	if path == "" {
		_, err := io.WriteString(os.Stdout, content)
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil { // #nosec G306 -- converted document, not a secret
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
