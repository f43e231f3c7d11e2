package main

import (
	"fmt"

	flag "github.com/spf13/pflag"
)

// convertFlags holds all CLI flags.
type convertFlags struct {
	reverse    bool
	mode       string
	lang       string
	config     string
	out        string
	title      string
	theme      string
	background string
	width      int
	height     int
	verbose    bool
	version    bool
}

// buildFlagSet creates the flag set. Single source of truth for flag
// names, defaults, and help text.
func buildFlagSet(f *convertFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("md2conf", flag.ContinueOnError)
	fs.BoolVarP(&f.reverse, "reverse", "r", false, "convert storage format back to markdown")
	fs.StringVarP(&f.mode, "mode", "m", "", "diagram render mode: macro, image, code-block (default macro)")
	fs.StringVar(&f.lang, "lang", "", "fence language tag treated as diagram source (default mermaid)")
	fs.StringVarP(&f.config, "config", "c", "", "config file path or name")
	fs.StringVarP(&f.out, "out", "o", "", "output file (default stdout)")
	fs.StringVarP(&f.title, "title", "t", "", "page title, emitted as front matter in reverse mode")
	fs.StringVar(&f.theme, "theme", "", "diagram theme (default, dark, forest, neutral)")
	fs.StringVar(&f.background, "background", "", "diagram background color")
	fs.IntVar(&f.width, "width", 0, "diagram image width in pixels")
	fs.IntVar(&f.height, "height", 0, "diagram image height in pixels")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "verbose output")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	return fs
}

// parseFlags parses args (excluding the program name) and returns the
// flags plus positional arguments.
func parseFlags(args []string) (*convertFlags, []string, error) {
	var f convertFlags
	fs := buildFlagSet(&f)
	if err := fs.Parse(args); err != nil {
		return nil, nil, fmt.Errorf("parsing flags: %w", err)
	}
	return &f, fs.Args(), nil
}
