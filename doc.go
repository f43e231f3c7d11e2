// Package md2conf converts Markdown documents to Confluence storage
// format and back.
//
// # Quick Start
//
// Create a converter and convert markdown:
//
//	conv := md2conf.NewConverter()
//
//	result, err := conv.Convert(ctx, md2conf.Input{
//	    Markdown: "# Hello\n\n```mermaid\ngraph TD; A-->B;\n```",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Storage)
//
// The reverse direction turns storage format back into markdown:
//
//	rev := md2conf.NewReverseConverter()
//	result, err := rev.Convert(ctx, md2conf.ReverseInput{Storage: page})
//
// # Conversion Pipeline
//
// The forward conversion follows these stages:
//
//  1. Front-matter strip and render-mode resolution
//  2. Diagram fence extraction and placeholder protection
//  3. Markdown to XHTML via Goldmark (GFM)
//  4. Tree post-processing (code macros, table borders, callouts)
//  5. Placeholder restoration
//
// Diagram blocks are represented per the selected render mode: the
// native diagram macro, a locally rendered PNG uploaded as a page
// attachment, or a collapsible code block with a live-editor link.
// Image mode degrades per block when rendering or uploading fails, and
// degrades wholesale when its preconditions (page id, upload channel,
// renderer binary) are missing.
//
// # Configuration
//
// Use functional options to customize converters:
//
//	conv := md2conf.NewConverter(
//	    md2conf.WithTimeout(time.Minute),
//	    md2conf.WithDiagramLanguage("mermaid"),
//	    md2conf.WithRenderOptions(md2conf.RenderOptions{Theme: "dark"}),
//	)
//
// # Publishing
//
// Publisher drives a full page publish against a ContentClient
// implementation. Image-mode publishes run in two phases because
// attachments need an existing page; a failed second phase can be
// retried with Resume using the state carried in the result.
package md2conf
