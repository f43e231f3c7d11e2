// Package pipeline implements the generic transform stages shared by the
// forward and reverse converters:
//   - Markdown to HTML conversion via Goldmark
//   - HTML to Markdown conversion via html-to-markdown
//   - Tree-level post-processing of HTML into storage-format macros
//   - Deterministic cosmetic cleanup of generated Markdown
//
// The two generic transforms are treated as black boxes with a fixed
// feature set (tables, fenced code, inline syntax). The converters in the
// root package only prepare their input and post-process their output;
// diagram and macro handling happens around these stages, never inside
// them.
package pipeline
