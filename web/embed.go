// Package web embeds the page templates and static assets into the binary.
package web

import "embed"

// EmbeddedFS holds templates/ and static/. Release mode renders from it;
// debug mode reads the same tree from disk.
//
//go:embed templates static
var EmbeddedFS embed.FS
