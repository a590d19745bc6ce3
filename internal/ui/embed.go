package ui

import "embed"

// Templates embeds the HTML views. Each view defines "title" and "content"
// blocks that layout.html fills in.
//
//go:embed templates/*.html
var Templates embed.FS
