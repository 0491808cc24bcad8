// Package web provides the embedded web UI files.
package web

import "embed"

// FS contains the embedded web UI files (index.html, static/app.js, static/app.css).
// It is served at / by the webui handler.
//
//go:embed index.html static
var FS embed.FS
