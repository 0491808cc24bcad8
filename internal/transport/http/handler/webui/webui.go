// Package webui serves the embedded generation form and gallery.
package webui

import (
	"io/fs"

	"github.com/mandalnilabja/pixelrelay/web"
)

// Handlers holds the dependencies for web UI HTTP handlers.
type Handlers struct {
	FS fs.FS
}

// New creates web UI handlers over files. A nil files uses the embedded UI.
func New(files fs.FS) *Handlers {
	if files == nil {
		files = web.FS
	}
	return &Handlers{FS: files}
}
