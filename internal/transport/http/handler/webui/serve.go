package webui

import (
	"io/fs"
	"net/http"
	"strings"
)

// Handler serves static files and falls back to index.html for any path
// that is not a file, so client-side routes load the app.
func (h *Handlers) Handler() http.Handler {
	fileServer := http.FileServer(http.FS(h.FS))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		filePath := r.URL.Path
		if filePath != "/" {
			info, err := fs.Stat(h.FS, strings.TrimPrefix(filePath, "/"))
			if err != nil || info.IsDir() {
				if strings.HasPrefix(filePath, "/static/") {
					http.NotFound(w, r)
					return
				}
				filePath = "/"
			}
		}

		if filePath == "/" {
			w.Header().Set("Cache-Control", "no-cache")
		}

		r2 := r.Clone(r.Context())
		r2.URL.Path = filePath
		fileServer.ServeHTTP(w, r2)
	})
}
