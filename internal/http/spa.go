package httpserver

import (
	"net/http"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"
)

const spaIndex = "index.html"

// spaHandler serves files from a build directory and answers every other
// path with the SPA entry document.
type spaHandler struct {
	root   string
	logger *zap.SugaredLogger
}

func newSPAHandler(root string, logger *zap.SugaredLogger) *spaHandler {
	return &spaHandler{root: root, logger: logger}
}

func (h *spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Rooting before Clean keeps ".." from escaping the build directory.
	name := filepath.Join(h.root, filepath.FromSlash(path.Clean("/"+r.URL.Path)))

	if info, err := os.Stat(name); err == nil && info.Mode().IsRegular() {
		http.ServeFile(w, r, name)
		return
	}

	index := filepath.Join(h.root, spaIndex)
	if _, err := os.Stat(index); err != nil {
		h.logger.Warnw("spa entry document missing", "path", index, "error", err)
		http.NotFound(w, r)
		return
	}
	// ServeContent instead of ServeFile: ServeFile redirects any request
	// ending in /index.html.
	f, err := os.Open(index)
	if err != nil {
		h.logger.Errorw("open spa entry document", "path", index, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.ServeContent(w, r, spaIndex, info.ModTime(), f)
}
