// Package site serves the embedded landing page.
package site

import (
	"bytes"
	"context"
	"net/http"
	"time"
)

// IndexPath is where GET / redirects.
const IndexPath = "/static/index.html"

// Register attaches the landing page routes to mux.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}

	mux.Handle("GET /{$}", NewRootHandler())
	// FileServer would redirect .../index.html to .../, so the page is served directly.
	mux.HandleFunc("GET "+IndexPath, serveIndex)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(FS())))
}

// RootHandler redirects the bare root to the landing page.
type RootHandler struct{}

// NewRootHandler creates a new root handler.
func NewRootHandler() *RootHandler {
	return &RootHandler{}
}

// ServeHTTP handles GET / requests.
func (h *RootHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, IndexPath, http.StatusTemporaryRedirect)
}

func serveIndex(w http.ResponseWriter, r *http.Request) {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeContent(w, r, "index.html", time.Time{}, bytes.NewReader(page))
}
