package web

import (
	"io/fs"
	"net/http"
)

// RegisterRoutes registers the pairing page, the QR image and the embedded
// static assets on the provided mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	staticFS, _ := fs.Sub(StaticFS, "static")
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	mux.HandleFunc("GET /qr.png", h.QRCode)
	mux.HandleFunc("GET /{$}", h.Pairing)
}
