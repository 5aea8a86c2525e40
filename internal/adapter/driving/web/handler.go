// Package web implements the HTML GUI driving adapter using templ components.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/ericfisherdev/viewkeeper/internal/adapter/driving/web/templates"
	"github.com/ericfisherdev/viewkeeper/internal/adapter/driving/web/templates/pages"
	"github.com/ericfisherdev/viewkeeper/internal/domain/model"
	"github.com/ericfisherdev/viewkeeper/internal/domain/port/driven"
)

// qrSize is the edge length of the rendered pairing code in pixels.
const qrSize = 320

// StatusSource exposes the latest connection snapshot.
type StatusSource interface {
	Status() model.Status
}

// Handler is the web GUI driving adapter that serves HTML via templ components.
type Handler struct {
	status   StatusSource
	relayLog driven.RelayLogStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(status StatusSource, relayLog driven.RelayLogStore, logger *slog.Logger) *Handler {
	return &Handler{
		status:   status,
		relayLog: relayLog,
		logger:   logger,
		now:      time.Now,
	}
}

// Pairing renders the pairing and status page.
func (h *Handler) Pairing(w http.ResponseWriter, r *http.Request) {
	st := h.status.Status()

	stats, err := h.relayLog.Stats(r.Context())
	if err != nil {
		h.logger.Warn("failed to read relay stats", "error", err)
	}

	page := toPairingPageViewModel(st, stats, err == nil, h.now())
	layout := templates.Layout("viewkeeper", pages.Pairing(page))

	w.Header().Set("Cache-Control", "no-store")
	if err := layout.Render(r.Context(), w); err != nil {
		h.logger.Error("failed to render pairing page", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// QRCode renders the current pairing code as a PNG. It responds 404 when
// no code is waiting to be scanned.
func (h *Handler) QRCode(w http.ResponseWriter, _ *http.Request) {
	st := h.status.Status()
	if !st.HasPairingCode() {
		http.Error(w, "pairing code not yet available", http.StatusNotFound)
		return
	}

	png, err := qrcode.Encode(st.PairingCode, qrcode.Medium, qrSize)
	if err != nil {
		h.logger.Error("failed to encode pairing code", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}
