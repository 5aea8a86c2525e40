// Package httphandler implements the JSON API driving adapter.
package httphandler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ericfisherdev/viewkeeper/internal/domain/model"
	"github.com/ericfisherdev/viewkeeper/internal/domain/port/driven"
)

// StatusSource exposes the latest connection snapshot.
type StatusSource interface {
	Status() model.Status
}

// Handler is the HTTP driving adapter that serves the JSON API.
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

// RegisterAPIRoutes registers the JSON API routes on mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// ApplyMiddleware wraps handler with recovery and request logging.
func ApplyMiddleware(handler http.Handler, logger *slog.Logger) http.Handler {
	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, handler)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health reports process liveness along with the connection state. The
// status code is 200 whenever the process serves requests, so a container
// is not restarted while waiting for a scan.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	st := h.status.Status()

	resp := HealthResponse{
		Status:          "ok",
		Time:            h.now().UTC().Format(time.RFC3339),
		Connection:      string(st.State),
		Since:           st.Since.UTC().Format(time.RFC3339),
		Attempt:         st.Attempt,
		SelfID:          st.SelfID,
		PairingPending:  st.HasPairingCode(),
		LastCloseReason: st.LastCloseReason,
	}

	stats, err := h.relayLog.Stats(r.Context())
	if err != nil {
		h.logger.Warn("failed to read relay stats", "error", err)
	} else {
		resp.Relays = toRelayStatsResponse(stats)
	}

	writeJSON(w, http.StatusOK, resp)
}
