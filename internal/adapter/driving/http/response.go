package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/viewkeeper/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status          string              `json:"status"`
	Time            string              `json:"time"`
	Connection      string              `json:"connection"`
	Since           string              `json:"since"`
	Attempt         int                 `json:"attempt"`
	SelfID          string              `json:"self_id,omitempty"`
	PairingPending  bool                `json:"pairing_pending"`
	LastCloseReason string              `json:"last_close_reason,omitempty"`
	Relays          *RelayStatsResponse `json:"relays,omitempty"`
}

// RelayStatsResponse summarizes relayed view-once messages.
type RelayStatsResponse struct {
	Total         int    `json:"total"`
	LastRelayedAt string `json:"last_relayed_at,omitempty"`
}

// toRelayStatsResponse converts domain RelayStats. A zero LastRelayedAt is
// omitted.
func toRelayStatsResponse(s model.RelayStats) *RelayStatsResponse {
	resp := &RelayStatsResponse{Total: s.Total}
	if !s.LastRelayedAt.IsZero() {
		resp.LastRelayedAt = s.LastRelayedAt.UTC().Format(time.RFC3339)
	}
	return resp
}
