package model

import "time"

// RelayRecord describes one view-once message relayed to the owner. It
// never holds message content.
type RelayRecord struct {
	ID         string
	ChatID     string
	MessageID  string
	OutboundID string
	Kind       string
	FileKind   string
	RelayedAt  time.Time
}

// RelayStats summarizes the relay log.
type RelayStats struct {
	Total         int
	LastRelayedAt time.Time
}
