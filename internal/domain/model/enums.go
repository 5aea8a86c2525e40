package model

// ConnectionState is a state of the connection lifecycle.
type ConnectionState string

const (
	StateDisconnected    ConnectionState = "disconnected"
	StateConnecting      ConnectionState = "connecting"
	StateAwaitingPairing ConnectionState = "awaiting_pairing"
	StateOpen            ConnectionState = "open"
	StateClosedTransient ConnectionState = "closed_transient"
	StateClosedTerminal  ConnectionState = "closed_terminal"
)

// Live reports whether a connection attempt is in flight or established.
// A close notification is only meaningful in one of these states.
func (s ConnectionState) Live() bool {
	switch s {
	case StateConnecting, StateAwaitingPairing, StateOpen:
		return true
	default:
		return false
	}
}

// BatchType distinguishes freshly delivered messages from history backfill.
type BatchType string

const (
	BatchLive     BatchType = "notify"
	BatchBackfill BatchType = "append"
)
