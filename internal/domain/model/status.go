package model

import "time"

// Status is an immutable snapshot of the connection lifecycle, published
// for read-only consumers such as the pairing page.
type Status struct {
	State           ConnectionState
	PairingCode     string
	SelfID          string
	LastCloseReason string
	Attempt         int
	Since           time.Time
}

// HasPairingCode returns true when a code is waiting to be scanned.
func (s Status) HasPairingCode() bool {
	return s.State == StateAwaitingPairing && s.PairingCode != ""
}
