package model

// Event is a notification emitted by the messaging client. The concrete
// types below are the only implementations.
type Event interface {
	event()
}

// PairingChallenge carries a code that must be shown so a phone can link
// this device.
type PairingChallenge struct {
	Code string
}

// Opened reports an authenticated connection. SelfID is the account the
// device is linked to.
type Opened struct {
	SelfID string
}

// Closed reports the end of a connection attempt. Terminal is true when the
// remote side logged the device out and relinking is required.
type Closed struct {
	Reason   string
	Terminal bool
}

// CredentialsUpdated reports that the device credentials changed and must
// be persisted.
type CredentialsUpdated struct{}

func (PairingChallenge) event()   {}
func (Opened) event()             {}
func (Closed) event()             {}
func (CredentialsUpdated) event() {}
func (MessageBatch) event()       {}
