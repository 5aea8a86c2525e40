// Package viewmodel defines presentation-ready structs for templ components.
// View models decouple template rendering from domain model types.
package viewmodel

// PairingPageViewModel holds presentation-ready data for the pairing and
// status page.
type PairingPageViewModel struct {
	// State is the machine-readable connection state, used as a CSS hook.
	State      string
	StateLabel string
	Detail     string

	// HasCode selects the QR image; Connected selects the linked summary.
	// With neither set the page shows the "not yet available" placeholder.
	HasCode   bool
	Connected bool

	SelfID string
	Since  string

	RelayTotal string
	LastRelay  string
}
