package driven

// PairingDisplay renders a pairing code for out-of-band linking.
type PairingDisplay interface {
	Show(code string)
	Clear()
}
