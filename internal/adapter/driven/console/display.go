// Package console renders pairing codes as QR blocks on a terminal.
package console

import (
	"fmt"
	"io"
	"sync"

	"github.com/mdp/qrterminal/v3"

	"github.com/ericfisherdev/viewkeeper/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.PairingDisplay = (*Display)(nil)

// Display writes each pairing code to w as a half-block QR.
type Display struct {
	mu sync.Mutex
	w  io.Writer

	shown bool
}

// NewDisplay creates a Display writing to w.
func NewDisplay(w io.Writer) *Display {
	return &Display{w: w}
}

// Show renders code. A rotated code is printed below the previous one.
func (d *Display) Show(code string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintln(d.w, "Scan this code from WhatsApp > Linked Devices > Link a device:")
	qrterminal.GenerateWithConfig(code, qrterminal.Config{
		Level:          qrterminal.L,
		Writer:         d.w,
		HalfBlocks:     true,
		BlackChar:      qrterminal.BLACK_BLACK,
		WhiteBlackChar: qrterminal.WHITE_BLACK,
		WhiteChar:      qrterminal.WHITE_WHITE,
		BlackWhiteChar: qrterminal.BLACK_WHITE,
		QuietZone:      1,
	})
	d.shown = true
}

// Clear prints a notice once after a code was shown. Terminal output cannot
// be retracted, so the notice tells the reader the code is stale.
func (d *Display) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.shown {
		return
	}
	fmt.Fprintln(d.w, "Pairing code no longer valid.")
	d.shown = false
}
