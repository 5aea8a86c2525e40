package web

import (
	"time"

	"github.com/dustin/go-humanize"

	vm "github.com/ericfisherdev/viewkeeper/internal/adapter/driving/web/viewmodel"
	"github.com/ericfisherdev/viewkeeper/internal/domain/model"
)

var stateLabels = map[model.ConnectionState]string{
	model.StateDisconnected:    "Starting",
	model.StateConnecting:      "Connecting",
	model.StateAwaitingPairing: "Waiting for scan",
	model.StateOpen:            "Connected",
	model.StateClosedTransient: "Reconnecting",
	model.StateClosedTerminal:  "Logged out",
}

// toPairingPageViewModel converts a status snapshot and relay stats into the
// page view model. statsOK is false when the relay log could not be read.
func toPairingPageViewModel(st model.Status, stats model.RelayStats, statsOK bool, now time.Time) vm.PairingPageViewModel {
	label, ok := stateLabels[st.State]
	if !ok {
		label = string(st.State)
	}

	page := vm.PairingPageViewModel{
		State:      string(st.State),
		StateLabel: label,
		HasCode:    st.HasPairingCode(),
		Connected:  st.State == model.StateOpen,
		SelfID:     st.SelfID,
		Since:      humanize.RelTime(st.Since, now, "ago", "from now"),
		RelayTotal: "unavailable",
		LastRelay:  "unavailable",
	}

	switch st.State {
	case model.StateClosedTransient:
		if st.LastCloseReason != "" {
			page.Detail = "Last disconnect: " + st.LastCloseReason
		}
	case model.StateClosedTerminal:
		page.Detail = "This device was unlinked. Run `viewkeeper reset-session` and restart to pair again."
	}

	if statsOK {
		page.RelayTotal = humanize.Comma(int64(stats.Total))
		page.LastRelay = "never"
		if !stats.LastRelayedAt.IsZero() {
			page.LastRelay = humanize.RelTime(stats.LastRelayedAt, now, "ago", "from now")
		}
	}

	return page
}
