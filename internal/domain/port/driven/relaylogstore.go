package driven

import (
	"context"

	"github.com/ericfisherdev/viewkeeper/internal/domain/model"
)

// RelayLogStore defines the driven port for the record of relayed messages.
type RelayLogStore interface {
	// Seen reports whether the message was already relayed.
	Seen(ctx context.Context, chatID, messageID string) (bool, error)

	// Record stores a relay. Recording the same chat and message twice is
	// not an error.
	Record(ctx context.Context, rec model.RelayRecord) error

	// Stats returns the relay count and the time of the latest relay.
	Stats(ctx context.Context) (model.RelayStats, error)
}
