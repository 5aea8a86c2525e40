package driven

import (
	"context"

	"google.golang.org/protobuf/proto"

	"github.com/ericfisherdev/viewkeeper/internal/domain/model"
)

// MessagingClient defines the driven port for the messaging network
// connection. Implementations deliver lifecycle and message notifications on
// the channel returned by Events, in arrival order.
type MessagingClient interface {
	// Connect starts one connection attempt. A returned error means the
	// attempt failed before any Closed event could be emitted.
	Connect(ctx context.Context) error

	// Disconnect closes the current connection, if any.
	Disconnect()

	// Events returns the notification stream. The channel is never closed.
	Events() <-chan model.Event

	// NewMessageID returns a fresh identifier for an outbound message.
	NewMessageID() string

	// Relay sends content to the target account under messageID.
	Relay(ctx context.Context, target, messageID string, content proto.Message) error
}
