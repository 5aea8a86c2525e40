package whatsapp

import (
	"fmt"
	"time"

	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/ericfisherdev/viewkeeper/internal/domain/model"
)

// keepAliveMaxFail is how long keepalives may fail before the connection is
// treated as dead. It matches the library's own limit.
const keepAliveMaxFail = 3 * time.Minute

// keepAliveExpired reports whether the last successful keepalive is older
// than keepAliveMaxFail.
func keepAliveExpired(e *events.KeepAliveTimeout, now time.Time) bool {
	return now.Sub(e.LastSuccess) > keepAliveMaxFail
}

// translate maps a whatsmeow event onto a domain event. ok is false for
// events the bot does not care about.
func translate(evt any, selfID func() string, now time.Time) (ev model.Event, ok bool) {
	switch e := evt.(type) {
	case *events.Connected:
		return model.Opened{SelfID: selfID()}, true
	case *events.PairSuccess:
		return model.CredentialsUpdated{}, true
	case *events.Disconnected:
		return model.Closed{Reason: "connection lost"}, true
	case *events.LoggedOut:
		return model.Closed{Reason: fmt.Sprintf("logged out (%v)", e.Reason), Terminal: true}, true
	case *events.ConnectFailure:
		return model.Closed{
			Reason:   fmt.Sprintf("connect failure (%v): %s", e.Reason, e.Message),
			Terminal: e.Reason.IsLoggedOut(),
		}, true
	case *events.StreamReplaced:
		return model.Closed{Reason: "stream replaced by another client"}, true
	case *events.TemporaryBan:
		return model.Closed{Reason: fmt.Sprintf("temporary ban: %v", e)}, true
	case *events.KeepAliveTimeout:
		if !keepAliveExpired(e, now) {
			return nil, false
		}
		return model.Closed{Reason: "keepalive timeout"}, true
	case *events.ManualLoginReconnect:
		return model.Closed{Reason: "restart after pairing"}, true
	case *events.ClientOutdated:
		return model.Closed{Reason: "client outdated"}, true
	case *events.Message:
		return model.MessageBatch{
			Type:     model.BatchLive,
			Messages: []model.IncomingMessage{incoming(e)},
		}, true
	default:
		return nil, false
	}
}

// incoming converts a message event. The raw payload is used because the
// library unwraps view-once envelopes in the parsed one.
func incoming(e *events.Message) model.IncomingMessage {
	msg := model.IncomingMessage{
		Key: model.MessageKey{
			ChatID: e.Info.Chat.String(),
			ID:     e.Info.ID,
			FromMe: e.Info.IsFromMe,
		},
		Sender: e.Info.Sender.String(),
	}

	switch {
	case e.RawMessage != nil:
		msg.Content = e.RawMessage
	case e.Message != nil:
		msg.Content = e.Message
	}
	return msg
}

// historyBatch flattens a history sync into one backfill batch. Messages
// that fail to parse are skipped.
func (c *Client) historyBatch(e *events.HistorySync) model.MessageBatch {
	batch := model.MessageBatch{Type: model.BatchBackfill}

	for _, conv := range e.Data.GetConversations() {
		chat, err := types.ParseJID(conv.GetID())
		if err != nil {
			c.logger.Debug("history conversation skipped", "id", conv.GetID(), "error", err)
			continue
		}
		for _, hm := range conv.GetMessages() {
			parsed, err := c.cli.ParseWebMessage(chat, hm.GetMessage())
			if err != nil {
				continue
			}
			batch.Messages = append(batch.Messages, incoming(parsed))
		}
	}

	return batch
}
