package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ericfisherdev/viewkeeper/internal/domain/model"
	"github.com/ericfisherdev/viewkeeper/internal/domain/port/driven"
)

// SelfIdentity reports the account the client is authenticated as. ok is
// false while no connection is open.
type SelfIdentity interface {
	SelfID() (id string, ok bool)
}

// RelayEngine re-sends incoming view-once messages to the account owner with
// the view-once flag cleared.
type RelayEngine struct {
	client   driven.MessagingClient
	relayLog driven.RelayLogStore
	identity SelfIdentity
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewRelayEngine creates a RelayEngine. timeout bounds each relay call.
func NewRelayEngine(
	client driven.MessagingClient,
	relayLog driven.RelayLogStore,
	identity SelfIdentity,
	timeout time.Duration,
	logger *slog.Logger,
) *RelayEngine {
	return &RelayEngine{
		client:   client,
		relayLog: relayLog,
		identity: identity,
		timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

// Handle inspects the first message of a live batch and relays it when it
// is a view-once message. Failures, including panics, are logged and never
// propagate, so a bad message cannot stall the event loop.
func (e *RelayEngine) Handle(ctx context.Context, batch model.MessageBatch) {
	defer func() {
		if v := recover(); v != nil {
			e.logger.Error("panic handling message batch", "panic", v)
		}
	}()

	if err := e.handle(ctx, batch); err != nil {
		e.logger.Error("view-once relay failed", "error", err)
	}
}

func (e *RelayEngine) handle(ctx context.Context, batch model.MessageBatch) error {
	if batch.Type != model.BatchLive || len(batch.Messages) == 0 {
		return nil
	}

	msg := batch.Messages[0]
	if msg.Content == nil || !msg.Content.ProtoReflect().IsValid() || msg.Key.FromMe {
		return nil
	}

	match, ok := stripViewOnce(msg.Content)
	if !ok {
		return nil
	}

	target, ok := e.identity.SelfID()
	if !ok {
		e.logger.Debug("view-once message dropped, no open connection", "chat", msg.Key.ChatID, "id", msg.Key.ID)
		return nil
	}

	seen, err := e.relayLog.Seen(ctx, msg.Key.ChatID, msg.Key.ID)
	if err != nil {
		e.logger.Warn("relay log lookup failed", "chat", msg.Key.ChatID, "id", msg.Key.ID, "error", err)
	} else if seen {
		e.logger.Debug("view-once message already relayed", "chat", msg.Key.ChatID, "id", msg.Key.ID)
		return nil
	}

	outboundID := e.client.NewMessageID()

	relayCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.client.Relay(relayCtx, target, outboundID, msg.Content); err != nil {
		return fmt.Errorf("relay %s from %s: %w", msg.Key.ID, msg.Key.ChatID, err)
	}

	e.logger.Info("view-once relayed",
		"from", msg.Key.ChatID,
		"to", target,
		"kind", match.Kind,
		"file_kind", match.FileKind,
		"outbound_id", outboundID,
	)

	rec := model.RelayRecord{
		ID:         uuid.NewString(),
		ChatID:     msg.Key.ChatID,
		MessageID:  msg.Key.ID,
		OutboundID: outboundID,
		Kind:       match.Kind,
		FileKind:   match.FileKind,
		RelayedAt:  e.now().UTC(),
	}
	if err := e.relayLog.Record(ctx, rec); err != nil {
		e.logger.Warn("relay log write failed", "chat", msg.Key.ChatID, "id", msg.Key.ID, "error", err)
	}

	return nil
}
