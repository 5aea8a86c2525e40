// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ericfisherdev/viewkeeper/internal/domain/model"
	"github.com/ericfisherdev/viewkeeper/internal/domain/port/driven"
)

// Hook runs after a connection opens. Errors are logged and never close
// the connection.
type Hook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// Supervisor owns the connection lifecycle. It reacts to client events on a
// single goroutine: it shows pairing codes, records the relay target,
// persists credentials, schedules reconnects and feeds message batches to
// the RelayEngine.
type Supervisor struct {
	client   driven.MessagingClient
	sessions driven.SessionStore
	display  driven.PairingDisplay
	engine   *RelayEngine
	policy   *ReconnectPolicy
	hooks    []namedHook
	logger   *slog.Logger

	after func(time.Duration) <-chan time.Time
	now   func() time.Time

	// Loop-owned state.
	state      model.ConnectionState
	selfID     string
	attempt    int
	lastReason string
	retryC     <-chan time.Time

	status atomic.Pointer[model.Status]
}

// NewSupervisor creates a Supervisor in the disconnected state. display may
// be nil when no console rendering is wanted.
func NewSupervisor(
	client driven.MessagingClient,
	sessions driven.SessionStore,
	display driven.PairingDisplay,
	relayLog driven.RelayLogStore,
	policy *ReconnectPolicy,
	relayTimeout time.Duration,
	logger *slog.Logger,
) *Supervisor {
	s := &Supervisor{
		client:   client,
		sessions: sessions,
		display:  display,
		policy:   policy,
		logger:   logger,
		after:    time.After,
		now:      time.Now,
		state:    model.StateDisconnected,
	}
	s.engine = NewRelayEngine(client, relayLog, s, relayTimeout, logger)
	s.publish("")
	return s
}

// OnOpen registers a hook to run each time a connection opens.
func (s *Supervisor) OnOpen(name string, hook Hook) {
	s.hooks = append(s.hooks, namedHook{name: name, fn: hook})
}

// Status returns the latest lifecycle snapshot. Safe for concurrent use.
func (s *Supervisor) Status() model.Status {
	return *s.status.Load()
}

// SelfID returns the authenticated account while the connection is open.
// It reads loop-owned state and must only be called from the loop.
func (s *Supervisor) SelfID() (string, bool) {
	return s.selfID, s.state == model.StateOpen && s.selfID != ""
}

// Run starts the first connection attempt and handles events until ctx is
// canceled.
func (s *Supervisor) Run(ctx context.Context) {
	s.connect(ctx)

	events := s.client.Events()
	for {
		select {
		case <-ctx.Done():
			s.client.Disconnect()
			s.logger.Info("supervisor stopped", "state", s.state)
			return
		case ev := <-events:
			s.dispatch(ctx, ev)
		case <-s.retryC:
			s.retry(ctx)
		}
	}
}

func (s *Supervisor) dispatch(ctx context.Context, ev model.Event) {
	defer func() {
		if v := recover(); v != nil {
			s.logger.Error("panic handling event", "event", fmt.Sprintf("%T", ev), "panic", v)
		}
	}()

	switch ev := ev.(type) {
	case model.PairingChallenge:
		s.onPairingChallenge(ev)
	case model.Opened:
		s.onOpened(ctx, ev)
	case model.Closed:
		s.onClosed(ev)
	case model.CredentialsUpdated:
		s.onCredentialsUpdated(ctx)
	case model.MessageBatch:
		s.engine.Handle(ctx, ev)
	default:
		s.logger.Warn("unhandled event", "event", fmt.Sprintf("%T", ev))
	}
}

func (s *Supervisor) connect(ctx context.Context) {
	s.attempt++
	s.state = model.StateConnecting
	s.publish("")
	s.logger.Info("connecting", "attempt", s.attempt)

	if err := s.client.Connect(ctx); err != nil {
		s.onClosed(model.Closed{Reason: err.Error()})
	}
}

func (s *Supervisor) retry(ctx context.Context) {
	s.retryC = nil
	if s.state != model.StateClosedTransient {
		return
	}
	s.connect(ctx)
}

func (s *Supervisor) onPairingChallenge(ev model.PairingChallenge) {
	if s.state != model.StateConnecting && s.state != model.StateAwaitingPairing {
		s.logger.Debug("pairing code ignored", "state", s.state)
		return
	}

	s.state = model.StateAwaitingPairing
	s.publish(ev.Code)
	s.logger.Info("pairing code available, scan it from Linked Devices on your phone")
	if s.display != nil {
		s.display.Show(ev.Code)
	}
}

func (s *Supervisor) onOpened(ctx context.Context, ev model.Opened) {
	s.state = model.StateOpen
	s.selfID = ev.SelfID
	s.attempt = 0
	s.lastReason = ""
	s.policy.Reset()
	s.publish("")
	if s.display != nil {
		s.display.Clear()
	}
	s.logger.Info("connected", "self", ev.SelfID)

	for _, h := range s.hooks {
		s.runHook(ctx, h)
	}
}

func (s *Supervisor) runHook(ctx context.Context, h namedHook) {
	defer func() {
		if v := recover(); v != nil {
			s.logger.Warn("post-connect hook panicked", "hook", h.name, "panic", v)
		}
	}()

	if err := h.fn(ctx); err != nil {
		s.logger.Warn("post-connect hook failed", "hook", h.name, "error", err)
	}
}

func (s *Supervisor) onClosed(ev model.Closed) {
	if !s.state.Live() {
		s.logger.Debug("close ignored, no live connection attempt", "state", s.state, "reason", ev.Reason)
		return
	}

	s.selfID = ""
	s.lastReason = ev.Reason
	if s.display != nil {
		s.display.Clear()
	}

	if ev.Terminal {
		s.state = model.StateClosedTerminal
		s.publish("")
		s.logger.Error("device logged out, not reconnecting; run `viewkeeper reset-session` and relink",
			"reason", ev.Reason,
		)
		return
	}

	delay := s.policy.Next()
	s.state = model.StateClosedTransient
	s.publish("")
	s.retryC = s.after(delay)
	s.logger.Warn("connection closed, reconnecting",
		"reason", ev.Reason,
		"delay", delay,
		"attempt", s.attempt,
	)
}

func (s *Supervisor) onCredentialsUpdated(ctx context.Context) {
	if err := s.sessions.Persist(ctx); err != nil {
		s.logger.Error("persist credentials failed", "error", err)
		return
	}
	s.logger.Debug("credentials persisted")
}

// publish swaps in a fresh snapshot. Since is kept across updates that do
// not change the state.
func (s *Supervisor) publish(code string) {
	prev := s.status.Load()

	next := &model.Status{
		State:           s.state,
		PairingCode:     code,
		SelfID:          s.selfID,
		LastCloseReason: s.lastReason,
		Attempt:         s.attempt,
		Since:           s.now(),
	}
	if prev != nil && prev.State == s.state {
		next.Since = prev.Since
	}
	s.status.Store(next)
}
