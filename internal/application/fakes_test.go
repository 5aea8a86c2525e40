package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"google.golang.org/protobuf/proto"

	"github.com/ericfisherdev/viewkeeper/internal/domain/model"
)

// --- Fake implementations ---

type relayCall struct {
	Target    string
	MessageID string
	Content   proto.Message
}

type fakeClient struct {
	mu         sync.Mutex
	events     chan model.Event
	connects   int
	connectErr error
	disconnect int
	relays     []relayCall
	relayErr   error
	nextID     int
}

func newFakeClient() *fakeClient {
	return &fakeClient{events: make(chan model.Event, 16)}
}

func (c *fakeClient) Connect(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connects++
	return c.connectErr
}

func (c *fakeClient) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnect++
}

func (c *fakeClient) Events() <-chan model.Event { return c.events }

func (c *fakeClient) NewMessageID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	return fmt.Sprintf("OUT%d", c.nextID)
}

func (c *fakeClient) Relay(_ context.Context, target, messageID string, content proto.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.relays = append(c.relays, relayCall{Target: target, MessageID: messageID, Content: content})
	return c.relayErr
}

func (c *fakeClient) connectCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connects
}

type fakeSessions struct {
	persists   int
	persistErr error
}

func (s *fakeSessions) Persist(_ context.Context) error {
	s.persists++
	return s.persistErr
}

func (s *fakeSessions) Linked(_ context.Context) (bool, error) { return s.persists > 0, nil }

func (s *fakeSessions) Clear(_ context.Context) error { return nil }

type fakeDisplay struct {
	shown   []string
	cleared int
}

func (d *fakeDisplay) Show(code string) { d.shown = append(d.shown, code) }
func (d *fakeDisplay) Clear()           { d.cleared++ }

type fakeRelayLog struct {
	seen    map[string]bool
	records []model.RelayRecord
	seenErr error
}

func newFakeRelayLog() *fakeRelayLog {
	return &fakeRelayLog{seen: map[string]bool{}}
}

func (l *fakeRelayLog) Seen(_ context.Context, chatID, messageID string) (bool, error) {
	if l.seenErr != nil {
		return false, l.seenErr
	}
	return l.seen[chatID+"/"+messageID], nil
}

func (l *fakeRelayLog) Record(_ context.Context, rec model.RelayRecord) error {
	l.seen[rec.ChatID+"/"+rec.MessageID] = true
	l.records = append(l.records, rec)
	return nil
}

func (l *fakeRelayLog) Stats(_ context.Context) (model.RelayStats, error) {
	return model.RelayStats{Total: len(l.records)}, nil
}

type staticIdentity struct {
	id string
}

func (i staticIdentity) SelfID() (string, bool) { return i.id, i.id != "" }

// fakeTimer records requested delays and fires only when the test says so.
type fakeTimer struct {
	mu     sync.Mutex
	delays []time.Duration
	fire   chan time.Time
}

func newFakeTimer() *fakeTimer {
	return &fakeTimer{fire: make(chan time.Time, 1)}
}

func (f *fakeTimer) after(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays = append(f.delays, d)
	return f.fire
}

func (f *fakeTimer) requested() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]time.Duration(nil), f.delays...)
}

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
