package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/viewkeeper/internal/domain/model"
)

type supervisorFixture struct {
	sup      *Supervisor
	client   *fakeClient
	sessions *fakeSessions
	display  *fakeDisplay
	relayLog *fakeRelayLog
	timer    *fakeTimer
}

func newSupervisorFixture(t *testing.T) *supervisorFixture {
	t.Helper()

	f := &supervisorFixture{
		client:   newFakeClient(),
		sessions: &fakeSessions{},
		display:  &fakeDisplay{},
		relayLog: newFakeRelayLog(),
		timer:    newFakeTimer(),
	}
	f.sup = NewSupervisor(f.client, f.sessions, f.display, f.relayLog,
		NewReconnectPolicy(3*time.Second, 0), time.Second, discardLogger())
	f.sup.after = f.timer.after
	return f
}

func TestSupervisor_InitialState(t *testing.T) {
	f := newSupervisorFixture(t)

	assert.Equal(t, model.StateDisconnected, f.sup.Status().State)
	_, ok := f.sup.SelfID()
	assert.False(t, ok)
}

func TestSupervisor_PairingChallengeShowsCode(t *testing.T) {
	f := newSupervisorFixture(t)
	ctx := context.Background()

	f.sup.connect(ctx)
	f.sup.dispatch(ctx, model.PairingChallenge{Code: "2@abc"})

	st := f.sup.Status()
	assert.Equal(t, model.StateAwaitingPairing, st.State)
	assert.Equal(t, "2@abc", st.PairingCode)
	assert.True(t, st.HasPairingCode())
	assert.Equal(t, []string{"2@abc"}, f.display.shown)
	_, ok := f.sup.SelfID()
	assert.False(t, ok, "a pairing code is not a successful connection")
}

func TestSupervisor_PairingCodeRotates(t *testing.T) {
	f := newSupervisorFixture(t)
	ctx := context.Background()

	f.sup.connect(ctx)
	f.sup.dispatch(ctx, model.PairingChallenge{Code: "first"})
	f.sup.dispatch(ctx, model.PairingChallenge{Code: "second"})

	assert.Equal(t, "second", f.sup.Status().PairingCode)
	assert.Equal(t, []string{"first", "second"}, f.display.shown)
}

func TestSupervisor_PairingChallengeIgnoredWhenOpen(t *testing.T) {
	f := newSupervisorFixture(t)
	ctx := context.Background()

	f.sup.connect(ctx)
	f.sup.dispatch(ctx, model.Opened{SelfID: selfJID})
	f.sup.dispatch(ctx, model.PairingChallenge{Code: "late"})

	assert.Equal(t, model.StateOpen, f.sup.Status().State)
	assert.Empty(t, f.display.shown)
}

func TestSupervisor_OpenedRecordsTargetAndClearsDisplay(t *testing.T) {
	f := newSupervisorFixture(t)
	ctx := context.Background()

	f.sup.connect(ctx)
	f.sup.dispatch(ctx, model.PairingChallenge{Code: "c"})
	f.sup.dispatch(ctx, model.Opened{SelfID: selfJID})

	st := f.sup.Status()
	assert.Equal(t, model.StateOpen, st.State)
	assert.Equal(t, selfJID, st.SelfID)
	assert.Empty(t, st.PairingCode)
	assert.Equal(t, 1, f.display.cleared)

	id, ok := f.sup.SelfID()
	assert.True(t, ok)
	assert.Equal(t, selfJID, id)
}

func TestSupervisor_HookFailureIsNotFatal(t *testing.T) {
	f := newSupervisorFixture(t)
	ctx := context.Background()

	var ran []string
	f.sup.OnOpen("failing", func(context.Context) error {
		ran = append(ran, "failing")
		return errBoom
	})
	f.sup.OnOpen("panicking", func(context.Context) error {
		ran = append(ran, "panicking")
		panic("bind failed")
	})
	f.sup.OnOpen("ok", func(context.Context) error {
		ran = append(ran, "ok")
		return nil
	})

	f.sup.connect(ctx)
	f.sup.dispatch(ctx, model.Opened{SelfID: selfJID})

	assert.Equal(t, []string{"failing", "panicking", "ok"}, ran)
	assert.Equal(t, model.StateOpen, f.sup.Status().State)
}

func TestSupervisor_TransientCloseSchedulesOneReconnect(t *testing.T) {
	f := newSupervisorFixture(t)
	ctx := context.Background()

	f.sup.connect(ctx)
	f.sup.dispatch(ctx, model.Opened{SelfID: selfJID})
	f.sup.dispatch(ctx, model.Closed{Reason: "connection lost"})

	st := f.sup.Status()
	assert.Equal(t, model.StateClosedTransient, st.State)
	assert.Equal(t, "connection lost", st.LastCloseReason)
	assert.Equal(t, []time.Duration{3 * time.Second}, f.timer.requested())
	assert.Equal(t, 1, f.client.connectCount(), "reconnect waits for the timer")
	_, ok := f.sup.SelfID()
	assert.False(t, ok)

	f.sup.retry(ctx)

	assert.Equal(t, 2, f.client.connectCount())
	assert.Equal(t, model.StateConnecting, f.sup.Status().State)
}

func TestSupervisor_RetriesForever(t *testing.T) {
	f := newSupervisorFixture(t)
	ctx := context.Background()

	f.sup.connect(ctx)
	for i := 0; i < 25; i++ {
		f.sup.dispatch(ctx, model.Closed{Reason: "stream error"})
		f.sup.retry(ctx)
	}

	assert.Equal(t, 26, f.client.connectCount())
	delays := f.timer.requested()
	require.Len(t, delays, 25)
	for _, d := range delays {
		assert.Equal(t, 3*time.Second, d)
	}
	assert.Equal(t, 26, f.sup.Status().Attempt)
}

func TestSupervisor_DuplicateCloseSchedulesNothing(t *testing.T) {
	f := newSupervisorFixture(t)
	ctx := context.Background()

	f.sup.connect(ctx)
	f.sup.dispatch(ctx, model.Closed{Reason: "qr timeout"})
	f.sup.dispatch(ctx, model.Closed{Reason: "disconnected"})

	assert.Len(t, f.timer.requested(), 1)
}

func TestSupervisor_LogoutIsTerminal(t *testing.T) {
	f := newSupervisorFixture(t)
	ctx := context.Background()

	f.sup.connect(ctx)
	f.sup.dispatch(ctx, model.Opened{SelfID: selfJID})
	f.sup.dispatch(ctx, model.Closed{Reason: "logged out", Terminal: true})

	assert.Equal(t, model.StateClosedTerminal, f.sup.Status().State)
	assert.Empty(t, f.timer.requested())

	f.sup.retry(ctx)
	f.sup.dispatch(ctx, model.Closed{Reason: "disconnected"})

	assert.Equal(t, 1, f.client.connectCount())
	assert.Empty(t, f.timer.requested())
}

func TestSupervisor_ConnectErrorIsTransient(t *testing.T) {
	f := newSupervisorFixture(t)
	f.client.connectErr = errBoom

	f.sup.connect(context.Background())

	assert.Equal(t, model.StateClosedTransient, f.sup.Status().State)
	assert.Equal(t, "boom", f.sup.Status().LastCloseReason)
	assert.Equal(t, []time.Duration{3 * time.Second}, f.timer.requested())
}

func TestSupervisor_OpenResetsBackoff(t *testing.T) {
	f := newSupervisorFixture(t)
	f.sup.policy = NewReconnectPolicy(time.Second, 10*time.Second)
	ctx := context.Background()

	f.sup.connect(ctx)
	f.sup.dispatch(ctx, model.Closed{})
	f.sup.retry(ctx)
	f.sup.dispatch(ctx, model.Closed{})
	f.sup.retry(ctx)
	f.sup.dispatch(ctx, model.Opened{SelfID: selfJID})
	f.sup.dispatch(ctx, model.Closed{})

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, time.Second}, f.timer.requested())
}

func TestSupervisor_CredentialsPersistedInAnyState(t *testing.T) {
	f := newSupervisorFixture(t)
	ctx := context.Background()

	f.sup.dispatch(ctx, model.CredentialsUpdated{})
	f.sup.connect(ctx)
	f.sup.dispatch(ctx, model.CredentialsUpdated{})

	f.sessions.persistErr = errBoom
	f.sup.dispatch(ctx, model.CredentialsUpdated{})

	assert.Equal(t, 3, f.sessions.persists)
}

func TestSupervisor_MessageBatchUsesOpenIdentity(t *testing.T) {
	f := newSupervisorFixture(t)
	ctx := context.Background()

	f.sup.connect(ctx)
	f.sup.dispatch(ctx, liveBatch(viewOnceIncoming("EARLY")))
	assert.Empty(t, f.client.relays, "no relay target before open")

	f.sup.dispatch(ctx, model.Opened{SelfID: selfJID})
	f.sup.dispatch(ctx, liveBatch(viewOnceIncoming("LATER")))

	require.Len(t, f.client.relays, 1)
	assert.Equal(t, selfJID, f.client.relays[0].Target)
}

func TestSupervisor_RunLoop(t *testing.T) {
	f := newSupervisorFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		f.sup.Run(ctx)
		close(done)
	}()

	f.client.events <- model.PairingChallenge{Code: "code"}
	require.Eventually(t, func() bool {
		return f.sup.Status().State == model.StateAwaitingPairing
	}, time.Second, 5*time.Millisecond)

	f.client.events <- model.Closed{Reason: "qr timeout"}
	require.Eventually(t, func() bool {
		return len(f.timer.requested()) == 1
	}, time.Second, 5*time.Millisecond)

	f.timer.fire <- time.Now()
	require.Eventually(t, func() bool {
		return f.client.connectCount() == 2
	}, time.Second, 5*time.Millisecond)

	f.client.events <- model.Opened{SelfID: selfJID}
	require.Eventually(t, func() bool {
		return f.sup.Status().State == model.StateOpen
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done

	f.client.mu.Lock()
	defer f.client.mu.Unlock()
	assert.Equal(t, 1, f.client.disconnect)
}
