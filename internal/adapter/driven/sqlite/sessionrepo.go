package sqlite

import (
	"context"
	"fmt"
	"sync"

	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waLog "go.mau.fi/whatsmeow/util/log"

	"github.com/ericfisherdev/viewkeeper/internal/domain/port/driven"
)

// sessionDialect is the dialect name whatsmeow uses for SQLite, regardless
// of which driver registered the connection.
const sessionDialect = "sqlite3"

// Compile-time interface satisfaction check.
var _ driven.SessionStore = (*SessionRepo)(nil)

// SessionRepo is the SQLite implementation of the SessionStore port. It keeps
// the linked-device credentials in whatsmeow's own tables, next to the
// relay log, and holds the device loaded for the running client.
type SessionRepo struct {
	container *sqlstore.Container

	mu     sync.Mutex
	device *store.Device
}

// NewSessionRepo creates the device tables if needed and returns a repo over
// them.
func NewSessionRepo(ctx context.Context, db *DB, log waLog.Logger) (*SessionRepo, error) {
	container := sqlstore.NewWithDB(db.Session, sessionDialect, log)
	if err := container.Upgrade(ctx); err != nil {
		return nil, fmt.Errorf("upgrade session store: %w", err)
	}
	return &SessionRepo{container: container}, nil
}

// Device returns the stored device, or a new unpaired one when none is
// stored. The same device is returned until Clear is called.
func (r *SessionRepo) Device(ctx context.Context) (*store.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device != nil {
		return r.device, nil
	}

	device, err := r.container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load device: %w", err)
	}
	r.device = device
	return device, nil
}

// Persist writes the loaded device. It returns driven.ErrNotPaired while the
// device has no identity yet.
func (r *SessionRepo) Persist(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.device == nil || r.device.ID == nil {
		return driven.ErrNotPaired
	}

	if err := r.container.PutDevice(ctx, r.device); err != nil {
		return fmt.Errorf("save device %s: %w", r.device.ID, err)
	}
	return nil
}

// Linked reports whether a paired device is stored.
func (r *SessionRepo) Linked(ctx context.Context) (bool, error) {
	devices, err := r.container.GetAllDevices(ctx)
	if err != nil {
		return false, fmt.Errorf("list devices: %w", err)
	}
	return len(devices) > 0, nil
}

// Clear deletes every stored device. The next Device call starts unpaired.
func (r *SessionRepo) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices, err := r.container.GetAllDevices(ctx)
	if err != nil {
		return fmt.Errorf("list devices: %w", err)
	}

	for _, device := range devices {
		if err := r.container.DeleteDevice(ctx, device); err != nil {
			return fmt.Errorf("delete device %s: %w", device.ID, err)
		}
	}

	r.device = nil
	return nil
}
