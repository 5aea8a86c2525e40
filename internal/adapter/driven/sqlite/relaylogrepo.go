package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/ericfisherdev/viewkeeper/internal/domain/model"
	"github.com/ericfisherdev/viewkeeper/internal/domain/port/driven"
)

// relayedAtLayout has fixed-width fractional seconds so that stored values
// sort lexically in time order.
const relayedAtLayout = "2006-01-02T15:04:05.000000Z"

// Compile-time interface satisfaction check.
var _ driven.RelayLogStore = (*RelayLogRepo)(nil)

// RelayLogRepo is the SQLite implementation of the RelayLogStore port interface.
type RelayLogRepo struct {
	db *DB
}

// NewRelayLogRepo creates a new RelayLogRepo backed by the given DB.
func NewRelayLogRepo(db *DB) *RelayLogRepo {
	return &RelayLogRepo{db: db}
}

// Seen reports whether a relay was recorded for the given chat and message.
func (r *RelayLogRepo) Seen(ctx context.Context, chatID, messageID string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM relay_log WHERE chat_id = ? AND message_id = ?)`

	var exists bool
	if err := r.db.Reader.QueryRowContext(ctx, query, chatID, messageID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check relay log %s/%s: %w", chatID, messageID, err)
	}
	return exists, nil
}

// Record inserts a relay record. A second record for the same chat and
// message is ignored.
func (r *RelayLogRepo) Record(ctx context.Context, rec model.RelayRecord) error {
	const query = `INSERT OR IGNORE INTO relay_log
		(id, chat_id, message_id, outbound_id, kind, file_kind, relayed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	relayedAt := rec.RelayedAt
	if relayedAt.IsZero() {
		relayedAt = time.Now()
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		rec.ID,
		rec.ChatID,
		rec.MessageID,
		rec.OutboundID,
		rec.Kind,
		rec.FileKind,
		relayedAt.UTC().Format(relayedAtLayout),
	)
	if err != nil {
		return fmt.Errorf("record relay %s/%s: %w", rec.ChatID, rec.MessageID, err)
	}
	return nil
}

// Stats returns the number of relays and the time of the latest one. The
// time is zero when nothing was relayed yet.
func (r *RelayLogRepo) Stats(ctx context.Context) (model.RelayStats, error) {
	const query = `SELECT COUNT(*), COALESCE(MAX(relayed_at), '') FROM relay_log`

	var (
		stats model.RelayStats
		last  string
	)
	if err := r.db.Reader.QueryRowContext(ctx, query).Scan(&stats.Total, &last); err != nil {
		return model.RelayStats{}, fmt.Errorf("relay log stats: %w", err)
	}

	if last != "" {
		t, err := time.Parse(relayedAtLayout, last)
		if err != nil {
			return model.RelayStats{}, fmt.Errorf("parse relayed_at %q: %w", last, err)
		}
		stats.LastRelayedAt = t
	}

	return stats, nil
}
