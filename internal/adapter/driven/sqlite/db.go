package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB provides the SQLite connection pools with WAL mode enabled.
// The writer connection is limited to a single connection to avoid "database is locked" errors.
// The reader connection pool allows up to 4 concurrent readers.
// Session is a separate pool for the protocol library's device store, which
// runs its own transactions and must not share the single writer connection.
type DB struct {
	Writer  *sql.DB
	Reader  *sql.DB
	Session *sql.DB
	path    string
}

// NewDB opens the database with WAL mode, busy timeout, synchronous NORMAL,
// foreign keys enabled, and a 64MB cache.
func NewDB(ctx context.Context, dbPath string) (*DB, error) {
	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=cache_size(-64000)",
		dbPath,
	)
	return openDB(ctx, dsn, dbPath)
}

func openDB(ctx context.Context, dsn, path string) (*DB, error) {
	writer, err := open(ctx, dsn, 1)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}

	reader, err := open(ctx, dsn, 4)
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("open reader: %w", err)
	}

	session, err := open(ctx, dsn, 0)
	if err != nil {
		reader.Close()
		writer.Close()
		return nil, fmt.Errorf("open session pool: %w", err)
	}

	return &DB{
		Writer:  writer,
		Reader:  reader,
		Session: session,
		path:    path,
	}, nil
}

func open(ctx context.Context, dsn string, maxOpen int) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(maxOpen)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return db, nil
}

// Close closes all connection pools. Returns the first error encountered.
func (db *DB) Close() error {
	var firstErr error

	if err := db.Session.Close(); err != nil {
		firstErr = fmt.Errorf("close session pool: %w", err)
	}

	if err := db.Reader.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close reader: %w", err)
	}

	if err := db.Writer.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close writer: %w", err)
	}

	return firstErr
}
