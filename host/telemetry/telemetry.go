// Package telemetry records readings into a local SQLite database for
// later analysis.
package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"meanline/host/device"
)

const defaultDirPerm = 0o755

// Recorder stores readings durably.
type Recorder struct {
	db *sql.DB
	mu sync.Mutex

	source string
}

// Open opens, creating if needed, the database at path. source tags
// every stored reading with where it came from, typically the serial
// device path or "sim".
func Open(path, source string) (*Recorder, error) {
	if path == "" {
		return nil, fmt.Errorf("telemetry: empty database path")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, defaultDirPerm); err != nil {
			return nil, fmt.Errorf("telemetry: create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open db: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("telemetry: init schema: %w", err)
	}

	return &Recorder{db: db, source: source}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS readings (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            recorded_at INTEGER NOT NULL,
            average INTEGER NOT NULL,
            source TEXT NOT NULL
        )
    `)
	return err
}

// Store records one reading. recorded_at is kept in microseconds since
// windows can complete well under a second apart.
func (r *Recorder) Store(ctx context.Context, reading device.Reading) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO readings (recorded_at, average, source)
        VALUES (?, ?, ?)
    `,
		reading.At.UnixMicro(),
		reading.Average,
		r.source,
	)
	if err != nil {
		return fmt.Errorf("telemetry: store reading: %w", err)
	}
	return nil
}

// Count returns the number of stored readings.
func (r *Recorder) Count(ctx context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("telemetry: count readings: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.Close()
}
