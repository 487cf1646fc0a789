// Package journal keeps an optional SQLite audit trail of brain calls.
// Only call metadata is stored: no message content and no coordinates.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/rcliao/jason-client/internal/brain"
)

// Journal implements brain.Recorder on a SQLite database.
type Journal struct {
	db   *sql.DB
	path string
	now  func() time.Time

	mu      sync.Mutex // guards entropy
	entropy *ulid.MonotonicEntropy
}

var _ brain.Recorder = (*Journal)(nil)

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	db.SetMaxOpenConns(1)

	j := &Journal{
		db:      db,
		path:    path,
		now:     time.Now,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}

	if err := j.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return j, nil
}

// Path returns the database file path.
func (j *Journal) Path() string { return j.path }

func (j *Journal) newID(t time.Time) string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), j.entropy).String()
}

func (j *Journal) migrate() error {
	_, err := j.db.Exec(`
	CREATE TABLE IF NOT EXISTS calls (
		id              TEXT PRIMARY KEY,
		request_id      TEXT,
		created_at      TEXT NOT NULL,
		outcome         TEXT NOT NULL,
		ok              INTEGER NOT NULL DEFAULT 0,
		status          INTEGER NOT NULL DEFAULT 0,
		error           TEXT,
		dry_run         INTEGER NOT NULL DEFAULT 0,
		location_source TEXT NOT NULL DEFAULT 'none',
		latency_ms      INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_calls_created ON calls(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_calls_outcome ON calls(outcome);
	CREATE INDEX IF NOT EXISTS idx_calls_request ON calls(request_id);
	`)
	return err
}

// Record appends one call. It is safe for concurrent use.
func (j *Journal) Record(ctx context.Context, rec brain.CallRecord) error {
	created := rec.Started
	if created.IsZero() {
		created = j.now()
	}
	created = created.UTC()

	var requestID, errMsg *string
	if rec.RequestID != "" {
		requestID = &rec.RequestID
	}
	if rec.Error != "" {
		errMsg = &rec.Error
	}
	source := string(rec.LocationSource)
	if source == "" {
		source = "none"
	}

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO calls (id, request_id, created_at, outcome, ok, status, error, dry_run, location_source, latency_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.newID(created), requestID, created.Format(time.RFC3339), string(rec.Outcome),
		boolInt(rec.OK), rec.Status, errMsg, boolInt(rec.DryRun), source, rec.Latency.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert call: %w", err)
	}
	return nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
