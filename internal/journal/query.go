package journal

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Entry is one recorded call.
type Entry struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"request_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	Outcome        string    `json:"outcome"`
	OK             bool      `json:"ok"`
	Status         int       `json:"status,omitempty"`
	Error          string    `json:"error,omitempty"`
	DryRun         bool      `json:"dry_run,omitempty"`
	LocationSource string    `json:"location_source"`
	LatencyMs      int64     `json:"latency_ms"`
}

// ListParams filters List. Zero values match everything.
type ListParams struct {
	Limit     int
	Outcome   string
	RequestID string
}

// List returns entries newest first.
func (j *Journal) List(ctx context.Context, p ListParams) ([]Entry, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	var where []string
	var args []interface{}
	if p.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, p.Outcome)
	}
	if p.RequestID != "" {
		where = append(where, "request_id = ?")
		args = append(args, p.RequestID)
	}

	query := `SELECT id, request_id, created_at, outcome, ok, status, error, dry_run, location_source, latency_ms
	          FROM calls`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list calls: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries created more than olderThan ago and returns how
// many were removed.
func (j *Journal) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("prune age must be positive")
	}
	cutoff := j.now().UTC().Add(-olderThan).Format(time.RFC3339)
	res, err := j.db.ExecContext(ctx, `DELETE FROM calls WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune calls: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row scanner) (Entry, error) {
	var e Entry
	var requestID, errMsg sql.NullString
	var createdAt string
	var ok, dryRun int

	err := row.Scan(
		&e.ID, &requestID, &createdAt, &e.Outcome, &ok, &e.Status,
		&errMsg, &dryRun, &e.LocationSource, &e.LatencyMs,
	)
	if err != nil {
		return e, err
	}

	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	e.OK = ok != 0
	e.DryRun = dryRun != 0
	if requestID.Valid {
		e.RequestID = requestID.String
	}
	if errMsg.Valid {
		e.Error = errMsg.String
	}
	return e, nil
}

var ageRegex = regexp.MustCompile(`^(\d+)([dhms])$`)

// ParseAge parses an age like "7d", "24h", "30m" or "60s".
func ParseAge(s string) (time.Duration, error) {
	m := ageRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid age %q (use e.g. 7d, 24h, 30m, 60s)", s)
	}
	n, _ := strconv.Atoi(m[1])
	unit := map[string]time.Duration{
		"d": 24 * time.Hour,
		"h": time.Hour,
		"m": time.Minute,
		"s": time.Second,
	}[m[2]]
	return time.Duration(n) * unit, nil
}
