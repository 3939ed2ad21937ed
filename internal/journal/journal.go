// Package journal keeps an append-only on-disk record of guard blocks and
// approval outcomes. It is observability, not control flow: a write failure
// is logged and swallowed, and a nil *Journal is a valid no-op instance.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/cliffbreak/actiongate/internal/observability"
	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const createSchema = `
CREATE TABLE IF NOT EXISTS decisions (
	id       TEXT PRIMARY KEY,
	at       TEXT NOT NULL,
	kind     TEXT NOT NULL,
	domain   TEXT NOT NULL DEFAULT '',
	detail   TEXT NOT NULL DEFAULT '',
	approved INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_decisions_at ON decisions(at);
`

// Decision kinds recorded in the journal.
const (
	KindBlocked  = "blocked"
	KindResolved = "resolved"
	KindTimedOut = "timed_out"
)

// Entry is one journaled decision.
type Entry struct {
	ID       string
	At       time.Time
	Kind     string
	Domain   string
	Detail   string
	Approved bool
}

// Journal wraps the sqlite decision log.
type Journal struct {
	logger *zap.Logger
	conn   *sql.DB
}

// Open opens or creates the journal database at path.
func Open(path string) (*Journal, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("setting %s: %w", pragma, err)
		}
	}

	if _, err := conn.Exec(createSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}

	return &Journal{
		logger: observability.GetLogger().Named("journal"),
		conn:   conn,
	}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.conn.Close()
}

// Record appends one entry. Never returns an error to the caller; the
// decision already happened and must not be un-happened by a disk problem.
func (j *Journal) Record(ctx context.Context, e Entry) {
	if j == nil {
		return
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	_, err := j.conn.ExecContext(ctx,
		`INSERT INTO decisions (id, at, kind, domain, detail, approved)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.At.UTC().Format(time.RFC3339Nano), e.Kind, e.Domain, e.Detail, boolToInt(e.Approved),
	)
	if err != nil {
		j.logger.Warn("Failed to journal decision", zap.String("kind", e.Kind), zap.Error(err))
	}
}

// Recent returns the newest entries, most recent first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if j == nil {
		return nil, nil
	}
	rows, err := j.conn.QueryContext(ctx,
		"SELECT id, at, kind, domain, detail, approved FROM decisions ORDER BY at DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var at string
		var approved int
		if err := rows.Scan(&e.ID, &at, &e.Kind, &e.Domain, &e.Detail, &approved); err != nil {
			return nil, err
		}
		e.At, _ = time.Parse(time.RFC3339Nano, at)
		e.Approved = approved != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
