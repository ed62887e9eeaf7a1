// Package journal keeps a local SQLite log of glove events so sessions can
// be reviewed after the fact.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT    NOT NULL,
	ts_unix_ms INTEGER NOT NULL,
	source     TEXT    NOT NULL,
	event      TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_ts ON events (ts_unix_ms);
`

// Entry is one recorded event.
type Entry struct {
	SessionID string    `json:"session_id"`
	Time      time.Time `json:"time"`
	Source    string    `json:"source"` // "motion", "click", ...
	Event     string    `json:"event"`
}

// Journal appends events under a per-process session ID.
type Journal struct {
	db      *sql.DB
	session string
}

// Open opens (or creates) the database at path.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal open %s: %w", path, err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY between the
	// motion and click callbacks.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}
	return &Journal{db: db, session: uuid.NewString()}, nil
}

// Session returns the ID all entries of this process are recorded under.
func (j *Journal) Session() string { return j.session }

// Record appends an event.
func (j *Journal) Record(ctx context.Context, source, event string, at time.Time) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO events (session_id, ts_unix_ms, source, event) VALUES (?, ?, ?, ?)`,
		j.session, at.UnixMilli(), source, event)
	if err != nil {
		return fmt.Errorf("journal record: %w", err)
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (j *Journal) Recent(ctx context.Context, n int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT session_id, ts_unix_ms, source, event FROM events ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("journal query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ms int64
		if err := rows.Scan(&e.SessionID, &ms, &e.Source, &e.Event); err != nil {
			return nil, fmt.Errorf("journal scan: %w", err)
		}
		e.Time = time.UnixMilli(ms)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (j *Journal) Close() error {
	return j.db.Close()
}
