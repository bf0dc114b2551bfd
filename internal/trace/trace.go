// Package trace persists a record of every admission decision the
// scheduler makes into a local SQLite file, for offline replay and
// post-incident audit. It is a diagnostics sink, not part of the
// scheduling hot path: callers are expected to write from outside the
// scheduler's own mutex, after an allocation call returns.
package trace

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sugawarayuuta/sonnet"
)

// Record is one audited scheduling decision.
type Record struct {
	Slot     uint32 `json:"slot"`
	RNTI     uint16 `json:"rnti"`
	Channel  string `json:"channel"`
	Result   string `json:"result"`
	Detail   any    `json:"detail,omitempty"`
}

// Sink writes Records to a SQLite-backed audit log.
type Sink struct {
	db *sql.DB
}

// Open creates (or reuses) a SQLite database at path and ensures the
// decisions table exists.
func Open(path string) (*Sink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("trace: ping %s: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS decisions (
	id      INTEGER PRIMARY KEY AUTOINCREMENT,
	slot    INTEGER NOT NULL,
	rnti    INTEGER NOT NULL,
	channel TEXT NOT NULL,
	result  TEXT NOT NULL,
	payload TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("trace: create schema: %w", err)
	}
	return &Sink{db: db}, nil
}

// Write appends one Record, serializing its Detail field to JSON
// before storage.
func (s *Sink) Write(r Record) error {
	payload, err := sonnet.Marshal(r.Detail)
	if err != nil {
		return fmt.Errorf("trace: marshal detail: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO decisions (slot, rnti, channel, result, payload) VALUES (?, ?, ?, ?, ?)`,
		r.Slot, r.RNTI, r.Channel, r.Result, string(payload),
	)
	if err != nil {
		return fmt.Errorf("trace: insert record: %w", err)
	}
	return nil
}

// RecentByRNTI returns up to limit of the most recent records for a
// given RNTI, newest first. The harness only writes records; it does
// not read them back through this method.
func (s *Sink) RecentByRNTI(rnti uint16, limit int) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT slot, rnti, channel, result, payload FROM decisions WHERE rnti = ? ORDER BY id DESC LIMIT ?`,
		rnti, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("trace: query recent: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var payload string
		if err := rows.Scan(&rec.Slot, &rec.RNTI, &rec.Channel, &rec.Result, &payload); err != nil {
			return nil, fmt.Errorf("trace: scan row: %w", err)
		}
		if err := sonnet.Unmarshal([]byte(payload), &rec.Detail); err != nil {
			return nil, fmt.Errorf("trace: unmarshal payload: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Close releases the underlying database handle.
func (s *Sink) Close() error { return s.db.Close() }
