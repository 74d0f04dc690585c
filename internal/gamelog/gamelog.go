// Package gamelog persists inferred moves and raw board telemetry to
// SQLite, one row per event, keyed by session. The schema is bootstrapped
// inline and evolved with golang-migrate (see migrations/).
package gamelog

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// NewDB opens (creating if needed) the game log database at path.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sessions (
			session_id        TEXT PRIMARY KEY,
			started_at        TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS moves (
			session_id        TEXT,
			seq               BIGINT,
			origin            TEXT,
			destination       TEXT,
			capture           BOOLEAN,
			uci               TEXT,
			san               TEXT,
			recorded_at       TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (session_id, seq),
			FOREIGN KEY(session_id) REFERENCES sessions(session_id)
		);
		CREATE TABLE IF NOT EXISTS telemetry (
			session_id        TEXT,
			line              TEXT,
			recorded_at       TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// Move is one recorded inferred move.
type Move struct {
	SessionID   string    `json:"session_id"`
	Seq         int64     `json:"seq"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Capture     bool      `json:"capture"`
	UCI         string    `json:"uci"`
	SAN         string    `json:"san,omitempty"`
	RecordedAt  time.Time `json:"recorded_at"`
}

// CreateSession registers a new session ID.
func (db *DB) CreateSession(sessionID string) error {
	_, err := db.Exec(`INSERT INTO sessions (session_id) VALUES (?)`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to create session %s: %w", sessionID, err)
	}
	return nil
}

// RecordMove appends a move to the session, assigning the next sequence
// number.
func (db *DB) RecordMove(sessionID, origin, destination string, capture bool, uci, san string) error {
	_, err := db.Exec(`
		INSERT INTO moves (session_id, seq, origin, destination, capture, uci, san)
		SELECT ?, COALESCE(MAX(seq), 0) + 1, ?, ?, ?, ?, ?
		FROM moves WHERE session_id = ?`,
		sessionID, origin, destination, capture, uci, san, sessionID)
	if err != nil {
		return fmt.Errorf("failed to record move %s: %w", uci, err)
	}
	return nil
}

// RecordTelemetry appends one raw telemetry line for later diagnosis.
func (db *DB) RecordTelemetry(sessionID, line string) error {
	_, err := db.Exec(`INSERT INTO telemetry (session_id, line) VALUES (?, ?)`, sessionID, line)
	if err != nil {
		return fmt.Errorf("failed to record telemetry: %w", err)
	}
	return nil
}

// ListMoves returns the session's moves in sequence order.
func (db *DB) ListMoves(sessionID string) ([]Move, error) {
	rows, err := db.Query(`
		SELECT session_id, seq, origin, destination, capture, uci, san, recorded_at
		FROM moves WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moves []Move
	for rows.Next() {
		var m Move
		if err := rows.Scan(&m.SessionID, &m.Seq, &m.Origin, &m.Destination,
			&m.Capture, &m.UCI, &m.SAN, &m.RecordedAt); err != nil {
			return nil, err
		}
		moves = append(moves, m)
	}
	return moves, rows.Err()
}

// SessionSummary describes one recorded session.
type SessionSummary struct {
	SessionID string    `json:"session_id"`
	StartedAt time.Time `json:"started_at"`
	Moves     int64     `json:"moves"`
}

// SessionSummaries lists all sessions, newest first, with their move counts.
func (db *DB) SessionSummaries() ([]SessionSummary, error) {
	rows, err := db.Query(`
		SELECT s.session_id, s.started_at, COUNT(m.seq)
		FROM sessions s LEFT JOIN moves m ON m.session_id = s.session_id
		GROUP BY s.session_id ORDER BY s.started_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionSummary
	for rows.Next() {
		var s SessionSummary
		if err := rows.Scan(&s.SessionID, &s.StartedAt, &s.Moves); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// MoveIntervals returns the elapsed seconds between consecutive moves of a
// session, for think-time reporting.
func (db *DB) MoveIntervals(sessionID string) ([]float64, error) {
	rows, err := db.Query(`
		SELECT (julianday(recorded_at)
			- julianday(LAG(recorded_at) OVER (ORDER BY seq))) * 86400.0
		FROM moves WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var intervals []float64
	for rows.Next() {
		var v sql.NullFloat64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		if v.Valid {
			intervals = append(intervals, v.Float64)
		}
	}
	return intervals, rows.Err()
}
