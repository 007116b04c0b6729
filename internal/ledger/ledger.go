// Package ledger provides an append-only history of console changes.
// Every entry is tagged with the session that wrote it.
package ledger

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dokzlo13/dmxconsole/internal/eventbus"
)

// Entry represents a single event in the ledger
type Entry struct {
	ID        int64
	EventType eventbus.EventType
	Timestamp time.Time
	Payload   map[string]any
	Session   string
}

// Ledger provides append-only event logging
type Ledger struct {
	db      *sql.DB
	session string
}

// New creates a new Ledger that tags its entries with session
func New(db *sql.DB, session string) *Ledger {
	return &Ledger{db: db, session: session}
}

// Session returns the session id written with every entry
func (l *Ledger) Session() string {
	return l.session
}

// Append adds a new event to the ledger
func (l *Ledger) Append(eventType eventbus.EventType, payload map[string]any) error {
	var payloadJSON []byte
	var err error

	if payload != nil {
		payloadJSON, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal payload: %w", err)
		}
	}

	_, err = l.db.Exec(
		`INSERT INTO console_ledger (event_type, timestamp, payload, session) VALUES (?, ?, ?, ?)`,
		string(eventType), time.Now().UTC().Unix(), string(payloadJSON), l.session,
	)
	return err
}

// Recent returns the newest entries, newest first
func (l *Ledger) Recent(limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, event_type, timestamp, payload, session
		FROM console_ledger
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// GetByType returns entries filtered by event type
func (l *Ledger) GetByType(eventType eventbus.EventType, limit int) ([]*Entry, error) {
	rows, err := l.db.Query(`
		SELECT id, event_type, timestamp, payload, session
		FROM console_ledger
		WHERE event_type = ?
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, string(eventType), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// DeleteOlderThan removes entries older than the specified duration (retention policy)
func (l *Ledger) DeleteOlderThan(retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention).Unix()
	result, err := l.db.Exec(`DELETE FROM console_ledger WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func scanEntries(rows *sql.Rows) ([]*Entry, error) {
	var entries []*Entry
	for rows.Next() {
		var entry Entry
		var eventType string
		var payloadStr, session sql.NullString
		var timestamp int64

		if err := rows.Scan(&entry.ID, &eventType, &timestamp, &payloadStr, &session); err != nil {
			return nil, err
		}

		entry.EventType = eventbus.EventType(eventType)
		entry.Timestamp = time.Unix(timestamp, 0).UTC()
		if session.Valid {
			entry.Session = session.String
		}

		if payloadStr.Valid && payloadStr.String != "" {
			entry.Payload = make(map[string]any)
			if err := json.Unmarshal([]byte(payloadStr.String), &entry.Payload); err != nil {
				return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
			}
		}

		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
