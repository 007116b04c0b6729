package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/dokzlo13/dmxconsole/internal/db"
	"github.com/dokzlo13/dmxconsole/internal/eventbus"
)

func newTestLedger(t *testing.T) (*Ledger, *db.DB) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "ledger.sqlite"))
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return New(database.DB, "session-1"), database
}

func TestAppendAndRecent(t *testing.T) {
	l, _ := newTestLedger(t)

	if err := l.Append(eventbus.EventTypeSceneSaved, map[string]any{"name": "first"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Append(eventbus.EventTypeEffectToggled, map[string]any{"effect": "chase", "active": true}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := l.Append(eventbus.EventTypeEffectsStopped, nil); err != nil {
		t.Fatalf("Append: %v", err)
	}

	entries, err := l.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Recent returned %d entries, want 3", len(entries))
	}
	if entries[0].EventType != eventbus.EventTypeEffectsStopped || entries[0].Payload != nil {
		t.Errorf("newest entry = %+v", entries[0])
	}
	if entries[1].Payload["effect"] != "chase" || entries[1].Payload["active"] != true {
		t.Errorf("payload = %v", entries[1].Payload)
	}
	for _, e := range entries {
		if e.Session != "session-1" {
			t.Errorf("entry %d session = %q", e.ID, e.Session)
		}
	}

	limited, _ := l.Recent(1)
	if len(limited) != 1 {
		t.Errorf("Recent(1) returned %d entries", len(limited))
	}
}

func TestGetByType(t *testing.T) {
	l, _ := newTestLedger(t)
	_ = l.Append(eventbus.EventTypeSceneSaved, map[string]any{"name": "a"})
	_ = l.Append(eventbus.EventTypeSceneLoaded, map[string]any{"name": "a"})
	_ = l.Append(eventbus.EventTypeSceneSaved, map[string]any{"name": "b"})

	saved, err := l.GetByType(eventbus.EventTypeSceneSaved, 10)
	if err != nil {
		t.Fatalf("GetByType: %v", err)
	}
	if len(saved) != 2 || saved[0].Payload["name"] != "b" {
		t.Errorf("GetByType = %+v", saved)
	}
}

func TestDeleteOlderThan(t *testing.T) {
	l, database := newTestLedger(t)

	old := time.Now().Add(-48 * time.Hour).Unix()
	if _, err := database.Exec(
		`INSERT INTO console_ledger (event_type, timestamp, payload, session) VALUES (?, ?, ?, ?)`,
		string(eventbus.EventTypeSceneSaved), old, "", "old-session",
	); err != nil {
		t.Fatal(err)
	}
	_ = l.Append(eventbus.EventTypeSceneSaved, nil)

	n, err := l.DeleteOlderThan(24 * time.Hour)
	if err != nil {
		t.Fatalf("DeleteOlderThan: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted %d entries, want 1", n)
	}
	if entries, _ := l.Recent(10); len(entries) != 1 || entries[0].Session != "session-1" {
		t.Errorf("remaining entries = %+v", entries)
	}
}
