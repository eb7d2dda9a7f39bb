package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMessages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.json")
	payload := `{
		"messages": [
			{"id": 1, "sms": "You have received 5000 RWF from Jane Doe on 01/03/2025 12:00. Ref: ABC123"},
			{"id": 2, "sms": "Hello, your balance is low.", "received_at": "2025-03-02T08:00:00Z"},
			{"sms": "no id on this one"}
		]
	}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	msgs, err := LoadMessages(path)
	if err != nil {
		t.Fatalf("LoadMessages failed: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("messages = %d, want 3", len(msgs))
	}
	if msgs[0].ID != "1" {
		t.Errorf("first id = %q, want 1", msgs[0].ID)
	}
	if msgs[1].ReceivedAt == nil || !msgs[1].ReceivedAt.Equal(time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC)) {
		t.Errorf("second received_at = %v", msgs[1].ReceivedAt)
	}
	if msgs[2].ID != "2" {
		t.Errorf("missing id should fall back to position, got %q", msgs[2].ID)
	}
}

func TestLoadMessages_Errors(t *testing.T) {
	if _, err := LoadMessages(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("LoadMessages should fail on a missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadMessages(path); err == nil {
		t.Error("LoadMessages should fail on malformed JSON")
	}
}
