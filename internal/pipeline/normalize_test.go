package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

var sampleBatch = []RawMessage{
	{ID: "1", Text: "You have received 5000 RWF from Jane Doe on 01/03/2025 12:00. Ref: ABC123"},
	{ID: "2", Text: "You have paid 1500 RWF to EWSA (electricity) on 05/03/2025 09:30. Ref: DEF456"},
}

func TestNormalize_Batch(t *testing.T) {
	n := NewNormalizer(Config{})

	ledger, failures := n.Normalize(context.Background(), sampleBatch)

	if len(failures) != 0 {
		t.Fatalf("failures = %v, want none", failures)
	}
	if ledger.Len() != 2 {
		t.Fatalf("ledger.Len() = %d, want 2", ledger.Len())
	}

	entries := ledger.All()

	in := entries[0]
	if in.ID != "ABC123" {
		t.Errorf("first entry ID = %q, want provider reference ABC123", in.ID)
	}
	if in.Kind != KindTransferIn || in.Direction != DirectionInflow {
		t.Errorf("first entry kind/direction = %s/%s, want transfer-in/inflow", in.Kind, in.Direction)
	}
	if in.Category != CategoryTransfer {
		t.Errorf("first entry category = %q, want transfer", in.Category)
	}
	if !in.Amount.Equal(decimal.RequireFromString("5000")) {
		t.Errorf("first entry amount = %s, want 5000", in.Amount)
	}

	out := entries[1]
	if out.Kind != KindPayment || out.Direction != DirectionOutflow {
		t.Errorf("second entry kind/direction = %s/%s, want payment/outflow", out.Kind, out.Direction)
	}
	if out.Category != CategoryUtilities {
		t.Errorf("second entry category = %q, want utilities", out.Category)
	}
	if out.Counterparty != "EWSA" {
		t.Errorf("second entry counterparty = %q, want EWSA", out.Counterparty)
	}
}

func TestNormalize_DuplicateMessageIsIdempotent(t *testing.T) {
	n := NewNormalizer(Config{})

	batch := append(append([]RawMessage{}, sampleBatch...), RawMessage{ID: "3", Text: sampleBatch[0].Text})
	ledger, failures := n.Normalize(context.Background(), batch)

	if ledger.Len() != 2 {
		t.Errorf("ledger.Len() = %d, want 2 (duplicate must collapse)", ledger.Len())
	}
	if len(failures) != 0 {
		t.Errorf("failures = %v, want none (a duplicate is not a failure)", failures)
	}
}

func TestNormalize_StableIDs(t *testing.T) {
	n := NewNormalizer(Config{})

	batch := []RawMessage{
		// No provider reference: the id must come from a hash of the
		// normalized fields and stay stable across runs.
		{ID: "1", Text: "You have sent 2000 RWF to John Doe on 01/03/2025 10:00"},
	}

	first, _ := n.Normalize(context.Background(), batch)
	second, _ := n.Normalize(context.Background(), batch)

	if first.Len() != 1 || second.Len() != 1 {
		t.Fatalf("ledger sizes = %d/%d, want 1/1", first.Len(), second.Len())
	}
	id1 := first.All()[0].ID
	id2 := second.All()[0].ID
	if id1 != id2 {
		t.Errorf("ids differ across runs: %q vs %q", id1, id2)
	}
	if id1 == "" {
		t.Error("hash-derived id is empty")
	}
}

func TestNormalize_Failures(t *testing.T) {
	tests := []struct {
		name       string
		msg        RawMessage
		wantReason string
	}{
		{
			name:       "unrecognized phrasing",
			msg:        RawMessage{ID: "1", Text: "Hello, your balance is low."},
			wantReason: "no known phrasing matched",
		},
		{
			name:       "missing amount",
			msg:        RawMessage{ID: "2", Text: "You have received money from Jane Doe on 01/03/2025 12:00."},
			wantReason: "no amount",
		},
		{
			name:       "missing timestamp",
			msg:        RawMessage{ID: "3", Text: "You have received 5000 RWF from Jane Doe."},
			wantReason: "no timestamp",
		},
		{
			name:       "ambiguous timestamp",
			msg:        RawMessage{ID: "4", Text: "You have received 5000 RWF from Jane Doe on 01/03."},
			wantReason: "unambiguously",
		},
	}

	n := NewNormalizer(Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ledger, failures := n.Normalize(context.Background(), []RawMessage{tt.msg})

			if ledger.Len() != 0 {
				t.Errorf("ledger.Len() = %d, want 0", ledger.Len())
			}
			if len(failures) != 1 {
				t.Fatalf("failures = %d, want 1", len(failures))
			}
			f := failures[0]
			if f.MessageID != tt.msg.ID {
				t.Errorf("failure MessageID = %q, want %q", f.MessageID, tt.msg.ID)
			}
			if f.RawText != tt.msg.Text {
				t.Errorf("failure did not retain raw text: %q", f.RawText)
			}
			if !strings.Contains(f.Reason, tt.wantReason) {
				t.Errorf("failure reason = %q, want it to mention %q", f.Reason, tt.wantReason)
			}
		})
	}
}

func TestNormalize_OrderedByTimestamp(t *testing.T) {
	n := NewNormalizer(Config{ParseWorkers: 4})

	batch := []RawMessage{
		{ID: "1", Text: "You have paid 1500 RWF to EWSA on 05/03/2025 09:30. Ref: B2"},
		{ID: "2", Text: "You have received 5000 RWF from Jane Doe on 01/03/2025 12:00. Ref: A1"},
		{ID: "3", Text: "You have sent 2000 RWF to John Doe on 03/03/2025 10:00. Ref: C3"},
	}

	ledger, _ := n.Normalize(context.Background(), batch)
	entries := ledger.All()
	if len(entries) != 3 {
		t.Fatalf("ledger.Len() = %d, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Timestamp.Before(entries[i-1].Timestamp) {
			t.Errorf("entries out of order: %s before %s", entries[i].Timestamp, entries[i-1].Timestamp)
		}
	}
	if entries[0].ID != "A1" || entries[1].ID != "C3" || entries[2].ID != "B2" {
		t.Errorf("unexpected order: %s, %s, %s", entries[0].ID, entries[1].ID, entries[2].ID)
	}
}

func TestNormalize_DirectionConsistentWithKind(t *testing.T) {
	n := NewNormalizer(Config{})

	batch := []RawMessage{
		{ID: "1", Text: "You have received 5000 RWF from Jane Doe on 01/03/2025 12:00. Ref: R1"},
		{ID: "2", Text: "You have withdrawn 20000 RWF from Agent Alice on 02/03/2025 08:00. Ref: R2"},
		{ID: "3", Text: "A bank deposit of 40000 RWF has been added to your account at 2025-03-03 10:05:30. Ref: R3"},
		{ID: "4", Text: "You have paid 500 RWF for airtime on 04/03/2025 11:15. Ref: R4"},
	}

	ledger, failures := n.Normalize(context.Background(), batch)
	if len(failures) != 0 {
		t.Fatalf("failures = %v, want none", failures)
	}

	for _, tx := range ledger.All() {
		want, ok := kindDirection[tx.Kind]
		if !ok {
			t.Fatalf("transaction %s has kind %q with no direction mapping", tx.ID, tx.Kind)
		}
		if tx.Direction != want {
			t.Errorf("transaction %s: direction = %s, want %s for kind %s", tx.ID, tx.Direction, want, tx.Kind)
		}
	}
}
