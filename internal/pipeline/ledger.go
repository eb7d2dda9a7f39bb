package pipeline

import "time"

// Ledger is the deduplicated, timestamp-ordered collection of normalized
// transactions for one run. Only the normalizer builds it; everything
// downstream gets read-only access, so concurrent queries need no locking.
type Ledger struct {
	entries []Transaction
	byID    map[string]int
}

func newLedger(entries []Transaction) *Ledger {
	byID := make(map[string]int, len(entries))
	for i, tx := range entries {
		byID[tx.ID] = i
	}
	return &Ledger{entries: entries, byID: byID}
}

// Len returns the number of ledger entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// All returns a copy of every entry in timestamp order.
func (l *Ledger) All() []Transaction {
	out := make([]Transaction, len(l.entries))
	copy(out, l.entries)
	return out
}

// Get looks up a transaction by its stable id.
func (l *Ledger) Get(id string) (Transaction, bool) {
	i, ok := l.byID[id]
	if !ok {
		return Transaction{}, false
	}
	return l.entries[i], true
}

// Between returns the entries whose timestamp falls inside the inclusive
// range. A nil bound is open on that side.
func (l *Ledger) Between(start, end *time.Time) []Transaction {
	out := make([]Transaction, 0, len(l.entries))
	for _, tx := range l.entries {
		if start != nil && tx.Timestamp.Before(*start) {
			continue
		}
		if end != nil && tx.Timestamp.After(*end) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// ByCategory returns the entries with the given category.
func (l *Ledger) ByCategory(category string) []Transaction {
	out := make([]Transaction, 0, len(l.entries))
	for _, tx := range l.entries {
		if tx.Category == category {
			out = append(out, tx)
		}
	}
	return out
}

// ByDirection returns the entries flowing in the given direction.
func (l *Ledger) ByDirection(d Direction) []Transaction {
	out := make([]Transaction, 0, len(l.entries))
	for _, tx := range l.entries {
		if tx.Direction == d {
			out = append(out, tx)
		}
	}
	return out
}
