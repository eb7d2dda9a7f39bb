package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dvloznov/momo-agent/internal/logger"
)

// Config carries the normalizer's explicit configuration. Zero values fall
// back to the documented defaults.
type Config struct {
	// DefaultCurrency is assumed for amounts without a currency code.
	// Default: "RWF".
	DefaultCurrency string

	// ParseWorkers bounds the parse fan-out. Messages are independent until
	// deduplication, so parsing is embarrassingly parallel. Default: 8.
	ParseWorkers int
}

// Normalizer runs the parser over a batch and builds the ledger: fixed
// kind→category and kind→direction lookups, stable ids, deduplication and
// rejection of candidates missing required fields.
type Normalizer struct {
	parser  *Parser
	workers int
}

// NewNormalizer creates a normalizer from the given configuration.
func NewNormalizer(cfg Config) *Normalizer {
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = "RWF"
	}
	if cfg.ParseWorkers < 1 {
		cfg.ParseWorkers = 8
	}
	return &Normalizer{
		parser:  NewParser(cfg.DefaultCurrency),
		workers: cfg.ParseWorkers,
	}
}

type parseResult struct {
	candidate *Candidate
	err       error
}

// Normalize processes the whole batch and returns the ledger plus the list
// of messages that could not be normalized. Failures never abort the batch.
// Re-ingesting an identical message is idempotent: duplicates collapse onto
// one ledger entry.
func (n *Normalizer) Normalize(ctx context.Context, batch []RawMessage) (*Ledger, []ParseFailure) {
	log := logger.FromContext(ctx)

	results := make([]parseResult, len(batch))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(n.workers)
	for i, msg := range batch {
		g.Go(func() error {
			c, err := n.parser.Parse(msg)
			results[i] = parseResult{candidate: c, err: err}
			return nil
		})
	}
	// Workers record outcomes in their own slot and never return an error.
	_ = g.Wait()

	var (
		entries    []Transaction
		failures   []ParseFailure
		seen       = make(map[string]bool)
		collisions int
	)

	for i, res := range results {
		msg := batch[i]
		if res.err != nil {
			failures = append(failures, ParseFailure{
				MessageID: msg.ID,
				RawText:   msg.Text,
				Reason:    res.err.Error(),
			})
			continue
		}

		tx, reason := n.finalize(res.candidate)
		if reason != "" {
			failures = append(failures, ParseFailure{
				MessageID: msg.ID,
				RawText:   msg.Text,
				Reason:    reason,
			})
			continue
		}

		if seen[tx.ID] {
			collisions++
			continue
		}
		seen[tx.ID] = true
		entries = append(entries, tx)
	}

	sort.Slice(entries, func(a, b int) bool {
		if !entries[a].Timestamp.Equal(entries[b].Timestamp) {
			return entries[a].Timestamp.Before(entries[b].Timestamp)
		}
		return entries[a].ID < entries[b].ID
	})

	log.Info().
		Int("messages", len(batch)).
		Int("transactions", len(entries)).
		Int("failures", len(failures)).
		Int("duplicates", collisions).
		Msg("normalized message batch")

	return newLedger(entries), failures
}

// finalize validates a candidate and completes it into a transaction.
// A non-empty reason means rejection; missing data is never substituted
// with zero or "now".
func (n *Normalizer) finalize(c *Candidate) (Transaction, string) {
	direction, ok := kindDirection[c.Kind]
	if !ok {
		return Transaction{}, "unknown transaction kind"
	}
	if c.Amount == nil {
		return Transaction{}, "no amount found in message"
	}
	if c.Amount.IsNegative() {
		return Transaction{}, "negative amount"
	}
	if c.Timestamp == nil {
		return Transaction{}, "no timestamp found in message"
	}

	tx := Transaction{
		Kind:         c.Kind,
		Direction:    direction,
		Category:     kindCategory[c.Kind],
		Amount:       *c.Amount,
		Currency:     c.Currency,
		Counterparty: c.Counterparty,
		MSISDN:       c.MSISDN,
		Balance:      c.Balance,
		Timestamp:    c.Timestamp.UTC(),
		ReferenceID:  c.ReferenceID,
		RawText:      c.RawText,
	}
	if c.Fee != nil {
		tx.Fee = *c.Fee
	}
	tx.ID = deriveID(tx)
	return tx, ""
}

// deriveID computes the stable transaction identity: the provider reference
// when the message carries one, otherwise a hash of the normalized fields.
// Re-running on the same input always yields the same ids.
func deriveID(tx Transaction) string {
	if tx.ReferenceID != "" {
		return tx.ReferenceID
	}
	canonical := strings.Join([]string{
		string(tx.Kind),
		tx.Amount.String(),
		tx.Currency,
		tx.Counterparty,
		tx.Timestamp.UTC().Format(time.RFC3339),
	}, "|")
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:8])
}
