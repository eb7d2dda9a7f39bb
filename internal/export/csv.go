// Package export renders the ledger and period reports for the file-writing
// collaborators. All formatting decisions (column layout, thousands
// separators) live here; the aggregation layer hands over exact decimals.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/dvloznov/momo-agent/internal/pipeline"
)

var csvHeader = []string{
	"id", "timestamp", "kind", "direction", "category",
	"counterparty", "msisdn", "amount", "fee", "balance", "currency", "reference_id", "raw_text",
}

// WriteTransactionsCSV writes the flat transaction export, one row per
// ledger entry in timestamp order.
func WriteTransactionsCSV(w io.Writer, ledger *pipeline.Ledger) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("WriteTransactionsCSV: header: %w", err)
	}
	for _, tx := range ledger.All() {
		balance := ""
		if tx.Balance != nil {
			balance = tx.Balance.String()
		}
		row := []string{
			tx.ID,
			tx.Timestamp.Format(time.RFC3339),
			string(tx.Kind),
			string(tx.Direction),
			tx.Category,
			tx.Counterparty,
			tx.MSISDN,
			tx.Amount.String(),
			tx.Fee.String(),
			balance,
			tx.Currency,
			tx.ReferenceID,
			tx.RawText,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("WriteTransactionsCSV: row %s: %w", tx.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
