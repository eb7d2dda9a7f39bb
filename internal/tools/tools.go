// Package tools exposes the aggregation engine as a fixed set of named,
// schema-validated query functions. The agent collaborator may only obtain
// financial figures through this registry; it never computes them itself.
package tools

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dvloznov/momo-agent/internal/pipeline"
	"github.com/dvloznov/momo-agent/internal/report"
)

const defaultSearchLimit = 50

var dateParams = []Param{
	{Name: "start", Type: TypeString, Description: "Inclusive start date, YYYY-MM-DD or RFC 3339"},
	{Name: "end", Type: TypeString, Description: "Inclusive end date, YYYY-MM-DD or RFC 3339"},
}

// ForLedger builds the full tool set over one ledger. Registration errors
// are startup bugs and abort the run.
func ForLedger(ledger *pipeline.Ledger) (*Registry, error) {
	r := NewRegistry()

	toolset := []Tool{
		{
			Name:        "get_overall_summary",
			Description: "Overall totals for the whole ledger: inflow, outflow, fees, net and transaction count.",
			Schema:      Schema{},
			Handler: func(args map[string]any) (any, error) {
				return summaryPayload(report.Summarize(ledger, report.Range{})), nil
			},
		},
		{
			Name:        "get_period_summary",
			Description: "Per-period totals bucketed by week, month or year, optionally limited to a date range.",
			Schema: Schema{Params: append([]Param{
				{Name: "period", Type: TypeString, Required: true, Enum: []string{"week", "month", "year"},
					Description: "Bucketing granularity"},
			}, dateParams...)},
			Handler: func(args map[string]any) (any, error) {
				period, rng, err := periodAndRange(args)
				if err != nil {
					return nil, err
				}
				buckets := report.Aggregate(ledger, period, rng)
				rows := make([]map[string]any, 0, len(buckets))
				for _, b := range buckets {
					rows = append(rows, bucketPayload(b))
				}
				return rows, nil
			},
		},
		{
			Name:        "get_top_spend_counterparties",
			Description: "Counterparties ranked by total amount spent (outflow only), descending.",
			Schema: Schema{Params: append([]Param{
				{Name: "n", Type: TypeInteger, Min: intPtr(1), Max: intPtr(50),
					Description: "Maximum number of rows, default 10"},
			}, dateParams...)},
			Handler: func(args map[string]any) (any, error) {
				rng, err := rangeFromArgs(args)
				if err != nil {
					return nil, err
				}
				n := defaultTopN
				if v, ok := args["n"].(int); ok {
					n = v
				}
				rows := make([]map[string]any, 0, n)
				for _, ct := range report.TopRecipients(ledger, n, rng) {
					rows = append(rows, map[string]any{
						"counterparty": ct.Counterparty,
						"total":        ct.Total.String(),
						"tx_count":     ct.Count,
					})
				}
				return rows, nil
			},
		},
		{
			Name:        "get_category_breakdown",
			Description: "Totals grouped by category for one direction (default outflow).",
			Schema: Schema{Params: append([]Param{
				{Name: "direction", Type: TypeString, Enum: []string{"inflow", "outflow"},
					Description: "Money-flow side to group, default outflow"},
			}, dateParams...)},
			Handler: func(args map[string]any) (any, error) {
				rng, err := rangeFromArgs(args)
				if err != nil {
					return nil, err
				}
				dir := pipeline.DirectionOutflow
				if v, ok := args["direction"].(string); ok {
					dir = pipeline.Direction(v)
				}
				rows := make([]map[string]any, 0)
				for _, ct := range report.CategoryBreakdown(ledger, dir, rng) {
					rows = append(rows, map[string]any{
						"category": ct.Category,
						"total":    ct.Total.String(),
						"tx_count": ct.Count,
					})
				}
				return rows, nil
			},
		},
		{
			Name:        "get_highest_spending_period",
			Description: "The week, month or year with the largest outflow total. Ties break toward the earliest period.",
			Schema: Schema{Params: append([]Param{
				{Name: "period", Type: TypeString, Required: true, Enum: []string{"week", "month", "year"},
					Description: "Bucketing granularity"},
			}, dateParams...)},
			Handler: func(args map[string]any) (any, error) {
				period, rng, err := periodAndRange(args)
				if err != nil {
					return nil, err
				}
				b, ok := report.HighestSpendingPeriod(ledger, period, rng)
				if !ok {
					return map[string]any{"found": false}, nil
				}
				return map[string]any{"found": true, "bucket": bucketPayload(b)}, nil
			},
		},
		{
			Name:        "search_transactions",
			Description: "Normalized transactions matching simple filters, newest first.",
			Schema: Schema{Params: append([]Param{
				{Name: "text", Type: TypeString, Description: "Substring match on raw text or counterparty"},
				{Name: "direction", Type: TypeString, Enum: []string{"inflow", "outflow"}},
				{Name: "category", Type: TypeString},
				{Name: "limit", Type: TypeInteger, Min: intPtr(1), Max: intPtr(200),
					Description: "Maximum number of rows, default 50"},
			}, dateParams...)},
			Handler: func(args map[string]any) (any, error) {
				return searchTransactions(ledger, args)
			},
		},
	}

	for _, t := range toolset {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

const defaultTopN = 10

func searchTransactions(ledger *pipeline.Ledger, args map[string]any) (any, error) {
	rng, err := rangeFromArgs(args)
	if err != nil {
		return nil, err
	}

	limit := defaultSearchLimit
	if v, ok := args["limit"].(int); ok {
		limit = v
	}

	entries := ledger.Between(rng.Start, rng.End)

	if v, ok := args["direction"].(string); ok {
		entries = filter(entries, func(tx pipeline.Transaction) bool {
			return tx.Direction == pipeline.Direction(v)
		})
	}
	if v, ok := args["category"].(string); ok {
		entries = filter(entries, func(tx pipeline.Transaction) bool {
			return tx.Category == v
		})
	}
	if v, ok := args["text"].(string); ok {
		needle := strings.ToLower(v)
		entries = filter(entries, func(tx pipeline.Transaction) bool {
			return strings.Contains(strings.ToLower(tx.RawText), needle) ||
				strings.Contains(strings.ToLower(tx.Counterparty), needle)
		})
	}

	// Newest first; id ascending on equal timestamps for determinism.
	sort.Slice(entries, func(a, b int) bool {
		if !entries[a].Timestamp.Equal(entries[b].Timestamp) {
			return entries[a].Timestamp.After(entries[b].Timestamp)
		}
		return entries[a].ID < entries[b].ID
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}

	rows := make([]map[string]any, 0, len(entries))
	for _, tx := range entries {
		rows = append(rows, map[string]any{
			"id":           tx.ID,
			"timestamp":    tx.Timestamp.Format(time.RFC3339),
			"kind":         string(tx.Kind),
			"direction":    string(tx.Direction),
			"category":     tx.Category,
			"counterparty": tx.Counterparty,
			"amount":       tx.Amount.String(),
			"fee":          tx.Fee.String(),
			"currency":     tx.Currency,
		})
	}
	return rows, nil
}

func filter(entries []pipeline.Transaction, keep func(pipeline.Transaction) bool) []pipeline.Transaction {
	out := entries[:0:0]
	for _, tx := range entries {
		if keep(tx) {
			out = append(out, tx)
		}
	}
	return out
}

func summaryPayload(s report.Summary) map[string]any {
	return map[string]any{
		"tx_count": s.Count,
		"inflow":   s.Inflow.String(),
		"outflow":  s.Outflow.String(),
		"fees":     s.Fees.String(),
		"net":      s.Net.String(),
	}
}

func bucketPayload(b report.Bucket) map[string]any {
	categories := make(map[string]string, len(b.Categories))
	for name, total := range b.Categories {
		categories[name] = total.String()
	}
	return map[string]any{
		"period":     b.PeriodKey,
		"tx_count":   b.Count,
		"inflow":     b.Inflow.String(),
		"outflow":    b.Outflow.String(),
		"fees":       b.Fees.String(),
		"net":        b.Net.String(),
		"categories": categories,
	}
}

func periodAndRange(args map[string]any) (report.Period, report.Range, error) {
	period, err := report.ParsePeriod(args["period"].(string))
	if err != nil {
		return "", report.Range{}, fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	rng, err := rangeFromArgs(args)
	if err != nil {
		return "", report.Range{}, err
	}
	return period, rng, nil
}

// rangeFromArgs parses the optional start/end arguments. A date-only end
// bound extends to the end of that day so the range stays inclusive.
func rangeFromArgs(args map[string]any) (report.Range, error) {
	var rng report.Range

	if v, ok := args["start"].(string); ok {
		ts, _, err := parseDateArg(v)
		if err != nil {
			return rng, fmt.Errorf("%w: start: %v", ErrInvalidArguments, err)
		}
		rng.Start = &ts
	}
	if v, ok := args["end"].(string); ok {
		ts, dateOnly, err := parseDateArg(v)
		if err != nil {
			return rng, fmt.Errorf("%w: end: %v", ErrInvalidArguments, err)
		}
		if dateOnly {
			ts = ts.Add(24*time.Hour - time.Nanosecond)
		}
		rng.End = &ts
	}
	return rng, nil
}

func parseDateArg(s string) (ts time.Time, dateOnly bool, err error) {
	if ts, err = time.Parse("2006-01-02", s); err == nil {
		return ts, true, nil
	}
	if ts, err = time.Parse(time.RFC3339, s); err == nil {
		return ts, false, nil
	}
	return time.Time{}, false, fmt.Errorf("expected YYYY-MM-DD or RFC 3339, got %q", s)
}
