// Package report computes time-bucketed financial summaries over a ledger.
// Every function here is pure and deterministic: the same ledger and
// arguments always produce the same output, amounts are summed with exact
// decimal arithmetic and no rounding happens at this layer.
package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/momo-agent/internal/pipeline"
)

// Period is the bucketing granularity for reports.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodYear  Period = "year"
)

// ParsePeriod validates a period name from an external caller.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case PeriodWeek, PeriodMonth, PeriodYear:
		return Period(s), nil
	}
	return "", fmt.Errorf("period must be one of: week, month, year; got %q", s)
}

// Range is an optional inclusive date filter. Nil bounds are open.
type Range struct {
	Start *time.Time
	End   *time.Time
}

// Bucket is the aggregate for one calendar period. Inflow, Outflow and the
// per-category totals are exact sums; Net = Inflow − Outflow. Fees carried
// inside outgoing messages are reported separately and are not folded into
// either side.
type Bucket struct {
	PeriodKey  string
	Count      int
	Inflow     decimal.Decimal
	Outflow    decimal.Decimal
	Fees       decimal.Decimal
	Net        decimal.Decimal
	Categories map[string]decimal.Decimal

	start time.Time // earliest timestamp seen, for ordering and tie breaks
}

// CounterpartyTotal is one row of a top-recipients result.
type CounterpartyTotal struct {
	Counterparty string
	Total        decimal.Decimal
	Count        int
}

// Summary is the overall aggregate of a ledger slice.
type Summary struct {
	Count   int
	Inflow  decimal.Decimal
	Outflow decimal.Decimal
	Fees    decimal.Decimal
	Net     decimal.Decimal
}

// CategoryTotal is one row of a category breakdown.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
	Count    int
}

// periodKey labels the calendar bucket a timestamp falls into: ISO week
// ("2025-W09"), calendar month ("2025-03") or calendar year ("2025").
func periodKey(p Period, t time.Time) string {
	switch p {
	case PeriodWeek:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case PeriodMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006")
	}
}

// Aggregate partitions the ledger into calendar buckets and sums each one by
// direction and by category. Buckets come back ordered by period start. An
// empty slice of the ledger yields an empty, well-formed result.
func Aggregate(ledger *pipeline.Ledger, period Period, r Range) []Bucket {
	buckets := make(map[string]*Bucket)

	for _, tx := range ledger.Between(r.Start, r.End) {
		key := periodKey(period, tx.Timestamp)
		b, ok := buckets[key]
		if !ok {
			b = &Bucket{
				PeriodKey:  key,
				Categories: make(map[string]decimal.Decimal),
				start:      tx.Timestamp,
			}
			buckets[key] = b
		}
		if tx.Timestamp.Before(b.start) {
			b.start = tx.Timestamp
		}

		b.Count++
		switch tx.Direction {
		case pipeline.DirectionInflow:
			b.Inflow = b.Inflow.Add(tx.Amount)
		case pipeline.DirectionOutflow:
			b.Outflow = b.Outflow.Add(tx.Amount)
		}
		b.Fees = b.Fees.Add(tx.Fee)
		b.Categories[tx.Category] = b.Categories[tx.Category].Add(tx.Amount)
	}

	out := make([]Bucket, 0, len(buckets))
	for _, b := range buckets {
		b.Net = b.Inflow.Sub(b.Outflow)
		out = append(out, *b)
	}
	sort.Slice(out, func(a, b int) bool {
		return out[a].start.Before(out[b].start)
	})
	return out
}

// Summarize computes the overall totals for a ledger slice.
func Summarize(ledger *pipeline.Ledger, r Range) Summary {
	var s Summary
	for _, tx := range ledger.Between(r.Start, r.End) {
		s.Count++
		switch tx.Direction {
		case pipeline.DirectionInflow:
			s.Inflow = s.Inflow.Add(tx.Amount)
		case pipeline.DirectionOutflow:
			s.Outflow = s.Outflow.Add(tx.Amount)
		}
		s.Fees = s.Fees.Add(tx.Fee)
	}
	s.Net = s.Inflow.Sub(s.Outflow)
	return s
}

// TopRecipients returns up to n counterparties ranked by total outflow,
// descending. Ties break by counterparty name ascending so the order is
// deterministic. Entries without a counterparty group under "Unknown".
func TopRecipients(ledger *pipeline.Ledger, n int, r Range) []CounterpartyTotal {
	totals := make(map[string]*CounterpartyTotal)

	for _, tx := range ledger.Between(r.Start, r.End) {
		if tx.Direction != pipeline.DirectionOutflow {
			continue
		}
		name := tx.Counterparty
		if name == "" {
			name = "Unknown"
		}
		ct, ok := totals[name]
		if !ok {
			ct = &CounterpartyTotal{Counterparty: name}
			totals[name] = ct
		}
		ct.Total = ct.Total.Add(tx.Amount)
		ct.Count++
	}

	out := make([]CounterpartyTotal, 0, len(totals))
	for _, ct := range totals {
		out = append(out, *ct)
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].Total.Equal(out[b].Total) {
			return out[a].Total.GreaterThan(out[b].Total)
		}
		return out[a].Counterparty < out[b].Counterparty
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// CategoryBreakdown sums amounts per category for one direction, ordered by
// total descending with name-ascending tie breaks.
func CategoryBreakdown(ledger *pipeline.Ledger, dir pipeline.Direction, r Range) []CategoryTotal {
	totals := make(map[string]*CategoryTotal)

	for _, tx := range ledger.Between(r.Start, r.End) {
		if tx.Direction != dir {
			continue
		}
		ct, ok := totals[tx.Category]
		if !ok {
			ct = &CategoryTotal{Category: tx.Category}
			totals[tx.Category] = ct
		}
		ct.Total = ct.Total.Add(tx.Amount)
		ct.Count++
	}

	out := make([]CategoryTotal, 0, len(totals))
	for _, ct := range totals {
		out = append(out, *ct)
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].Total.Equal(out[b].Total) {
			return out[a].Total.GreaterThan(out[b].Total)
		}
		return out[a].Category < out[b].Category
	})
	return out
}

// HighestSpendingPeriod returns the bucket with the largest outflow total.
// Ties break toward the earliest period. ok is false when the ledger slice
// is empty, which is "no data", not an error.
func HighestSpendingPeriod(ledger *pipeline.Ledger, period Period, r Range) (Bucket, bool) {
	buckets := Aggregate(ledger, period, r)
	if len(buckets) == 0 {
		return Bucket{}, false
	}
	best := buckets[0]
	for _, b := range buckets[1:] {
		// Buckets are ordered by start, so a strictly greater outflow is
		// required to displace an earlier period.
		if b.Outflow.GreaterThan(best.Outflow) {
			best = b
		}
	}
	return best, true
}
