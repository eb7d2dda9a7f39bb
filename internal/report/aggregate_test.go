package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/momo-agent/internal/pipeline"
)

func normalizeBatch(t *testing.T, texts ...string) *pipeline.Ledger {
	t.Helper()
	batch := make([]pipeline.RawMessage, len(texts))
	for i, text := range texts {
		batch[i] = pipeline.RawMessage{ID: string(rune('a' + i)), Text: text}
	}
	n := pipeline.NewNormalizer(pipeline.Config{})
	ledger, failures := n.Normalize(context.Background(), batch)
	if len(failures) != 0 {
		t.Fatalf("test batch has failures: %v", failures)
	}
	return ledger
}

func TestAggregate_MonthlyReport(t *testing.T) {
	ledger := normalizeBatch(t,
		"You have received 5000 RWF from Jane Doe on 01/03/2025 12:00. Ref: ABC123",
		"You have paid 1500 RWF to EWSA (electricity) on 05/03/2025 09:30. Ref: DEF456",
	)

	buckets := Aggregate(ledger, PeriodMonth, Range{})
	if len(buckets) != 1 {
		t.Fatalf("buckets = %d, want 1", len(buckets))
	}

	b := buckets[0]
	if b.PeriodKey != "2025-03" {
		t.Errorf("PeriodKey = %q, want 2025-03", b.PeriodKey)
	}
	if b.Count != 2 {
		t.Errorf("Count = %d, want 2", b.Count)
	}
	if !b.Inflow.Equal(decimal.RequireFromString("5000")) {
		t.Errorf("Inflow = %s, want 5000", b.Inflow)
	}
	if !b.Outflow.Equal(decimal.RequireFromString("1500")) {
		t.Errorf("Outflow = %s, want 1500", b.Outflow)
	}
	if !b.Net.Equal(decimal.RequireFromString("3500")) {
		t.Errorf("Net = %s, want 3500", b.Net)
	}
	if got := b.Categories[pipeline.CategoryUtilities]; !got.Equal(decimal.RequireFromString("1500")) {
		t.Errorf("utilities total = %s, want 1500", got)
	}
}

func TestAggregate_PeriodKeys(t *testing.T) {
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		period Period
		want   string
	}{
		{PeriodWeek, "2025-W09"},
		{PeriodMonth, "2025-03"},
		{PeriodYear, "2025"},
	}

	for _, tt := range tests {
		t.Run(string(tt.period), func(t *testing.T) {
			if got := periodKey(tt.period, ts); got != tt.want {
				t.Errorf("periodKey(%s) = %q, want %q", tt.period, got, tt.want)
			}
		})
	}

	// ISO weeks near a year boundary belong to the ISO year, not the
	// calendar year.
	newYear := time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)
	if got := periodKey(PeriodWeek, newYear); got != "2025-W01" {
		t.Errorf("periodKey(week, 2024-12-30) = %q, want 2025-W01", got)
	}
}

func TestAggregate_RoundTrip(t *testing.T) {
	ledger := normalizeBatch(t,
		"You have received 5000 RWF from Jane Doe on 01/03/2025 12:00. Ref: A1",
		"You have paid 1,500.75 RWF to EWSA on 05/03/2025 09:30. Ref: A2",
		"You have sent 2000 RWF to John Doe on 10/04/2025 10:00. Ref: A3",
		"You have received 300 RWF from Bob on 02/01/2026 08:00. Ref: A4",
	)

	var ledgerTotal decimal.Decimal
	for _, tx := range ledger.All() {
		ledgerTotal = ledgerTotal.Add(tx.Amount)
	}

	for _, period := range []Period{PeriodWeek, PeriodMonth, PeriodYear} {
		var bucketTotal decimal.Decimal
		for _, b := range Aggregate(ledger, period, Range{}) {
			bucketTotal = bucketTotal.Add(b.Inflow).Add(b.Outflow)

			var catTotal decimal.Decimal
			for _, v := range b.Categories {
				catTotal = catTotal.Add(v)
			}
			if !catTotal.Equal(b.Inflow.Add(b.Outflow)) {
				t.Errorf("%s bucket %s: category sum %s != direction sum %s",
					period, b.PeriodKey, catTotal, b.Inflow.Add(b.Outflow))
			}
		}
		if !bucketTotal.Equal(ledgerTotal) {
			t.Errorf("%s partition: bucket total %s != ledger total %s", period, bucketTotal, ledgerTotal)
		}
	}
}

func TestAggregate_RangeFilter(t *testing.T) {
	ledger := normalizeBatch(t,
		"You have received 5000 RWF from Jane Doe on 01/03/2025 12:00. Ref: A1",
		"You have sent 2000 RWF to John Doe on 10/04/2025 10:00. Ref: A2",
	)

	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	buckets := Aggregate(ledger, PeriodMonth, Range{Start: &start})
	if len(buckets) != 1 || buckets[0].PeriodKey != "2025-04" {
		t.Fatalf("buckets = %v, want only 2025-04", buckets)
	}
}

func TestAggregate_EmptyLedgerSlice(t *testing.T) {
	ledger := normalizeBatch(t,
		"You have received 5000 RWF from Jane Doe on 01/03/2025 12:00. Ref: A1",
	)
	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	if got := Aggregate(ledger, PeriodMonth, Range{Start: &start}); len(got) != 0 {
		t.Errorf("Aggregate over empty slice = %v, want empty", got)
	}

	s := Summarize(ledger, Range{Start: &start})
	if s.Count != 0 || !s.Net.IsZero() {
		t.Errorf("Summarize over empty slice = %+v, want zeros", s)
	}

	if _, ok := HighestSpendingPeriod(ledger, PeriodMonth, Range{Start: &start}); ok {
		t.Error("HighestSpendingPeriod over empty slice reported a bucket")
	}
}

func TestTopRecipients(t *testing.T) {
	ledger := normalizeBatch(t,
		"You have sent 2000 RWF to Alice on 01/03/2025 10:00. Ref: T1",
		"You have sent 3000 RWF to Bob on 02/03/2025 10:00. Ref: T2",
		"You have sent 1000 RWF to Alice on 03/03/2025 10:00. Ref: T3",
		"You have sent 3000 RWF to Carol on 04/03/2025 10:00. Ref: T4",
		"You have received 9000 RWF from Dan on 05/03/2025 10:00. Ref: T5",
	)

	got := TopRecipients(ledger, 10, Range{})
	if len(got) != 3 {
		t.Fatalf("TopRecipients = %d rows, want 3 (inflows excluded)", len(got))
	}

	// Alice and Bob both total 3000; the tie breaks by name ascending.
	wantOrder := []string{"Alice", "Bob", "Carol"}
	for i, want := range wantOrder {
		if got[i].Counterparty != want {
			t.Errorf("row %d = %q, want %q", i, got[i].Counterparty, want)
		}
	}
	if !got[0].Total.Equal(decimal.RequireFromString("3000")) {
		t.Errorf("Alice total = %s, want 3000", got[0].Total)
	}
	if got[0].Count != 2 {
		t.Errorf("Alice count = %d, want 2", got[0].Count)
	}

	// n caps the result.
	if capped := TopRecipients(ledger, 2, Range{}); len(capped) != 2 {
		t.Errorf("TopRecipients(n=2) = %d rows, want 2", len(capped))
	}
}

func TestTopRecipients_Deterministic(t *testing.T) {
	ledger := normalizeBatch(t,
		"You have sent 2000 RWF to Alice on 01/03/2025 10:00. Ref: T1",
		"You have sent 2000 RWF to Bob on 02/03/2025 10:00. Ref: T2",
		"You have sent 2000 RWF to Carol on 03/03/2025 10:00. Ref: T3",
	)

	first := TopRecipients(ledger, 3, Range{})
	for i := 0; i < 10; i++ {
		again := TopRecipients(ledger, 3, Range{})
		for j := range first {
			if again[j].Counterparty != first[j].Counterparty {
				t.Fatalf("run %d: order changed at row %d", i, j)
			}
		}
	}
}

func TestHighestSpendingPeriod(t *testing.T) {
	ledger := normalizeBatch(t,
		"You have sent 1000 RWF to Alice on 01/03/2025 10:00. Ref: H1",
		"You have sent 5000 RWF to Bob on 01/04/2025 10:00. Ref: H2",
		"You have sent 5000 RWF to Carol on 01/05/2025 10:00. Ref: H3",
	)

	// April and May tie at 5000; the earlier period wins.
	b, ok := HighestSpendingPeriod(ledger, PeriodMonth, Range{})
	if !ok {
		t.Fatal("HighestSpendingPeriod returned no bucket")
	}
	if b.PeriodKey != "2025-04" {
		t.Errorf("PeriodKey = %q, want 2025-04 (earliest of the tie)", b.PeriodKey)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	ledger := normalizeBatch(t,
		"You have paid 1500 RWF to EWSA on 05/03/2025 09:30. Ref: C1",
		"You have paid 500 RWF for airtime on 06/03/2025 09:30. Ref: C2",
		"You have sent 2000 RWF to John Doe on 07/03/2025 09:30. Ref: C3",
		"You have received 9000 RWF from Jane on 08/03/2025 09:30. Ref: C4",
	)

	got := CategoryBreakdown(ledger, pipeline.DirectionOutflow, Range{})
	if len(got) != 3 {
		t.Fatalf("CategoryBreakdown = %d rows, want 3", len(got))
	}
	if got[0].Category != pipeline.CategoryTransfer || !got[0].Total.Equal(decimal.RequireFromString("2000")) {
		t.Errorf("row 0 = %+v, want transfer/2000", got[0])
	}
	if got[1].Category != pipeline.CategoryUtilities {
		t.Errorf("row 1 = %+v, want utilities", got[1])
	}
	if got[2].Category != pipeline.CategoryAirtime {
		t.Errorf("row 2 = %+v, want airtime", got[2])
	}
}

func TestParsePeriod(t *testing.T) {
	for _, valid := range []string{"week", "month", "year"} {
		if _, err := ParsePeriod(valid); err != nil {
			t.Errorf("ParsePeriod(%q) error = %v", valid, err)
		}
	}
	if _, err := ParsePeriod("decade"); err == nil {
		t.Error("ParsePeriod(decade) should fail")
	}
}
