package export

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dvloznov/momo-agent/internal/pipeline"
	"github.com/dvloznov/momo-agent/internal/report"
)

const topSpendRows = 8

// Report is one rendered period report.
type Report struct {
	Title    string
	Markdown string
}

// RenderReport builds the markdown finance report for one period
// granularity: overall totals, per-period table, top spend counterparties
// and expense category breakdown.
func RenderReport(ledger *pipeline.Ledger, period report.Period) Report {
	name := string(period)
	title := fmt.Sprintf("MoMo Finance Report (%s)", strings.ToUpper(name[:1])+name[1:])

	summary := report.Summarize(ledger, report.Range{})
	buckets := report.Aggregate(ledger, period, report.Range{})
	top := report.TopRecipients(ledger, topSpendRows, report.Range{})
	categories := report.CategoryBreakdown(ledger, pipeline.DirectionOutflow, report.Range{})

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	b.WriteString("## Overall\n\n")
	fmt.Fprintf(&b, "- Transactions: **%d**\n", summary.Count)
	fmt.Fprintf(&b, "- Income: **%s**\n", formatAmount(summary.Inflow))
	fmt.Fprintf(&b, "- Expense: **%s**\n", formatAmount(summary.Outflow))
	fmt.Fprintf(&b, "- Fees: **%s**\n", formatAmount(summary.Fees))
	fmt.Fprintf(&b, "- Net: **%s**\n", formatAmount(summary.Net))

	b.WriteString("\n## By period\n\n")
	b.WriteString("| period | tx_count | income | expense | fees | net |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, bucket := range buckets {
		fmt.Fprintf(&b, "| %s | %d | %s | %s | %s | %s |\n",
			bucket.PeriodKey, bucket.Count,
			formatAmount(bucket.Inflow), formatAmount(bucket.Outflow),
			formatAmount(bucket.Fees), formatAmount(bucket.Net))
	}

	b.WriteString("\n## Top spend counterparties\n\n")
	b.WriteString("| counterparty | total | tx_count |\n")
	b.WriteString("|---|---|---|\n")
	for _, row := range top {
		fmt.Fprintf(&b, "| %s | %s | %d |\n", row.Counterparty, formatAmount(row.Total), row.Count)
	}

	b.WriteString("\n## Expense by category\n\n")
	b.WriteString("| category | total | tx_count |\n")
	b.WriteString("|---|---|---|\n")
	for _, row := range categories {
		fmt.Fprintf(&b, "| %s | %s | %d |\n", row.Category, formatAmount(row.Total), row.Count)
	}

	return Report{Title: title, Markdown: b.String()}
}

// formatAmount renders a decimal with thousands separators for report
// readability. The exact value is untouched upstream; grouping only happens
// at this presentation layer.
func formatAmount(d decimal.Decimal) string {
	s := d.String()
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, ",")
	if hasFrac {
		out += "." + fracPart
	}
	if neg {
		out = "-" + out
	}
	return out
}
