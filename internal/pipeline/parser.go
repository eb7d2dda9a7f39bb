package pipeline

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Parsing errors. Both are non-fatal to a batch: the normalizer converts
// them into ParseFailure records and moves on.
var (
	// ErrUnrecognizedMessage means no known phrasing matched the text.
	ErrUnrecognizedMessage = errors.New("no known phrasing matched")

	// ErrAmbiguousTimestamp means the text contains a date that cannot be
	// resolved unambiguously (e.g. day/month with no year). Such messages
	// are rejected, never defaulted to an arbitrary date.
	ErrAmbiguousTimestamp = errors.New("timestamp could not be resolved unambiguously")
)

// phrasingRule recognizes one family of provider messages by its
// distinguishing keywords. Rules are tried in a fixed order and are mutually
// exclusive in practice; the first match wins.
type phrasingRule struct {
	name string
	re   *regexp.Regexp
	kind Kind
}

// Rule order matters only for safety: the more specific phrasings come
// first so that e.g. an airtime purchase containing "paid" is not taken
// for a bill payment.
var phrasingRules = []phrasingRule{
	{"airtime purchase", regexp.MustCompile(`(?i)\bairtime\b`), KindAirtime},
	{"cash deposit", regexp.MustCompile(`(?i)\bdeposit(?:ed)?\b`), KindDeposit},
	{"cash withdrawal", regexp.MustCompile(`(?i)\bwithdraw(?:n|al|ed)?\b`), KindWithdrawal},
	{"transfer sent", regexp.MustCompile(`(?i)\b(?:transferred|sent)\b.*\bto\b`), KindTransferOut},
	{"money received", regexp.MustCompile(`(?i)\breceived\b.*\bfrom\b`), KindTransferIn},
	{"bill payment", regexp.MustCompile(`(?i)\b(?:paid|payment of)\b.*\bto\b`), KindPayment},
	{"fee charged", regexp.MustCompile(`(?i)\bfee\b.*\bcharged\b|\bcharged\b.*\bfee\b`), KindFee},
}

// Field extractors shared by all phrasings.
var (
	amountCurrencyRe = regexp.MustCompile(`\b(\d[\d,]*(?:\.\d+)?)\s*([A-Z]{3})\b`)
	bareAmountRe     = regexp.MustCompile(`(?i)\b(?:received|paid|sent|transferred|withdrawn|deposited|of)\s+(\d[\d,]*(?:\.\d+)?)\b`)
	feeRe            = regexp.MustCompile(`(?i)\bfee(?:\s+was)?\s*[: ]\s*(\d[\d,]*(?:\.\d+)?)`)
	balanceRe        = regexp.MustCompile(`(?i)\b(?:new\s+)?balance\s*[: ]\s*(\d[\d,]*(?:\.\d+)?)`)
	referenceRe      = regexp.MustCompile(`(?i)\b(?:Ref|Reference|TxId|Transaction\s*Id|FT\s*Id|ET\s*Id)\b\s*[.:#]?\s*([A-Za-z0-9][A-Za-z0-9\-]*)`)

	isoDateTimeRe = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})(?:[ T](\d{2}:\d{2}(?::\d{2})?))?\b`)
	dmyDateTimeRe = regexp.MustCompile(`\b(\d{1,2}/\d{1,2}/\d{4})(?:\s+(\d{1,2}:\d{2}(?::\d{2})?))?\b`)
	shortDateRe   = regexp.MustCompile(`\b\d{1,2}/\d{1,2}\b`)

	toRe    = regexp.MustCompile(`(?i)\bto\s+([A-Za-z0-9 &\-.']+?)(?:\s*\(|\s+was\b|\s+with\b|\s+on\b|\.|,|$)`)
	fromRe  = regexp.MustCompile(`(?i)\bfrom\s+([A-Za-z0-9 &\-.']+?)(?:\s*\(|\s+at\b|\s+on\b|\.|,|$)`)
	phoneRe = regexp.MustCompile(`\((\d{6,})\)`)
)

// Parser turns one raw SMS into a transaction candidate. It is stateless and
// safe for concurrent use.
type Parser struct {
	defaultCurrency string
}

// NewParser creates a parser. defaultCurrency is assumed when a message
// states an amount without a currency code.
func NewParser(defaultCurrency string) *Parser {
	return &Parser{defaultCurrency: defaultCurrency}
}

// Parse matches the message against the known phrasings and extracts every
// field the text carries. It returns ErrUnrecognizedMessage when nothing
// matches and ErrAmbiguousTimestamp when a date is present but unresolvable.
// Missing amount/timestamp are not errors here; the normalizer rejects those.
func (p *Parser) Parse(msg RawMessage) (*Candidate, error) {
	text := strings.Join(strings.Fields(msg.Text), " ")

	rule, ok := matchPhrasing(text)
	if !ok {
		return nil, ErrUnrecognizedMessage
	}

	c := &Candidate{
		Kind:     rule.kind,
		Currency: p.defaultCurrency,
		RawText:  msg.Text,
	}

	if m := amountCurrencyRe.FindStringSubmatch(text); m != nil {
		amt, err := parseDecimal(m[1])
		if err == nil {
			c.Amount = &amt
			c.Currency = strings.ToUpper(m[2])
		}
	} else if m := bareAmountRe.FindStringSubmatch(text); m != nil {
		amt, err := parseDecimal(m[1])
		if err == nil {
			c.Amount = &amt
		}
	}

	if m := feeRe.FindStringSubmatch(text); m != nil {
		if fee, err := parseDecimal(m[1]); err == nil {
			c.Fee = &fee
		}
	}
	if m := balanceRe.FindStringSubmatch(text); m != nil {
		if bal, err := parseDecimal(m[1]); err == nil {
			c.Balance = &bal
		}
	}
	if m := referenceRe.FindStringSubmatch(text); m != nil {
		c.ReferenceID = m[1]
	}

	ts, err := parseTimestamp(text)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		// The body carries no date; fall back to transport metadata.
		ts = msg.ReceivedAt
	}
	c.Timestamp = ts

	c.Counterparty, c.MSISDN = extractCounterparty(text, rule.kind)

	return c, nil
}

func matchPhrasing(text string) (phrasingRule, bool) {
	for _, rule := range phrasingRules {
		if rule.re.MatchString(text) {
			return rule, true
		}
	}
	return phrasingRule{}, false
}

// parseDecimal converts an amount string with optional thousands separators
// into an exact decimal. Binary floats are never involved.
func parseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
}

// parseTimestamp finds a date/time embedded in the text. It returns nil with
// no error when the text has none, and ErrAmbiguousTimestamp when only a
// yearless day/month fragment is present.
func parseTimestamp(text string) (*time.Time, error) {
	if m := isoDateTimeRe.FindStringSubmatch(text); m != nil {
		return parseWithLayouts(joinDateTime(m[1], m[2]),
			"2006-01-02 15:04:05", "2006-01-02 15:04", "2006-01-02")
	}
	if m := dmyDateTimeRe.FindStringSubmatch(text); m != nil {
		return parseWithLayouts(joinDateTime(m[1], m[2]),
			"2/1/2006 15:04:05", "2/1/2006 15:04", "2/1/2006")
	}
	if shortDateRe.MatchString(text) {
		return nil, ErrAmbiguousTimestamp
	}
	return nil, nil
}

func joinDateTime(date, clock string) string {
	if clock == "" {
		return date
	}
	return date + " " + clock
}

func parseWithLayouts(s string, layouts ...string) (*time.Time, error) {
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts, nil
		}
	}
	return nil, ErrAmbiguousTimestamp
}

// extractCounterparty pulls the other party's name and phone number out of
// the text. Inflows name the party after "from", outflows after "to";
// withdrawals name the agent after "from" in most phrasings.
func extractCounterparty(text string, kind Kind) (name, msisdn string) {
	var m []string
	switch kind {
	case KindTransferIn, KindDeposit:
		m = fromRe.FindStringSubmatch(text)
	case KindWithdrawal:
		if m = fromRe.FindStringSubmatch(text); m == nil {
			m = toRe.FindStringSubmatch(text)
		}
	default:
		m = toRe.FindStringSubmatch(text)
	}
	if m != nil {
		name = strings.Trim(m[1], " .,-")
	}
	if pm := phoneRe.FindStringSubmatch(text); pm != nil {
		msisdn = pm[1]
	}
	return name, msisdn
}
