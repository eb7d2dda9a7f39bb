package pipeline

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind classifies the mobile-money operation a message describes. The set is
// closed: the parser only ever emits one of these values.
type Kind string

const (
	KindDeposit     Kind = "deposit"
	KindWithdrawal  Kind = "withdrawal"
	KindTransferOut Kind = "transfer-out"
	KindTransferIn  Kind = "transfer-in"
	KindPayment     Kind = "payment"
	KindAirtime     Kind = "airtime"
	KindFee         Kind = "fee"
	KindUnknown     Kind = "unknown"
)

// Direction is the money-flow side of a transaction, derived from its kind.
type Direction string

const (
	DirectionInflow  Direction = "inflow"
	DirectionOutflow Direction = "outflow"
)

// Category labels used in reports. Derived from kind via a fixed lookup,
// never inferred from free text.
const (
	CategoryCash          = "cash"
	CategoryTransfer      = "transfer"
	CategoryUtilities     = "utilities"
	CategoryAirtime       = "airtime"
	CategoryFee           = "fee"
	CategoryUncategorized = "uncategorized"
)

// kindDirection maps each transactable kind to its direction. KindUnknown is
// deliberately absent: candidates without a direction are rejected.
var kindDirection = map[Kind]Direction{
	KindDeposit:     DirectionInflow,
	KindTransferIn:  DirectionInflow,
	KindWithdrawal:  DirectionOutflow,
	KindTransferOut: DirectionOutflow,
	KindPayment:     DirectionOutflow,
	KindAirtime:     DirectionOutflow,
	KindFee:         DirectionOutflow,
}

// kindCategory maps each kind to its report category. MoMo "You have paid"
// messages are bill payments, hence payment → utilities.
var kindCategory = map[Kind]string{
	KindDeposit:     CategoryCash,
	KindWithdrawal:  CategoryCash,
	KindTransferIn:  CategoryTransfer,
	KindTransferOut: CategoryTransfer,
	KindPayment:     CategoryUtilities,
	KindAirtime:     CategoryAirtime,
	KindFee:         CategoryFee,
	KindUnknown:     CategoryUncategorized,
}

// RawMessage is one SMS as delivered by the source: opaque text plus optional
// transport metadata. ReceivedAt is only trusted when the body carries no
// timestamp of its own.
type RawMessage struct {
	ID         string     `json:"id"`
	Text       string     `json:"sms"`
	ReceivedAt *time.Time `json:"received_at,omitempty"`
}

// Candidate is the parser's output for one message: fields are populated
// with whatever the matched phrasing could extract and validated later by
// the normalizer.
type Candidate struct {
	Kind         Kind
	Amount       *decimal.Decimal
	Fee          *decimal.Decimal
	Balance      *decimal.Decimal
	Currency     string
	Counterparty string
	MSISDN       string
	Timestamp    *time.Time
	ReferenceID  string
	RawText      string
}

// Transaction is one fully validated ledger entry. Every field is resolved:
// the amount is non-negative, the timestamp is present, and the direction is
// consistent with the kind.
type Transaction struct {
	ID           string
	Kind         Kind
	Direction    Direction
	Category     string
	Amount       decimal.Decimal
	Fee          decimal.Decimal // zero when the message carried no fee
	Balance      *decimal.Decimal
	Currency     string
	Counterparty string
	MSISDN       string
	Timestamp    time.Time
	ReferenceID  string
	RawText      string
}

// ParseFailure records one message that could not be turned into a
// transaction. Failures are collected and reported, never fatal to a batch.
type ParseFailure struct {
	MessageID string
	RawText   string
	Reason    string
}
