package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// C2BNotification is an inbound customer-to-business payment event.
type C2BNotification struct {
	TransactionID    string          `json:"TransID"`
	PayerPhone       string          `json:"MSISDN"`
	Amount           decimal.Decimal `json:"TransAmount"`
	BillingReference string          `json:"BillRefNumber"`
}

// Validity is the tag produced by C2BNotification.Validate.
type Validity int

const (
	Valid Validity = iota
	MissingReference
	MalformedInput
)

// Validate trims the fields in place and classifies the notification. The
// billing reference is checked first so a notification without one is
// reported as MissingReference whatever else is wrong with it.
func (n *C2BNotification) Validate() Validity {
	n.TransactionID = strings.TrimSpace(n.TransactionID)
	n.PayerPhone = strings.TrimSpace(n.PayerPhone)
	n.BillingReference = strings.ToUpper(strings.TrimSpace(n.BillingReference))

	if n.BillingReference == "" {
		return MissingReference
	}
	if n.TransactionID == "" || validateMoney("TransAmount", n.Amount) != nil {
		return MalformedInput
	}
	return Valid
}

// Outcome is what reconciliation did with a notification.
type Outcome string

const (
	OutcomeCreated          Outcome = "created"
	OutcomeDuplicate        Outcome = "duplicate"
	OutcomeMissingReference Outcome = "missing_reference"
	OutcomeUnknownReference Outcome = "unknown_reference"
	OutcomeMalformedInput   Outcome = "malformed_input"
	OutcomeInvalidMethod    Outcome = "invalid_method"
	OutcomeInternalError    Outcome = "internal_error"
)

var outcomeDescriptions = map[Outcome]string{
	OutcomeCreated:          "Payment received successfully",
	OutcomeDuplicate:        "Duplicate transaction ignored",
	OutcomeMissingReference: "Missing BillRefNumber",
	OutcomeUnknownReference: "Hire not found",
	OutcomeMalformedInput:   "Invalid JSON payload",
	OutcomeInvalidMethod:    "Invalid request method",
	OutcomeInternalError:    "Internal server error",
}

// ReconciliationResult is returned for every notification; failures are
// carried as outcomes, never as errors.
type ReconciliationResult struct {
	Outcome Outcome
	Payment *Payment
	Hire    *Hire
}

func (r ReconciliationResult) Accepted() bool {
	return r.Outcome == OutcomeCreated || r.Outcome == OutcomeDuplicate
}

// Code is the C2B ResultCode: 0 accepted, 1 rejected.
func (r ReconciliationResult) Code() int {
	if r.Accepted() {
		return 0
	}
	return 1
}

func (r ReconciliationResult) Description() string {
	if d, ok := outcomeDescriptions[r.Outcome]; ok {
		return d
	}
	return outcomeDescriptions[OutcomeInternalError]
}

func Rejected(o Outcome) ReconciliationResult {
	return ReconciliationResult{Outcome: o}
}

// UnmatchedNotification is a notification whose billing reference matched
// no hire, kept for manual reconciliation.
type UnmatchedNotification struct {
	ID            int64           `json:"id"`
	TransactionID string          `json:"trans_id"`
	PayerPhone    string          `json:"msisdn"`
	Amount        decimal.Decimal `json:"amount"`
	BillReference string          `json:"bill_ref"`
	Reason        string          `json:"reason"`
	ReceivedAt    time.Time       `json:"received_at"`
}
