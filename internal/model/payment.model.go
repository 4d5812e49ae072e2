package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Payment is one recorded external payment event. MpesaReceipt is nil only
// before settlement; HireReference is copied from the owning hire when the
// payment is created and never changes.
type Payment struct {
	ID            int64           `json:"id"`
	HireID        int64           `json:"hire_id"`
	Amount        decimal.Decimal `json:"amount"`
	Phone         string          `json:"phone"`
	MpesaReceipt  *string         `json:"mpesa_receipt"`
	Status        PaymentStatus   `json:"status"`
	PaidAt        *time.Time      `json:"paid_at"`
	HireReference string          `json:"hire_reference"`
	CreatedAt     time.Time       `json:"created_at"`
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSuccess, PaymentStatusFailed:
		return true
	}
	return false
}

// PaymentFilter narrows payment listings; results come newest paid first.
// Search matches receipt, phone or hire reference as a substring.
type PaymentFilter struct {
	HireID        *int64
	HireReference *string
	MpesaReceipt  *string
	Phone         *string
	Search        string
	Statuses      []PaymentStatus
	Limit         int
	Offset        int
}
