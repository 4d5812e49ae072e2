package repository

import (
	"time"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/shopspring/decimal"
)

type PaymentEntity struct {
	ID            int64           `db:"id"             gorm:"primaryKey;autoIncrement;column:id"`
	HireID        int64           `db:"hire_id"        gorm:"column:hire_id;not null;index"`
	Amount        decimal.Decimal `db:"amount"         gorm:"column:amount;type:numeric(10,2);not null"`
	Phone         string          `db:"phone"          gorm:"column:phone;not null"`
	MpesaReceipt  *string         `db:"mpesa_receipt"  gorm:"column:mpesa_receipt;uniqueIndex:uq_payment_mpesa_receipt"`
	Status        string          `db:"status"         gorm:"column:status;not null;default:pending"`
	PaidAt        *time.Time      `db:"paid_at"        gorm:"column:paid_at"`
	HireReference string          `db:"hire_reference" gorm:"column:hire_reference;type:varchar(12);not null;index"`
	CreatedAt     time.Time       `db:"created_at"     gorm:"column:created_at;autoCreateTime"`
}

func (PaymentEntity) TableName() string {
	return "payment"
}

func toPaymentEntity(m *model.Payment) *PaymentEntity {
	if m == nil {
		return nil
	}
	return &PaymentEntity{
		ID:            m.ID,
		HireID:        m.HireID,
		Amount:        m.Amount,
		Phone:         m.Phone,
		MpesaReceipt:  m.MpesaReceipt,
		Status:        string(m.Status),
		PaidAt:        m.PaidAt,
		HireReference: m.HireReference,
		CreatedAt:     m.CreatedAt,
	}
}

func toPaymentModel(e *PaymentEntity) *model.Payment {
	if e == nil {
		return nil
	}
	return &model.Payment{
		ID:            e.ID,
		HireID:        e.HireID,
		Amount:        e.Amount,
		Phone:         e.Phone,
		MpesaReceipt:  e.MpesaReceipt,
		Status:        model.PaymentStatus(e.Status),
		PaidAt:        e.PaidAt,
		HireReference: e.HireReference,
		CreatedAt:     e.CreatedAt,
	}
}

func toPaymentModels(entities []*PaymentEntity) []*model.Payment {
	if entities == nil {
		return nil
	}
	models := make([]*model.Payment, len(entities))
	for i, e := range entities {
		models[i] = toPaymentModel(e)
	}
	return models
}
