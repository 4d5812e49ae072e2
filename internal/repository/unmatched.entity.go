package repository

import (
	"time"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/shopspring/decimal"
)

type UnmatchedNotificationEntity struct {
	ID            int64           `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	TransactionID string          `db:"trans_id"    gorm:"column:trans_id;not null;uniqueIndex:uq_unmatched_trans_id"`
	PayerPhone    string          `db:"msisdn"      gorm:"column:msisdn;not null"`
	Amount        decimal.Decimal `db:"amount"      gorm:"column:amount;type:numeric(10,2);not null"`
	BillReference string          `db:"bill_ref"    gorm:"column:bill_ref;not null;index"`
	Reason        string          `db:"reason"      gorm:"column:reason;not null"`
	ReceivedAt    time.Time       `db:"received_at" gorm:"column:received_at;not null"`
}

func (UnmatchedNotificationEntity) TableName() string {
	return "unmatched_notification"
}

func toUnmatchedEntity(m *model.UnmatchedNotification) *UnmatchedNotificationEntity {
	if m == nil {
		return nil
	}
	return &UnmatchedNotificationEntity{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		PayerPhone:    m.PayerPhone,
		Amount:        m.Amount,
		BillReference: m.BillReference,
		Reason:        m.Reason,
		ReceivedAt:    m.ReceivedAt,
	}
}

func toUnmatchedModel(e *UnmatchedNotificationEntity) *model.UnmatchedNotification {
	if e == nil {
		return nil
	}
	return &model.UnmatchedNotification{
		ID:            e.ID,
		TransactionID: e.TransactionID,
		PayerPhone:    e.PayerPhone,
		Amount:        e.Amount,
		BillReference: e.BillReference,
		Reason:        e.Reason,
		ReceivedAt:    e.ReceivedAt,
	}
}

func toUnmatchedModels(entities []*UnmatchedNotificationEntity) []*model.UnmatchedNotification {
	if entities == nil {
		return nil
	}
	models := make([]*model.UnmatchedNotification, len(entities))
	for i, e := range entities {
		models[i] = toUnmatchedModel(e)
	}
	return models
}
