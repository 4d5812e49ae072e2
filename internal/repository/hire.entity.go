package repository

import (
	"time"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/shopspring/decimal"
)

type HireEntity struct {
	ID        int64           `db:"id"         gorm:"primaryKey;autoIncrement;column:id"`
	PersonID  int64           `db:"person_id"  gorm:"column:person_id;not null;index"`
	AssetID   int64           `db:"asset_id"   gorm:"column:asset_id;not null;index"`
	HireDate  time.Time       `db:"hire_date"  gorm:"column:hire_date;not null"`
	DueAt     time.Time       `db:"due_at"     gorm:"column:due_at;not null;index"`
	DailyRate decimal.Decimal `db:"daily_rate" gorm:"column:daily_rate;type:numeric(10,2);not null"`
	Status    string          `db:"status"     gorm:"column:status;not null;default:active;index"`
	Reference string          `db:"reference"  gorm:"column:reference;type:varchar(12);not null;uniqueIndex:uq_hire_reference"`
	CreatedAt time.Time       `db:"created_at" gorm:"column:created_at;autoCreateTime"`
}

func (HireEntity) TableName() string {
	return "hire"
}

func toHireEntity(m *model.Hire) *HireEntity {
	if m == nil {
		return nil
	}
	return &HireEntity{
		ID:        m.ID,
		PersonID:  m.PersonID,
		AssetID:   m.AssetID,
		HireDate:  m.HireDate,
		DueAt:     m.DueAt,
		DailyRate: m.DailyRate,
		Status:    string(m.Status),
		Reference: m.Reference,
		CreatedAt: m.CreatedAt,
	}
}

func toHireModel(e *HireEntity) *model.Hire {
	if e == nil {
		return nil
	}
	return &model.Hire{
		ID:        e.ID,
		PersonID:  e.PersonID,
		AssetID:   e.AssetID,
		HireDate:  e.HireDate,
		DueAt:     e.DueAt,
		DailyRate: e.DailyRate,
		Status:    model.HireStatus(e.Status),
		Reference: e.Reference,
		CreatedAt: e.CreatedAt,
	}
}

func toHireModels(entities []*HireEntity) []*model.Hire {
	if entities == nil {
		return nil
	}
	models := make([]*model.Hire, len(entities))
	for i, e := range entities {
		models[i] = toHireModel(e)
	}
	return models
}
