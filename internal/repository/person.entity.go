package repository

import (
	"time"

	"github.com/nimasrn/hire-gateway/internal/model"
)

type PersonEntity struct {
	ID         int64     `db:"id"          gorm:"primaryKey;autoIncrement;column:id"`
	FullName   string    `db:"full_name"   gorm:"column:full_name;not null"`
	NationalID string    `db:"national_id" gorm:"column:national_id;not null;uniqueIndex:uq_person_national_id"`
	UniqueID   *string   `db:"unique_id"   gorm:"column:unique_id;uniqueIndex:uq_person_unique_id"`
	Phone      string    `db:"phone"       gorm:"column:phone;not null"`
	Email      *string   `db:"email"       gorm:"column:email"`
	CreatedAt  time.Time `db:"created_at"  gorm:"column:created_at;autoCreateTime"`
}

func (PersonEntity) TableName() string {
	return "person"
}

func toPersonEntity(m *model.Person) *PersonEntity {
	if m == nil {
		return nil
	}
	return &PersonEntity{
		ID:         m.ID,
		FullName:   m.FullName,
		NationalID: m.NationalID,
		UniqueID:   m.UniqueID,
		Phone:      m.Phone,
		Email:      m.Email,
	}
}

func toPersonModel(e *PersonEntity) *model.Person {
	if e == nil {
		return nil
	}
	return &model.Person{
		ID:         e.ID,
		FullName:   e.FullName,
		NationalID: e.NationalID,
		UniqueID:   e.UniqueID,
		Phone:      e.Phone,
		Email:      e.Email,
	}
}

func toPersonModels(entities []*PersonEntity) []*model.Person {
	if entities == nil {
		return nil
	}
	models := make([]*model.Person, len(entities))
	for i, e := range entities {
		models[i] = toPersonModel(e)
	}
	return models
}
