package repository

import (
	"github.com/nimasrn/hire-gateway/internal/model"
)

type AssetEntity struct {
	ID                 int64  `db:"id"                  gorm:"primaryKey;autoIncrement;column:id"`
	Name               string `db:"name"                gorm:"column:name;not null"`
	Brand              string `db:"brand"               gorm:"column:brand;not null"`
	RegistrationNumber string `db:"registration_number" gorm:"column:registration_number;not null;uniqueIndex:uq_asset_registration_number"`
	Status             string `db:"status"              gorm:"column:status;not null;default:available;index"`
}

func (AssetEntity) TableName() string {
	return "asset"
}

func toAssetEntity(m *model.Asset) *AssetEntity {
	if m == nil {
		return nil
	}
	status := m.Status
	if status == "" {
		status = model.AssetStatusAvailable
	}
	return &AssetEntity{
		ID:                 m.ID,
		Name:               m.Name,
		Brand:              m.Brand,
		RegistrationNumber: m.RegistrationNumber,
		Status:             string(status),
	}
}

func toAssetModel(e *AssetEntity) *model.Asset {
	if e == nil {
		return nil
	}
	return &model.Asset{
		ID:                 e.ID,
		Name:               e.Name,
		Brand:              e.Brand,
		RegistrationNumber: e.RegistrationNumber,
		Status:             model.AssetStatus(e.Status),
	}
}

func toAssetModels(entities []*AssetEntity) []*model.Asset {
	if entities == nil {
		return nil
	}
	models := make([]*model.Asset, len(entities))
	for i, e := range entities {
		models[i] = toAssetModel(e)
	}
	return models
}
