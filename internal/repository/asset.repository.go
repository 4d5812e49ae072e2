package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/nimasrn/hire-gateway/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AssetRepository struct {
	*pg.DB
}

func NewAssetRepository(db *pg.DB) *AssetRepository {
	return &AssetRepository{
		db,
	}
}

func (r *AssetRepository) Create(ctx context.Context, a *model.Asset) (*model.Asset, error) {
	entity := toAssetEntity(a)

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if isDuplicate(err) {
			return nil, model.ErrDuplicateRegNumber
		}
		return nil, err
	}

	return toAssetModel(entity), nil
}

func (r *AssetRepository) GetByID(ctx context.Context, id int64) (*model.Asset, error) {
	var entity AssetEntity
	err := r.Read(ctx).
		Where("id = ?", id).
		First(&entity).
		Error

	if err != nil {
		if isNotFound(err) {
			return nil, model.ErrAssetNotFound
		}
		return nil, err
	}

	return toAssetModel(&entity), nil
}

// LockByID reads the asset with SELECT ... FOR UPDATE. It must run inside
// WithinTransaction for the lock to outlive the call.
func (r *AssetRepository) LockByID(ctx context.Context, id int64) (*model.Asset, error) {
	var entity AssetEntity
	err := r.Write(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&entity).
		Error

	if err != nil {
		if isNotFound(err) {
			return nil, model.ErrAssetNotFound
		}
		return nil, err
	}

	return toAssetModel(&entity), nil
}

func (r *AssetRepository) UpdateStatus(ctx context.Context, id int64, status model.AssetStatus) error {
	result := r.Write(ctx).
		Model(&AssetEntity{}).
		Where("id = ?", id).
		Update("status", string(status))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return model.ErrAssetNotFound
	}
	return nil
}

func (r *AssetRepository) List(ctx context.Context, f model.AssetFilter) ([]*model.Asset, int64, error) {
	q := r.Read(ctx).Model(&AssetEntity{})

	if f.Status != nil {
		q = q.Where("status = ?", string(*f.Status))
	}
	if f.Search != "" {
		s := likePattern(f.Search)
		q = q.Where("LOWER(name) LIKE ? OR LOWER(brand) LIKE ? OR LOWER(registration_number) LIKE ?", s, s, s)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := page(f.Limit, f.Offset)

	var entities []*AssetEntity
	if err := q.Order("id ASC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toAssetModels(entities), total, nil
}

// Delete refuses while any hire still references the asset.
func (r *AssetRepository) Delete(ctx context.Context, id int64) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		var hires int64
		if err := r.Write(ctx).Model(&HireEntity{}).Where("asset_id = ?", id).Count(&hires).Error; err != nil {
			return err
		}
		if hires > 0 {
			return model.ErrAssetInUse
		}

		result := r.Write(ctx).Where("id = ?", id).Delete(&AssetEntity{})
		if result.Error != nil {
			// a hire inserted after the count still trips the foreign key
			if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
				return model.ErrAssetInUse
			}
			return result.Error
		}
		if result.RowsAffected == 0 {
			return model.ErrAssetNotFound
		}
		return nil
	})
}
