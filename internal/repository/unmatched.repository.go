package repository

import (
	"context"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/nimasrn/hire-gateway/pkg/pg"
	"gorm.io/gorm/clause"
)

type UnmatchedRepository struct {
	*pg.DB
}

func NewUnmatchedRepository(db *pg.DB) *UnmatchedRepository {
	return &UnmatchedRepository{
		db,
	}
}

// Save stores n unless a row with the same transaction id exists. The
// returned bool reports whether a row was inserted.
func (r *UnmatchedRepository) Save(ctx context.Context, n *model.UnmatchedNotification) (bool, error) {
	entity := toUnmatchedEntity(n)

	result := r.Write(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "trans_id"}},
			DoNothing: true,
		}).
		Create(entity)

	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *UnmatchedRepository) List(ctx context.Context, limit, offset int) ([]*model.UnmatchedNotification, int64, error) {
	q := r.Read(ctx).Model(&UnmatchedNotificationEntity{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset = page(limit, offset)

	var entities []*UnmatchedNotificationEntity
	if err := q.Order("received_at DESC, id DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toUnmatchedModels(entities), total, nil
}
