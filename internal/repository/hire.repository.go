package repository

import (
	"context"
	"time"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/nimasrn/hire-gateway/pkg/pg"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type HireRepository struct {
	*pg.DB
}

func NewHireRepository(db *pg.DB) *HireRepository {
	return &HireRepository{
		db,
	}
}

// Create inserts the hire under a savepoint, so a reference collision can be
// retried by the caller without aborting an enclosing transaction.
func (r *HireRepository) Create(ctx context.Context, h *model.Hire) (*model.Hire, error) {
	entity := toHireEntity(h)

	err := r.Write(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(entity).Error
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, model.ErrDuplicateReference
		}
		return nil, err
	}

	return toHireModel(entity), nil
}

func (r *HireRepository) GetByID(ctx context.Context, id int64) (*model.Hire, error) {
	return r.first(r.Read(ctx).Where("id = ?", id))
}

func (r *HireRepository) GetByReference(ctx context.Context, reference string) (*model.Hire, error) {
	return r.first(r.Read(ctx).Where("reference = ?", reference))
}

// LockByID reads the hire with SELECT ... FOR UPDATE. Concurrent callers
// for the same hire serialize here until the holder's transaction ends.
func (r *HireRepository) LockByID(ctx context.Context, id int64) (*model.Hire, error) {
	return r.first(r.Write(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", id))
}

func (r *HireRepository) first(q *gorm.DB) (*model.Hire, error) {
	var entity HireEntity
	if err := q.First(&entity).Error; err != nil {
		if isNotFound(err) {
			return nil, model.ErrHireNotFound
		}
		return nil, err
	}
	return toHireModel(&entity), nil
}

func (r *HireRepository) UpdateStatus(ctx context.Context, id int64, status model.HireStatus) error {
	result := r.Write(ctx).
		Model(&HireEntity{}).
		Where("id = ?", id).
		Update("status", string(status))

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return model.ErrHireNotFound
	}
	return nil
}

// UpdateTerms writes due_at and daily_rate only; every other column is
// fixed once the hire exists.
func (r *HireRepository) UpdateTerms(ctx context.Context, id int64, u model.HireTermsUpdate) error {
	updates := map[string]any{}
	if u.DueAt != nil {
		updates["due_at"] = *u.DueAt
	}
	if u.DailyRate != nil {
		updates["daily_rate"] = *u.DailyRate
	}
	if len(updates) == 0 {
		return nil
	}

	result := r.Write(ctx).
		Model(&HireEntity{}).
		Where("id = ?", id).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return model.ErrHireNotFound
	}
	return nil
}

func (r *HireRepository) List(ctx context.Context, f model.HireFilter) ([]*model.Hire, int64, error) {
	q := r.Read(ctx).Model(&HireEntity{})

	if f.Search != "" {
		s := likePattern(f.Search)
		persons := r.Read(ctx).Model(&PersonEntity{}).Select("id").Where("LOWER(full_name) LIKE ?", s)
		assets := r.Read(ctx).Model(&AssetEntity{}).Select("id").Where("LOWER(registration_number) LIKE ?", s)
		q = q.Where("LOWER(reference) LIKE ? OR person_id IN (?) OR asset_id IN (?)", s, persons, assets)
	}

	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("status IN ?", statuses)
	}
	if f.PersonID != nil {
		q = q.Where("person_id = ?", *f.PersonID)
	}
	if f.AssetID != nil {
		q = q.Where("asset_id = ?", *f.AssetID)
	}
	if f.DueBefore != nil {
		q = q.Where("due_at < ?", *f.DueBefore)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "hire_date ASC, id ASC"
	if f.Desc {
		order = "hire_date DESC, id DESC"
	}

	limit, offset := page(f.Limit, f.Offset)

	var entities []*HireEntity
	if err := q.Order(order).Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toHireModels(entities), total, nil
}

// ListOverdueIDs returns ids of active hires due strictly before now.
func (r *HireRepository) ListOverdueIDs(ctx context.Context, now time.Time) ([]int64, error) {
	var ids []int64
	err := r.Read(ctx).
		Model(&HireEntity{}).
		Where("status = ? AND due_at < ?", string(model.HireStatusActive), now).
		Order("due_at ASC").
		Pluck("id", &ids).
		Error
	return ids, err
}

// Delete refuses while any payment still references the hire.
func (r *HireRepository) Delete(ctx context.Context, id int64) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		var payments int64
		if err := r.Write(ctx).Model(&PaymentEntity{}).Where("hire_id = ?", id).Count(&payments).Error; err != nil {
			return err
		}
		if payments > 0 {
			return model.ErrHireHasPayments
		}

		result := r.Write(ctx).Where("id = ?", id).Delete(&HireEntity{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return model.ErrHireNotFound
		}
		return nil
	})
}
