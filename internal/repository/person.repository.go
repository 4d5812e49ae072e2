package repository

import (
	"context"
	"errors"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/nimasrn/hire-gateway/pkg/pg"
	"gorm.io/gorm"
)

type PersonRepository struct {
	*pg.DB
}

func NewPersonRepository(db *pg.DB) *PersonRepository {
	return &PersonRepository{
		db,
	}
}

func (r *PersonRepository) Create(ctx context.Context, p *model.Person) (*model.Person, error) {
	entity := toPersonEntity(p)

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if isDuplicate(err) {
			return nil, r.duplicateReason(ctx, p)
		}
		return nil, err
	}

	return toPersonModel(entity), nil
}

// duplicateReason tells which unique column rejected the insert.
func (r *PersonRepository) duplicateReason(ctx context.Context, p *model.Person) error {
	var n int64
	err := r.Read(ctx).Model(&PersonEntity{}).
		Where("national_id = ?", p.NationalID).
		Count(&n).Error
	if err == nil && n == 0 && p.UniqueID != nil {
		return model.ErrDuplicateUniqueID
	}
	return model.ErrDuplicateNationalID
}

func (r *PersonRepository) GetByID(ctx context.Context, id int64) (*model.Person, error) {
	var entity PersonEntity
	err := r.Read(ctx).
		Where("id = ?", id).
		First(&entity).
		Error

	if err != nil {
		if isNotFound(err) {
			return nil, model.ErrPersonNotFound
		}
		return nil, err
	}

	return toPersonModel(&entity), nil
}

func (r *PersonRepository) List(ctx context.Context, f model.PersonFilter) ([]*model.Person, int64, error) {
	q := r.Read(ctx).Model(&PersonEntity{})

	if f.Search != "" {
		s := likePattern(f.Search)
		q = q.Where(
			"LOWER(full_name) LIKE ? OR LOWER(national_id) LIKE ? OR LOWER(COALESCE(unique_id, '')) LIKE ? OR phone LIKE ?",
			s, s, s, s,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := page(f.Limit, f.Offset)

	var entities []*PersonEntity
	if err := q.Order("full_name ASC, id ASC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toPersonModels(entities), total, nil
}

// Delete refuses while any hire still references the person.
func (r *PersonRepository) Delete(ctx context.Context, id int64) error {
	return r.WithinTransaction(ctx, func(ctx context.Context) error {
		var hires int64
		if err := r.Write(ctx).Model(&HireEntity{}).Where("person_id = ?", id).Count(&hires).Error; err != nil {
			return err
		}
		if hires > 0 {
			return model.ErrPersonInUse
		}

		result := r.Write(ctx).Where("id = ?", id).Delete(&PersonEntity{})
		if result.Error != nil {
			// a hire inserted after the count still trips the foreign key
			if errors.Is(result.Error, gorm.ErrForeignKeyViolated) {
				return model.ErrPersonInUse
			}
			return result.Error
		}
		if result.RowsAffected == 0 {
			return model.ErrPersonNotFound
		}
		return nil
	})
}
