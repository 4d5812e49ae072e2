package repository

import (
	"context"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/nimasrn/hire-gateway/pkg/pg"
)

// PaymentRepository is append-only: payments are created and read, never
// updated.
type PaymentRepository struct {
	*pg.DB
}

func NewPaymentRepository(db *pg.DB) *PaymentRepository {
	return &PaymentRepository{
		db,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, p *model.Payment) (*model.Payment, error) {
	entity := toPaymentEntity(p)

	if err := r.Write(ctx).Create(entity).Error; err != nil {
		if isDuplicate(err) {
			return nil, model.ErrDuplicateReceipt
		}
		return nil, err
	}

	return toPaymentModel(entity), nil
}

func (r *PaymentRepository) ExistsByReceipt(ctx context.Context, receipt string) (bool, error) {
	var n int64
	err := r.Read(ctx).
		Model(&PaymentEntity{}).
		Where("mpesa_receipt = ?", receipt).
		Count(&n).
		Error
	return n > 0, err
}

func (r *PaymentRepository) List(ctx context.Context, f model.PaymentFilter) ([]*model.Payment, int64, error) {
	q := r.Read(ctx).Model(&PaymentEntity{})

	if f.HireID != nil {
		q = q.Where("hire_id = ?", *f.HireID)
	}
	if f.HireReference != nil {
		q = q.Where("hire_reference = ?", *f.HireReference)
	}
	if f.MpesaReceipt != nil {
		q = q.Where("mpesa_receipt = ?", *f.MpesaReceipt)
	}
	if f.Phone != nil {
		q = q.Where("phone = ?", *f.Phone)
	}
	if f.Search != "" {
		s := likePattern(f.Search)
		q = q.Where(
			"LOWER(COALESCE(mpesa_receipt, '')) LIKE ? OR phone LIKE ? OR LOWER(hire_reference) LIKE ?",
			s, s, s,
		)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("status IN ?", statuses)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit, offset := page(f.Limit, f.Offset)

	var entities []*PaymentEntity
	if err := q.Order("COALESCE(paid_at, created_at) DESC, id DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toPaymentModels(entities), total, nil
}
