package services

import (
	"context"
	"time"

	"github.com/nimasrn/hire-gateway/internal/model"
)

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type PersonRepository interface {
	Create(ctx context.Context, p *model.Person) (*model.Person, error)
	GetByID(ctx context.Context, id int64) (*model.Person, error)
	List(ctx context.Context, f model.PersonFilter) ([]*model.Person, int64, error)
	Delete(ctx context.Context, id int64) error
}

type AssetRepository interface {
	Create(ctx context.Context, a *model.Asset) (*model.Asset, error)
	GetByID(ctx context.Context, id int64) (*model.Asset, error)
	LockByID(ctx context.Context, id int64) (*model.Asset, error)
	UpdateStatus(ctx context.Context, id int64, status model.AssetStatus) error
	List(ctx context.Context, f model.AssetFilter) ([]*model.Asset, int64, error)
	Delete(ctx context.Context, id int64) error
}

type HireRepository interface {
	Create(ctx context.Context, h *model.Hire) (*model.Hire, error)
	GetByID(ctx context.Context, id int64) (*model.Hire, error)
	GetByReference(ctx context.Context, reference string) (*model.Hire, error)
	LockByID(ctx context.Context, id int64) (*model.Hire, error)
	UpdateStatus(ctx context.Context, id int64, status model.HireStatus) error
	UpdateTerms(ctx context.Context, id int64, u model.HireTermsUpdate) error
	List(ctx context.Context, f model.HireFilter) ([]*model.Hire, int64, error) // results, totalCount
	ListOverdueIDs(ctx context.Context, now time.Time) ([]int64, error)
	Delete(ctx context.Context, id int64) error
}

type PaymentRepository interface {
	Create(ctx context.Context, p *model.Payment) (*model.Payment, error)
	ExistsByReceipt(ctx context.Context, receipt string) (bool, error)
	List(ctx context.Context, f model.PaymentFilter) ([]*model.Payment, int64, error)
}
