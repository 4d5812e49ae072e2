package services

import (
	"context"
	"time"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/stretchr/testify/mock"
)

type MockTransactor struct {
	mock.Mock
}

func (m *MockTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockHireRepository struct {
	mock.Mock
}

func (m *MockHireRepository) Create(ctx context.Context, h *model.Hire) (*model.Hire, error) {
	args := m.Called(ctx, h)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Hire), args.Error(1)
}

func (m *MockHireRepository) GetByID(ctx context.Context, id int64) (*model.Hire, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Hire), args.Error(1)
}

func (m *MockHireRepository) GetByReference(ctx context.Context, reference string) (*model.Hire, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Hire), args.Error(1)
}

func (m *MockHireRepository) LockByID(ctx context.Context, id int64) (*model.Hire, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Hire), args.Error(1)
}

func (m *MockHireRepository) UpdateStatus(ctx context.Context, id int64, status model.HireStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockHireRepository) UpdateTerms(ctx context.Context, id int64, u model.HireTermsUpdate) error {
	args := m.Called(ctx, id, u)
	return args.Error(0)
}

func (m *MockHireRepository) List(ctx context.Context, f model.HireFilter) ([]*model.Hire, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Hire), args.Get(1).(int64), args.Error(2)
}

func (m *MockHireRepository) ListOverdueIDs(ctx context.Context, now time.Time) ([]int64, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int64), args.Error(1)
}

func (m *MockHireRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAssetRepository struct {
	mock.Mock
}

func (m *MockAssetRepository) Create(ctx context.Context, a *model.Asset) (*model.Asset, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Asset), args.Error(1)
}

func (m *MockAssetRepository) GetByID(ctx context.Context, id int64) (*model.Asset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Asset), args.Error(1)
}

func (m *MockAssetRepository) LockByID(ctx context.Context, id int64) (*model.Asset, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Asset), args.Error(1)
}

func (m *MockAssetRepository) UpdateStatus(ctx context.Context, id int64, status model.AssetStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockAssetRepository) List(ctx context.Context, f model.AssetFilter) ([]*model.Asset, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Asset), args.Get(1).(int64), args.Error(2)
}

func (m *MockAssetRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Create(ctx context.Context, p *model.Payment) (*model.Payment, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) ExistsByReceipt(ctx context.Context, receipt string) (bool, error) {
	args := m.Called(ctx, receipt)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) List(ctx context.Context, f model.PaymentFilter) ([]*model.Payment, int64, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*model.Payment), args.Get(1).(int64), args.Error(2)
}

type MockUnmatchedPublisher struct {
	mock.Mock
}

func (m *MockUnmatchedPublisher) PublishUnmatched(ctx context.Context, n model.C2BNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

// sequenceGenerator replays a fixed list of references.
type sequenceGenerator struct {
	refs []string
	next int
}

func (g *sequenceGenerator) Generate() (string, error) {
	ref := g.refs[g.next%len(g.refs)]
	g.next++
	return ref, nil
}
