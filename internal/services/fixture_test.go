package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/nimasrn/hire-gateway/internal/repository"
	"github.com/nimasrn/hire-gateway/pkg/pg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// fixture wires every service against one in-memory database.
type fixture struct {
	db        *pg.DB
	persons   *repository.PersonRepository
	assets    *repository.AssetRepository
	hires     *repository.HireRepository
	payments  *repository.PaymentRepository
	lifecycle *LifecycleService
	hire      *HireService
	registry  *RegistryService
	recon     *ReconciliationService
	overdue   *OverdueService
	publisher *MockUnmatchedPublisher
	seq       int
}

func newFixture(t *testing.T) *fixture {
	return newFixtureWithRefs(t, nil)
}

func newFixtureWithRefs(t *testing.T, refs ReferenceGenerator) *fixture {
	db := repository.SetupTestDB(t)
	f := &fixture{
		db:        db,
		persons:   repository.NewPersonRepository(db),
		assets:    repository.NewAssetRepository(db),
		hires:     repository.NewHireRepository(db),
		payments:  repository.NewPaymentRepository(db),
		publisher: new(MockUnmatchedPublisher),
	}
	f.lifecycle = NewLifecycleService(db, f.hires, f.assets)
	f.hire = NewHireService(db, f.hires, f.assets, f.persons, f.payments, f.lifecycle, refs)
	f.registry = NewRegistryService(f.persons, f.assets)
	f.recon = NewReconciliationService(db, f.hires, f.payments, f.lifecycle, f.publisher)
	f.overdue = NewOverdueService(db, f.hires, f.lifecycle)
	return f
}

func (f *fixture) person(t *testing.T) *model.Person {
	t.Helper()
	f.seq++
	p, err := f.registry.CreatePerson(context.Background(), model.PersonCreateRequest{
		FullName:   fmt.Sprintf("Hirer %d", f.seq),
		NationalID: fmt.Sprintf("NID%05d", f.seq),
		Phone:      "254712345678",
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) asset(t *testing.T) *model.Asset {
	t.Helper()
	f.seq++
	a, err := f.registry.CreateAsset(context.Background(), model.AssetCreateRequest{
		Name:               "Motorbike",
		Brand:              "Honda",
		RegistrationNumber: fmt.Sprintf("kmf%03dq", f.seq),
	})
	require.NoError(t, err)
	return a
}

func (f *fixture) activeHire(t *testing.T, dueAt time.Time) *model.Hire {
	t.Helper()
	h, err := f.hire.CreateHire(context.Background(), model.HireCreateRequest{
		PersonID:  f.person(t).ID,
		AssetID:   f.asset(t).ID,
		DueAt:     dueAt,
		DailyRate: decimal.RequireFromString("450.00"),
	})
	require.NoError(t, err)
	return h
}

func (f *fixture) assetStatus(t *testing.T, id int64) model.AssetStatus {
	t.Helper()
	a, err := f.assets.GetByID(context.Background(), id)
	require.NoError(t, err)
	return a.Status
}

func (f *fixture) hireStatus(t *testing.T, id int64) model.HireStatus {
	t.Helper()
	h, err := f.hires.GetByID(context.Background(), id)
	require.NoError(t, err)
	return h.Status
}

func (f *fixture) paymentCount(t *testing.T, hireID int64) int64 {
	t.Helper()
	_, total, err := f.payments.List(context.Background(), model.PaymentFilter{HireID: &hireID})
	require.NoError(t, err)
	return total
}

func nextWeek() time.Time {
	return time.Now().UTC().Add(7 * 24 * time.Hour).Truncate(time.Second)
}
