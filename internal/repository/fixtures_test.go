package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/nimasrn/hire-gateway/pkg/pg"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var seq int

func createPerson(t *testing.T, db *pg.DB) *model.Person {
	t.Helper()
	seq++
	p, err := NewPersonRepository(db).Create(context.Background(), &model.Person{
		FullName:   fmt.Sprintf("Person %d", seq),
		NationalID: fmt.Sprintf("ID%06d", seq),
		Phone:      "254700000000",
	})
	require.NoError(t, err)
	return p
}

func createAsset(t *testing.T, db *pg.DB) *model.Asset {
	t.Helper()
	seq++
	a, err := NewAssetRepository(db).Create(context.Background(), &model.Asset{
		Name:               "Motorbike",
		Brand:              "Boxer",
		RegistrationNumber: fmt.Sprintf("KMA%03dX", seq),
	})
	require.NoError(t, err)
	return a
}

func createHire(t *testing.T, db *pg.DB, reference string, dueAt time.Time) *model.Hire {
	t.Helper()
	person := createPerson(t, db)
	asset := createAsset(t, db)
	h, err := NewHireRepository(db).Create(context.Background(), &model.Hire{
		PersonID:  person.ID,
		AssetID:   asset.ID,
		HireDate:  time.Now().UTC().Truncate(24 * time.Hour),
		DueAt:     dueAt,
		DailyRate: decimal.RequireFromString("350.00"),
		Status:    model.HireStatusActive,
		Reference: reference,
	})
	require.NoError(t, err)
	return h
}

// setupFailingDeletes returns a database whose deletes fail with err, the way
// the driver reports a constraint tripped by a concurrent writer.
func setupFailingDeletes(t *testing.T, err error) *pg.DB {
	t.Helper()
	gdb := setupTestGorm(t)
	require.NoError(t, gdb.Callback().Delete().Before("gorm:delete").Register("test:fail_delete", func(tx *gorm.DB) {
		_ = tx.AddError(err)
	}))
	return pg.New(gdb, gdb)
}
