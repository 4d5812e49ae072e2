package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestOverdueService_Sweep(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	late := f.activeHire(t, now.Add(time.Minute))
	paid := f.activeHire(t, now.Add(time.Minute))
	onTime := f.activeHire(t, now.Add(48*time.Hour))

	_, err := f.lifecycle.SetStatus(ctx, paid.ID, model.HireStatusPaid)
	require.NoError(t, err)

	later := now.Add(time.Hour)
	swept, err := f.overdue.Sweep(ctx, later)
	require.NoError(t, err)
	assert.Equal(t, 1, swept)

	assert.Equal(t, model.HireStatusOverdue, f.hireStatus(t, late.ID))
	assert.Equal(t, model.AssetStatusRepossessed, f.assetStatus(t, late.AssetID))
	assert.Equal(t, model.HireStatusPaid, f.hireStatus(t, paid.ID))
	assert.Equal(t, model.AssetStatusAssigned, f.assetStatus(t, paid.AssetID))
	assert.Equal(t, model.HireStatusActive, f.hireStatus(t, onTime.ID))

	swept, err = f.overdue.Sweep(ctx, later)
	require.NoError(t, err)
	assert.Zero(t, swept)
}

func TestOverdueService_Sweep_SkipsHireChangedSinceListing(t *testing.T) {
	tx := new(MockTransactor)
	hires := new(MockHireRepository)
	assets := new(MockAssetRepository)
	svc := NewOverdueService(tx, hires, NewLifecycleService(tx, hires, assets))
	ctx := context.Background()
	now := time.Now().UTC()

	hires.On("ListOverdueIDs", ctx, now).Return([]int64{1, 2}, nil)
	hires.On("LockByID", ctx, int64(1)).Return(&model.Hire{ID: 1, AssetID: 10, Status: model.HireStatusPaid, DueAt: now.Add(-time.Hour)}, nil)
	hires.On("LockByID", ctx, int64(2)).Return(nil, errors.New("lock timeout"))
	tx.On("WithinTransaction", ctx, mock.Anything).Return(nil)

	swept, err := svc.Sweep(ctx, now)
	assert.Error(t, err)
	assert.Zero(t, swept)
	hires.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	assets.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}
