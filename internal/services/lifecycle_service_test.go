package services

import (
	"context"
	"errors"
	"testing"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/nimasrn/hire-gateway/pkg/prom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestLifecycleService_SetStatus_Projection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		status model.HireStatus
		asset  model.AssetStatus
	}{
		{model.HireStatusOverdue, model.AssetStatusRepossessed},
		{model.HireStatusPaid, model.AssetStatusAssigned},
		{model.HireStatusRepossessed, model.AssetStatusRepossessed},
		{model.HireStatusActive, model.AssetStatusAssigned},
		{model.HireStatusActive, model.AssetStatusAssigned},
	}

	h := f.activeHire(t, nextWeek())
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			got, err := f.lifecycle.SetStatus(ctx, h.ID, tc.status)
			require.NoError(t, err)
			assert.Equal(t, tc.status, got.Status)
			assert.Equal(t, tc.status, f.hireStatus(t, h.ID))
			assert.Equal(t, tc.asset, f.assetStatus(t, h.AssetID))
		})
	}
}

func TestLifecycleService_SetStatus_OverdueRepossessesFromAnyAssetState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	h := f.activeHire(t, nextWeek())
	for _, prior := range []model.AssetStatus{model.AssetStatusAvailable, model.AssetStatusAssigned, model.AssetStatusRepossessed} {
		require.NoError(t, f.assets.UpdateStatus(ctx, h.AssetID, prior))

		_, err := f.lifecycle.SetStatus(ctx, h.ID, model.HireStatusOverdue)
		require.NoError(t, err)
		assert.Equal(t, model.AssetStatusRepossessed, f.assetStatus(t, h.AssetID), "prior %s", prior)
	}
}

func TestLifecycleService_SetStatus_InvalidStatus(t *testing.T) {
	tx := new(MockTransactor)
	hires := new(MockHireRepository)
	assets := new(MockAssetRepository)
	svc := NewLifecycleService(tx, hires, assets)

	_, err := svc.SetStatus(context.Background(), 1, model.HireStatus("returned"))
	assert.ErrorIs(t, err, model.ErrInvalidStatus)
	assert.ErrorIs(t, err, model.ErrValidation)

	tx.AssertNotCalled(t, "WithinTransaction", mock.Anything, mock.Anything)
	hires.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	assets.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestLifecycleService_SetStatus_AssetWriteFailureRollsBack(t *testing.T) {
	tx := new(MockTransactor)
	hires := new(MockHireRepository)
	assets := new(MockAssetRepository)
	svc := NewLifecycleService(tx, hires, assets)
	ctx := context.Background()

	boom := errors.New("boom")
	tx.On("WithinTransaction", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	hires.On("LockByID", ctx, int64(7)).Return(&model.Hire{ID: 7, AssetID: 3, Status: model.HireStatusActive}, nil)
	hires.On("UpdateStatus", ctx, int64(7), model.HireStatusOverdue).Return(nil)
	assets.On("UpdateStatus", ctx, int64(3), model.AssetStatusRepossessed).Return(boom)

	_, err := svc.SetStatus(ctx, 7, model.HireStatusOverdue)
	assert.ErrorIs(t, err, boom)

	hires.AssertExpectations(t)
	assets.AssertExpectations(t)
}

func TestLifecycleService_SetStatus_UnknownHire(t *testing.T) {
	f := newFixture(t)

	_, err := f.lifecycle.SetStatus(context.Background(), 404, model.HireStatusPaid)
	assert.ErrorIs(t, err, model.ErrHireNotFound)
}

// transitions reads hire_transitions_total for one status, 0 before the
// first sample.
func transitions(t *testing.T, status string) float64 {
	t.Helper()
	families, err := prom.Gatherer().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != "lifecycle_hire_transitions_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "status" && l.GetValue() == status {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestLifecycleService_TransitionMetricWaitsForCommit(t *testing.T) {
	require.NoError(t, prom.Create("test", "test", "lifecycle"))
	f := newFixture(t)
	ctx := context.Background()

	h := f.activeHire(t, nextWeek())
	before := transitions(t, "paid")

	err := f.db.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := f.lifecycle.SetStatus(ctx, h.ID, model.HireStatusPaid)
		require.NoError(t, err)
		assert.Equal(t, before, transitions(t, "paid"))
		return errors.New("payment insert failed")
	})
	require.Error(t, err)
	assert.Equal(t, before, transitions(t, "paid"))
	assert.Equal(t, model.HireStatusActive, f.hireStatus(t, h.ID))

	_, err = f.lifecycle.SetStatus(ctx, h.ID, model.HireStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, before+1, transitions(t, "paid"))
}
