package services

import (
	"context"
	"fmt"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/nimasrn/hire-gateway/pkg/logger"
	"github.com/nimasrn/hire-gateway/pkg/pg"
	"github.com/nimasrn/hire-gateway/pkg/prom"
)

// LifecycleService is the only writer of Hire.status and Asset.status.
type LifecycleService struct {
	tx     Transactor
	hires  HireRepository
	assets AssetRepository
}

func NewLifecycleService(tx Transactor, hires HireRepository, assets AssetRepository) *LifecycleService {
	return &LifecycleService{
		tx:     tx,
		hires:  hires,
		assets: assets,
	}
}

// SetStatus moves the hire to status and writes the projected asset status
// in the same transaction. When ctx already carries a transaction the
// changes commit or roll back with it. Re-applying the current status is
// allowed and re-applies the projection.
func (s *LifecycleService) SetStatus(ctx context.Context, hireID int64, status model.HireStatus) (*model.Hire, error) {
	projected, err := status.AssetStatus()
	if err != nil {
		return nil, err
	}

	var hire *model.Hire
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		h, err := s.hires.LockByID(ctx, hireID)
		if err != nil {
			return err
		}
		if err := s.hires.UpdateStatus(ctx, h.ID, status); err != nil {
			return fmt.Errorf("update hire status: %w", err)
		}
		if err := s.assets.UpdateStatus(ctx, h.AssetID, projected); err != nil {
			return fmt.Errorf("update asset status: %w", err)
		}
		h.Status = status
		hire = h
		return nil
	})
	if err != nil {
		return nil, err
	}

	pg.AfterCommit(ctx, func() { prom.RecordHireTransition(string(status)) })
	logger.Debug("hire status set", "hire_id", hire.ID, "status", status, "asset_id", hire.AssetID, "asset_status", projected)
	return hire, nil
}
