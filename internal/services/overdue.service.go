package services

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/nimasrn/hire-gateway/pkg/logger"
	"github.com/nimasrn/hire-gateway/pkg/prom"
)

type OverdueService struct {
	tx        Transactor
	hires     HireRepository
	lifecycle *LifecycleService
}

func NewOverdueService(tx Transactor, hires HireRepository, lifecycle *LifecycleService) *OverdueService {
	return &OverdueService{
		tx:        tx,
		hires:     hires,
		lifecycle: lifecycle,
	}
}

// Sweep moves every active hire due before now to overdue and returns how
// many were moved. A hire whose status changed between listing and locking
// is skipped.
func (s *OverdueService) Sweep(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.hires.ListOverdueIDs(ctx, now)
	if err != nil {
		return 0, err
	}

	var swept int
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		moved, err := s.markOverdue(ctx, id, now)
		if err != nil {
			logger.Error("mark hire overdue", "hire_id", id, "error", err)
			errs = append(errs, err)
			continue
		}
		if moved {
			swept++
		}
	}

	prom.AddOverdueSwept(swept)
	if swept > 0 {
		logger.Info("overdue sweep finished", "swept", swept, "candidates", len(ids))
	}
	return swept, errors.Join(errs...)
}

func (s *OverdueService) markOverdue(ctx context.Context, id int64, now time.Time) (bool, error) {
	var moved bool
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		h, err := s.hires.LockByID(ctx, id)
		if err != nil {
			return err
		}
		if h.Status != model.HireStatusActive || !h.DueAt.Before(now) {
			return nil
		}
		if _, err := s.lifecycle.SetStatus(ctx, id, model.HireStatusOverdue); err != nil {
			return err
		}
		moved = true
		return nil
	})
	return moved, err
}
