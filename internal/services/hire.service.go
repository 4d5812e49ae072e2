package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/nimasrn/hire-gateway/pkg/logger"
)

// maxReferenceAttempts bounds how many fresh references CreateHire tries
// before giving up on a collision streak.
const maxReferenceAttempts = 5

type HireService struct {
	tx        Transactor
	hires     HireRepository
	assets    AssetRepository
	persons   PersonRepository
	payments  PaymentRepository
	lifecycle *LifecycleService
	refs      ReferenceGenerator
	now       func() time.Time
}

func NewHireService(tx Transactor, hires HireRepository, assets AssetRepository, persons PersonRepository, payments PaymentRepository, lifecycle *LifecycleService, refs ReferenceGenerator) *HireService {
	if refs == nil {
		refs = RandomReferenceGenerator{}
	}
	return &HireService{
		tx:        tx,
		hires:     hires,
		assets:    assets,
		persons:   persons,
		payments:  payments,
		lifecycle: lifecycle,
		refs:      refs,
		now:       time.Now,
	}
}

// CreateHire opens an active hire on an asset that is not currently
// assigned. The asset row stays locked until the hire is committed, so two
// concurrent requests for one asset cannot both succeed.
func (s *HireService) CreateHire(ctx context.Context, req model.HireCreateRequest) (*model.Hire, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hireDate := s.now().UTC().Truncate(24 * time.Hour)
	if req.HireDate != nil {
		hireDate = req.HireDate.UTC()
	}
	if req.DueAt.Before(hireDate) {
		return nil, fmt.Errorf("%w: due_at is before hire_date", model.ErrValidation)
	}

	var created *model.Hire
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.persons.GetByID(ctx, req.PersonID); err != nil {
			return err
		}

		asset, err := s.assets.LockByID(ctx, req.AssetID)
		if err != nil {
			return err
		}
		if asset.Status == model.AssetStatusAssigned {
			return model.ErrAssetAssigned
		}

		hire := &model.Hire{
			PersonID:  req.PersonID,
			AssetID:   req.AssetID,
			HireDate:  hireDate,
			DueAt:     req.DueAt.UTC(),
			DailyRate: req.DailyRate,
			Status:    model.HireStatusActive,
		}
		if created, err = s.insertWithReference(ctx, hire); err != nil {
			return err
		}

		created, err = s.lifecycle.SetStatus(ctx, created.ID, model.HireStatusActive)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info("hire created", "hire_id", created.ID, "reference", created.Reference, "asset_id", created.AssetID)
	return created, nil
}

func (s *HireService) insertWithReference(ctx context.Context, hire *model.Hire) (*model.Hire, error) {
	for attempt := 1; attempt <= maxReferenceAttempts; attempt++ {
		ref, err := s.refs.Generate()
		if err != nil {
			return nil, err
		}
		hire.Reference = ref

		created, err := s.hires.Create(ctx, hire)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, model.ErrDuplicateReference) {
			return nil, err
		}
		logger.Warn("hire reference collision", "attempt", attempt)
	}
	return nil, fmt.Errorf("%w: no free reference after %d attempts", model.ErrDuplicateReference, maxReferenceAttempts)
}

func (s *HireService) UpdateTerms(ctx context.Context, id int64, u model.HireTermsUpdate) (*model.Hire, error) {
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if u.DueAt != nil {
		due := u.DueAt.UTC()
		u.DueAt = &due

		h, err := s.hires.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if due.Before(h.HireDate) {
			return nil, fmt.Errorf("%w: due_at is before hire_date", model.ErrValidation)
		}
	}
	if err := s.hires.UpdateTerms(ctx, id, u); err != nil {
		return nil, err
	}
	return s.hires.GetByID(ctx, id)
}

// SetStatus is the staff entry point for manual transitions.
func (s *HireService) SetStatus(ctx context.Context, id int64, status string) (*model.Hire, error) {
	st, err := model.ParseHireStatus(strings.ToLower(strings.TrimSpace(status)))
	if err != nil {
		return nil, err
	}
	return s.lifecycle.SetStatus(ctx, id, st)
}

func (s *HireService) GetHire(ctx context.Context, id int64) (*model.Hire, error) {
	return s.hires.GetByID(ctx, id)
}

func (s *HireService) GetHireByReference(ctx context.Context, reference string) (*model.Hire, error) {
	return s.hires.GetByReference(ctx, strings.ToUpper(strings.TrimSpace(reference)))
}

func (s *HireService) ListHires(ctx context.Context, f model.HireFilter) ([]*model.Hire, int64, error) {
	for _, st := range f.Statuses {
		if !st.Valid() {
			return nil, 0, fmt.Errorf("%w: %q", model.ErrInvalidStatus, string(st))
		}
	}
	return s.hires.List(ctx, f)
}

func (s *HireService) ListPayments(ctx context.Context, hireID int64, limit, offset int) ([]*model.Payment, int64, error) {
	if _, err := s.hires.GetByID(ctx, hireID); err != nil {
		return nil, 0, err
	}
	return s.payments.List(ctx, model.PaymentFilter{HireID: &hireID, Limit: limit, Offset: offset})
}

// SearchPayments lists payments across hires. A hire reference filter is
// normalised the same way callback references are.
func (s *HireService) SearchPayments(ctx context.Context, f model.PaymentFilter) ([]*model.Payment, int64, error) {
	for _, st := range f.Statuses {
		if !st.Valid() {
			return nil, 0, fmt.Errorf("%w: payment status %q", model.ErrValidation, string(st))
		}
	}
	if f.HireReference != nil {
		ref := strings.ToUpper(strings.TrimSpace(*f.HireReference))
		f.HireReference = &ref
	}
	return s.payments.List(ctx, f)
}

// DeleteHire removes a hire that has no payments. The asset keeps whatever
// status the hire last projected onto it.
func (s *HireService) DeleteHire(ctx context.Context, id int64) error {
	if err := s.hires.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("hire deleted", "hire_id", id)
	return nil
}
