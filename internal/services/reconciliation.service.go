package services

import (
	"context"
	"errors"
	"time"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/nimasrn/hire-gateway/pkg/logger"
	"github.com/nimasrn/hire-gateway/pkg/prom"
)

// UnmatchedPublisher hands notifications for unknown references to the
// out-of-band pipeline.
type UnmatchedPublisher interface {
	PublishUnmatched(ctx context.Context, n model.C2BNotification) error
}

// errReceiptSeen short-circuits the payment transaction when the re-check
// under the hire lock finds the receipt already recorded.
var errReceiptSeen = errors.New("receipt already recorded")

type ReconciliationService struct {
	tx        Transactor
	hires     HireRepository
	payments  PaymentRepository
	lifecycle *LifecycleService
	unmatched UnmatchedPublisher
	now       func() time.Time
}

func NewReconciliationService(tx Transactor, hires HireRepository, payments PaymentRepository, lifecycle *LifecycleService, unmatched UnmatchedPublisher) *ReconciliationService {
	return &ReconciliationService{
		tx:        tx,
		hires:     hires,
		payments:  payments,
		lifecycle: lifecycle,
		unmatched: unmatched,
		now:       time.Now,
	}
}

// Reconcile applies one C2B notification. It never returns an error: every
// failure is reported through the result outcome, and redelivery of an
// already recorded receipt is accepted as a duplicate without side effects.
func (s *ReconciliationService) Reconcile(ctx context.Context, n model.C2BNotification) model.ReconciliationResult {
	start := time.Now()
	res := s.reconcile(ctx, &n)
	prom.RecordReconciliation(string(res.Outcome), time.Since(start).Seconds())

	logger.Info("c2b notification reconciled",
		"trans_id", n.TransactionID,
		"bill_ref", n.BillingReference,
		"outcome", res.Outcome,
	)
	return res
}

func (s *ReconciliationService) reconcile(ctx context.Context, n *model.C2BNotification) model.ReconciliationResult {
	switch n.Validate() {
	case model.MissingReference:
		return model.Rejected(model.OutcomeMissingReference)
	case model.MalformedInput:
		return model.Rejected(model.OutcomeMalformedInput)
	}

	hire, err := s.hires.GetByReference(ctx, n.BillingReference)
	if err != nil {
		if errors.Is(err, model.ErrHireNotFound) {
			s.publishUnmatched(ctx, *n)
			return model.Rejected(model.OutcomeUnknownReference)
		}
		logger.Error("lookup hire by reference", "bill_ref", n.BillingReference, "error", err)
		return model.Rejected(model.OutcomeInternalError)
	}

	seen, err := s.payments.ExistsByReceipt(ctx, n.TransactionID)
	if err != nil {
		logger.Error("check receipt", "trans_id", n.TransactionID, "error", err)
		return model.Rejected(model.OutcomeInternalError)
	}
	if seen {
		return model.ReconciliationResult{Outcome: model.OutcomeDuplicate, Hire: hire}
	}

	var payment *model.Payment
	var updated *model.Hire
	current := hire
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := s.hires.LockByID(ctx, hire.ID)
		if err != nil {
			return err
		}
		current = locked

		seen, err := s.payments.ExistsByReceipt(ctx, n.TransactionID)
		if err != nil {
			return err
		}
		if seen {
			return errReceiptSeen
		}

		paidAt := s.now().UTC()
		receipt := n.TransactionID
		payment, err = s.payments.Create(ctx, &model.Payment{
			HireID:        locked.ID,
			Amount:        n.Amount,
			Phone:         n.PayerPhone,
			MpesaReceipt:  &receipt,
			Status:        model.PaymentStatusSuccess,
			PaidAt:        &paidAt,
			HireReference: locked.Reference,
		})
		if err != nil {
			return err
		}

		updated, err = s.lifecycle.SetStatus(ctx, locked.ID, model.HireStatusPaid)
		return err
	})

	switch {
	case err == nil:
		return model.ReconciliationResult{Outcome: model.OutcomeCreated, Payment: payment, Hire: updated}
	case errors.Is(err, errReceiptSeen), errors.Is(err, model.ErrDuplicateReceipt):
		return model.ReconciliationResult{Outcome: model.OutcomeDuplicate, Hire: current}
	default:
		logger.Error("record payment", "trans_id", n.TransactionID, "hire_id", hire.ID, "error", err)
		return model.Rejected(model.OutcomeInternalError)
	}
}

func (s *ReconciliationService) publishUnmatched(ctx context.Context, n model.C2BNotification) {
	if s.unmatched == nil {
		return
	}
	if err := s.unmatched.PublishUnmatched(ctx, n); err != nil {
		logger.Warn("publish unmatched notification", "trans_id", n.TransactionID, "error", err)
	}
}
