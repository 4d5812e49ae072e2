package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/nimasrn/hire-gateway/internal/queue"
	"github.com/nimasrn/hire-gateway/pkg/logger"
	"github.com/nimasrn/hire-gateway/pkg/prom"
)

var errLockHeld = errors.New("lock held by another consumer")

type UnmatchedRepository interface {
	Save(ctx context.Context, n *model.UnmatchedNotification) (bool, error)
}

// UnmatchedProcessor records notifications that referenced no hire so an
// operator can reconcile them by hand.
type UnmatchedProcessor struct {
	repo        UnmatchedRepository
	idempotency *IdempotencyService
}

func NewUnmatchedProcessor(repo UnmatchedRepository, idempotency *IdempotencyService) *UnmatchedProcessor {
	return &UnmatchedProcessor{
		repo:        repo,
		idempotency: idempotency,
	}
}

func (p *UnmatchedProcessor) GetType() string {
	return "unmatched"
}

func (p *UnmatchedProcessor) Process(ctx context.Context, msg *queue.Message) error {
	var n model.C2BNotification
	if err := json.Unmarshal(msg.Data, &n); err != nil {
		// left pending until it is dead-lettered
		return fmt.Errorf("decode unmatched notification %s: %w", msg.ID, err)
	}
	if n.TransactionID == "" {
		logger.Warn("unmatched notification without transaction id dropped", "id", msg.ID)
		return nil
	}

	pc, err := p.idempotency.AcquireProcessingLock(ctx, n.TransactionID)
	switch {
	case errors.Is(err, ErrAlreadyProcessed):
		return nil
	case errors.Is(err, ErrMaxRetriesExceeded):
		logger.Error("giving up on unmatched notification", "trans_id", n.TransactionID)
		return nil
	case errors.Is(err, ErrLockAcquireFailed):
		return errLockHeld
	case err != nil:
		return err
	}
	defer func() {
		_ = p.idempotency.ReleaseLock(ctx, pc)
	}()

	reason := msg.Metadata[queue.MetaReason]
	if reason == "" {
		reason = string(model.OutcomeUnknownReference)
	}

	inserted, err := p.repo.Save(ctx, &model.UnmatchedNotification{
		TransactionID: n.TransactionID,
		PayerPhone:    n.PayerPhone,
		Amount:        n.Amount,
		BillReference: n.BillingReference,
		Reason:        reason,
		ReceivedAt:    msg.Timestamp.UTC(),
	})
	if err != nil {
		if markErr := p.idempotency.MarkFailure(ctx, pc, err); markErr != nil {
			logger.Error("mark failure", "trans_id", n.TransactionID, "error", markErr)
		}
		return fmt.Errorf("save unmatched notification %s: %w", n.TransactionID, err)
	}

	if inserted {
		prom.IncUnmatchedStored()
		logger.Info("unmatched notification stored",
			"trans_id", n.TransactionID,
			"bill_ref", n.BillingReference,
			"amount", n.Amount.String())
	}

	if err := p.idempotency.MarkSuccess(ctx, pc); err != nil {
		logger.Error("mark success", "trans_id", n.TransactionID, "error", err)
	}
	return nil
}
