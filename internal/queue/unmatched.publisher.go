package queue

import (
	"context"

	"github.com/nimasrn/hire-gateway/internal/model"
)

const (
	MetaTransactionID = "trans_id"
	MetaReason        = "reason"
)

// UnmatchedPublisher pushes notifications whose reference matched no hire
// onto the unmatched stream for the processor to record.
type UnmatchedPublisher struct {
	queue *Queue
}

func NewUnmatchedPublisher(q *Queue) *UnmatchedPublisher {
	return &UnmatchedPublisher{queue: q}
}

func (p *UnmatchedPublisher) PublishUnmatched(ctx context.Context, n model.C2BNotification) error {
	_, err := p.queue.PublishJSON(ctx, n, map[string]string{
		MetaTransactionID: n.TransactionID,
		MetaReason:        string(model.OutcomeUnknownReference),
	})
	return err
}
