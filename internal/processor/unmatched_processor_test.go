package processor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nimasrn/hire-gateway/internal/model"
	"github.com/nimasrn/hire-gateway/internal/queue"
	"github.com/nimasrn/hire-gateway/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingRepo struct {
	calls int
}

func (r *failingRepo) Save(ctx context.Context, n *model.UnmatchedNotification) (bool, error) {
	r.calls++
	return false, errors.New("db down")
}

func unmatchedMessage(t *testing.T, n model.C2BNotification) *queue.Message {
	t.Helper()
	raw, err := json.Marshal(n)
	require.NoError(t, err)
	return &queue.Message{
		ID:        "1-0",
		Data:      raw,
		Metadata:  map[string]string{queue.MetaReason: "unknown_reference"},
		Timestamp: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func sampleNotification() model.C2BNotification {
	return model.C2BNotification{
		TransactionID:    "RKT9ABC",
		PayerPhone:       "254711000111",
		Amount:           decimal.RequireFromString("320.50"),
		BillingReference: "NOSUCHREF123",
	}
}

func TestUnmatchedProcessor_Process(t *testing.T) {
	_, adapter := setupTestRedis(t)
	repo := repository.NewUnmatchedRepository(repository.SetupTestDB(t))
	p := NewUnmatchedProcessor(repo, NewIdempotencyService(adapter, DefaultIdempotencyConfig()))
	ctx := context.Background()

	msg := unmatchedMessage(t, sampleNotification())
	require.NoError(t, p.Process(ctx, msg))

	// redelivery is absorbed
	require.NoError(t, p.Process(ctx, msg))

	rows, total, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	assert.Equal(t, "RKT9ABC", rows[0].TransactionID)
	assert.Equal(t, "NOSUCHREF123", rows[0].BillReference)
	assert.Equal(t, "unknown_reference", rows[0].Reason)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("320.50")))
	assert.True(t, rows[0].ReceivedAt.Equal(msg.Timestamp))
}

func TestUnmatchedProcessor_StoreDeduplicatesWithoutMarker(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	repo := repository.NewUnmatchedRepository(repository.SetupTestDB(t))
	p := NewUnmatchedProcessor(repo, NewIdempotencyService(adapter, DefaultIdempotencyConfig()))
	ctx := context.Background()

	msg := unmatchedMessage(t, sampleNotification())
	require.NoError(t, p.Process(ctx, msg))

	mr.FlushAll()
	require.NoError(t, p.Process(ctx, msg))

	_, total, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestUnmatchedProcessor_MalformedPayload(t *testing.T) {
	_, adapter := setupTestRedis(t)
	repo := &failingRepo{}
	p := NewUnmatchedProcessor(repo, NewIdempotencyService(adapter, DefaultIdempotencyConfig()))

	err := p.Process(context.Background(), &queue.Message{ID: "1-0", Data: []byte("{not json")})
	assert.Error(t, err)
	assert.Zero(t, repo.calls)
}

func TestUnmatchedProcessor_StoreFailure(t *testing.T) {
	_, adapter := setupTestRedis(t)
	cfg := DefaultIdempotencyConfig()
	cfg.MaxRetries = 2
	idem := NewIdempotencyService(adapter, cfg)
	repo := &failingRepo{}
	p := NewUnmatchedProcessor(repo, idem)
	ctx := context.Background()

	msg := unmatchedMessage(t, sampleNotification())
	assert.Error(t, p.Process(ctx, msg))
	assert.Error(t, p.Process(ctx, msg))

	count, err := idem.GetRetryCount(ctx, "RKT9ABC")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// retries exhausted: acked without touching the store
	assert.NoError(t, p.Process(ctx, msg))
	assert.Equal(t, 2, repo.calls)
}

func TestUnmatchedProcessor_LockHeld(t *testing.T) {
	_, adapter := setupTestRedis(t)
	idem := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	p := NewUnmatchedProcessor(&failingRepo{}, idem)
	ctx := context.Background()

	_, err := idem.AcquireProcessingLock(ctx, "RKT9ABC")
	require.NoError(t, err)

	err = p.Process(ctx, unmatchedMessage(t, sampleNotification()))
	assert.ErrorIs(t, err, errLockHeld)
}
