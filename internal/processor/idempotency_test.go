package processor

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nimasrn/hire-gateway/pkg/redis"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr := miniredis.RunT(t)
	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	return mr, adapter
}

func newTestIdempotency(t *testing.T) (*miniredis.Miniredis, *IdempotencyService) {
	mr, adapter := setupTestRedis(t)
	cfg := DefaultIdempotencyConfig()
	cfg.MaxRetries = 3
	return mr, NewIdempotencyService(adapter, cfg)
}

func TestIdempotencyService_AcquireProcessingLock_FirstAttempt(t *testing.T) {
	mr, svc := newTestIdempotency(t)
	ctx := context.Background()

	pc, err := svc.AcquireProcessingLock(ctx, "RKT1")
	require.NoError(t, err)
	assert.Equal(t, "RKT1", pc.Key)
	assert.Zero(t, pc.RetryCount)
	assert.False(t, pc.IsRetry)
	assert.True(t, mr.Exists("unmatched:lock:RKT1"))
	assert.Equal(t, 30*time.Second, mr.TTL("unmatched:lock:RKT1"))
}

func TestIdempotencyService_AcquireProcessingLock_Concurrent(t *testing.T) {
	_, svc := newTestIdempotency(t)
	ctx := context.Background()

	var won atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AcquireProcessingLock(ctx, "RKT2"); err == nil {
				won.Add(1)
			} else {
				assert.ErrorIs(t, err, ErrLockAcquireFailed)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), won.Load())
}

func TestIdempotencyService_MarkSuccess(t *testing.T) {
	mr, svc := newTestIdempotency(t)
	ctx := context.Background()

	pc, err := svc.AcquireProcessingLock(ctx, "RKT3")
	require.NoError(t, err)
	require.NoError(t, svc.MarkFailure(ctx, pc, assert.AnError))

	pc, err = svc.AcquireProcessingLock(ctx, "RKT3")
	require.NoError(t, err)
	assert.True(t, pc.IsRetry)
	require.NoError(t, svc.MarkSuccess(ctx, pc))

	assert.False(t, mr.Exists("unmatched:lock:RKT3"))
	assert.False(t, mr.Exists("unmatched:retry:RKT3"))

	processed, err := svc.IsProcessed(ctx, "RKT3")
	require.NoError(t, err)
	assert.True(t, processed)

	_, err = svc.AcquireProcessingLock(ctx, "RKT3")
	assert.ErrorIs(t, err, ErrAlreadyProcessed)
}

func TestIdempotencyService_MarkFailure_WithRetry(t *testing.T) {
	mr, svc := newTestIdempotency(t)
	ctx := context.Background()

	pc, err := svc.AcquireProcessingLock(ctx, "RKT4")
	require.NoError(t, err)
	require.NoError(t, svc.MarkFailure(ctx, pc, assert.AnError))

	assert.False(t, mr.Exists("unmatched:lock:RKT4"))
	count, err := svc.GetRetryCount(ctx, "RKT4")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	pc, err = svc.AcquireProcessingLock(ctx, "RKT4")
	require.NoError(t, err)
	assert.Equal(t, 1, pc.RetryCount)
	assert.True(t, pc.IsRetry)
}

func TestIdempotencyService_MaxRetriesExceeded(t *testing.T) {
	_, svc := newTestIdempotency(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		pc, err := svc.AcquireProcessingLock(ctx, "RKT5")
		require.NoError(t, err)
		require.NoError(t, svc.MarkFailure(ctx, pc, assert.AnError))
	}

	_, err := svc.AcquireProcessingLock(ctx, "RKT5")
	assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
}

func TestIdempotencyService_ReleaseLock(t *testing.T) {
	mr, svc := newTestIdempotency(t)
	ctx := context.Background()

	pc, err := svc.AcquireProcessingLock(ctx, "RKT6")
	require.NoError(t, err)
	require.NoError(t, svc.ReleaseLock(ctx, pc))
	assert.False(t, mr.Exists("unmatched:lock:RKT6"))

	// second release and nil context are no-ops
	assert.NoError(t, svc.ReleaseLock(ctx, pc))
	assert.NoError(t, svc.ReleaseLock(ctx, nil))

	_, err = svc.AcquireProcessingLock(ctx, "RKT6")
	assert.NoError(t, err)
}

func TestIdempotencyService_GetRetryCount(t *testing.T) {
	mr, svc := newTestIdempotency(t)
	ctx := context.Background()

	count, err := svc.GetRetryCount(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, mr.Set("unmatched:retry:bad", "x"))
	_, err = svc.GetRetryCount(ctx, "bad")
	assert.Error(t, err)
}

func TestIdempotencyService_LockExpires(t *testing.T) {
	mr, svc := newTestIdempotency(t)
	ctx := context.Background()

	_, err := svc.AcquireProcessingLock(ctx, "RKT7")
	require.NoError(t, err)

	mr.FastForward(31 * time.Second)

	_, err = svc.AcquireProcessingLock(ctx, "RKT7")
	assert.NoError(t, err)
}
