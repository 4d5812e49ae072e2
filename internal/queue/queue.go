package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nimasrn/hire-gateway/pkg/logger"
	"github.com/nimasrn/hire-gateway/pkg/prom"
	"github.com/nimasrn/hire-gateway/pkg/redis"
)

var (
	ErrAlreadyAcked = errors.New("message already acknowledged")
	ErrNoHandler    = errors.New("message handler is required")
)

const metaPrefix = "meta_"

// Message is one stream entry handed to a consumer.
type Message struct {
	ID        string
	Data      []byte
	Metadata  map[string]string
	Timestamp time.Time
	Attempts  int
	acked     bool
	queue     *Queue
}

// Ack removes the message from the consumer group's pending list.
func (m *Message) Ack(ctx context.Context) error {
	if m.acked {
		return ErrAlreadyAcked
	}
	m.acked = true
	return m.queue.ack(ctx, m.ID)
}

// MessageHandler processes one message. A nil return acks it; an error
// leaves it pending so it is reclaimed after the visibility timeout.
type MessageHandler func(ctx context.Context, msg *Message) error

type QueueConfig struct {
	Name              string
	ConsumerGroup     string
	ConsumerName      string
	MaxRetries        int
	VisibilityTimeout time.Duration
	PollInterval      time.Duration
	BatchSize         int64
	MaxLen            int64
	EnableDLQ         bool
}

func (c QueueConfig) withDefaults() QueueConfig {
	if c.ConsumerGroup == "" {
		c.ConsumerGroup = "default-group"
	}
	if c.ConsumerName == "" {
		c.ConsumerName = fmt.Sprintf("consumer-%d", time.Now().UnixNano())
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.VisibilityTimeout == 0 {
		c.VisibilityTimeout = 30 * time.Second
	}
	if c.PollInterval == 0 {
		c.PollInterval = time.Second
	}
	if c.BatchSize == 0 {
		c.BatchSize = 10
	}
	return c
}

// DLQName is the stream dead-lettered messages are moved to.
func (c QueueConfig) DLQName() string {
	return c.Name + ":dlq"
}

// Queue is a Redis stream with one consumer group.
type Queue struct {
	adapter redis.RedisAdapter
	config  QueueConfig
	log     *logger.ZapLogger
	handler MessageHandler
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

type QueueStats struct {
	TotalMessages   int64
	PendingMessages int64
	ConsumerCount   int64
}

func NewQueue(ctx context.Context, adapter redis.RedisAdapter, config QueueConfig) (*Queue, error) {
	if config.Name == "" {
		return nil, errors.New("queue name is required")
	}
	config = config.withDefaults()

	q := &Queue{
		adapter: adapter,
		config:  config,
		log:     logger.Named("queue", "queue", config.Name, "consumer", config.ConsumerName),
	}
	if err := adapter.XGroupCreateMkStream(ctx, config.Name, config.ConsumerGroup, "0"); err != nil &&
		!strings.Contains(err.Error(), "BUSYGROUP") {
		return nil, fmt.Errorf("create consumer group %s: %w", config.ConsumerGroup, err)
	}
	return q, nil
}

func (q *Queue) Config() QueueConfig {
	return q.config
}

func (q *Queue) Publish(ctx context.Context, data []byte, metadata map[string]string) (string, error) {
	values := map[string]interface{}{
		"data":      string(data),
		"timestamp": time.Now().Unix(),
		"attempts":  0,
	}
	for k, v := range metadata {
		values[metaPrefix+k] = v
	}

	id, err := q.adapter.XAdd(ctx, q.config.Name, values)
	if err != nil {
		return "", fmt.Errorf("publish to %s: %w", q.config.Name, err)
	}

	if q.config.MaxLen > 0 {
		if err := q.adapter.XTrimApprox(ctx, q.config.Name, q.config.MaxLen); err != nil {
			q.log.Warn("trim queue", "error", err)
		}
	}
	return id, nil
}

func (q *Queue) PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("marshal message: %w", err)
	}
	return q.Publish(ctx, raw, metadata)
}

// Consume polls the stream until ctx ends or Stop is called.
func (q *Queue) Consume(ctx context.Context, handler MessageHandler) error {
	if handler == nil {
		return ErrNoHandler
	}
	q.handler = handler

	ctx, q.cancel = context.WithCancel(ctx)
	q.wg.Add(1)
	go q.consumeLoop(ctx)
	return nil
}

func (q *Queue) consumeLoop(ctx context.Context) {
	defer q.wg.Done()

	ticker := time.NewTicker(q.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.readNew(ctx)
			q.reclaimIdle(ctx)
		}
	}
}

func (q *Queue) readNew(ctx context.Context) {
	entries, err := q.adapter.XReadGroup(ctx, q.config.ConsumerGroup, q.config.ConsumerName, q.config.Name, ">", q.config.BatchSize)
	if err != nil {
		if !errors.Is(err, redis.NilError) && ctx.Err() == nil {
			q.log.Error("read queue", "error", err)
		}
		return
	}
	for _, e := range entries {
		q.handle(ctx, q.toMessage(e))
	}
}

// reclaimIdle takes over entries another consumer left pending for longer
// than the visibility timeout.
func (q *Queue) reclaimIdle(ctx context.Context) {
	pending, err := q.adapter.XPendingExt(ctx, q.config.Name, q.config.ConsumerGroup, "-", "+", 100)
	if err != nil || len(pending) == 0 {
		return
	}

	var ids []string
	retries := make(map[string]int64, len(pending))
	for _, p := range pending {
		if p.Idle >= q.config.VisibilityTimeout {
			ids = append(ids, p.ID)
			retries[p.ID] = p.RetryCount
		}
	}
	if len(ids) == 0 {
		return
	}

	entries, err := q.adapter.XClaim(ctx, q.config.Name, q.config.ConsumerGroup, q.config.ConsumerName, q.config.VisibilityTimeout, ids...)
	if err != nil {
		q.log.Warn("claim idle messages", "error", err)
		return
	}
	for _, e := range entries {
		msg := q.toMessage(e)
		msg.Attempts = int(retries[e.ID])
		q.handle(ctx, msg)
	}
}

func (q *Queue) handle(ctx context.Context, msg *Message) {
	if msg.Attempts >= q.config.MaxRetries {
		q.deadLetter(ctx, msg)
		if err := msg.Ack(ctx); err != nil {
			q.log.Error("ack dead-lettered message", "id", msg.ID, "error", err)
		}
		return
	}

	hctx, cancel := context.WithTimeout(ctx, q.config.VisibilityTimeout)
	defer cancel()

	if err := q.handler(hctx, msg); err != nil {
		q.log.Warn("message left pending", "id", msg.ID, "attempts", msg.Attempts, "error", err)
		return
	}
	if msg.acked {
		return
	}
	if err := msg.Ack(ctx); err != nil {
		q.log.Error("ack message", "id", msg.ID, "error", err)
	}
}

func (q *Queue) ack(ctx context.Context, id string) error {
	return q.adapter.XAck(ctx, q.config.Name, q.config.ConsumerGroup, id)
}

func (q *Queue) deadLetter(ctx context.Context, msg *Message) {
	if !q.config.EnableDLQ {
		q.log.Warn("dropping message after max retries", "id", msg.ID)
		return
	}

	values := map[string]interface{}{
		"data":           string(msg.Data),
		"original_id":    msg.ID,
		"attempts":       msg.Attempts,
		"failed_at":      time.Now().Unix(),
		"original_queue": q.config.Name,
	}
	for k, v := range msg.Metadata {
		values[metaPrefix+k] = v
	}

	if _, err := q.adapter.XAdd(ctx, q.config.DLQName(), values); err != nil {
		q.log.Error("dead-letter message", "id", msg.ID, "error", err)
		return
	}
	prom.IncQueueDeadLettered(q.config.Name)
	q.log.Warn("message dead-lettered", "id", msg.ID, "attempts", msg.Attempts)
}

func (q *Queue) toMessage(e redis.StreamMessage) *Message {
	msg := &Message{
		ID:       e.ID,
		Metadata: make(map[string]string),
		queue:    q,
	}

	for k, v := range e.Values {
		s, _ := v.(string)
		switch {
		case k == "data":
			msg.Data = []byte(s)
		case k == "timestamp":
			if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
				msg.Timestamp = time.Unix(unix, 0)
			}
		case k == "attempts":
			msg.Attempts, _ = strconv.Atoi(s)
		case strings.HasPrefix(k, metaPrefix):
			msg.Metadata[strings.TrimPrefix(k, metaPrefix)] = s
		}
	}

	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	return msg
}

// Stop cancels the consume loop and waits for the in-flight batch.
func (q *Queue) Stop(timeout time.Duration) error {
	if q.cancel != nil {
		q.cancel()
	}

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("timeout waiting for queue to stop")
	}
}

func (q *Queue) GetStats(ctx context.Context) (*QueueStats, error) {
	total, err := q.adapter.XLen(ctx, q.config.Name)
	if err != nil {
		return nil, err
	}

	stats := &QueueStats{TotalMessages: total}
	if pending, err := q.adapter.XPending(ctx, q.config.Name, q.config.ConsumerGroup); err == nil && pending != nil {
		stats.PendingMessages = pending.Count
		stats.ConsumerCount = int64(len(pending.Consumers))
	}
	return stats, nil
}
