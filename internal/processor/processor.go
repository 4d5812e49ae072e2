package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nimasrn/hire-gateway/internal/queue"
	"github.com/nimasrn/hire-gateway/pkg/logger"
	"github.com/nimasrn/hire-gateway/pkg/prom"
	"github.com/nimasrn/hire-gateway/pkg/redis"
	"github.com/nimasrn/hire-gateway/pkg/worker"
)

const (
	DefaultProcessingTimeout = 5 * time.Second
	HealthInterval           = 30 * time.Second
	ShutdownTimeout          = 30 * time.Second
	highLagThreshold         = 10_000
)

// Processor handles one kind of queue message.
type Processor interface {
	Process(ctx context.Context, message *queue.Message) error
	GetType() string
}

type ServiceConfig struct {
	Queue             queue.QueueConfig
	Consumers         int
	Workers           int
	ProcessingTimeout time.Duration
}

// ProcessorService fans stream consumers into a worker pool running a
// single Processor.
type ProcessorService struct {
	adapter   redis.RedisAdapter
	config    ServiceConfig
	queues    []*queue.Queue
	processor Processor
	metrics   *ServiceMetrics
	worker    *worker.WorkerManager
	wg        sync.WaitGroup
	cancel    context.CancelFunc
}

func NewProcessorService(adapter redis.RedisAdapter, config ServiceConfig, p Processor) *ProcessorService {
	if config.Consumers <= 0 {
		config.Consumers = 1
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.ProcessingTimeout <= 0 {
		config.ProcessingTimeout = DefaultProcessingTimeout
	}
	return &ProcessorService{
		adapter:   adapter,
		config:    config,
		processor: p,
		metrics:   NewServiceMetrics(),
		worker:    worker.NewWorkerManager(config.Workers*4, config.Workers, nil),
	}
}

func (s *ProcessorService) Metrics() *ServiceMetrics {
	return s.metrics
}

func (s *ProcessorService) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	s.worker.SetWorker(s.workerHandler)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker.Start(ctx)
	}()

	base := s.config.Queue.ConsumerName
	if base == "" {
		base = "processor"
	}
	for i := 0; i < s.config.Consumers; i++ {
		qc := s.config.Queue
		qc.ConsumerName = fmt.Sprintf("%s-%d", base, i)

		q, err := queue.NewQueue(ctx, s.adapter, qc)
		if err != nil {
			return fmt.Errorf("create consumer %d: %w", i, err)
		}
		if err := q.Consume(ctx, s.messageHandler); err != nil {
			return fmt.Errorf("start consumer %d: %w", i, err)
		}
		s.queues = append(s.queues, q)
	}

	s.wg.Add(1)
	go s.healthChecker(ctx)

	logger.Info("processor service started",
		"type", s.processor.GetType(),
		"queue", s.config.Queue.Name,
		"consumers", len(s.queues),
		"workers", s.config.Workers)
	return nil
}

func (s *ProcessorService) healthChecker(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.performHealthCheck(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *ProcessorService) performHealthCheck(ctx context.Context) {
	if err := s.adapter.Ping(ctx); err != nil {
		logger.Error("health check: redis unreachable", "error", err)
		return
	}
	if len(s.queues) == 0 {
		return
	}

	stats, err := s.queues[0].GetStats(ctx)
	if err != nil {
		logger.Warn("health check: queue stats unavailable", "error", err)
		return
	}
	prom.SetQueuePending(s.config.Queue.Name, stats.PendingMessages)
	if stats.PendingMessages > highLagThreshold {
		logger.Warn("health check: queue lagging", "pending", stats.PendingMessages)
	}
	s.reportMetrics(stats)
}

func (s *ProcessorService) reportMetrics(stats *queue.QueueStats) {
	m := s.metrics.Snapshot()
	kv := []interface{}{
		"processed", m.Processed,
		"failed", m.Failed,
		"rate_per_second", m.RatePerSecond,
		"avg_duration_ms", m.AvgDuration.Milliseconds(),
		"worker_backlog", s.worker.Pending(),
		"worker_panics", s.worker.Panics(),
	}
	if stats != nil {
		kv = append(kv, "queue_total", stats.TotalMessages, "queue_pending", stats.PendingMessages)
	}
	logger.Info("processor metrics", kv...)
}

// Stop stops the consumers, then the workers. Unacked messages stay pending
// and are reclaimed by the next consumer.
func (s *ProcessorService) Stop() {
	if s.cancel != nil {
		s.cancel()
	}

	var wg sync.WaitGroup
	for i, q := range s.queues {
		wg.Add(1)
		go func(i int, q *queue.Queue) {
			defer wg.Done()
			if err := q.Stop(ShutdownTimeout); err != nil {
				logger.Error("stop consumer", "consumer", i, "error", err)
			}
		}(i, q)
	}
	wg.Wait()

	s.worker.Exit()
	s.wg.Wait()
	s.reportMetrics(nil)
	logger.Info("processor service stopped")
}

type job struct {
	ctx    context.Context
	msg    *queue.Message
	result chan error
}

// messageHandler hands the message to the pool and waits for its outcome so
// the consumer can ack or leave it pending.
func (s *ProcessorService) messageHandler(ctx context.Context, msg *queue.Message) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ProcessingTimeout)
	defer cancel()

	j := &job{ctx: ctx, msg: msg, result: make(chan error, 1)}
	if !s.worker.Enqueue(ctx, j) {
		return fmt.Errorf("enqueue message %s: worker pool unavailable", msg.ID)
	}

	select {
	case err := <-j.result:
		return err
	case <-ctx.Done():
		return fmt.Errorf("waiting for worker: %w", ctx.Err())
	}
}

func (s *ProcessorService) workerHandler(workerIndex int, v interface{}) {
	j, ok := v.(*job)
	if !ok {
		logger.Error("unexpected job type", "worker", workerIndex)
		return
	}
	if j.ctx.Err() != nil {
		return
	}

	start := time.Now()
	var err error
	defer func() {
		if r := recover(); r != nil {
			// the consumer gets an error and leaves the message pending
			j.result <- fmt.Errorf("processor panicked on %s: %v", j.msg.ID, r)
			panic(r)
		}
	}()

	err = s.processor.Process(j.ctx, j.msg)
	if err != nil {
		s.metrics.RecordFailure()
		logger.Error("process message", "worker", workerIndex, "id", j.msg.ID, "error", err)
	} else {
		s.metrics.RecordSuccess(time.Since(start))
	}

	// buffered, never blocks
	j.result <- err
}
