package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/nimasrn/hire-gateway/pkg/logger"
	"github.com/nimasrn/hire-gateway/pkg/redis"
	"github.com/robfig/cron/v3"
)

const sweepLeaseKey = "overdue:sweep:lease"

var ErrLeaseHeld = errors.New("overdue sweep lease held by another instance")

type Sweeper interface {
	Sweep(ctx context.Context, now time.Time) (int, error)
}

type Config struct {
	// Schedule is a six-field cron spec, seconds first.
	Schedule string
	// Lease is how long a run excludes other instances; keep it shorter
	// than the schedule interval.
	Lease time.Duration
}

// Scheduler runs the overdue sweep on a cron schedule. Instances share a
// Redis lease so each tick sweeps once across the deployment.
type Scheduler struct {
	cron    *cron.Cron
	sweeper Sweeper
	redis   redis.RedisAdapter
	config  Config
	log     *logger.ZapLogger
	ctx     context.Context
	cancel  context.CancelFunc
	now     func() time.Time
}

func NewScheduler(sweeper Sweeper, adapter redis.RedisAdapter, config Config) (*Scheduler, error) {
	log := logger.Named("scheduler")
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithLogger(cronLogger{log}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{log})),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		cron:    c,
		sweeper: sweeper,
		redis:   adapter,
		config:  config,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
	}

	if _, err := c.AddFunc(config.Schedule, s.tick); err != nil {
		cancel()
		return nil, fmt.Errorf("register overdue sweep %q: %w", config.Schedule, err)
	}
	return s, nil
}

func (s *Scheduler) tick() {
	n, err := s.RunOnce(s.ctx)
	switch {
	case errors.Is(err, ErrLeaseHeld):
		s.log.Debug("overdue sweep skipped, lease held elsewhere")
	case err != nil:
		s.log.Error("overdue sweep failed", "swept", n, "error", err)
	default:
		s.log.Info("overdue sweep finished", "swept", n)
	}
}

// RunOnce takes the lease and sweeps. The lease is left to expire so a
// second instance firing on the same tick finds it held.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	if s.redis != nil && s.config.Lease > 0 {
		now := []byte(strconv.FormatInt(s.now().Unix(), 10))
		ok, err := s.redis.SetNX(ctx, sweepLeaseKey, now, s.config.Lease)
		if err != nil {
			return 0, fmt.Errorf("take sweep lease: %w", err)
		}
		if !ok {
			return 0, ErrLeaseHeld
		}
	}
	return s.sweeper.Sweep(ctx, s.now().UTC())
}

func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("scheduler started", "overdue_schedule", s.config.Schedule)
}

// Stop cancels a running sweep and waits for it to return.
func (s *Scheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.log.Info("scheduler stopped")
}

// cronLogger routes cron's own messages, such as a skipped overlapping run,
// through the scheduler logger.
type cronLogger struct {
	log *logger.ZapLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
