package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/nimasrn/hire-gateway/pkg/logger"
)

type WorkerHandler = func(workerIndex int, job interface{})

type WorkerManager struct {
	jobChannel     chan interface{}
	numberOfWorker int
	do             WorkerHandler
	waiter         sync.WaitGroup
	stop           chan struct{}
	stopOnce       sync.Once
	panics         atomic.Int64
}

// NewWorkerManager
// is a job manager based on go routines. Jobs published with Enqueue are
// distributed across numberOfWorkers goroutines. The job channel is never
// closed by the manager, because it may be shared with other producers.
func NewWorkerManager(bufferSize, numberOfWorkers int, jobChannel chan interface{}) *WorkerManager {
	if jobChannel == nil {
		jobChannel = make(chan interface{}, bufferSize)
	}
	if numberOfWorkers < 1 {
		numberOfWorkers = 1
	}
	return &WorkerManager{
		numberOfWorker: numberOfWorkers,
		jobChannel:     jobChannel,
		stop:           make(chan struct{}),
	}
}

// Pending is the number of jobs buffered but not yet picked up.
func (w *WorkerManager) Pending() int {
	return len(w.jobChannel)
}

// Panics counts jobs that panicked; the worker survives each one.
func (w *WorkerManager) Panics() int64 {
	return w.panics.Load()
}

func (w *WorkerManager) SetWorker(worker WorkerHandler) {
	w.do = worker
}

// Enqueue publishes a job, blocking while the buffer is full. It returns
// false when ctx ends or the manager exits first.
func (w *WorkerManager) Enqueue(ctx context.Context, val interface{}) bool {
	select {
	case <-w.stop:
		return false
	default:
	}

	select {
	case w.jobChannel <- val:
		return true
	case <-ctx.Done():
		return false
	case <-w.stop:
		return false
	}
}

// Start runs the workers and blocks until ctx is done or Exit is called.
func (w *WorkerManager) Start(ctx context.Context) {
	w.waiter.Add(w.numberOfWorker)
	for i := 0; i < w.numberOfWorker; i++ {
		go func(index int) {
			defer w.waiter.Done()
			for {
				select {
				case job := <-w.jobChannel:
					w.run(index, job)
				case <-ctx.Done():
					return
				case <-w.stop:
					return
				}
			}
		}(i)
	}
	w.waiter.Wait()
	logger.Info("worker manager stopped", "workers", w.numberOfWorker, "pending", w.Pending(), "panics", w.Panics())
}

func (w *WorkerManager) run(index int, job interface{}) {
	defer func() {
		if r := recover(); r != nil {
			w.panics.Add(1)
			logger.Error("worker job panicked", "worker", index, "panic", r)
		}
	}()
	w.do(index, job)
}

// Exit stops all workers; jobs still buffered are left in the channel.
func (w *WorkerManager) Exit() {
	w.stopOnce.Do(func() { close(w.stop) })
}
