package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var ErrPoolStopped = errors.New("worker pool is stopped")

type Task func()

type PoolStats struct {
	BusyWorkers   int `json:"busy_workers"`
	MaxWorkers    int `json:"max_workers"`
	QueueLength   int `json:"queue_length"`
	QueueCapacity int `json:"queue_capacity"`
}

// WorkerPool runs tasks on a fixed number of goroutines. A panicking task is
// recovered and does not take its worker down.
type WorkerPool struct {
	tasks      chan Task
	wg         sync.WaitGroup
	busy       atomic.Int32
	maxWorkers int
	started    bool
	stopped    bool
	logger     zerolog.Logger
	mu         sync.RWMutex
}

func NewWorkerPool(maxWorkers int, logger zerolog.Logger) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		tasks:      make(chan Task, maxWorkers),
		maxWorkers: maxWorkers,
		logger:     logger,
	}
}

func (wp *WorkerPool) Start() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.started || wp.stopped {
		return
	}
	wp.started = true

	for i := 0; i < wp.maxWorkers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}

	wp.logger.Info().Int("max_workers", wp.maxWorkers).Msg("Worker pool started")
}

// Stop rejects new tasks and waits for queued and running ones to finish.
func (wp *WorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	close(wp.tasks)
	wp.mu.Unlock()

	wp.wg.Wait()
	wp.logger.Info().Msg("Worker pool stopped")
}

// Submit blocks until a worker can take task or ctx is done.
func (wp *WorkerPool) Submit(ctx context.Context, task Task) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.stopped {
		return ErrPoolStopped
	}

	select {
	case wp.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	wp.logger.Debug().Int("worker_id", id).Msg("Worker started")

	for task := range wp.tasks {
		wp.busy.Add(1)
		wp.run(id, task)
		wp.busy.Add(-1)
	}

	wp.logger.Debug().Int("worker_id", id).Msg("Worker stopped")
}

func (wp *WorkerPool) run(id int, task Task) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error().
				Int("worker_id", id).
				Interface("panic", r).
				Msg("Worker recovered from panic")
		}
	}()

	task()
}

func (wp *WorkerPool) GetStats() PoolStats {
	return PoolStats{
		BusyWorkers:   int(wp.busy.Load()),
		MaxWorkers:    wp.maxWorkers,
		QueueLength:   len(wp.tasks),
		QueueCapacity: cap(wp.tasks),
	}
}
