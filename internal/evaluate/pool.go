package evaluate

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs evaluation jobs on a fixed number of goroutines.
type WorkerPool struct {
	workers  int
	jobQueue chan func()
	wg       sync.WaitGroup
	once     sync.Once

	mu     sync.RWMutex
	closed bool

	totalJobs     int64
	completedJobs int64
	activeWorkers int64
}

// PoolStats is a snapshot of the pool counters.
type PoolStats struct {
	TotalJobs     int64 `json:"total_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	ActiveWorkers int64 `json:"active_workers"`
}

// NewWorkerPool creates a pool with the given number of workers, NumCPU
// when workers <= 0.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Workers returns the number of workers.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Start launches the workers. Calling it again does nothing.
func (wp *WorkerPool) Start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

func (wp *WorkerPool) worker() {
	for job := range wp.jobQueue {
		atomic.AddInt64(&wp.activeWorkers, 1)
		job()
		atomic.AddInt64(&wp.activeWorkers, -1)
		atomic.AddInt64(&wp.completedJobs, 1)
		wp.wg.Done()
	}
}

// Submit queues a job, blocking while the queue is full. It returns false
// once the pool is closed.
func (wp *WorkerPool) Submit(job func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()
	if wp.closed {
		return false
	}
	wp.wg.Add(1)
	atomic.AddInt64(&wp.totalJobs, 1)
	wp.jobQueue <- job
	return true
}

// Wait blocks until every submitted job has finished.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Close stops accepting jobs. Queued jobs still run.
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.closed {
		return
	}
	wp.closed = true
	close(wp.jobQueue)
}

// GetStats returns the current counters.
func (wp *WorkerPool) GetStats() PoolStats {
	return PoolStats{
		TotalJobs:     atomic.LoadInt64(&wp.totalJobs),
		CompletedJobs: atomic.LoadInt64(&wp.completedJobs),
		ActiveWorkers: atomic.LoadInt64(&wp.activeWorkers),
	}
}
