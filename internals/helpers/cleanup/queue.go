// Package cleanup removes stored files in the background, off the request path.
package cleanup

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Remover deletes one stored file by name.
type Remover interface {
	Remove(ctx context.Context, filename string) error
}

type Job struct {
	Filename string
	Reason   string // replaced | deleted | orphaned | ...
}

type Options struct {
	Buffer      int
	Workers     int
	MaxAttempts int           // 1 = never retried
	Backoff     time.Duration // delay before attempt n is n*Backoff
	Timeout     time.Duration // per attempt
}

func DefaultOptions() Options {
	return Options{
		Buffer:      256,
		Workers:     2,
		MaxAttempts: 1,
		Backoff:     500 * time.Millisecond,
		Timeout:     10 * time.Second,
	}
}

type Stats struct {
	Enqueued int64 `json:"enqueued"`
	Dropped  int64 `json:"dropped"`
	Removed  int64 `json:"removed"`
	Failed   int64 `json:"failed"`
	Retried  int64 `json:"retried"`
}

// Queue is a bounded, fire-and-forget file deletion queue. Enqueue never blocks;
// failures are logged and counted, never reported back to the caller.
type Queue struct {
	remover Remover
	opt     Options
	jobs    chan Job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	enqueued, dropped, removed, failed, retried atomic.Int64
}

func NewQueue(r Remover, opt Options) *Queue {
	def := DefaultOptions()
	if opt.Buffer <= 0 {
		opt.Buffer = def.Buffer
	}
	if opt.Workers <= 0 {
		opt.Workers = def.Workers
	}
	if opt.MaxAttempts <= 0 {
		opt.MaxAttempts = def.MaxAttempts
	}
	if opt.Timeout <= 0 {
		opt.Timeout = def.Timeout
	}

	q := &Queue{remover: r, opt: opt, jobs: make(chan Job, opt.Buffer)}
	for i := 0; i < opt.Workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

// Enqueue schedules filename for removal. It reports false when the queue is
// closed or full; the job is dropped in that case.
func (q *Queue) Enqueue(filename, reason string) bool {
	if filename == "" {
		return false
	}
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.dropped.Add(1)
		log.Printf("[CLEANUP] queue closed, dropping %s (%s)", filename, reason)
		return false
	}
	select {
	case q.jobs <- Job{Filename: filename, Reason: reason}:
		q.enqueued.Add(1)
		return true
	default:
		q.dropped.Add(1)
		log.Printf("[CLEANUP] queue full, dropping %s (%s)", filename, reason)
		return false
	}
}

// Close stops accepting jobs and waits for queued ones to finish or ctx to end.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.jobs)
	}
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) Stats() Stats {
	return Stats{
		Enqueued: q.enqueued.Load(),
		Dropped:  q.dropped.Load(),
		Removed:  q.removed.Load(),
		Failed:   q.failed.Load(),
		Retried:  q.retried.Load(),
	}
}

func (q *Queue) work() {
	defer q.wg.Done()
	for job := range q.jobs {
		q.run(job)
	}
}

func (q *Queue) run(job Job) {
	var err error
	for attempt := 1; attempt <= q.opt.MaxAttempts; attempt++ {
		if attempt > 1 {
			q.retried.Add(1)
			time.Sleep(time.Duration(attempt-1) * q.opt.Backoff)
		}
		ctx, cancel := context.WithTimeout(context.Background(), q.opt.Timeout)
		err = q.remover.Remove(ctx, job.Filename)
		cancel()
		if err == nil {
			q.removed.Add(1)
			return
		}
	}
	q.failed.Add(1)
	log.Printf("[CLEANUP] failed to delete %s (%s) after %d attempt(s): %v",
		job.Filename, job.Reason, q.opt.MaxAttempts, err)
}
