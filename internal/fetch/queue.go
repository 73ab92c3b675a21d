// Package fetch downloads missing tiles on a single background worker.
package fetch

import (
	"sync"

	"tileview/internal/tile"
)

// Job asks the worker to download one tile. Path is the destination the
// worker checks before downloading; it is normally store.PathFor(Key).
type Job struct {
	Key  tile.Key
	Path string
}

// Queue is a FIFO of jobs that holds at most one job per key. All state is
// guarded by mu; cond wakes the worker when a job arrives or the queue closes.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	jobs   []Job
	queued map[tile.Key]struct{}
	closed bool
}

func NewQueue() *Queue {
	q := &Queue{
		queued: make(map[tile.Key]struct{}),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends job unless its key is already waiting or the queue is
// closed. It reports whether the job was added.
func (q *Queue) Enqueue(job Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	if _, ok := q.queued[job.Key]; ok {
		return false
	}

	q.jobs = append(q.jobs, job)
	q.queued[job.Key] = struct{}{}
	q.cond.Signal()
	return true
}

// Dequeue blocks until a job is available or the queue is closed. ok is
// false once closed; remaining jobs are not drained.
func (q *Queue) Dequeue() (job Job, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.jobs) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return Job{}, false
	}

	job = q.jobs[0]
	q.jobs[0] = Job{}
	q.jobs = q.jobs[1:]
	delete(q.queued, job.Key)
	return job, true
}

// Close stops the queue and wakes any waiting worker.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.jobs)
}

func (q *Queue) Pending(key tile.Key) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	_, ok := q.queued[key]
	return ok
}

func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.closed
}
