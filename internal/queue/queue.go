// Package queue implements the composite job queue shared between the
// render thread and the worker thread: a FIFO of ready dependency-graph
// nodes, a single-slot "current job" cache that lets a thread claim
// consecutive bands of the same job without re-locking the queue, and a
// signed job count whose sign carries the queue's running/draining/
// shutdown state.
package queue

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/swcompositor/internal/job"
)

// shutdownSentinel is stored into jobCount to signal the worker thread to
// exit. Chosen far below any value a real frame's band count could drive
// jobCount to, mirroring the original's isize::MIN/2 sentinel.
const shutdownSentinel = int64(-1 << 48)

// Queue is a FIFO of ready job.Node pointers plus the bookkeeping needed
// to hand out individual bands of a job without requiring a queue lock
// per band.
type Queue struct {
	mu        sync.Mutex
	cond      *sync.Cond
	pending   []*job.Node
	currentJob atomic.Pointer[job.Node]

	// jobCount tracks outstanding bands across all queued and in-flight
	// jobs. Zero means fully drained (and wakes anyone waiting via cond).
	// Negative means deinit was called and the worker thread must exit.
	jobCount atomic.Int64
}

// New returns an empty, idle queue.
func New() *Queue {
	q := &Queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Send implements job.Enqueuer: it adds node to the queue, signaling any
// waiter if the queue was empty.
func (q *Queue) Send(node *job.Node) {
	q.mu.Lock()
	wasEmpty := len(q.pending) == 0
	q.pending = append(q.pending, node)
	if wasEmpty {
		q.cond.Broadcast()
	}
	q.mu.Unlock()
}

// QueueComposite installs job j on node with the given band count,
// accounts for its bands in jobCount, and — if the node has no remaining
// parent dependencies — sends it to the queue immediately.
func (q *Queue) QueueComposite(node *job.Node, j *job.Job, numBands int) {
	q.jobCount.Add(int64(numBands))
	if node.SetJob(j, numBands) {
		q.Send(node)
	}
}

// StartCompositing primes jobCount to 1, biasing it so that queuing jobs
// during frame construction never causes a spurious zero (drained)
// reading before WaitForComposites actually starts waiting.
func (q *Queue) StartCompositing() {
	q.jobCount.Store(1)
}

// Deinit forces the job count negative so TakeJob returns immediately
// (rather than blocking) and wakes any worker currently waiting.
func (q *Queue) Deinit() {
	q.jobCount.Store(shutdownSentinel)
	q.mu.Lock()
	q.cond.Broadcast()
	q.mu.Unlock()
}

// tryTakeCurrent attempts to claim the next band of the cached current
// job without acquiring the queue lock, clearing the cache once the job
// is exhausted.
func (q *Queue) tryTakeCurrent() (*job.Node, int, bool) {
	n := q.currentJob.Load()
	if n == nil {
		return nil, 0, false
	}
	if band, ok := n.TakeBand(); ok {
		return n, band, true
	}
	q.currentJob.CompareAndSwap(n, nil)
	return nil, 0, false
}

// TakeJob claims the next available (node, band) pair. When nothing is
// available and Deinit has not been called, TakeJob blocks until work
// arrives if wait is true, and returns ok=false immediately if wait is
// false; a jobCount of zero first wakes any WaitForComposites caller, and
// with wait true TakeJob keeps blocking after that. After Deinit it
// returns ok=false.
func (q *Queue) TakeJob(wait bool) (node *job.Node, band int, ok bool) {
	if n, b, found := q.tryTakeCurrent(); found {
		return n, b, true
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if n, b, found := q.tryTakeCurrent(); found {
			return n, b, true
		}
		if len(q.pending) > 0 {
			n := q.pending[0]
			q.pending = q.pending[1:]
			q.currentJob.Store(n)
			continue
		}

		count := q.jobCount.Load()
		if count < 0 {
			return nil, 0, false
		}
		if count == 0 {
			q.cond.Broadcast()
		}
		if !wait {
			return nil, 0, false
		}
		q.cond.Wait()
	}
}

// ProcessJob runs the given band of node's job, unblocks any children that
// become ready as a result, and decrements jobCount.
func (q *Queue) ProcessJob(node *job.Node, band int) {
	node.ProcessJob(band)
	node.UnblockChildren(q)
	q.jobCount.Add(-1)
}

// WaitForComposites blocks until every queued band has been processed.
// sync disables job-stealing by the render thread (handled by the
// caller); this method only implements the blocking-wait half of that
// contract.
func (q *Queue) WaitForComposites() {
	q.jobCount.Add(-1)
	q.mu.Lock()
	for q.jobCount.Load() > 0 {
		q.cond.Wait()
	}
	q.mu.Unlock()
}

// StealJob lets the render thread pull a single (node, band) pair off the
// queue without blocking, to make progress on composites instead of
// idling while the worker thread catches up.
func (q *Queue) StealJob() (node *job.Node, band int, ok bool) {
	return q.TakeJob(false)
}
