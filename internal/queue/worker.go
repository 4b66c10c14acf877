package queue

import "sync"

// Worker drives a Queue from its own goroutine: it blocks for jobs,
// processes each band it's handed, and exits once the queue signals
// shutdown via Deinit. The compositor spawns exactly one Worker for the
// lifetime of a Compositor.
type Worker struct {
	queue *Queue
	done  chan struct{}
	once  sync.Once
}

// NewWorker creates a worker bound to queue. Call Run in its own
// goroutine to start processing.
func NewWorker(q *Queue) *Worker {
	return &Worker{queue: q, done: make(chan struct{})}
}

// Run processes jobs from the queue until Deinit is called on the
// underlying Queue, then closes done. Intended to be launched with `go
// w.Run()` exactly once.
func (w *Worker) Run() {
	defer close(w.done)
	for {
		node, band, ok := w.queue.TakeJob(true)
		if !ok {
			return
		}
		w.queue.ProcessJob(node, band)
	}
}

// Wait blocks until Run has returned (Deinit was observed and the
// worker's goroutine exited).
func (w *Worker) Wait() {
	<-w.done
}
