package job

import "sync/atomic"

// Enqueuer is the minimal surface a job queue must expose so a Node can
// send its unblocked children back onto it without this package importing
// the queue package (which already imports this one for Node itself).
type Enqueuer interface {
	Send(*Node)
}

// Node is one dependency-graph node: a tile's attachment point for a
// composite job, its unresolved parent count, and the children that
// depend on it. The counters (parents, remainingBands, bandIndex) are
// atomics; job, maxBands and children are plain fields, written by the
// render thread in Reset, AddChild and SetJob and cleared by the thread
// that completes the final band in UnblockChildren. This lets a Node be
// shared between the render thread and the worker thread without a
// per-node lock.
type Node struct {
	job *Job

	// maxBands is the total band count for job, set once by SetJob.
	maxBands int32

	// remainingBands counts down from maxBands to zero as bands are
	// processed; while non-zero and Parents is zero, the node is actively
	// owned by the worker thread(s) processing its bands. The thread that
	// brings this to zero is the only one allowed to retire the node.
	remainingBands atomic.Int32

	// bandIndex is the next band index to hand out via TakeBand.
	bandIndex atomic.Int32

	// parents counts in-flight producer dependencies. While non-zero, the
	// node must only be mutated by the render thread. Reset initializes
	// this to 1 as a sentinel so an uninitialized node can never be queued
	// as an unblocked child before SetJob runs.
	parents atomic.Int32

	children []*Node
}

// NewNode returns a freshly reset node.
func NewNode() *Node {
	n := &Node{}
	n.Reset()
	return n
}

// Reset clears a node's per-frame state: job reference, band counters,
// children, and the sentinel parent dependency.
func (n *Node) Reset() {
	n.job = nil
	n.maxBands = 0
	n.remainingBands.Store(0)
	n.bandIndex.Store(0)
	n.parents.Store(1)
	n.children = n.children[:0]
}

// AddChild registers child as dependent on n's completion, incrementing
// the child's parent count. Called only from the render thread while
// building this frame's dependency graph.
func (n *Node) AddChild(child *Node) {
	child.parents.Add(1)
	n.children = append(n.children, child)
}

// SetJob installs j as this node's job with the given band count and
// drops the sentinel parent dependency. Returns true if the node has no
// remaining unresolved parent dependencies and is therefore ready to be
// queued immediately.
func (n *Node) SetJob(j *Job, numBands int) bool {
	n.job = j
	n.maxBands = int32(numBands)
	n.remainingBands.Store(int32(numBands))
	return n.parents.Add(-1) <= 0
}

// HasJob reports whether a job has been installed on this node this frame.
func (n *Node) HasJob() bool { return n.job != nil }

// TakeBand claims the next unprocessed band index, or false once all
// maxBands bands have been claimed.
func (n *Node) TakeBand() (int, bool) {
	idx := n.bandIndex.Add(1) - 1
	if idx < n.maxBands {
		return int(idx), true
	}
	return 0, false
}

// ProcessJob runs the given band of this node's job, if one is installed.
func (n *Node) ProcessJob(band int) {
	if n.job != nil {
		n.job.Process(band)
	}
}

// UnblockChildren decrements the remaining-band count and, once it hits
// zero, releases the job's locked resources and walks the child list,
// dropping each child's parent dependency and sending any child that
// becomes fully unblocked to queue. Safe to call concurrently from
// multiple worker goroutines finishing different bands of the same job;
// only the goroutine that observes the count reaching zero proceeds past
// the guard.
func (n *Node) UnblockChildren(queue Enqueuer) {
	if n.remainingBands.Add(-1) > 0 {
		return
	}
	if n.job != nil {
		n.job.Release()
		n.job = nil
	}
	for _, child := range n.children {
		if child.parents.Add(-1) <= 0 {
			queue.Send(child)
		}
	}
	n.children = n.children[:0]
}
