// Package scheduler provides deferred execution of terminal writes.
//
// Writing every response inline means one syscall-heavy flush per request.
// Funneling completions through a single worker lets many small writes ride
// the same scheduling turn under concurrent load. The only ordering promise
// is per-task: a task runs after the Enqueue that submitted it, and tasks
// from different requests may interleave arbitrarily.
package scheduler

import "sync"

// Task is a unit of deferred work, typically one terminal write.
type Task func()

// Scheduler defers tasks to a later scheduling turn.
type Scheduler interface {
	// Enqueue submits a task for execution. It never blocks indefinitely
	// and never drops a task.
	Enqueue(t Task)

	// Close stops the scheduler after draining pending tasks.
	Close()
}

// Deferred is the production scheduler: a buffered queue drained by a
// single worker goroutine in batches.
type Deferred struct {
	tasks chan Task
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

var _ Scheduler = (*Deferred)(nil)

// NewDeferred creates a running scheduler with the given queue buffer.
func NewDeferred(buffer int) *Deferred {
	if buffer <= 0 {
		buffer = 256
	}
	d := &Deferred{
		tasks: make(chan Task, buffer),
		done:  make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Deferred) run() {
	defer close(d.done)
	for t := range d.tasks {
		t()
		// Drain whatever else became ready during this turn.
	drain:
		for {
			select {
			case next, ok := <-d.tasks:
				if !ok {
					return
				}
				next()
			default:
				break drain
			}
		}
	}
}

// Enqueue submits a task. After Close, the task runs synchronously in the
// caller so a completion can never be lost during shutdown.
func (d *Deferred) Enqueue(t Task) {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		t()
		return
	}
	d.tasks <- t
	d.mu.Unlock()
}

// Close drains pending tasks and stops the worker. Safe to call once.
func (d *Deferred) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.tasks)
	d.mu.Unlock()
	<-d.done
}

// Inline runs tasks synchronously. Used in tests and anywhere deferral is
// not wanted.
type Inline struct{}

var _ Scheduler = Inline{}

// Enqueue runs the task immediately.
func (Inline) Enqueue(t Task) { t() }

// Close is a no-op.
func (Inline) Close() {}
