// Package ui holds the UI-owning execution context and the instruction prompt.
//
// Widgets may only be touched from the UI context. Everything else hands it
// work through a Dispatcher and never mutates widgets directly.
package ui

import (
	"sync"
)

// Dispatcher runs tasks on the UI-owning context, in submission order.
type Dispatcher interface {
	// Dispatch queues fn. It returns false if the context has shut down.
	Dispatch(fn func()) bool
}

// Executor is a Dispatcher backed by a single goroutine.
type Executor struct {
	tasks chan func()

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewExecutor starts an executor with a task queue of the given size.
func NewExecutor(buffer int) *Executor {
	e := &Executor{tasks: make(chan func(), buffer)}
	e.wg.Add(1)
	go e.run()
	return e
}

func (e *Executor) run() {
	defer e.wg.Done()
	for fn := range e.tasks {
		fn()
	}
}

// Dispatch queues fn behind every previously dispatched task.
func (e *Executor) Dispatch(fn func()) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return false
	}
	e.tasks <- fn
	return true
}

// Sync blocks until every task dispatched before it has run.
func (e *Executor) Sync() {
	done := make(chan struct{})
	if !e.Dispatch(func() { close(done) }) {
		return
	}
	<-done
}

// Close drains queued tasks and stops the goroutine. Idempotent.
func (e *Executor) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.tasks)
	e.mu.Unlock()
	e.wg.Wait()
}
