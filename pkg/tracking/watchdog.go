package tracking

import (
	"sync"
	"time"
)

// Watchdog fires fn on a fixed period. At most one timer runs at a time.
type Watchdog struct {
	period time.Duration
	fn     func()

	mu   sync.Mutex
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewWatchdog creates a stopped watchdog.
func NewWatchdog(period time.Duration, fn func()) *Watchdog {
	return &Watchdog{period: period, fn: fn}
}

// Start cancels any running timer and starts a fresh one.
func (w *Watchdog) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopLocked()

	stop := make(chan struct{})
	w.stop = stop
	w.wg.Add(1)
	go w.run(stop)
}

func (w *Watchdog) run(stop <-chan struct{}) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.period)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			// Stop may have raced the tick.
			select {
			case <-stop:
				return
			default:
			}
			w.fn()
		}
	}
}

// Stop cancels the timer and waits for an in-flight tick. Idempotent.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopLocked()
}

func (w *Watchdog) stopLocked() {
	if w.stop == nil {
		return
	}
	close(w.stop)
	w.stop = nil
	w.wg.Wait()
}

// Running reports whether a timer is active.
func (w *Watchdog) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stop != nil
}

// Period returns the tick interval.
func (w *Watchdog) Period() time.Duration {
	return w.period
}
