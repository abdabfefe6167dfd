package media

import (
	"sync"
	"time"
)

// ClockPlayer is a Player that advances a playhead against the wall clock
// without decoding anything. When the playhead reaches Duration it stops
// and notifies end observers.
type ClockPlayer struct {
	mu        sync.Mutex
	duration  time.Duration
	playing   bool
	position  time.Duration // playhead as of startedAt
	startedAt time.Time
	timer     *time.Timer
	gen       uint64 // bumps on every reschedule so stale timer fires are dropped
	observers map[int]func()
	nextID    int
	closed    bool
}

// NewClockPlayer creates a paused player at position zero.
func NewClockPlayer(duration time.Duration) *ClockPlayer {
	return &ClockPlayer{
		duration:  duration,
		observers: make(map[int]func()),
	}
}

// Play starts playback. Playing at the end of the resource does nothing,
// callers seek first.
func (p *ClockPlayer) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.playing || p.position >= p.duration {
		return
	}
	p.playing = true
	p.startedAt = time.Now()
	p.schedule()
}

// Pause freezes the playhead.
func (p *ClockPlayer) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.playing {
		return
	}
	p.position = p.current()
	p.playing = false
	p.cancelTimer()
}

// Seek moves the playhead, keeping the play state.
func (p *ClockPlayer) Seek(pos time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.position = clampDuration(pos, 0, p.duration)
	if p.playing {
		p.startedAt = time.Now()
		p.cancelTimer()
		p.schedule()
	}
}

// Playing reports whether the playhead is advancing.
func (p *ClockPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// Position returns the current playhead.
func (p *ClockPlayer) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current()
}

// Duration returns the resource length.
func (p *ClockPlayer) Duration() time.Duration {
	return p.duration
}

// OnEnd registers an end-of-media observer.
func (p *ClockPlayer) OnEnd(fn func()) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.observers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.observers, id)
			p.mu.Unlock()
		})
	}
}

// Observers returns the number of registered end observers.
func (p *ClockPlayer) Observers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.observers)
}

// Close stops playback and drops all observers.
func (p *ClockPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	p.playing = false
	p.cancelTimer()
	p.observers = make(map[int]func())
	return nil
}

// current must be called with mu held.
func (p *ClockPlayer) current() time.Duration {
	if !p.playing {
		return p.position
	}
	return clampDuration(p.position+time.Since(p.startedAt), 0, p.duration)
}

// schedule must be called with mu held.
func (p *ClockPlayer) schedule() {
	p.gen++
	gen := p.gen
	remaining := p.duration - p.position
	p.timer = time.AfterFunc(remaining, func() { p.finish(gen) })
}

// cancelTimer must be called with mu held.
func (p *ClockPlayer) cancelTimer() {
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

func (p *ClockPlayer) finish(gen uint64) {
	p.mu.Lock()
	if gen != p.gen || !p.playing {
		p.mu.Unlock()
		return
	}
	p.position = p.duration
	p.playing = false
	p.timer = nil
	fns := make([]func(), 0, len(p.observers))
	for _, fn := range p.observers {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func clampDuration(v, min, max time.Duration) time.Duration {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
