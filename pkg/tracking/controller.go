package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-marker/internal/log"
	"github.com/teslashibe/go-marker/pkg/anchor"
	"github.com/teslashibe/go-marker/pkg/debug"
	"github.com/teslashibe/go-marker/pkg/media"
	"github.com/teslashibe/go-marker/pkg/overlay"
)

// Overlays is the overlay media controller used by Controller.
type Overlays interface {
	Create(size anchor.Size, resource string) (*overlay.Handle, error)
	Play(h *overlay.Handle)
	Pause(h *overlay.Handle)
	SeekToStart(h *overlay.Handle)
	OnPlaybackEnded(h *overlay.Handle)
	Release(h *overlay.Handle)
}

// PromptSink shows or hides the instruction prompt.
type PromptSink interface {
	SetVisible(visible bool)
}

// Snapshot is a consistent view of the controller state.
type Snapshot struct {
	State      State
	Visible    bool
	SessionID  string
	AnchorID   string
	HasOverlay bool
	Processed  uint64
	Ignored    uint64
	Loops      uint64 // overlay restarts after end of media
}

// request carries one event into the controller goroutine. reply is set for
// anchor-created, whose caller needs the attached surface back.
type request struct {
	ev    Event
	reply chan anchor.Surface
}

// Controller serializes anchor callbacks, watchdog ticks and end-of-media
// notifications onto one goroutine and applies the resulting effects.
type Controller struct {
	cfg      Config
	overlays Overlays
	prompt   PromptSink
	log      *slog.Logger
	metrics  *metrics

	requests chan request
	done     chan struct{}
	runOnce  sync.Once

	// Owned by the Run goroutine.
	machine *Machine
	session *Session
	loops   uint64

	mu   sync.RWMutex
	snap Snapshot

	// OnTransition, if set, is called from the controller goroutine after
	// each applied event. It must not block.
	OnTransition func(Transition)
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.log = l
	}
}

// NewController creates a controller. Call Run to start processing.
func NewController(cfg Config, overlays Overlays, prompt PromptSink, opts ...ControllerOption) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m, err := newMetrics()
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:      cfg,
		overlays: overlays,
		prompt:   prompt,
		log:      log.Component("tracking"),
		metrics:  m,
		requests: make(chan request, cfg.EventBuffer),
		done:     make(chan struct{}),
		machine:  NewMachine(),
		snap:     Snapshot{State: Searching},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run processes events until ctx is cancelled, then tears the session down.
// Run may only be called once.
func (c *Controller) Run(ctx context.Context) error {
	started := false
	c.runOnce.Do(func() { started = true })
	if !started {
		return errors.New("tracking controller already ran")
	}
	defer close(c.done)

	// Visibility starts false, so the prompt starts shown.
	c.prompt.SetVisible(true)
	c.log.Info("tracking started",
		"watchdog", c.cfg.WatchdogPeriod,
		"resource", c.cfg.Resource)

	for {
		select {
		case <-ctx.Done():
			c.teardown()
			return nil

		case req := <-c.requests:
			c.handle(ctx, req)
		}
	}
}

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// AnchorCreated implements anchor.Handler. It blocks until the event is
// applied and returns the overlay to attach, or nil if none was created.
func (c *Controller) AnchorCreated(ctx context.Context, a anchor.Anchor) (anchor.Surface, error) {
	reply := make(chan anchor.Surface, 1)
	if err := c.send(ctx, request{ev: Created(a), reply: reply}); err != nil {
		return nil, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, ErrControllerStopped
	}
}

// AnchorUpdated implements anchor.Handler.
func (c *Controller) AnchorUpdated(ctx context.Context, a anchor.Anchor, tracked bool) error {
	return c.send(ctx, request{ev: Updated(a, tracked)})
}

// Tick delivers one watchdog tick. It is the Watchdog's callback.
func (c *Controller) Tick() {
	if err := c.send(context.Background(), request{ev: Tick()}); err != nil {
		debug.Log("watchdog tick dropped", "error", err)
	}
}

// PlaybackEnded delivers an end-of-media notification for h. It is the
// overlay controller's end notifier and never blocks: the caller is usually
// a player goroutine that Release may be waiting on from inside Run.
func (c *Controller) PlaybackEnded(h *overlay.Handle) {
	req := request{ev: Event{Kind: EventPlaybackEnded, Overlay: h}}
	select {
	case c.requests <- req:
		return
	case <-c.done:
		return
	default:
	}

	// Queue full. Hand off so the player can finish.
	go func() {
		if err := c.send(context.Background(), req); err != nil {
			debug.Log("playback end dropped", "overlay", h.ID, "error", err)
		}
	}()
}

func (c *Controller) send(ctx context.Context, req request) error {
	select {
	case <-c.done:
		return ErrControllerStopped
	default:
	}
	select {
	case c.requests <- req:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrControllerStopped
	}
}

// Snapshot returns the state as of the last applied event.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// handle applies one event. Only called from Run.
func (c *Controller) handle(ctx context.Context, req request) {
	t, err := c.machine.Apply(req.ev)
	c.metrics.record(ctx, t, err)

	if err != nil {
		c.ignore(req.ev, err)
		c.publish(true)
		c.reply(req, nil)
		return
	}

	if t.Changed() {
		c.log.Info("tracking state changed",
			"from", t.From, "to", t.To, "event", t.Event.String())
	} else if len(t.Effects) > 0 {
		debug.TrackLog("tracking effects", "transition", t.String())
	}

	for _, e := range t.Effects {
		c.apply(ctx, req.ev, e)
	}

	c.publish(false)
	if c.OnTransition != nil {
		c.OnTransition(t)
	}

	// Reply last so the caller observes the published state.
	c.reply(req, c.surface())
}

func (c *Controller) ignore(ev Event, err error) {
	switch {
	case errors.Is(err, anchor.ErrTypeMismatch):
		debug.Log("ignoring non-image anchor", "event", ev.String(), "error", err)
	case errors.Is(err, ErrStaleAnchor):
		debug.TrackLog("ignoring stale anchor update", "event", ev.String())
	default:
		c.log.Warn("ignoring event", "event", ev.String(), "error", err)
	}
}

func (c *Controller) apply(ctx context.Context, ev Event, e Effect) {
	switch e {
	case EffectAttachOverlay:
		c.attach(ev.Anchor)
	case EffectSeekToStart:
		c.overlays.SeekToStart(c.target(ev))
	case EffectPlay:
		c.overlays.Play(c.target(ev))
	case EffectPause:
		c.overlays.Pause(c.target(ev))
	case EffectRestart:
		h := c.target(ev)
		c.overlays.OnPlaybackEnded(h)
		if h != nil {
			c.loops++
			c.metrics.loops.Add(ctx, 1)
		}
	case EffectShowPrompt:
		c.prompt.SetVisible(true)
	case EffectHidePrompt:
		c.prompt.SetVisible(false)
	}
}

// target picks the overlay an effect applies to: the one that ended for
// playback-ended events, otherwise the session's.
func (c *Controller) target(ev Event) *overlay.Handle {
	if ev.Kind == EventPlaybackEnded {
		if c.session == nil || ev.Overlay != c.session.Overlay {
			return nil
		}
		return ev.Overlay
	}
	if c.session == nil {
		return nil
	}
	return c.session.Overlay
}

// attach makes a's session the active one, creating its overlay on first
// detection and reusing it on re-detection of the same anchor.
func (c *Controller) attach(a anchor.Anchor) {
	if c.session != nil && c.session.AnchorID == a.ID {
		return
	}

	if c.session != nil {
		c.log.Info("session superseded",
			"session", c.session.ID,
			"anchor", c.session.AnchorID,
			"by", a.ID)
		c.overlays.Release(c.session.Overlay)
	}

	c.session = newSession(a.ID)
	h, err := c.overlays.Create(a.PhysicalSize, c.cfg.Resource)
	if err != nil {
		if errors.Is(err, media.ErrResourceNotFound) {
			c.log.Warn("overlay unavailable, marker stays inert",
				"anchor", a.ID, "resource", c.cfg.Resource, "error", err)
		} else {
			c.log.Error("overlay creation failed", "anchor", a.ID, "error", err)
		}
		return
	}
	c.session.Overlay = h
	c.log.Info("session started",
		"session", c.session.ID,
		"anchor", a.ID,
		"size", a.PhysicalSize.String())
}

func (c *Controller) surface() anchor.Surface {
	if c.session == nil || c.session.Overlay == nil {
		return nil
	}
	return c.session.Overlay
}

func (c *Controller) reply(req request, s anchor.Surface) {
	if req.reply != nil {
		req.reply <- s
	}
}

func (c *Controller) publish(ignored bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap.State = c.machine.State()
	c.snap.Visible = c.machine.Visible()
	c.snap.SessionID = ""
	c.snap.AnchorID = ""
	c.snap.HasOverlay = false
	if c.session != nil {
		c.snap.SessionID = c.session.ID
		c.snap.AnchorID = c.session.AnchorID
		c.snap.HasOverlay = c.session.Overlay != nil
	}
	c.snap.Loops = c.loops
	if ignored {
		c.snap.Ignored++
	} else {
		c.snap.Processed++
	}
}

// teardown releases the session and resets visibility. Only called from Run.
func (c *Controller) teardown() {
	if c.session != nil {
		c.overlays.Release(c.session.Overlay)
		c.log.Info("session ended", "session", c.session.ID)
		c.session = nil
	}
	c.machine.Reset()
	c.prompt.SetVisible(true)

	c.mu.Lock()
	c.snap.State = Searching
	c.snap.Visible = false
	c.snap.SessionID = ""
	c.snap.AnchorID = ""
	c.snap.HasOverlay = false
	c.mu.Unlock()

	c.log.Info("tracking stopped")
}

// String formats the snapshot for status lines.
func (s Snapshot) String() string {
	return fmt.Sprintf("%s visible=%t anchor=%q overlay=%t events=%d ignored=%d loops=%d",
		s.State, s.Visible, s.AnchorID, s.HasOverlay, s.Processed, s.Ignored, s.Loops)
}
