// Package overlay owns the video surface attached to a tracked marker.
//
// A Handle binds one mesh to one media player. The Controller creates
// handles, drives their playback idempotently and keeps exactly one
// end-of-media observer per resource, which is what makes the video loop.
package overlay

import (
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/teslashibe/go-marker/internal/log"
	"github.com/teslashibe/go-marker/pkg/anchor"
	"github.com/teslashibe/go-marker/pkg/media"
)

// Handle is one overlay instance: a mesh with a bound player.
type Handle struct {
	ID       string
	Resource string
	Mesh     Mesh

	player   media.Player
	released bool
}

// SurfaceSize implements anchor.Surface.
func (h *Handle) SurfaceSize() anchor.Size {
	return h.Mesh.Size()
}

// Player returns the bound media player.
func (h *Handle) Player() media.Player {
	return h.player
}

// Texture returns the current video frame when the player decodes frames.
func (h *Handle) Texture() (image.Image, bool) {
	if fs, ok := h.player.(media.FrameSource); ok {
		return fs.Frame()
	}
	return nil, false
}

// EndNotifier receives end-of-media notifications instead of the
// controller looping the handle itself.
type EndNotifier func(h *Handle)

// Option configures a Controller.
type Option func(*Controller)

// WithEndNotifier routes end-of-media notifications to fn. The owner is then
// responsible for calling OnPlaybackEnded.
func WithEndNotifier(fn EndNotifier) Option {
	return func(c *Controller) {
		c.notify = fn
	}
}

// WithLogger sets the controller's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

type observer struct {
	handle *Handle
	remove func()
}

// Controller creates overlays and drives their playback.
type Controller struct {
	lib    media.Library
	notify EndNotifier
	log    *slog.Logger

	mu        sync.Mutex
	observers map[string]observer // one end observer per resource
}

// NewController creates a controller opening media from lib.
func NewController(lib media.Library, opts ...Option) *Controller {
	c := &Controller{
		lib:       lib,
		log:       log.Component("overlay"),
		observers: make(map[string]observer),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Create builds an overlay for a marker of the given physical size bound to
// resource. It fails with media.ErrResourceNotFound if the resource is missing.
func (c *Controller) Create(size anchor.Size, resource string) (*Handle, error) {
	player, err := c.lib.Open(resource)
	if err != nil {
		return nil, fmt.Errorf("create overlay: %w", err)
	}

	h := &Handle{
		ID:       uuid.NewString(),
		Resource: resource,
		Mesh:     NewMesh(size),
		player:   player,
	}
	c.register(h)

	c.log.Info("overlay created",
		"overlay", h.ID,
		"resource", resource,
		"width", h.Mesh.Width,
		"height", h.Mesh.Height)
	return h, nil
}

// register installs the end observer for h, removing any earlier observer
// for the same resource so one end-of-media never loops twice.
func (c *Controller) register(h *Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.observers[h.Resource]; ok {
		prev.remove()
		c.log.Debug("replaced end observer", "resource", h.Resource, "previous", prev.handle.ID)
	}

	remove := h.player.OnEnd(func() { c.ended(h) })
	c.observers[h.Resource] = observer{handle: h, remove: remove}
}

func (c *Controller) ended(h *Handle) {
	if c.notify != nil {
		c.notify(h)
		return
	}
	c.OnPlaybackEnded(h)
}

// Play starts playback. No-op for nil handles or if already playing.
func (c *Controller) Play(h *Handle) {
	if !c.usable(h) || h.player.Playing() {
		return
	}
	h.player.Play()
}

// Pause halts playback. No-op for nil handles or if already paused.
func (c *Controller) Pause(h *Handle) {
	if !c.usable(h) || !h.player.Playing() {
		return
	}
	h.player.Pause()
}

// SeekToStart always repositions to the start.
func (c *Controller) SeekToStart(h *Handle) {
	if !c.usable(h) {
		return
	}
	h.player.Seek(0)
}

// OnPlaybackEnded restarts the handle from the top.
func (c *Controller) OnPlaybackEnded(h *Handle) {
	if !c.usable(h) {
		return
	}
	c.log.Debug("overlay looped", "overlay", h.ID)
	c.SeekToStart(h)
	c.Play(h)
}

// Release removes the handle's observer and closes its player.
// Safe to call more than once and with nil.
func (c *Controller) Release(h *Handle) {
	if h == nil {
		return
	}

	c.mu.Lock()
	if h.released {
		c.mu.Unlock()
		return
	}
	h.released = true
	if obs, ok := c.observers[h.Resource]; ok && obs.handle == h {
		obs.remove()
		delete(c.observers, h.Resource)
	}
	c.mu.Unlock()

	if err := h.player.Close(); err != nil {
		c.log.Warn("closing overlay player", "overlay", h.ID, "error", err)
	}
	c.log.Info("overlay released", "overlay", h.ID)
}

// Observers returns how many end observers are registered.
func (c *Controller) Observers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.observers)
}

func (c *Controller) usable(h *Handle) bool {
	if h == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return !h.released
}
