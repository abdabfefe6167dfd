// Package view owns the active lifetime of the marker overlay screen.
//
// Appear builds a fresh tracking session, starts the watchdog and the
// anchor source; Disappear tears all of it down. Nothing outlives the
// activation that created it.
package view

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-marker/internal/log"
	"github.com/teslashibe/go-marker/pkg/anchor"
	"github.com/teslashibe/go-marker/pkg/media"
	"github.com/teslashibe/go-marker/pkg/overlay"
	"github.com/teslashibe/go-marker/pkg/tracking"
	"github.com/teslashibe/go-marker/pkg/ui"
)

// Config holds everything an activation needs.
type Config struct {
	Tracking tracking.Config
	Anchors  anchor.Config

	// OnTransition is installed on each activation's tracking controller.
	OnTransition func(tracking.Transition)
}

// Controller manages activations of the view.
type Controller struct {
	cfg    Config
	source anchor.Source
	lib    media.Library
	prompt *ui.Prompt
	log    *slog.Logger

	mu     sync.Mutex
	active *activation
}

type activation struct {
	cancel   context.CancelFunc
	tracker  *tracking.Controller
	overlays *overlay.Controller
	watchdog *tracking.Watchdog
	wg       sync.WaitGroup
	errs     chan error
}

// New creates an inactive view.
func New(cfg Config, source anchor.Source, lib media.Library, dispatcher ui.Dispatcher, label ui.Label) *Controller {
	return &Controller{
		cfg:    cfg,
		source: source,
		lib:    lib,
		prompt: ui.NewPrompt(dispatcher, label),
		log:    log.Component("view"),
	}
}

// Appear activates the view. An existing activation is torn down first.
func (v *Controller) Appear(ctx context.Context) error {
	if err := v.cfg.Anchors.Validate(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.active != nil {
		v.stopLocked()
	}

	a := &activation{errs: make(chan error, 1)}

	var tracker *tracking.Controller
	a.overlays = overlay.NewController(v.lib,
		overlay.WithLogger(log.Component("overlay")),
		overlay.WithEndNotifier(func(h *overlay.Handle) { tracker.PlaybackEnded(h) }))

	tracker, err := tracking.NewController(v.cfg.Tracking, a.overlays, v.prompt)
	if err != nil {
		return err
	}
	tracker.OnTransition = v.cfg.OnTransition
	a.tracker = tracker
	a.watchdog = tracking.NewWatchdog(v.cfg.Tracking.WatchdogPeriod, tracker.Tick)

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		if err := tracker.Run(runCtx); err != nil {
			v.log.Error("tracking controller exited", "error", err)
		}
	}()
	go func() {
		defer a.wg.Done()
		err := v.source.Run(runCtx, v.cfg.Anchors, tracker)
		if err != nil && !errors.Is(err, context.Canceled) {
			v.log.Error("anchor source stopped", "error", err)
		}
		a.errs <- err
		close(a.errs)
	}()

	a.watchdog.Start()
	v.active = a
	v.log.Info("view appeared", "watchdog", a.watchdog.Period())
	return nil
}

// Disappear tears the activation down. Safe to call when inactive.
func (v *Controller) Disappear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stopLocked()
}

func (v *Controller) stopLocked() {
	a := v.active
	if a == nil {
		return
	}
	v.active = nil

	a.watchdog.Stop()
	a.cancel()
	a.wg.Wait()
	v.log.Info("view disappeared")
}

// Active reports whether the view is active.
func (v *Controller) Active() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active != nil
}

// Tracker returns the active tracking controller, or nil.
func (v *Controller) Tracker() *tracking.Controller {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.active == nil {
		return nil
	}
	return v.active.tracker
}

// SourceDone delivers the anchor source's exit error once it stops.
// Returns nil when inactive.
func (v *Controller) SourceDone() <-chan error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.active == nil {
		return nil
	}
	return v.active.errs
}
