// Package tracking reconciles anchor callbacks and a watchdog timer into a
// single notion of target visibility, and drives the overlay and the
// instruction prompt from it.
//
// Machine is the pure transition function. Controller is the single
// goroutine that serializes every event source before touching Machine,
// the session's overlay, or the prompt.
package tracking

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-marker/pkg/anchor"
	"github.com/teslashibe/go-marker/pkg/overlay"
)

// State is the tracking state.
type State int

const (
	// Searching means no target is visible.
	Searching State = iota

	// Locked means the target is visible and actively tracked.
	Locked
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Searching:
		return "searching"
	case Locked:
		return "locked"
	default:
		return "unknown"
	}
}

// EventKind discriminates events fed to the machine.
type EventKind int

const (
	// EventAnchorCreated fires once per new physical detection.
	EventAnchorCreated EventKind = iota + 1

	// EventAnchorUpdated fires every frame with the tracked flag.
	EventAnchorUpdated

	// EventWatchdogTick fires on the watchdog period.
	EventWatchdogTick

	// EventPlaybackEnded fires when an overlay's media reaches its end.
	EventPlaybackEnded
)

// String returns a human-readable event name.
func (k EventKind) String() string {
	switch k {
	case EventAnchorCreated:
		return "anchor-created"
	case EventAnchorUpdated:
		return "anchor-updated"
	case EventWatchdogTick:
		return "watchdog-tick"
	case EventPlaybackEnded:
		return "playback-ended"
	default:
		return "unknown"
	}
}

// Event is one input to the machine.
type Event struct {
	Kind    EventKind
	Anchor  anchor.Anchor   // AnchorCreated, AnchorUpdated
	Tracked bool            // AnchorUpdated
	Overlay *overlay.Handle // PlaybackEnded
}

// String formats the event for logs.
func (e Event) String() string {
	switch e.Kind {
	case EventAnchorCreated:
		return fmt.Sprintf("%s(%s)", e.Kind, e.Anchor.ID)
	case EventAnchorUpdated:
		return fmt.Sprintf("%s(%s, tracked=%t)", e.Kind, e.Anchor.ID, e.Tracked)
	default:
		return e.Kind.String()
	}
}

// Created builds an anchor-created event.
func Created(a anchor.Anchor) Event {
	return Event{Kind: EventAnchorCreated, Anchor: a}
}

// Updated builds an anchor-updated event.
func Updated(a anchor.Anchor, tracked bool) Event {
	return Event{Kind: EventAnchorUpdated, Anchor: a, Tracked: tracked}
}

// Tick builds a watchdog-tick event.
func Tick() Event {
	return Event{Kind: EventWatchdogTick}
}

// Effect is a side effect a transition asks the controller to perform.
type Effect int

const (
	// EffectAttachOverlay creates or reuses the session's overlay.
	EffectAttachOverlay Effect = iota + 1
	EffectSeekToStart
	EffectPlay
	EffectPause
	EffectRestart
	EffectShowPrompt
	EffectHidePrompt
)

// String returns a human-readable effect name.
func (e Effect) String() string {
	switch e {
	case EffectAttachOverlay:
		return "attach"
	case EffectSeekToStart:
		return "seek-to-start"
	case EffectPlay:
		return "play"
	case EffectPause:
		return "pause"
	case EffectRestart:
		return "restart"
	case EffectShowPrompt:
		return "show-prompt"
	case EffectHidePrompt:
		return "hide-prompt"
	default:
		return "unknown"
	}
}

// Transition is the result of applying one event.
type Transition struct {
	Event   Event
	From    State
	To      State
	Effects []Effect
}

// Changed reports whether the state changed.
func (t Transition) Changed() bool {
	return t.From != t.To
}

// String formats the transition for logs.
func (t Transition) String() string {
	names := make([]string, len(t.Effects))
	for i, e := range t.Effects {
		names[i] = e.String()
	}
	return fmt.Sprintf("%s: %s -> %s [%s]", t.Event, t.From, t.To, strings.Join(names, ", "))
}
