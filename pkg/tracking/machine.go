package tracking

import (
	"fmt"

	"github.com/teslashibe/go-marker/pkg/anchor"
)

// Machine is the tracking state machine. It has no side effects and is not
// safe for concurrent use; Controller owns it from a single goroutine.
type Machine struct {
	state    State
	anchorID string // anchor of the active session, empty if none
}

// NewMachine returns a machine in Searching with no session.
func NewMachine() *Machine {
	return &Machine{state: Searching}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Visible reports whether the target is currently visible.
func (m *Machine) Visible() bool {
	return m.state == Locked
}

// AnchorID returns the anchor bound to the active session.
func (m *Machine) AnchorID() string {
	return m.anchorID
}

// Reset returns to Searching and forgets the session anchor.
func (m *Machine) Reset() {
	m.state = Searching
	m.anchorID = ""
}

// Apply computes the transition for ev and moves to the new state.
// Ignored events return a no-op transition and an error explaining why.
func (m *Machine) Apply(ev Event) (Transition, error) {
	t := Transition{Event: ev, From: m.state, To: m.state}

	switch ev.Kind {
	case EventAnchorCreated:
		if err := anchor.CheckImage(ev.Anchor); err != nil {
			return t, err
		}
		m.anchorID = ev.Anchor.ID
		t.To = Locked
		t.Effects = []Effect{EffectAttachOverlay, EffectSeekToStart, EffectPlay, EffectHidePrompt}

	case EventAnchorUpdated:
		if err := anchor.CheckImage(ev.Anchor); err != nil {
			return t, err
		}
		if ev.Anchor.ID != m.anchorID {
			return t, fmt.Errorf("%w: %s (session anchor %q)", ErrStaleAnchor, ev.Anchor.ID, m.anchorID)
		}
		switch {
		case ev.Tracked && m.state == Searching:
			t.To = Locked
			t.Effects = []Effect{EffectPlay, EffectHidePrompt}
		case !ev.Tracked && m.state == Locked:
			t.To = Searching
			t.Effects = []Effect{EffectPause, EffectSeekToStart, EffectShowPrompt}
		}

	case EventWatchdogTick:
		// Only ever reasserts the prompt, never clears it.
		if m.state == Searching {
			t.Effects = []Effect{EffectShowPrompt}
		}

	case EventPlaybackEnded:
		if m.state == Locked {
			t.Effects = []Effect{EffectRestart}
		} else {
			t.Effects = []Effect{EffectSeekToStart}
		}

	default:
		return t, fmt.Errorf("%w: kind %d", ErrUnknownEvent, ev.Kind)
	}

	m.state = t.To
	return t, nil
}
