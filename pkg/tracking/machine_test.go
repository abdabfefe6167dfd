package tracking

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-marker/pkg/anchor"
)

func imageAnchor(id string) anchor.Anchor {
	return anchor.Anchor{ID: id, Kind: anchor.KindImage, PhysicalSize: anchor.Size{Width: 0.2, Height: 0.15}}
}

func locked(t *testing.T, id string) *Machine {
	t.Helper()
	m := NewMachine()
	_, err := m.Apply(Created(imageAnchor(id)))
	require.NoError(t, err)
	return m
}

func TestMachine_StartsSearching(t *testing.T) {
	m := NewMachine()
	assert.Equal(t, Searching, m.State())
	assert.False(t, m.Visible())
	assert.Empty(t, m.AnchorID())
}

func TestMachine_Transitions(t *testing.T) {
	a := imageAnchor("a1")

	tests := []struct {
		name    string
		start   State
		event   Event
		want    State
		effects []Effect
	}{
		{"created from searching", Searching, Created(a), Locked,
			[]Effect{EffectAttachOverlay, EffectSeekToStart, EffectPlay, EffectHidePrompt}},
		{"created while locked", Locked, Created(a), Locked,
			[]Effect{EffectAttachOverlay, EffectSeekToStart, EffectPlay, EffectHidePrompt}},
		{"tracked resumes", Searching, Updated(a, true), Locked,
			[]Effect{EffectPlay, EffectHidePrompt}},
		{"tracked while locked", Locked, Updated(a, true), Locked, nil},
		{"lost while locked", Locked, Updated(a, false), Searching,
			[]Effect{EffectPause, EffectSeekToStart, EffectShowPrompt}},
		{"lost while searching", Searching, Updated(a, false), Searching, nil},
		{"tick while searching", Searching, Tick(), Searching, []Effect{EffectShowPrompt}},
		{"tick while locked", Locked, Tick(), Locked, nil},
		{"end while locked", Locked, Event{Kind: EventPlaybackEnded}, Locked, []Effect{EffectRestart}},
		{"end while searching", Searching, Event{Kind: EventPlaybackEnded}, Searching, []Effect{EffectSeekToStart}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := locked(t, a.ID)
			if tt.start == Searching {
				_, err := m.Apply(Updated(a, false))
				require.NoError(t, err)
			}
			require.Equal(t, tt.start, m.State())

			tr, err := m.Apply(tt.event)
			require.NoError(t, err)
			assert.Equal(t, tt.start, tr.From)
			assert.Equal(t, tt.want, tr.To)
			assert.Equal(t, tt.want, m.State())
			assert.Equal(t, tt.effects, tr.Effects)
			assert.Equal(t, tt.start != tt.want, tr.Changed())
		})
	}
}

func TestMachine_IgnoresNonImageAnchors(t *testing.T) {
	m := locked(t, "a1")

	plane := anchor.Anchor{ID: "a1", Kind: anchor.KindPlane}
	tr, err := m.Apply(Updated(plane, false))
	require.ErrorIs(t, err, anchor.ErrTypeMismatch)
	assert.Empty(t, tr.Effects)
	assert.Equal(t, Locked, m.State())

	_, err = m.Apply(Created(anchor.Anchor{ID: "f1", Kind: anchor.KindFace}))
	require.ErrorIs(t, err, anchor.ErrTypeMismatch)
	assert.Equal(t, "a1", m.AnchorID())
}

func TestMachine_StaleUpdates(t *testing.T) {
	m := NewMachine()
	_, err := m.Apply(Updated(imageAnchor("a1"), true))
	require.ErrorIs(t, err, ErrStaleAnchor, "update without a session")
	assert.Equal(t, Searching, m.State())

	m = locked(t, "a1")
	_, err = m.Apply(Updated(imageAnchor("other"), false))
	require.ErrorIs(t, err, ErrStaleAnchor)
	assert.Equal(t, Locked, m.State())
}

func TestMachine_NewAnchorReplacesSession(t *testing.T) {
	m := locked(t, "a1")
	_, err := m.Apply(Created(imageAnchor("a2")))
	require.NoError(t, err)
	assert.Equal(t, "a2", m.AnchorID())

	_, err = m.Apply(Updated(imageAnchor("a1"), false))
	assert.ErrorIs(t, err, ErrStaleAnchor)
	assert.True(t, m.Visible())
}

func TestMachine_UnknownEvent(t *testing.T) {
	m := NewMachine()
	_, err := m.Apply(Event{})
	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestMachine_Reset(t *testing.T) {
	m := locked(t, "a1")
	m.Reset()
	assert.Equal(t, Searching, m.State())
	assert.Empty(t, m.AnchorID())
}

// Visibility always equals the tracked flag of the last applied update, and
// the prompt effects always agree with it.
func TestMachine_RandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	a := imageAnchor("a1")

	for run := 0; run < 200; run++ {
		m := NewMachine()
		_, err := m.Apply(Created(a))
		require.NoError(t, err)
		lastTracked := true
		prompt := false

		for step := 0; step < 100; step++ {
			var ev Event
			switch rng.Intn(4) {
			case 0:
				ev = Tick()
			case 1:
				ev = Event{Kind: EventPlaybackEnded}
			default:
				lastTracked = rng.Intn(2) == 0
				ev = Updated(a, lastTracked)
			}

			before := m.Visible()
			tr, err := m.Apply(ev)
			require.NoError(t, err)

			if ev.Kind == EventWatchdogTick {
				assert.False(t, before && !m.Visible(), "watchdog cleared visibility")
			}
			for _, e := range tr.Effects {
				switch e {
				case EffectShowPrompt:
					prompt = true
				case EffectHidePrompt:
					prompt = false
				}
			}

			require.Equal(t, lastTracked, m.Visible(), "run %d step %d", run, step)
			require.Equal(t, !m.Visible(), prompt, "run %d step %d", run, step)
		}
	}
}

func TestMachine_RepeatedTrackedResumesOnce(t *testing.T) {
	a := imageAnchor("a1")
	m := locked(t, a.ID)
	_, err := m.Apply(Updated(a, false))
	require.NoError(t, err)

	plays := 0
	for i := 0; i < 30; i++ {
		tr, err := m.Apply(Updated(a, true))
		require.NoError(t, err)
		for _, e := range tr.Effects {
			if e == EffectPlay {
				plays++
			}
		}
	}
	assert.Equal(t, 1, plays)
}

func TestTransition_String(t *testing.T) {
	m := NewMachine()
	tr, err := m.Apply(Created(imageAnchor("a1")))
	require.NoError(t, err)
	assert.Equal(t, "anchor-created(a1): searching -> locked [attach, seek-to-start, play, hide-prompt]", tr.String())
}
