package overlay

import (
	"bytes"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/teslashibe/go-marker/internal/log"
	"github.com/teslashibe/go-marker/pkg/anchor"
	"github.com/teslashibe/go-marker/pkg/media"
)

// countingPlayer wraps a ClockPlayer and counts Play/Pause calls.
type countingPlayer struct {
	*media.ClockPlayer
	mu     sync.Mutex
	plays  int
	pauses int
}

func (p *countingPlayer) Play() {
	p.mu.Lock()
	p.plays++
	p.mu.Unlock()
	p.ClockPlayer.Play()
}

func (p *countingPlayer) Pause() {
	p.mu.Lock()
	p.pauses++
	p.mu.Unlock()
	p.ClockPlayer.Pause()
}

func (p *countingPlayer) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.plays, p.pauses
}

type libraryFunc func(name string) (media.Player, error)

func (f libraryFunc) Open(name string) (media.Player, error) { return f(name) }

func newTestController(t *testing.T, d time.Duration, opts ...Option) (*Controller, *[]*countingPlayer) {
	t.Helper()
	var mu sync.Mutex
	players := &[]*countingPlayer{}
	lib := libraryFunc(func(name string) (media.Player, error) {
		if name != DefaultResource {
			return nil, media.ErrResourceNotFound
		}
		p := &countingPlayer{ClockPlayer: media.NewClockPlayer(d)}
		mu.Lock()
		*players = append(*players, p)
		mu.Unlock()
		return p, nil
	})
	opts = append([]Option{WithLogger(log.Discard())}, opts...)
	return NewController(lib, opts...), players
}

var marker = anchor.Size{Width: 0.2, Height: 0.15}

func TestNewMesh_Geometry(t *testing.T) {
	m := NewMesh(marker)
	assert.InDelta(t, 0.2, m.Width, 1e-9)
	assert.InDelta(t, 0.1125, m.Height, 1e-9)
	assert.InDelta(t, -math.Pi/2, m.Rotation.X, 1e-9)
	assert.InDelta(t, 0.001, m.Position.Y, 1e-9)
	assert.True(t, m.Material.AlphaBlending)
	assert.InDelta(t, 0.1, m.Material.DiscardBelowAlpha, 1e-9)
	assert.Equal(t, anchor.Size{Width: m.Width, Height: m.Height}, m.Size())
}

func TestController_Create(t *testing.T) {
	c, _ := newTestController(t, time.Second)

	h, err := c.Create(marker, DefaultResource)
	require.NoError(t, err)
	assert.NotEmpty(t, h.ID)
	assert.Equal(t, DefaultResource, h.Resource)
	assert.InDelta(t, 0.1125, h.SurfaceSize().Height, 1e-9)
	assert.False(t, h.Player().Playing(), "created paused")
	assert.Equal(t, 1, c.Observers())

	_, ok := h.Texture()
	assert.False(t, ok, "clock players have no frames")
}

func TestNewController_DefaultLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	log.InitWriter(&buf, "info")
	t.Cleanup(func() { log.Init("info") })

	c := NewController(media.Catalog{DefaultResource: time.Second})
	h, err := c.Create(marker, DefaultResource)
	require.NoError(t, err)
	c.Release(h)

	assert.Contains(t, buf.String(), "overlay created")
	assert.Contains(t, buf.String(), "component=overlay")
}

func TestController_CreateMissingResource(t *testing.T) {
	c, _ := newTestController(t, time.Second)
	h, err := c.Create(marker, "nope")
	assert.Nil(t, h)
	assert.ErrorIs(t, err, media.ErrResourceNotFound)
	assert.Zero(t, c.Observers())
}

func TestController_PlayPauseIdempotent(t *testing.T) {
	c, players := newTestController(t, time.Second)
	h, err := c.Create(marker, DefaultResource)
	require.NoError(t, err)
	p := (*players)[0]

	c.Play(h)
	c.Play(h)
	c.Play(h)
	plays, _ := p.counts()
	assert.Equal(t, 1, plays)

	c.Pause(h)
	c.Pause(h)
	_, pauses := p.counts()
	assert.Equal(t, 1, pauses)
}

func TestController_NilHandle(t *testing.T) {
	c, _ := newTestController(t, time.Second)
	assert.NotPanics(t, func() {
		c.Play(nil)
		c.Pause(nil)
		c.SeekToStart(nil)
		c.OnPlaybackEnded(nil)
		c.Release(nil)
	})
}

func TestController_SeekToStart(t *testing.T) {
	c, _ := newTestController(t, time.Second)
	h, err := c.Create(marker, DefaultResource)
	require.NoError(t, err)

	h.Player().Seek(500 * time.Millisecond)
	c.SeekToStart(h)
	assert.Equal(t, time.Duration(0), h.Player().Position())
	c.SeekToStart(h)
	assert.Equal(t, time.Duration(0), h.Player().Position())
}

func TestController_LoopsOnEnd(t *testing.T) {
	c, _ := newTestController(t, 20*time.Millisecond)
	h, err := c.Create(marker, DefaultResource)
	require.NoError(t, err)

	c.Play(h)
	time.Sleep(70 * time.Millisecond)
	require.Eventually(t, func() bool {
		return h.Player().Playing() && h.Player().Position() < 20*time.Millisecond
	}, time.Second, time.Millisecond)
}

func TestController_OneObserverPerResource(t *testing.T) {
	var mu sync.Mutex
	ended := map[string]int{}
	c, players := newTestController(t, 20*time.Millisecond, WithEndNotifier(func(h *Handle) {
		mu.Lock()
		ended[h.ID]++
		mu.Unlock()
	}))

	first, err := c.Create(marker, DefaultResource)
	require.NoError(t, err)
	second, err := c.Create(marker, DefaultResource)
	require.NoError(t, err)

	assert.Equal(t, 1, c.Observers())
	assert.Zero(t, (*players)[0].Observers(), "earlier observer not removed")
	assert.Equal(t, 1, (*players)[1].Observers())

	c.Play(first)
	c.Play(second)
	time.Sleep(60 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Zero(t, ended[first.ID])
	assert.Equal(t, 1, ended[second.ID], "notifier owns looping, so one end per playthrough")
}

func TestController_Release(t *testing.T) {
	c, players := newTestController(t, time.Second)
	h, err := c.Create(marker, DefaultResource)
	require.NoError(t, err)
	c.Play(h)

	c.Release(h)
	c.Release(h)
	assert.Zero(t, c.Observers())
	assert.False(t, h.Player().Playing())

	c.Play(h)
	plays, _ := (*players)[0].counts()
	assert.Equal(t, 1, plays, "released handles are inert")
}

func TestController_ReleaseKeepsNewerObserver(t *testing.T) {
	c, _ := newTestController(t, time.Second)
	old, err := c.Create(marker, DefaultResource)
	require.NoError(t, err)
	current, err := c.Create(marker, DefaultResource)
	require.NoError(t, err)

	c.Release(old)
	assert.Equal(t, 1, c.Observers())

	c.Release(current)
	assert.Zero(t, c.Observers())
}

func TestProjectQuad(t *testing.T) {
	square := [4]Point{{0, 0}, {100, 0}, {100, 100}, {0, 100}}

	same := ProjectQuad(square, anchor.Size{Width: 1, Height: 1}, anchor.Size{Width: 1, Height: 1})
	assert.Equal(t, square, same)

	// 0.2x0.15 marker, 0.2x0.1125 overlay: full width, 75% height, centered.
	q := ProjectQuad(square, marker, NewMesh(marker).Size())
	assert.InDelta(t, 0, q[0].X, 1e-9)
	assert.InDelta(t, 12.5, q[0].Y, 1e-9)
	assert.InDelta(t, 100, q[2].X, 1e-9)
	assert.InDelta(t, 87.5, q[2].Y, 1e-9)
}
