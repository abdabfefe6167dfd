package media

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockPlayer_PlayPause(t *testing.T) {
	p := NewClockPlayer(time.Second)
	assert.False(t, p.Playing())
	assert.Equal(t, time.Duration(0), p.Position())

	p.Play()
	assert.True(t, p.Playing())
	time.Sleep(20 * time.Millisecond)

	p.Pause()
	assert.False(t, p.Playing())
	pos := p.Position()
	assert.Greater(t, pos, time.Duration(0))

	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, pos, p.Position(), "position moved while paused")
}

func TestClockPlayer_SeekClamps(t *testing.T) {
	p := NewClockPlayer(100 * time.Millisecond)

	p.Seek(-time.Second)
	assert.Equal(t, time.Duration(0), p.Position())

	p.Seek(time.Hour)
	assert.Equal(t, 100*time.Millisecond, p.Position())

	p.Seek(40 * time.Millisecond)
	assert.Equal(t, 40*time.Millisecond, p.Position())
}

func TestClockPlayer_EndNotifies(t *testing.T) {
	p := NewClockPlayer(20 * time.Millisecond)
	var ends atomic.Int32
	p.OnEnd(func() { ends.Add(1) })

	p.Play()
	require.Eventually(t, func() bool { return ends.Load() == 1 }, time.Second, time.Millisecond)
	assert.False(t, p.Playing())
	assert.Equal(t, p.Duration(), p.Position())

	// Play at the end does nothing until rewound.
	p.Play()
	assert.False(t, p.Playing())

	p.Seek(0)
	p.Play()
	require.Eventually(t, func() bool { return ends.Load() == 2 }, time.Second, time.Millisecond)
}

func TestClockPlayer_SeekWhilePlayingReschedules(t *testing.T) {
	p := NewClockPlayer(100 * time.Millisecond)
	var ends atomic.Int32
	p.OnEnd(func() { ends.Add(1) })

	p.Play()
	time.Sleep(60 * time.Millisecond)
	p.Seek(0)
	time.Sleep(60 * time.Millisecond)
	assert.Zero(t, ends.Load(), "stale timer fired after seek")

	require.Eventually(t, func() bool { return ends.Load() == 1 }, time.Second, time.Millisecond)
}

func TestClockPlayer_PauseCancelsEnd(t *testing.T) {
	p := NewClockPlayer(20 * time.Millisecond)
	var ends atomic.Int32
	p.OnEnd(func() { ends.Add(1) })

	p.Play()
	p.Pause()
	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, ends.Load())
}

func TestClockPlayer_RemoveObserver(t *testing.T) {
	p := NewClockPlayer(10 * time.Millisecond)
	var ends atomic.Int32
	remove := p.OnEnd(func() { ends.Add(1) })
	assert.Equal(t, 1, p.Observers())

	remove()
	remove()
	assert.Zero(t, p.Observers())

	p.Play()
	require.Eventually(t, func() bool { return !p.Playing() }, time.Second, time.Millisecond)
	assert.Zero(t, ends.Load())
}

func TestClockPlayer_Close(t *testing.T) {
	p := NewClockPlayer(10 * time.Millisecond)
	var ends atomic.Int32
	p.OnEnd(func() { ends.Add(1) })
	p.Play()

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.False(t, p.Playing())
	assert.Zero(t, p.Observers())

	p.Play()
	assert.False(t, p.Playing())
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, ends.Load())
}
