// Package media defines the boundary to the media-playback subsystem and
// provides a software-timed player plus named-resource resolution.
package media

import (
	"image"
	"time"
)

// Player plays one media resource. Implementations must be safe for
// concurrent use.
type Player interface {
	// Play starts or resumes playback. No-op if already playing.
	Play()

	// Pause halts playback at the current position. No-op if paused.
	Pause()

	// Seek moves the playhead. Positions are clamped to [0, Duration].
	Seek(pos time.Duration)

	// Playing reports whether the player is advancing.
	Playing() bool

	// Position returns the current playhead.
	Position() time.Duration

	// Duration returns the total length of the resource.
	Duration() time.Duration

	// OnEnd registers fn to run when playback reaches the end.
	// The returned func removes the observer; calling it twice is safe.
	OnEnd(fn func()) (remove func())

	// Close releases decoder resources. Further calls are no-ops.
	Close() error
}

// FrameSource is implemented by players that expose decoded frames.
type FrameSource interface {
	// Frame returns the most recently decoded frame.
	Frame() (image.Image, bool)
}

// Library resolves named bundled resources into players.
type Library interface {
	// Open returns a player for name, or an error wrapping ErrResourceNotFound.
	Open(name string) (Player, error)
}
