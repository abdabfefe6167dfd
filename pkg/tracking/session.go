package tracking

import (
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-marker/pkg/overlay"
)

// Session is the lifecycle of one detected marker instance.
// At most one is active per Controller.
type Session struct {
	ID        string
	AnchorID  string
	StartedAt time.Time

	// Overlay is created lazily on first detection and reused across
	// re-detections. Nil if creation failed.
	Overlay *overlay.Handle
}

func newSession(anchorID string) *Session {
	return &Session{
		ID:        uuid.NewString(),
		AnchorID:  anchorID,
		StartedAt: time.Now(),
	}
}
