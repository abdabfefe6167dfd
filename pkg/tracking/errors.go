package tracking

import "errors"

var (
	// ErrStaleAnchor is returned for updates about an anchor that isn't the
	// active session's. The update is ignored.
	ErrStaleAnchor = errors.New("update for inactive anchor")

	// ErrUnknownEvent is returned for events the machine doesn't handle.
	ErrUnknownEvent = errors.New("unknown event")

	// ErrControllerStopped is returned when delivering to a stopped controller.
	ErrControllerStopped = errors.New("tracking controller stopped")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid tracking config")
)
