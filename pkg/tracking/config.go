package tracking

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-marker/pkg/overlay"
)

// Config holds the tracking controller's tunables
type Config struct {
	// WatchdogPeriod is the fallback liveness check interval. It is a
	// backstop for absent updates, never the primary visibility signal.
	WatchdogPeriod time.Duration

	// EventBuffer is the queue depth between event sources and the controller.
	EventBuffer int

	// Resource is the media resource bound to each overlay.
	Resource string
}

// DefaultConfig returns the production configuration
func DefaultConfig() Config {
	return Config{
		WatchdogPeriod: 2 * time.Second,
		EventBuffer:    64,
		Resource:       overlay.DefaultResource,
	}
}

// Validate checks the configuration is usable
func (c Config) Validate() error {
	if c.WatchdogPeriod <= 0 {
		return fmt.Errorf("%w: watchdog period must be positive, got %v", ErrInvalidConfig, c.WatchdogPeriod)
	}
	if c.EventBuffer < 1 {
		return fmt.Errorf("%w: event buffer must be at least 1, got %d", ErrInvalidConfig, c.EventBuffer)
	}
	if c.Resource == "" {
		return fmt.Errorf("%w: empty media resource", ErrInvalidConfig)
	}
	return nil
}
