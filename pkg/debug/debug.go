// Package debug provides global verbose-logging switches
package debug

import "github.com/teslashibe/go-marker/internal/log"

// Enabled controls whether debug logging is active
var Enabled bool

// Tracking controls per-frame anchor logs (every tracked/untracked callback).
// These are very noisy at camera frame rate, so they have their own flag.
var Tracking bool

// Log emits a message only if debug mode is enabled. The switch is the
// filter, so output goes out at info and shows under the default level.
func Log(msg string, args ...any) {
	if Enabled {
		log.Info(msg, append(args, "debug", true)...)
	}
}

// TrackLog emits a message only if tracking debug mode is enabled
func TrackLog(msg string, args ...any) {
	if Tracking {
		log.Info(msg, append(args, "debug", "tracking")...)
	}
}
