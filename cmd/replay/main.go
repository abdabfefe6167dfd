// Replay - runs a scripted marker timeline through the overlay controller
//
// No camera or video files needed: overlay clips are simulated with a
// wall-clock player, and the prompt is printed every time it changes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/teslashibe/go-marker/internal/log"
	"github.com/teslashibe/go-marker/pkg/anchor"
	"github.com/teslashibe/go-marker/pkg/anchor/script"
	"github.com/teslashibe/go-marker/pkg/debug"
	"github.com/teslashibe/go-marker/pkg/media"
	"github.com/teslashibe/go-marker/pkg/overlay"
	"github.com/teslashibe/go-marker/pkg/tracking"
	"github.com/teslashibe/go-marker/pkg/ui"
	"github.com/teslashibe/go-marker/pkg/view"
)

// defaultClip is the simulated length of resources the script doesn't list.
const defaultClip = 3 * time.Second

var (
	logLevel string
	hold     time.Duration
	watchdog time.Duration
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:          "replay <script.yaml>",
	Short:        "Replay a scripted marker timeline",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	f.DurationVar(&hold, "hold", time.Second, "Keep the view up this long after the last step")
	f.DurationVar(&watchdog, "watchdog", tracking.DefaultConfig().WatchdogPeriod, "Prompt liveness check period")
	f.BoolVarP(&verbose, "verbose", "v", false, "Log every tracking effect")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	log.InitWriter(os.Stderr, logLevel)
	debug.Enabled = verbose
	debug.Tracking = verbose

	sc, err := script.Load(args[0])
	if err != nil {
		return err
	}

	catalog := media.Catalog{overlay.DefaultResource: defaultClip}
	for name, d := range sc.Resources {
		catalog[name] = d
	}

	cfg := tracking.DefaultConfig()
	cfg.WatchdogPeriod = watchdog

	exec := ui.NewExecutor(16)
	defer exec.Close()

	label := ui.NewLogLabel(os.Stdout, ui.DefaultPromptText)
	screen := view.New(view.Config{
		Tracking:     cfg,
		Anchors:      anchor.SingleImageConfig(sc.Reference()),
		OnTransition: printTransition,
	}, script.NewSource(sc), catalog, exec, label)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("▶️  Replaying %s (%d steps, %s)\n", args[0], len(sc.Steps), sc.Length())
	if err := screen.Appear(ctx); err != nil {
		return err
	}

	var srcErr error
	select {
	case <-ctx.Done():
	case srcErr = <-screen.SourceDone():
		if srcErr == nil {
			sleep(ctx, hold)
		}
	}

	snap := screen.Tracker().Snapshot()
	screen.Disappear()
	exec.Sync()

	fmt.Printf("⏹️  Final: %s\n", snap)
	if srcErr != nil && ctx.Err() == nil {
		return srcErr
	}
	return nil
}

func printTransition(t tracking.Transition) {
	if t.Changed() {
		fmt.Printf("          state  %s → %s (%s)\n", t.From, t.To, t.Event)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
