// Marker overlay - plays a video pinned to a printed marker
//
// Watches the camera for an ArUco marker standing in for the reference
// image, plays the overlay clip while it is in view, and shows a prompt
// in the terminal while it isn't.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/teslashibe/go-marker/internal/config"
	"github.com/teslashibe/go-marker/internal/log"
	"github.com/teslashibe/go-marker/pkg/anchor/aruco"
	"github.com/teslashibe/go-marker/pkg/debug"
	"github.com/teslashibe/go-marker/pkg/media"
	"github.com/teslashibe/go-marker/pkg/media/capture"
	"github.com/teslashibe/go-marker/pkg/tracking"
	"github.com/teslashibe/go-marker/pkg/ui"
	"github.com/teslashibe/go-marker/pkg/ui/tui"
	"github.com/teslashibe/go-marker/pkg/view"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:   "marker-overlay",
	Short: "Play a video overlay on a tracked marker",
	Long: "Detects an ArUco marker with the camera, plays the overlay clip from the media\n" +
		"directory while the marker is tracked, and prompts for it otherwise.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return config.BindFlags(cmd.Flags(), map[string]string{
			"log-level":  "logLevel",
			"log-file":   "logFile",
			"debug":      "debug",
			"watchdog":   "tracking.watchdog",
			"resource":   "tracking.resource",
			"media":      "media.dir",
			"device":     "camera.device",
			"dictionary": "camera.dictionary",
			"marker-id":  "camera.markerId",
			"width":      "marker.width",
			"height":     "marker.height",
			"record":     "camera.record",
		})
	},
	RunE: run,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&cfgPath, "config", "c", "", "Config file (default: ./marker-overlay.yaml)")
	f.String("log-level", "info", "Log level: debug, info, warn, error")
	f.String("log-file", "marker-overlay.log", "Log file (the terminal belongs to the UI)")
	f.Bool("debug", false, "Verbose per-frame tracking logs")
	f.Duration("watchdog", 0, "Prompt liveness check period")
	f.String("resource", "", "Overlay media resource name")
	f.String("media", "", "Directory holding overlay clips")
	f.Int("device", 0, "Camera index")
	f.String("dictionary", "", "ArUco dictionary: 4x4_50, 5x5_100, 6x6_250")
	f.Int("marker-id", 0, "Marker ID standing in for the reference image")
	f.Float64("width", 0, "Marker physical width in meters")
	f.Float64("height", 0, "Marker physical height in meters")
	f.String("record", "", "Write a composited recording to this file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}

	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	log.InitWriter(logFile, cfg.LogLevel)
	debug.Enabled = cfg.Debug
	debug.Tracking = cfg.Debug

	fmt.Println("🎯 Marker Overlay")
	fmt.Println("=================")
	fmt.Printf("Marker:  %s %s (aruco %s #%d)\n", cfg.Marker.Name, cfg.Marker.PhysicalSize, cfg.Camera.Dictionary, cfg.Camera.MarkerID)
	fmt.Printf("Media:   %s/%s\n", cfg.MediaDir, cfg.Resource)
	fmt.Printf("Logs:    %s\n\n", cfg.LogFile)

	source, err := aruco.New(cfg.Camera)
	if err != nil {
		return err
	}
	lib := media.NewBundle(cfg.MediaDir, capture.Factory)

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var screen *view.Controller
	app := tui.New(ui.DefaultPromptText, []tui.Option{
		tui.WithStatus(func() (string, bool) {
			t := screen.Tracker()
			if t == nil {
				return "inactive", false
			}
			s := t.Snapshot()
			return s.String(), s.State == tracking.Locked
		}),
	})

	screen = view.New(view.Config{
		Tracking: cfg.Tracking(),
		Anchors:  cfg.Anchors(),
	}, source, lib, app, app.Banner())

	uiErr := make(chan error, 1)
	go func() { uiErr <- app.Run(ctx) }()

	if err := screen.Appear(ctx); err != nil {
		cancel()
		<-app.Done()
		return err
	}

	var srcErr error
	select {
	case <-ctx.Done():
	case <-app.Done():
	case srcErr = <-screen.SourceDone():
	}

	screen.Disappear()
	cancel()
	if err := <-uiErr; err != nil {
		return err
	}
	if srcErr != nil && !errors.Is(srcErr, context.Canceled) {
		return srcErr
	}

	fmt.Println("\n👋 Goodbye!")
	return nil
}
