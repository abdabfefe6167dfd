// Package aruco turns a camera and an ArUco marker detector into a spatial-anchor subsystem.
package aruco

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/google/uuid"
	"github.com/teslashibe/go-marker/internal/log"
	"github.com/teslashibe/go-marker/pkg/anchor"
	"github.com/teslashibe/go-marker/pkg/debug"
	"github.com/teslashibe/go-marker/pkg/overlay"
	"gocv.io/x/gocv"
)

// Dictionaries maps config names to ArUco dictionaries.
var Dictionaries = map[string]gocv.ArucoDictionaryCode{
	"4x4_50":  gocv.ArucoDict4x4_50,
	"5x5_100": gocv.ArucoDict5x5_100,
	"6x6_250": gocv.ArucoDict6x6_250,
}

// Config holds camera and detector settings
type Config struct {
	Device     int    // Camera index
	Dictionary string // Key into Dictionaries
	MarkerID   int    // The printed marker standing in for the reference image

	// RecordPath, if set, writes camera frames with the overlay composited
	// onto the marker.
	RecordPath string
	RecordFPS  float64
}

// DefaultConfig returns settings for the first camera and a 4x4 marker with ID 0
func DefaultConfig() Config {
	return Config{
		Device:     0,
		Dictionary: "4x4_50",
		MarkerID:   0,
		RecordFPS:  30,
	}
}

// Texturer is implemented by surfaces that can supply a video frame.
type Texturer interface {
	Texture() (image.Image, bool)
}

// Source detects one ArUco marker per frame and reports it as an image anchor.
type Source struct {
	cfg Config
	log *slog.Logger
}

// New creates a camera-backed anchor source.
func New(cfg Config) (*Source, error) {
	if _, ok := Dictionaries[cfg.Dictionary]; !ok {
		return nil, fmt.Errorf("unknown aruco dictionary %q", cfg.Dictionary)
	}
	return &Source{cfg: cfg, log: log.Component("aruco")}, nil
}

// Run reads frames until ctx is cancelled or the camera stops.
// The first frame containing the marker creates the anchor; every frame
// after that reports it tracked or untracked.
func (s *Source) Run(ctx context.Context, acfg anchor.Config, h anchor.Handler) error {
	if err := acfg.Validate(); err != nil {
		return err
	}
	ref := acfg.ReferenceImages[0]

	webcam, err := gocv.OpenVideoCapture(s.cfg.Device)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", s.cfg.Device, err)
	}
	defer webcam.Close()

	detector := gocv.NewArucoDetectorWithParams(
		gocv.GetPredefinedDictionary(Dictionaries[s.cfg.Dictionary]),
		gocv.NewArucoDetectorParameters(),
	)
	defer detector.Close()

	frame := gocv.NewMat()
	defer frame.Close()

	var rec *recorder
	defer func() {
		if rec != nil {
			rec.Close()
		}
	}()

	s.log.Info("camera tracking started",
		"device", s.cfg.Device,
		"dictionary", s.cfg.Dictionary,
		"marker", s.cfg.MarkerID,
		"reference", ref.Name)

	var (
		current *anchor.Anchor
		surface anchor.Surface
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if ok := webcam.Read(&frame); !ok {
			return fmt.Errorf("camera %d stopped delivering frames", s.cfg.Device)
		}
		if frame.Empty() {
			continue
		}

		corners, ids, _ := detector.DetectMarkers(frame)
		quad, found := s.find(ids, corners)

		switch {
		case found && current == nil:
			a := anchor.Anchor{
				ID:           uuid.NewString(),
				Kind:         anchor.KindImage,
				PhysicalSize: ref.PhysicalSize,
			}
			surface, err = h.AnchorCreated(ctx, a)
			if err != nil {
				return err
			}
			current = &a
			s.log.Info("marker anchored", "anchor", a.ID, "overlay", surface != nil)

		case current != nil:
			debug.TrackLog("marker frame", "anchor", current.ID, "tracked", found)
			if err := h.AnchorUpdated(ctx, *current, found); err != nil {
				return err
			}
		}

		if s.cfg.RecordPath == "" {
			continue
		}
		if rec == nil {
			rec, err = newRecorder(s.cfg.RecordPath, s.cfg.RecordFPS, frame.Cols(), frame.Rows())
			if err != nil {
				return err
			}
		}
		if found && surface != nil {
			if err := composite(&frame, surface, quad, ref.PhysicalSize); err != nil {
				debug.Log("composite failed", "error", err)
			}
		}
		rec.Write(frame)
	}
}

// find returns the configured marker's corners, if detected.
func (s *Source) find(ids []int, corners [][]gocv.Point2f) ([4]overlay.Point, bool) {
	var quad [4]overlay.Point
	for i, id := range ids {
		if id != s.cfg.MarkerID || i >= len(corners) || len(corners[i]) != 4 {
			continue
		}
		for j, c := range corners[i] {
			quad[j] = overlay.Point{X: float64(c.X), Y: float64(c.Y)}
		}
		return quad, true
	}
	return quad, false
}

// composite warps the surface's current video frame onto the marker.
func composite(frame *gocv.Mat, surface anchor.Surface, marker [4]overlay.Point, markerSize anchor.Size) error {
	tex, ok := surface.(Texturer)
	if !ok {
		return nil
	}
	img, ok := tex.Texture()
	if !ok {
		return nil
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return fmt.Errorf("texture to mat: %w", err)
	}
	defer src.Close()

	w, h := float32(src.Cols()), float32(src.Rows())
	srcPts := gocv.NewPoint2fVectorFromPoints([]gocv.Point2f{
		{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h},
	})
	defer srcPts.Close()

	quad := overlay.ProjectQuad(marker, markerSize, surface.SurfaceSize())
	dst := make([]gocv.Point2f, len(quad))
	for i, p := range quad {
		dst[i] = gocv.Point2f{X: float32(p.X), Y: float32(p.Y)}
	}
	dstPts := gocv.NewPoint2fVectorFromPoints(dst)
	defer dstPts.Close()

	m := gocv.GetPerspectiveTransform2f(srcPts, dstPts)
	defer m.Close()

	size := image.Pt(frame.Cols(), frame.Rows())

	warped := gocv.NewMat()
	defer warped.Close()
	gocv.WarpPerspective(src, &warped, m, size)

	mask := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 0, 0, 0), src.Rows(), src.Cols(), gocv.MatTypeCV8UC1)
	defer mask.Close()
	warpedMask := gocv.NewMat()
	defer warpedMask.Close()
	gocv.WarpPerspective(mask, &warpedMask, m, size)

	warped.CopyToWithMask(frame, warpedMask)
	return nil
}

// recorder writes composited frames to a video file.
type recorder struct {
	w *gocv.VideoWriter
}

func newRecorder(path string, fps float64, width, height int) (*recorder, error) {
	w, err := gocv.VideoWriterFile(path, "MJPG", fps, width, height, true)
	if err != nil {
		return nil, fmt.Errorf("open recording %s: %w", path, err)
	}
	return &recorder{w: w}, nil
}

func (r *recorder) Write(frame gocv.Mat) {
	if err := r.w.Write(frame); err != nil {
		debug.Log("recording frame dropped", "error", err)
	}
}

func (r *recorder) Close() {
	r.w.Close()
}
