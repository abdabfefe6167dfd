// Package anchor defines the boundary to the spatial-anchor subsystem.
//
// The subsystem recognizes a configured reference image in the camera feed
// and reports anchors for it. Anchor kinds are discriminated at this
// boundary, so consumers switch on Kind instead of type-asserting.
package anchor

import (
	"context"
	"fmt"
)

// Kind discriminates the anchor variants a subsystem may report.
type Kind int

const (
	// KindUnknown is the zero value and is never valid.
	KindUnknown Kind = iota

	// KindImage is an anchor for a recognized reference image.
	KindImage

	// KindPlane is a detected horizontal or vertical plane.
	KindPlane

	// KindFace is a detected face.
	KindFace
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindPlane:
		return "plane"
	case KindFace:
		return "face"
	default:
		return "unknown"
	}
}

// ParseKind converts a kind name back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "image":
		return KindImage, nil
	case "plane":
		return KindPlane, nil
	case "face":
		return KindFace, nil
	}
	return KindUnknown, fmt.Errorf("unknown anchor kind %q", s)
}

// Size is a physical size in meters.
type Size struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// String formats the size as WxH in meters.
func (s Size) String() string {
	return fmt.Sprintf("%.3gx%.3gm", s.Width, s.Height)
}

// Anchor is one instance of a recognized physical marker.
type Anchor struct {
	// ID is unique per physical marker instance.
	ID string

	// Kind is the anchor variant.
	Kind Kind

	// PhysicalSize is the reference image's printed size. Only set for KindImage.
	PhysicalSize Size
}

// ReferenceImage describes the marker the subsystem should look for.
type ReferenceImage struct {
	Name         string
	PhysicalSize Size
}

// Config is the tracking configuration handed to the subsystem.
type Config struct {
	ReferenceImages []ReferenceImage

	// MaxTracked is the number of simultaneously tracked images.
	MaxTracked int
}

// SingleImageConfig returns a configuration tracking one reference image
// with at most one tracked instance.
func SingleImageConfig(ref ReferenceImage) Config {
	return Config{
		ReferenceImages: []ReferenceImage{ref},
		MaxTracked:      1,
	}
}

// Validate checks the configuration is usable.
func (c Config) Validate() error {
	if len(c.ReferenceImages) == 0 {
		return fmt.Errorf("%w: no reference images", ErrInvalidConfig)
	}
	if c.MaxTracked < 1 {
		return fmt.Errorf("%w: max tracked must be at least 1, got %d", ErrInvalidConfig, c.MaxTracked)
	}
	for _, ref := range c.ReferenceImages {
		if ref.PhysicalSize.Width <= 0 || ref.PhysicalSize.Height <= 0 {
			return fmt.Errorf("%w: reference %q has non-positive size %s", ErrInvalidConfig, ref.Name, ref.PhysicalSize)
		}
	}
	return nil
}

// Surface is whatever the consumer wants attached at the anchor's pose.
// A nil Surface suppresses attachment.
type Surface interface {
	// SurfaceSize is the rendered size in meters.
	SurfaceSize() Size
}

// Handler receives anchor callbacks. Implementations must be safe to call
// from the subsystem's own goroutine.
type Handler interface {
	// AnchorCreated is called once per new physical detection and returns
	// the surface to attach, or nil.
	AnchorCreated(ctx context.Context, a Anchor) (Surface, error)

	// AnchorUpdated is called every frame for each live anchor.
	AnchorUpdated(ctx context.Context, a Anchor, tracked bool) error
}

// Source is a running spatial-anchor subsystem.
type Source interface {
	// Run starts the tracking session and delivers callbacks to h until ctx
	// is cancelled or the source fails.
	Run(ctx context.Context, cfg Config, h Handler) error
}
