package overlay

import (
	"math"

	"github.com/teslashibe/go-marker/pkg/anchor"
)

// Overlay geometry and resource constants. These are compiled in, not configured.
const (
	// DefaultResource is the bundled video played on the marker.
	DefaultResource = "overlay"

	// AspectRatio is width/height of the overlay video.
	AspectRatio = 16.0 / 9.0

	// ScaleFactor scales the marker's physical width to the overlay width.
	ScaleFactor = 1.0

	// SurfaceOffset lifts the surface above the marker plane (meters) so it
	// doesn't z-fight with the printed image.
	SurfaceOffset = 0.001

	// AlphaDiscardThreshold drops pixels whose alpha is below this value.
	AlphaDiscardThreshold = 0.1
)

// Vec3 is a 3-component vector in meters or radians.
type Vec3 struct {
	X, Y, Z float64
}

// Material describes how the video is blended onto the surface.
type Material struct {
	AlphaBlending     bool
	DiscardBelowAlpha float64
}

// Mesh is a planar surface positioned in the anchor's local space.
type Mesh struct {
	Width    float64
	Height   float64
	Rotation Vec3 // Euler angles, radians
	Position Vec3
	Material Material
}

// NewMesh sizes a plane for a marker of the given physical size.
// Planes are built standing in XY, so the plane is tipped -90° about X to
// lie flat on the marker.
func NewMesh(physical anchor.Size) Mesh {
	width := physical.Width * ScaleFactor
	return Mesh{
		Width:    width,
		Height:   width / AspectRatio,
		Rotation: Vec3{X: -math.Pi / 2},
		Position: Vec3{Y: SurfaceOffset},
		Material: Material{
			AlphaBlending:     true,
			DiscardBelowAlpha: AlphaDiscardThreshold,
		},
	}
}

// Size returns the mesh footprint.
func (m Mesh) Size() anchor.Size {
	return anchor.Size{Width: m.Width, Height: m.Height}
}

// Point is an image-space point in pixels.
type Point struct {
	X, Y float64
}

// ProjectQuad maps the overlay footprint onto a detected marker quad.
// marker holds the marker's corners in image space ordered top-left,
// top-right, bottom-right, bottom-left. The overlay is centered on the
// marker and scaled by surface/markerSize along each marker axis.
func ProjectQuad(marker [4]Point, markerSize, surface anchor.Size) [4]Point {
	su := surface.Width / markerSize.Width
	sv := surface.Height / markerSize.Height

	u0, u1 := 0.5-su/2, 0.5+su/2
	v0, v1 := 0.5-sv/2, 0.5+sv/2

	return [4]Point{
		bilerp(marker, u0, v0),
		bilerp(marker, u1, v0),
		bilerp(marker, u1, v1),
		bilerp(marker, u0, v1),
	}
}

// bilerp interpolates inside the quad; u runs left to right, v top to bottom.
func bilerp(q [4]Point, u, v float64) Point {
	top := Point{X: q[0].X + (q[1].X-q[0].X)*u, Y: q[0].Y + (q[1].Y-q[0].Y)*u}
	bottom := Point{X: q[3].X + (q[2].X-q[3].X)*u, Y: q[3].Y + (q[2].Y-q[3].Y)*u}
	return Point{X: top.X + (bottom.X-top.X)*v, Y: top.Y + (bottom.Y-top.Y)*v}
}
