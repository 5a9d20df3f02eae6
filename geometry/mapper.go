package geometry

import (
	"math"
)

// Space identifies the coordinate space a point is expressed in
type Space int

const (
	// TrackerNormalized is the unit square with the origin at the bottom
	// left, as used by tracker engines
	TrackerNormalized Space = iota
	// ImagePixels is the display image in pixels with the origin at the
	// top left
	ImagePixels
)

// ComputeFrameGeometry calculates the letterboxed placement of an image of
// imageSize inside a view of viewSize, maintaining the image aspect.  A full
// width fit is tried first and the image centered vertically, otherwise a
// full height fit is used and the image centered horizontally.  Empty or non
// finite input returns a zero Rect
func ComputeFrameGeometry(imageSize, viewSize Size) Rect {

	if imageSize.IsEmpty() || viewSize.IsEmpty() {
		return Rect{}
	}

	aspect := imageSize.AspectRatio()

	// full width fit
	height := math.Floor(viewSize.Width / aspect)

	if height <= viewSize.Height {
		return Rect{
			X:      0,
			Y:      math.Floor((viewSize.Height - height) / 2),
			Width:  viewSize.Width,
			Height: height,
		}
	}

	// full height fit
	width := math.Floor(viewSize.Height * aspect)

	return Rect{
		X:      math.Floor((viewSize.Width - width) / 2),
		Y:      0,
		Width:  width,
		Height: viewSize.Height,
	}
}

// Mapper converts coordinates between tracker-normalized space, display
// image space and view space.  All conversions are routed through the
// frame geometry, the letterboxed image rectangle in the view
type Mapper struct {
	// imageSize is the display image size in pixels
	imageSize Size
	// viewSize is the size of the drawable view area
	viewSize Size
	// frame is the letterboxed placement of the image inside the view
	frame Rect
}

// NewMapper returns a Mapper for the given display image and view sizes
func NewMapper(imageSize, viewSize Size) Mapper {
	return Mapper{
		imageSize: imageSize,
		viewSize:  viewSize,
		frame:     ComputeFrameGeometry(imageSize, viewSize),
	}
}

// FrameGeometry returns the letterboxed image rectangle in view space
func (m Mapper) FrameGeometry() Rect {
	return m.frame
}

// ImageSize returns the display image size
func (m Mapper) ImageSize() Size {
	return m.imageSize
}

// ViewSize returns the view size
func (m Mapper) ViewSize() Size {
	return m.viewSize
}

// IsEmpty returns true when there is no frame geometry, in which case all
// mapping calls return zero values
func (m Mapper) IsEmpty() bool {
	return m.frame.IsEmpty()
}

// ToView maps a point in the given space to view space
func (m Mapper) ToView(p Point, space Space) Point {

	if m.IsEmpty() {
		return Point{}
	}

	switch space {
	case ImagePixels:
		if m.imageSize.IsEmpty() {
			return Point{}
		}

		return Point{
			X: m.frame.X + p.X*m.frame.Width/m.imageSize.Width,
			Y: m.frame.Y + p.Y*m.frame.Height/m.imageSize.Height,
		}

	default:
		return Point{
			X: m.frame.X + p.X*m.frame.Width,
			Y: m.frame.Y + (1-p.Y)*m.frame.Height,
		}
	}
}

// RectToView maps a rectangle in the given space to view space
func (m Mapper) RectToView(r Rect, space Space) Rect {

	if m.IsEmpty() {
		return Rect{}
	}

	return RectFromPoints(
		m.ToView(r.Origin(), space),
		m.ToView(Point{X: r.MaxX(), Y: r.MaxY()}, space),
	)
}

// PolygonToView maps every point of a polygon to view space
func (m Mapper) PolygonToView(pts []Point, space Space) []Point {

	out := make([]Point, len(pts))

	for i, p := range pts {
		out[i] = m.ToView(p, space)
	}

	return out
}

// ToTrackerNormalized maps a rectangle in view space to tracker-normalized
// space, flipping the vertical axis
func (m Mapper) ToTrackerNormalized(viewRect Rect) Rect {

	if m.IsEmpty() {
		return Rect{}
	}

	x := (viewRect.X - m.frame.X) / m.frame.Width
	y := (viewRect.Y - m.frame.Y) / m.frame.Height
	w := viewRect.Width / m.frame.Width
	h := viewRect.Height / m.frame.Height

	return Rect{X: x, Y: 1 - y - h, Width: w, Height: h}
}

// PointToTrackerNormalized maps a point in view space to tracker-normalized
// space
func (m Mapper) PointToTrackerNormalized(p Point) Point {

	if m.IsEmpty() {
		return Point{}
	}

	return Point{
		X: (p.X - m.frame.X) / m.frame.Width,
		Y: 1 - (p.Y-m.frame.Y)/m.frame.Height,
	}
}

// Contains returns true if the view space point lies on the image
func (m Mapper) Contains(p Point) bool {
	return !m.IsEmpty() && m.frame.Contains(p)
}
