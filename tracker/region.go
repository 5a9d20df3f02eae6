package tracker

import (
	"fmt"
	"image/color"

	"github.com/pkg/errors"
	"github.com/swdee/go-bartrack/geometry"
)

// ErrRegionOutOfBounds flags a region whose corners fall outside the unit
// square of tracker-normalized space
var ErrRegionOutOfBounds = errors.New("region corners outside tracker-normalized bounds")

// SolidConfidence is the confidence a tracker observation must exceed for
// its region to be drawn solid
const SolidConfidence = 0.5

// Style is the display style of a tracked region outline
type Style int

const (
	// Solid outline, tracker is confident
	Solid Style = iota
	// Dashed outline, tracker confidence is low
	Dashed
)

// String returns the name of the style
func (s Style) String() string {
	if s == Dashed {
		return "dashed"
	}
	return "solid"
}

// StyleFor returns the display style for an observation confidence
func StyleFor(confidence float32) Style {
	if confidence > SolidConfidence {
		return Solid
	}
	return Dashed
}

// Region is a tracked quadrilateral in tracker-normalized space (unit square,
// origin bottom left).  Corners are ordered clockwise starting at the top
// left
type Region struct {
	Corners [4]geometry.Point
	// Color is assigned at creation and kept for the life of the region
	Color color.RGBA
	Style Style
}

// NewRegion creates a Solid region covering a normalized rectangle
func NewRegion(box geometry.Rect, clr color.RGBA) Region {
	return Region{
		Corners: cornersOf(box),
		Color:   clr,
		Style:   Solid,
	}
}

// NewRegionFromCorners creates a Solid region from corners ordered top left,
// top right, bottom right, bottom left
func NewRegionFromCorners(corners [4]geometry.Point, clr color.RGBA) Region {
	return Region{
		Corners: corners,
		Color:   clr,
		Style:   Solid,
	}
}

func cornersOf(box geometry.Rect) [4]geometry.Point {
	return [4]geometry.Point{
		{X: box.MinX(), Y: box.MaxY()},
		{X: box.MaxX(), Y: box.MaxY()},
		{X: box.MaxX(), Y: box.MinY()},
		{X: box.MinX(), Y: box.MinY()},
	}
}

// WithBox returns a copy of the region moved to a new bounding box
func (r Region) WithBox(box geometry.Rect) Region {
	r.Corners = cornersOf(box)
	return r
}

// BoundingBox returns the axis aligned bounding box of the corners
func (r Region) BoundingBox() geometry.Rect {
	return geometry.BoundingRect(r.Corners[:])
}

// TopLeft corner
func (r Region) TopLeft() geometry.Point {
	return r.Corners[0]
}

// TopRight corner
func (r Region) TopRight() geometry.Point {
	return r.Corners[1]
}

// BottomRight corner
func (r Region) BottomRight() geometry.Point {
	return r.Corners[2]
}

// BottomLeft corner
func (r Region) BottomLeft() geometry.Point {
	return r.Corners[3]
}

// Midpoint returns the point used for trajectory sampling, x is the middle
// of the bottom edge and y the middle of the left edge
func (r Region) Midpoint() geometry.Point {

	bl := r.BottomLeft()

	return geometry.Point{
		X: (bl.X + r.BottomRight().X) / 2,
		Y: (bl.Y + r.TopLeft().Y) / 2,
	}
}

// Validate checks all corners lie within the unit square.  Corners are not
// clamped, a failure indicates an upstream normalization fault
func (r Region) Validate() error {

	for i, c := range r.Corners {
		if !c.IsFinite() || c.X < 0 || c.X > 1 || c.Y < 0 || c.Y > 1 {
			return errors.Wrap(ErrRegionOutOfBounds,
				fmt.Sprintf("corner %d at (%.4f, %.4f)", i, c.X, c.Y))
		}
	}

	return nil
}
