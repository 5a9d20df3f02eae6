package render

import (
	"image/color"

	"github.com/swdee/go-bartrack/geometry"
	"gocv.io/x/gocv"
)

// TrailStyle defines the parameters used for rendering the trajectory
type TrailStyle struct {
	// LineSame defines if the color of the trail line should be the
	// same color as that of the primary region.  If set to false then use
	// the color specified at LineColor
	LineSame      bool
	LineColor     color.RGBA
	LineThickness int
	// CircleSame defines if the color of the current point circle should be
	// the same color as that of the primary region.  If set to false then use
	// the color specified at CircleColor
	CircleSame   bool
	CircleColor  color.RGBA
	CircleRadius int
}

// DefaultTrailStyle returns default trail style settings
func DefaultTrailStyle() TrailStyle {
	return TrailStyle{
		LineSame:      false,
		LineColor:     Yellow,
		LineThickness: 2,
		CircleSame:    true,
		CircleColor:   Pink,
		CircleRadius:  4,
	}
}

// Trajectory draws the trajectory polyline with a circle on the current
// point.  Points are in the image's coordinate space, objClr is the color of
// the region the trajectory follows
func Trajectory(img *gocv.Mat, points []geometry.Point, current geometry.Point,
	hasCurrent bool, objClr color.RGBA, style TrailStyle) {

	// determine style colors to use
	lineClr := objClr
	circleClr := objClr

	if !style.LineSame {
		lineClr = style.LineColor
	}

	if !style.CircleSame {
		circleClr = style.CircleColor
	}

	// draw line segments of trajectory
	for i := 1; i < len(points); i++ {
		gocv.Line(img, points[i-1].ImagePoint(), points[i].ImagePoint(),
			lineClr, style.LineThickness)
	}

	if hasCurrent {
		// draw point circle on current midpoint
		gocv.Circle(img, current.ImagePoint(), style.CircleRadius,
			circleClr, -1)
	}
}
