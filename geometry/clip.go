package geometry

import (
	"math"

	clipper "github.com/ctessum/go.clipper"
)

// clipScale is the fixed point multiplier used to convert float coordinates
// to clipper integer coordinates
const clipScale = 1000.0

// ClipPolygon clips a closed polygon against a rectangle and returns the
// outline of the part inside the rectangle.  An empty result is returned if
// the polygon lies wholly outside.  When the intersection splits into several
// pieces the one with the largest area is returned
func ClipPolygon(poly []Point, clip Rect) []Point {

	if len(poly) < 3 || clip.IsEmpty() {
		return nil
	}

	corners := clip.Corners()

	c := clipper.NewClipper(clipper.IoStrictlySimple)
	c.AddPath(toPath(poly), clipper.PtSubject, true)
	c.AddPath(toPath(corners[:]), clipper.PtClip, true)

	solution, ok := c.Execute1(clipper.CtIntersection, clipper.PftNonZero,
		clipper.PftNonZero)

	if !ok || len(solution) == 0 {
		return nil
	}

	// pick largest piece
	best := solution[0]
	bestArea := pathArea(best)

	for _, p := range solution[1:] {
		if a := pathArea(p); a > bestArea {
			best = p
			bestArea = a
		}
	}

	if len(best) < 3 || bestArea == 0 {
		return nil
	}

	return fromPath(best)
}

// ClipRect clips a rectangle to another rectangle using polygon clipping and
// returns the bounding box of the result
func ClipRect(r, clip Rect) Rect {
	corners := r.Corners()
	return BoundingRect(ClipPolygon(corners[:], clip))
}

// toPath converts points to a clipper path
func toPath(pts []Point) clipper.Path {

	path := make(clipper.Path, 0, len(pts))

	for _, pt := range pts {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(math.Round(pt.X * clipScale)),
			Y: clipper.CInt(math.Round(pt.Y * clipScale)),
		})
	}

	return path
}

// fromPath converts a clipper path back to points
func fromPath(path clipper.Path) []Point {

	pts := make([]Point, 0, len(path))

	for _, ip := range path {
		pts = append(pts, Point{
			X: float64(ip.X) / clipScale,
			Y: float64(ip.Y) / clipScale,
		})
	}

	return pts
}

// pathArea returns the absolute area of a clipper path using the shoelace
// formula
func pathArea(path clipper.Path) float64 {

	var sum float64

	for i := range path {
		j := (i + 1) % len(path)
		sum += float64(path[i].X)*float64(path[j].Y) -
			float64(path[j].X)*float64(path[i].Y)
	}

	return math.Abs(sum) / 2
}
