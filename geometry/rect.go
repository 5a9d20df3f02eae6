package geometry

import (
	"image"
	"math"
)

// Point is a 2D coordinate.  Which space the coordinate belongs to
// (tracker-normalized, image pixels or view) is decided by the caller
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns the vector p+q
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns the vector p-q
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// IsFinite returns false if either coordinate is NaN or infinite
func (p Point) IsFinite() bool {
	return isFinite(p.X) && isFinite(p.Y)
}

// ImagePoint rounds the point to integer pixel coordinates
func (p Point) ImagePoint() image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// Size is a width and height pair
type Size struct {
	Width, Height float64
}

// Sz is shorthand for Size{Width: w, Height: h}
func Sz(w, h float64) Size {
	return Size{Width: w, Height: h}
}

// IsEmpty returns true if the size has no area or is not finite
func (s Size) IsEmpty() bool {
	return !(s.Width > 0 && s.Height > 0 && isFinite(s.Width) && isFinite(s.Height))
}

// AspectRatio returns width divided by height
func (s Size) AspectRatio() float64 {
	return s.Width / s.Height
}

// Rect is an axis aligned rectangle given by its origin (X, Y) and size.
// The origin is the corner with the smallest coordinates, so in a top-left
// origin space it is the top left corner and in tracker-normalized space
// (bottom-left origin) it is the bottom left corner
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// NewRect creates a new Rect with given coordinates
func NewRect(x, y, width, height float64) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// RectFromPoints returns the smallest Rect containing both points
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

// BoundingRect returns the axis aligned bounding box of the given points
func BoundingRect(pts []Point) Rect {

	if len(pts) == 0 {
		return Rect{}
	}

	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY

	for _, p := range pts[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// MinX returns the smallest x coordinate of the rectangle
func (r Rect) MinX() float64 {
	return r.X
}

// MinY returns the smallest y coordinate of the rectangle
func (r Rect) MinY() float64 {
	return r.Y
}

// MaxX returns the largest x coordinate of the rectangle
func (r Rect) MaxX() float64 {
	return r.X + r.Width
}

// MaxY returns the largest y coordinate of the rectangle
func (r Rect) MaxY() float64 {
	return r.Y + r.Height
}

// Origin returns the (MinX, MinY) corner
func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

// Size returns the width and height of the rectangle
func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// Area returns the area of the rectangle
func (r Rect) Area() float64 {
	return r.Width * r.Height
}

// IsEmpty returns true if the rectangle has no area or holds non finite
// values
func (r Rect) IsEmpty() bool {
	return !(r.Width > 0 && r.Height > 0 && isFinite(r.X) && isFinite(r.Y) &&
		isFinite(r.Width) && isFinite(r.Height))
}

// Contains returns true if the point lies inside the rectangle, edges
// included
func (r Rect) Contains(p Point) bool {
	return p.X >= r.MinX() && p.X <= r.MaxX() &&
		p.Y >= r.MinY() && p.Y <= r.MaxY()
}

// ContainsRect returns true if o lies fully inside r
func (r Rect) ContainsRect(o Rect) bool {
	return o.MinX() >= r.MinX() && o.MaxX() <= r.MaxX() &&
		o.MinY() >= r.MinY() && o.MaxY() <= r.MaxY()
}

// Intersect returns the overlapping area of both rectangles, or a zero Rect
// if they do not overlap
func (r Rect) Intersect(o Rect) Rect {

	x0 := math.Max(r.MinX(), o.MinX())
	y0 := math.Max(r.MinY(), o.MinY())
	x1 := math.Min(r.MaxX(), o.MaxX())
	y1 := math.Min(r.MaxY(), o.MaxY())

	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}

	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// CalcIoU calculates the Intersection over Union (IoU) with another rectangle
func (r Rect) CalcIoU(o Rect) float64 {

	inter := r.Intersect(o).Area()

	if inter == 0 {
		return 0
	}

	return inter / (r.Area() + o.Area() - inter)
}

// Corners returns the four corners of the rectangle ordered clockwise from
// (MinX, MinY) in a top-left origin space, ie: top left, top right, bottom
// right, bottom left
func (r Rect) Corners() [4]Point {
	return [4]Point{
		{X: r.MinX(), Y: r.MinY()},
		{X: r.MaxX(), Y: r.MinY()},
		{X: r.MaxX(), Y: r.MaxY()},
		{X: r.MinX(), Y: r.MaxY()},
	}
}

// ImageRect rounds the rectangle to integer pixel coordinates
func (r Rect) ImageRect() image.Rectangle {
	return image.Rect(
		int(math.Round(r.MinX())), int(math.Round(r.MinY())),
		int(math.Round(r.MaxX())), int(math.Round(r.MaxY())),
	)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
