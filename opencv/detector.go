package opencv

import (
	"image"
	"math"
	"sort"

	"github.com/pkg/errors"
	bartrack "github.com/swdee/go-bartrack"
	"github.com/swdee/go-bartrack/geometry"
	"github.com/swdee/go-bartrack/video"
	"gocv.io/x/gocv"
)

const (
	// cannyLow and cannyHigh are the hysteresis thresholds for edge detection
	cannyLow  = 50
	cannyHigh = 150
	// approxEpsilon is the polygon approximation tolerance relative to the
	// contour perimeter
	approxEpsilon = 0.02
	// dedupeIoU is the overlap above which two rectangles are treated as the
	// same object
	dedupeIoU = 0.8
)

// RectangleDetector finds quadrilaterals on a frame using contour
// approximation.  It satisfies tracker.RectangleDetector
type RectangleDetector struct {
	cfg bartrack.DetectorConfig
}

// NewRectangleDetector returns a detector filtering rectangles by the config
func NewRectangleDetector(cfg bartrack.DetectorConfig) *RectangleDetector {
	return &RectangleDetector{cfg: cfg}
}

// candidate is a detected quad with its pixel bounds
type candidate struct {
	corners [4]geometry.Point
	bounds  geometry.Rect
	area    float64
}

// DetectRectangles returns up to MaxObservations quads ordered largest first,
// in tracker-normalized space with corners top left, top right, bottom right,
// bottom left
func (d *RectangleDetector) DetectRectangles(frame video.Frame,
	orientation geometry.Orientation) ([][4]geometry.Point, error) {

	mat, release, err := Upright(frame, orientation)

	if err != nil {
		return nil, errors.Wrapf(bartrack.ErrRectangleDetection, "%v", err)
	}

	defer release()

	if mat.Empty() {
		return nil, errors.Wrap(bartrack.ErrRectangleDetection, "empty frame")
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if mat.Channels() == 1 {
		mat.CopyTo(&gray)
	} else {
		gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
	}

	gocv.GaussianBlur(gray, &gray, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()

	gocv.Canny(gray, &edges, cannyLow, cannyHigh)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal,
		gocv.ChainApproxSimple)
	defer contours.Close()

	width := mat.Cols()
	height := mat.Rows()

	var found []candidate

	for i := 0; i < contours.Size(); i++ {
		if c, ok := d.quad(contours.At(i), width, height); ok {
			found = append(found, c)
		}
	}

	found = dedupe(found)

	limit := d.cfg.MaxObservations

	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}

	quads := make([][4]geometry.Point, len(found))

	for i, c := range found {
		quads[i] = c.corners
	}

	return quads, nil
}

// quad approximates a contour and accepts it if it is a convex four sided
// polygon passing the size and aspect filters
func (d *RectangleDetector) quad(contour gocv.PointVector, width,
	height int) (candidate, bool) {

	perimeter := gocv.ArcLength(contour, true)

	approx := gocv.ApproxPolyDP(contour, approxEpsilon*perimeter, true)
	defer approx.Close()

	if approx.Size() != 4 {
		return candidate{}, false
	}

	pts := approx.ToPoints()

	if !convex(pts) {
		return candidate{}, false
	}

	bounds := gocv.BoundingRect(approx)
	short := math.Min(float64(bounds.Dx()), float64(bounds.Dy()))
	long := math.Max(float64(bounds.Dx()), float64(bounds.Dy()))

	if long == 0 {
		return candidate{}, false
	}

	minSide := d.cfg.MinSize * math.Min(float64(width), float64(height))

	if short < minSide {
		return candidate{}, false
	}

	aspect := short / long

	if aspect < d.cfg.MinAspectRatio || aspect > d.cfg.MaxAspectRatio {
		return candidate{}, false
	}

	return candidate{
		corners: orderCorners(pts, width, height),
		bounds:  toNormalized(bounds, width, height),
		area:    gocv.ContourArea(approx),
	}, true
}

// convex checks the polygon turns the same way at every vertex
func convex(pts []image.Point) bool {

	n := len(pts)

	if n < 3 {
		return false
	}

	sign := 0

	for i := 0; i < n; i++ {
		a := pts[i]
		b := pts[(i+1)%n]
		c := pts[(i+2)%n]

		cross := (b.X-a.X)*(c.Y-b.Y) - (b.Y-a.Y)*(c.X-b.X)

		if cross == 0 {
			continue
		}

		s := 1
		if cross < 0 {
			s = -1
		}

		if sign == 0 {
			sign = s
		} else if s != sign {
			return false
		}
	}

	return sign != 0
}

// orderCorners normalizes four pixel corners and orders them top left, top
// right, bottom right, bottom left
func orderCorners(pts []image.Point, width, height int) [4]geometry.Point {

	norm := make([]geometry.Point, len(pts))

	for i, p := range pts {
		norm[i] = pointToNormalized(p, width, height)
	}

	// top two have the largest y in bottom-left origin space
	sort.Slice(norm, func(i, j int) bool {
		return norm[i].Y > norm[j].Y
	})

	top := norm[:2]
	bottom := norm[2:]

	if top[0].X > top[1].X {
		top[0], top[1] = top[1], top[0]
	}

	if bottom[0].X > bottom[1].X {
		bottom[0], bottom[1] = bottom[1], bottom[0]
	}

	return [4]geometry.Point{top[0], top[1], bottom[1], bottom[0]}
}

// dedupe sorts candidates by area and drops those overlapping a larger one,
// contour detection reports both the inner and outer edge of thick borders
func dedupe(found []candidate) []candidate {

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].area > found[j].area
	})

	kept := make([]candidate, 0, len(found))

	for _, c := range found {
		dup := false

		for _, k := range kept {
			if c.bounds.CalcIoU(k.bounds) > dedupeIoU {
				dup = true
				break
			}
		}

		if !dup {
			kept = append(kept, c)
		}
	}

	return kept
}
