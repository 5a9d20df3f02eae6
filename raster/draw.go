package raster

import (
	"image"
	"image/color"
	"math"

	"github.com/swdee/go-bartrack/geometry"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"
)

// circleSteps is the number of polygon sides used to approximate a circle
const circleSteps = 24

// dashPattern is the dash and gap length of dashed lines in pixels
var dashPattern = [2]float64{4, 2}

// painter batches filled shapes of one color and rasterizes them in a
// single pass over their bounding box.  The rasterizer and point buffers are
// reused between batches
type painter struct {
	z vector.Rasterizer
	// pts holds the vertices of every queued shape back to back
	pts []geometry.Point
	// ends holds the index into pts where each shape ends
	ends []int
}

// shape queues a closed filled polygon
func (p *painter) shape(pts ...geometry.Point) {

	if len(pts) < 3 {
		return
	}

	p.pts = append(p.pts, pts...)
	p.ends = append(p.ends, len(p.pts))
}

// paint fills every queued shape onto dst in clr and empties the batch
func (p *painter) paint(dst *image.RGBA, clr color.Color) {

	defer func() {
		p.pts = p.pts[:0]
		p.ends = p.ends[:0]
	}()

	if len(p.pts) == 0 {
		return
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)

	for _, pt := range p.pts {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}

	r := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)),
		int(math.Ceil(maxX)), int(math.Ceil(maxY))).Intersect(dst.Bounds())

	if r.Empty() {
		return
	}

	p.z.Reset(r.Dx(), r.Dy())

	ox := float64(r.Min.X)
	oy := float64(r.Min.Y)
	start := 0

	for _, end := range p.ends {
		first := p.pts[start]
		p.z.MoveTo(float32(first.X-ox), float32(first.Y-oy))

		for _, pt := range p.pts[start+1 : end] {
			p.z.LineTo(float32(pt.X-ox), float32(pt.Y-oy))
		}

		p.z.ClosePath()
		start = end
	}

	p.z.Draw(dst, r, image.NewUniform(clr), image.Point{})
}

// line queues a segment of the given width as a quad
func (p *painter) line(a, b geometry.Point, width float64) {

	d := b.Sub(a)
	length := math.Hypot(d.X, d.Y)

	if length == 0 {
		return
	}

	// half width normal
	nx := -d.Y / length * width / 2
	ny := d.X / length * width / 2

	p.shape(
		geometry.Point{X: a.X + nx, Y: a.Y + ny},
		geometry.Point{X: b.X + nx, Y: b.Y + ny},
		geometry.Point{X: b.X - nx, Y: b.Y - ny},
		geometry.Point{X: a.X - nx, Y: a.Y - ny},
	)
}

// dashedLine queues a segment broken into dashes
func (p *painter) dashedLine(a, b geometry.Point, width float64) {

	dash := dashPattern[0]
	gap := dashPattern[1]

	d := b.Sub(a)
	length := math.Hypot(d.X, d.Y)

	if length == 0 {
		return
	}

	ux := d.X / length
	uy := d.Y / length

	for pos := 0.0; pos < length; pos += dash + gap {
		end := math.Min(pos+dash, length)

		p.line(
			geometry.Point{X: a.X + ux*pos, Y: a.Y + uy*pos},
			geometry.Point{X: a.X + ux*end, Y: a.Y + uy*end},
			width)
	}
}

// polygon queues a closed outline
func (p *painter) polygon(pts []geometry.Point, width float64, dashed bool) {

	n := len(pts)

	for i := 0; i < n; i++ {
		a := pts[i]
		b := pts[(i+1)%n]

		if dashed {
			p.dashedLine(a, b, width)
		} else {
			p.line(a, b, width)
		}
	}
}

// polyline queues an open path
func (p *painter) polyline(pts []geometry.Point, width float64) {
	for i := 1; i < len(pts); i++ {
		p.line(pts[i-1], pts[i], width)
	}
}

// disc queues a filled circle
func (p *painter) disc(center geometry.Point, radius float64) {

	if radius <= 0 {
		return
	}

	for i := 0; i < circleSteps; i++ {
		a := 2 * math.Pi * float64(i) / circleSteps
		p.pts = append(p.pts, geometry.Point{
			X: center.X + radius*math.Cos(a),
			Y: center.Y + radius*math.Sin(a),
		})
	}

	p.ends = append(p.ends, len(p.pts))
}

// text writes a string with its baseline starting at p
func text(dst *image.RGBA, s string, p image.Point, clr color.Color) {

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(clr),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(p.X, p.Y),
	}

	d.DrawString(s)
}

// drawFrame paints src into the frame geometry of dst, applying the display
// transform so the image is upright
func drawFrame(dst *image.RGBA, src image.Image, transform geometry.AffineTransform,
	imageSize geometry.Size, frame geometry.Rect) {

	if imageSize.IsEmpty() || frame.IsEmpty() {
		return
	}

	sx := frame.Width / imageSize.Width
	sy := frame.Height / imageSize.Height

	t := transform

	s2d := f64.Aff3{
		sx * t.A, sx * t.C, sx*t.Tx + frame.X,
		sy * t.B, sy * t.D, sy*t.Ty + frame.Y,
	}

	draw.ApproxBiLinear.Transform(dst, s2d, src, src.Bounds(), draw.Src, nil)
}
