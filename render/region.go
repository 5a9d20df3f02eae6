package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	bartrack "github.com/swdee/go-bartrack"
	"github.com/swdee/go-bartrack/geometry"
	"github.com/swdee/go-bartrack/tracker"
	"gocv.io/x/gocv"
)

// DashPattern is the dash and gap length of dashed outlines in pixels
var DashPattern = [2]float64{4, 2}

// boxLabel holds a precalculated region label
type boxLabel struct {
	rect    image.Rectangle
	clr     color.RGBA
	text    string
	textPos image.Point
}

// Regions renders the outlines of tracked regions with a label showing the
// identity and confidence.  Outlines are in the image's coordinate space
func Regions(img *gocv.Mat, regions []bartrack.RegionUpdate, font Font,
	lineThickness int) {

	// keep a record of all box labels for later rendering
	boxLabels := make([]boxLabel, 0, len(regions))

	for _, r := range regions {

		if len(r.Outline) < 2 {
			// region lies off the image
			continue
		}

		useClr := r.Region.Color

		if r.State == tracker.Lost {
			useClr = Gray
		}

		Outline(img, r.Outline, useClr, r.Region.Style, lineThickness)

		bounds := geometry.BoundingRect(r.Outline).ImageRect()

		// create text for label
		text := fmt.Sprintf("%s %.2f", r.Identity, r.Confidence)

		if r.State == tracker.Pending {
			text = "new"
		}

		textSize := gocv.GetTextSize(text, font.Face, font.Scale, font.Thickness)

		// Calculate the alignment of text label
		var centerX int

		switch font.Alignment {
		case Center:
			centerX = (bounds.Min.X + bounds.Max.X) / 2

		case Right:
			centerX = bounds.Max.X - (textSize.X / 2) - font.RightPad + (lineThickness / 2)

		case Left:
			fallthrough
		default:
			centerX = bounds.Min.X + (textSize.X / 2) + font.LeftPad - (lineThickness / 2)
		}

		// Adjust the label position so the text is centered horizontally
		labelPosition := image.Pt(centerX-textSize.X/2, bounds.Min.Y-font.BottomPad)

		// create box for placing text on
		bRect := image.Rect(centerX-textSize.X/2-font.LeftPad,
			bounds.Min.Y-textSize.Y-font.TopPad-font.BottomPad,
			centerX+textSize.X/2+font.RightPad, bounds.Min.Y)

		boxLabels = append(boxLabels, boxLabel{
			rect:    bRect,
			clr:     useClr,
			text:    text,
			textPos: labelPosition,
		})
	}

	// draw all precalculated box labels so they are the top most layer on the
	// image and don't get overlapped with other outlines
	for _, box := range boxLabels {
		// draw box text gets written on
		gocv.Rectangle(img, box.rect, box.clr, -1)

		// Draw the label over box
		gocv.PutTextWithParams(img, box.text, box.textPos,
			font.Face, font.Scale, font.Color, font.Thickness,
			font.LineType, false)
	}
}

// Outline draws a closed polygon, dashed when the style is Dashed
func Outline(img *gocv.Mat, pts []geometry.Point, clr color.RGBA,
	style tracker.Style, lineThickness int) {

	n := len(pts)

	for i := 0; i < n; i++ {
		a := pts[i]
		b := pts[(i+1)%n]

		if style == tracker.Dashed {
			DashedLine(img, a, b, clr, lineThickness)
			continue
		}

		gocv.Line(img, a.ImagePoint(), b.ImagePoint(), clr, lineThickness)
	}
}

// DashedLine draws a line from a to b broken into dashes by DashPattern
func DashedLine(img *gocv.Mat, a, b geometry.Point, clr color.RGBA,
	lineThickness int) {

	for _, seg := range dashSegments(a, b) {
		gocv.Line(img, seg[0].ImagePoint(), seg[1].ImagePoint(), clr,
			lineThickness)
	}
}

// dashSegments splits the line from a to b into dash segments
func dashSegments(a, b geometry.Point) [][2]geometry.Point {

	dash := DashPattern[0]
	gap := DashPattern[1]

	d := b.Sub(a)
	length := math.Hypot(d.X, d.Y)

	if length == 0 {
		return nil
	}

	ux := d.X / length
	uy := d.Y / length

	var segs [][2]geometry.Point

	for pos := 0.0; pos < length; pos += dash + gap {
		end := math.Min(pos+dash, length)

		segs = append(segs, [2]geometry.Point{
			{X: a.X + ux*pos, Y: a.Y + uy*pos},
			{X: a.X + ux*end, Y: a.Y + uy*end},
		})
	}

	return segs
}
