package preprocess

import (
	"image"
	"image/color"
	"math"

	"github.com/swdee/go-bartrack/geometry"
	"gocv.io/x/gocv"
)

// Resizer letterboxes display frames into a drawing view using the same
// frame geometry regions are mapped with
type Resizer struct {
	// srcWidth is the width of the source image
	srcWidth int
	// srcHeight is the height of the source image
	srcHeight int
	// destWidth is the width of the view
	destWidth int
	// destHeight is the height of the view
	destHeight int
	// tempMat is a Mat used during the resize process
	tempMat gocv.Mat
	// frame is the letterboxed image rectangle in the view
	frame geometry.Rect
	// letterbox parameters used in scaling
	xPad  int
	yPad  int
	scale float32
	// resize dimensions
	resizeW int
	resizeH int
}

// NewResizer returns a resizer scaling images of the source size into a view
// of the destination size
func NewResizer(srcWidth, srcHeight, destWidth, destHeight int) *Resizer {
	r := &Resizer{
		srcWidth:   srcWidth,
		srcHeight:  srcHeight,
		destWidth:  destWidth,
		destHeight: destHeight,
		tempMat:    gocv.NewMat(),
	}

	// precalculate scaling dimensions
	r.preCalc()

	return r
}

// Close frees memory allocated during resize process
func (r *Resizer) Close() error {
	return r.tempMat.Close()
}

// preCalc the letterbox placement from the frame geometry
func (r *Resizer) preCalc() {

	r.frame = geometry.ComputeFrameGeometry(
		geometry.Sz(float64(r.srcWidth), float64(r.srcHeight)),
		geometry.Sz(float64(r.destWidth), float64(r.destHeight)),
	)

	r.resizeW = int(r.frame.Width)
	r.resizeH = int(r.frame.Height)
	r.xPad = int(r.frame.X)
	r.yPad = int(r.frame.Y)

	if r.srcWidth > 0 {
		r.scale = float32(r.frame.Width / float64(r.srcWidth))
	}
}

// Valid returns false if either size is empty and no letterbox can be made
func (r *Resizer) Valid() bool {
	return !r.frame.IsEmpty()
}

// LetterBoxResize scales the source image into the view whilst maintaining
// image aspect.  Color is that used for letter box padding
func (r *Resizer) LetterBoxResize(src gocv.Mat, dest *gocv.Mat, color color.RGBA) {

	if !r.Valid() {
		return
	}

	gocv.Resize(src, &r.tempMat, image.Pt(r.resizeW, r.resizeH),
		0, 0, gocv.InterpolationArea)

	gocv.CopyMakeBorder(r.tempMat, dest, r.yPad, r.destHeight-r.resizeH-r.yPad,
		r.xPad, r.destWidth-r.resizeW-r.xPad, gocv.BorderConstant, color)
}

// FrameGeometry returns the letterboxed image rectangle in the view
func (r *Resizer) FrameGeometry() geometry.Rect {
	return r.frame
}

// ScaleFactor returns the scale factor used in letterbox resize
func (r *Resizer) ScaleFactor() float32 {
	return r.scale
}

// XPad returns the x padding used in letterbox resize
func (r *Resizer) XPad() int {
	return r.xPad
}

// YPad returns the y padding used in letterbox resize
func (r *Resizer) YPad() int {
	return r.yPad
}

// SrcWidth returns the width of the source image
func (r *Resizer) SrcWidth() int {
	return r.srcWidth
}

// SrcHeight returns the height of the source image
func (r *Resizer) SrcHeight() int {
	return r.srcHeight
}

// Matches returns true if the resizer was built for the given sizes, so a
// cached resizer can be reused across frames
func (r *Resizer) Matches(src, dest geometry.Size) bool {
	return r.srcWidth == int(math.Round(src.Width)) &&
		r.srcHeight == int(math.Round(src.Height)) &&
		r.destWidth == int(math.Round(dest.Width)) &&
		r.destHeight == int(math.Round(dest.Height))
}
