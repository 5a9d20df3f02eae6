package opencv

import (
	"image"

	"github.com/pkg/errors"
	"github.com/swdee/go-bartrack/geometry"
	"github.com/swdee/go-bartrack/video"
	"gocv.io/x/gocv"
)

// MatFrame is a video frame held in a gocv Mat in BGR order
type MatFrame struct {
	Mat gocv.Mat
}

// NewMatFrame wraps a Mat as a frame, the frame takes ownership of the Mat
func NewMatFrame(mat gocv.Mat) *MatFrame {
	return &MatFrame{Mat: mat}
}

// Size returns the frame dimensions
func (f *MatFrame) Size() geometry.Size {
	return geometry.Sz(float64(f.Mat.Cols()), float64(f.Mat.Rows()))
}

// Image converts the frame to an image.Image, nil if the conversion fails
func (f *MatFrame) Image() image.Image {

	img, err := f.Mat.ToImage()

	if err != nil {
		return nil
	}

	return img
}

// Close frees the Mat
func (f *MatFrame) Close() error {
	return f.Mat.Close()
}

// toMat returns the frame pixels as a BGR Mat.  The returned Mat must be
// closed by the caller when owned is true
func toMat(frame video.Frame) (mat gocv.Mat, owned bool, err error) {

	switch f := frame.(type) {
	case *MatFrame:
		return f.Mat, false, nil

	case video.ImageFrame:
		img := f.Image()

		if img == nil {
			return gocv.Mat{}, false, errors.New("frame has no image")
		}

		mat, err := gocv.ImageToMatRGB(img)

		if err != nil {
			return gocv.Mat{}, false, errors.Wrap(err, "error converting frame")
		}

		return mat, true, nil

	default:
		return gocv.Mat{}, false, errors.Errorf("unsupported frame type %T", frame)
	}
}

// upright rotates a decoded frame to display orientation.  The returned Mat
// must be closed by the caller when owned is true
func upright(src gocv.Mat, orientation geometry.Orientation) (dst gocv.Mat, owned bool) {

	var flag gocv.RotateFlag

	switch orientation {
	case geometry.OrientationRight:
		flag = gocv.Rotate90Clockwise
	case geometry.OrientationLeft:
		flag = gocv.Rotate90CounterClockwise
	case geometry.OrientationDown:
		flag = gocv.Rotate180Clockwise
	default:
		return src, false
	}

	dst = gocv.NewMat()
	gocv.Rotate(src, &dst, flag)

	return dst, true
}

// Upright converts a frame to a BGR Mat rotated to display orientation.
// Release must be called once the Mat is no longer used
func Upright(frame video.Frame,
	orientation geometry.Orientation) (mat gocv.Mat, release func(), err error) {

	src, srcOwned, err := toMat(frame)

	if err != nil {
		return gocv.Mat{}, nil, err
	}

	dst, dstOwned := upright(src, orientation)

	release = func() {
		if dstOwned {
			dst.Close()
		}
		if srcOwned {
			src.Close()
		}
	}

	return dst, release, nil
}

// toPixels converts a normalized bottom-left origin box to a pixel rectangle
// on a top-left origin image of the given size
func toPixels(box geometry.Rect, width, height int) image.Rectangle {

	w := float64(width)
	h := float64(height)

	px := geometry.Rect{
		X:      box.X * w,
		Y:      (1 - box.Y - box.Height) * h,
		Width:  box.Width * w,
		Height: box.Height * h,
	}

	return px.ImageRect().Intersect(image.Rect(0, 0, width, height))
}

// toNormalized converts a pixel rectangle on a top-left origin image to a
// normalized bottom-left origin box
func toNormalized(r image.Rectangle, width, height int) geometry.Rect {

	w := float64(width)
	h := float64(height)

	return geometry.Rect{
		X:      float64(r.Min.X) / w,
		Y:      1 - float64(r.Max.Y)/h,
		Width:  float64(r.Dx()) / w,
		Height: float64(r.Dy()) / h,
	}
}

// pointToNormalized converts a pixel point to normalized bottom-left origin
// space
func pointToNormalized(p image.Point, width, height int) geometry.Point {
	return geometry.Point{
		X: float64(p.X) / float64(width),
		Y: 1 - float64(p.Y)/float64(height),
	}
}
