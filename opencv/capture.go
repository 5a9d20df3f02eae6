package opencv

import (
	"github.com/pkg/errors"
	"github.com/swdee/go-bartrack/geometry"
	"github.com/swdee/go-bartrack/video"
	"gocv.io/x/gocv"
)

const (
	// captureOrientationMeta is CAP_PROP_ORIENTATION_META, the rotation in
	// degrees stored in the container
	captureOrientationMeta = gocv.VideoCaptureProperties(48)
	// captureOrientationAuto is CAP_PROP_ORIENTATION_AUTO, when set the
	// backend rotates frames itself
	captureOrientationAuto = gocv.VideoCaptureProperties(49)
)

// Capture is a video.Decoder reading frames from a file with gocv
type Capture struct {
	vc        *gocv.VideoCapture
	fps       float64
	transform geometry.AffineTransform
}

// OpenCapture opens a video file for decoding.  It satisfies video.Opener
func OpenCapture(asset string) (video.Decoder, error) {

	vc, err := gocv.VideoCaptureFile(asset)

	if err != nil {
		return nil, errors.Wrapf(err, "error opening video %s", asset)
	}

	if !vc.IsOpened() {
		vc.Close()
		return nil, errors.Errorf("no video track in %s", asset)
	}

	// frames are rotated once from the preferred transform, not by the backend
	vc.Set(captureOrientationAuto, 0)

	width := vc.Get(gocv.VideoCaptureFrameWidth)
	height := vc.Get(gocv.VideoCaptureFrameHeight)

	return &Capture{
		vc:        vc,
		fps:       vc.Get(gocv.VideoCaptureFPS),
		transform: preferredTransform(vc.Get(captureOrientationMeta), width, height),
	}, nil
}

// preferredTransform builds the transform that rotates decoded pixels for
// display from the container rotation in degrees clockwise
func preferredTransform(degrees, width, height float64) geometry.AffineTransform {

	switch int(degrees) % 360 {
	case 90, -270:
		return geometry.RotationTransform(90).
			Concat(geometry.TranslationTransform(height, 0))
	case 180, -180:
		return geometry.RotationTransform(180).
			Concat(geometry.TranslationTransform(width, height))
	case 270, -90:
		return geometry.RotationTransform(-90).
			Concat(geometry.TranslationTransform(0, width))
	default:
		return geometry.IdentityTransform()
	}
}

// Next reads the next non empty frame
func (c *Capture) Next() (video.Frame, bool) {

	for {
		img := gocv.NewMat()

		// read the next frame from the video
		if ok := c.vc.Read(&img); !ok {
			// reached last video frame
			img.Close()
			return nil, false
		}

		// skip empty frames
		if img.Empty() {
			img.Close()
			continue
		}

		return NewMatFrame(img), true
	}
}

// NominalFrameRate returns the frames per second of the video
func (c *Capture) NominalFrameRate() float64 {
	return c.fps
}

// PreferredTransform returns the transform mapping decoded pixels to display
func (c *Capture) PreferredTransform() geometry.AffineTransform {
	return c.transform
}

// Close releases the capture
func (c *Capture) Close() error {
	return c.vc.Close()
}
