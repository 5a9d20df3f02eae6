package video

import (
	"image"
	"math"
	"time"

	"github.com/pkg/errors"
	"github.com/swdee/go-bartrack/geometry"
)

var (
	// ErrReaderInit is returned when the video asset has no video track or
	// the decode backend could not be created
	ErrReaderInit = errors.New("video reader initialization failed")
	// ErrFirstFrameRead is returned when the first frame of the video could
	// not be read
	ErrFirstFrameRead = errors.New("first frame of video could not be read")
)

// DefaultFrameRate is used for pacing when the container reports no usable
// nominal frame rate
const DefaultFrameRate = 30.0

// Frame is a single decoded video frame in decode orientation
type Frame interface {
	// Size returns the decoded frame dimensions in pixels
	Size() geometry.Size
	// Close frees any resources held by the frame
	Close() error
}

// ImageFrame is implemented by frames that can expose their pixels as an
// image.Image
type ImageFrame interface {
	Frame
	Image() image.Image
}

// Decoder is a video decode backend supplying frames in order
type Decoder interface {
	// Next returns the next frame or false at the end of the stream
	Next() (Frame, bool)
	// NominalFrameRate returns the frames per second reported by the
	// container
	NominalFrameRate() float64
	// PreferredTransform returns the track's preferred transform which
	// maps decode pixels to display pixels
	PreferredTransform() geometry.AffineTransform
	// Close releases the decoder
	Close() error
}

// Opener creates a Decoder for a video asset
type Opener func(asset string) (Decoder, error)

// Source wraps sequential decode of a video asset into a finite, non
// restartable stream of frames with a fixed orientation
type Source struct {
	decoder Decoder
	// first is the prefetched first frame, returned by the first Next call
	first Frame
	// orientation transform maps decode pixels to display pixels
	transform   geometry.AffineTransform
	orientation geometry.Orientation
	frameRate   float64
	size        geometry.Size
	framesRead  int
	done        bool
}

// Open creates a Source for the video asset using the given Opener.  The
// first frame is read eagerly so a video that cannot produce any frames
// fails here with ErrFirstFrameRead rather than mid session
func Open(asset string, open Opener) (*Source, error) {

	if open == nil {
		return nil, errors.Wrap(ErrReaderInit, "no decode backend")
	}

	dec, err := open(asset)

	if err != nil {
		return nil, errors.Wrapf(ErrReaderInit, "asset %q: %v", asset, err)
	}

	if dec == nil {
		return nil, errors.Wrapf(ErrReaderInit, "asset %q: no decoder", asset)
	}

	first, ok := dec.Next()

	if !ok || first == nil || first.Size().IsEmpty() {
		if first != nil {
			first.Close()
		}
		dec.Close()
		return nil, errors.Wrapf(ErrFirstFrameRead, "asset %q", asset)
	}

	// the display orientation is read from the angle of the inverse, a
	// singular preferred transform is treated as identity
	transform := dec.PreferredTransform()
	inverse, err := transform.Invert()

	if err != nil {
		transform = geometry.IdentityTransform()
		inverse = transform
	}

	orientation := geometry.OrientationFromTransform(inverse)

	return &Source{
		decoder:     dec,
		first:       first,
		transform:   transform,
		orientation: orientation,
		frameRate:   dec.NominalFrameRate(),
		size:        first.Size(),
	}, nil
}

// Next returns the next frame of the video, or false once the stream is
// exhausted.  Absence of a frame is the only failure signal.  The caller
// owns the returned frame and must Close it
func (s *Source) Next() (Frame, bool) {

	if s.done {
		return nil, false
	}

	if s.first != nil {
		f := s.first
		s.first = nil
		s.framesRead++
		return f, true
	}

	f, ok := s.decoder.Next()

	if !ok || f == nil {
		s.done = true
		return nil, false
	}

	s.framesRead++

	return f, true
}

// FramesRead returns the number of frames handed out by Next
func (s *Source) FramesRead() int {
	return s.framesRead
}

// NominalFrameRate returns the frame rate reported by the container
func (s *Source) NominalFrameRate() float64 {
	return s.frameRate
}

// FrameInterval returns the time between frames derived from the nominal
// frame rate, used to pace playback
func (s *Source) FrameInterval() time.Duration {
	return FrameInterval(s.frameRate)
}

// FrameInterval converts a frame rate to the duration of one frame, falling
// back to DefaultFrameRate when the rate is not positive and finite
func FrameInterval(fps float64) time.Duration {

	if !(fps > 0) || math.IsInf(fps, 0) {
		fps = DefaultFrameRate
	}

	return time.Duration(float64(time.Second) / fps)
}

// OrientationTransform returns the transform mapping decode pixels to
// display pixels.  It is fixed for the whole asset
func (s *Source) OrientationTransform() geometry.AffineTransform {
	return s.transform
}

// Orientation returns the display orientation of the asset
func (s *Source) Orientation() geometry.Orientation {
	return s.orientation
}

// DecodedSize returns the size of frames as decoded
func (s *Source) DecodedSize() geometry.Size {
	return s.size
}

// DisplaySize returns the size of frames once the orientation is applied
func (s *Source) DisplaySize() geometry.Size {
	return s.orientation.DisplaySize(s.size)
}

// Close releases the decoder and any unread prefetched frame
func (s *Source) Close() error {

	if s.first != nil {
		s.first.Close()
		s.first = nil
	}

	s.done = true

	return s.decoder.Close()
}
