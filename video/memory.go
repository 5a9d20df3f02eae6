package video

import (
	"image"
	"sync/atomic"

	"github.com/swdee/go-bartrack/geometry"
)

// MemoryFrame is a frame held in memory as an image
type MemoryFrame struct {
	// Index is the position of the frame in its stream, starting at 0
	Index  int
	img    image.Image
	size   geometry.Size
	closed atomic.Bool
}

// NewMemoryFrame wraps an image as a Frame
func NewMemoryFrame(index int, img image.Image) *MemoryFrame {

	b := img.Bounds()

	return &MemoryFrame{
		Index: index,
		img:   img,
		size:  geometry.Sz(float64(b.Dx()), float64(b.Dy())),
	}
}

// Size returns the frame dimensions
func (f *MemoryFrame) Size() geometry.Size {
	return f.size
}

// Image returns the frame pixels
func (f *MemoryFrame) Image() image.Image {
	return f.img
}

// Close marks the frame as released
func (f *MemoryFrame) Close() error {
	f.closed.Store(true)
	return nil
}

// Closed returns true once Close has been called
func (f *MemoryFrame) Closed() bool {
	return f.closed.Load()
}

// MemoryDecoder is a Decoder over a fixed slice of images, used for synthetic
// streams and tests
type MemoryDecoder struct {
	images    []image.Image
	pos       int
	frameRate float64
	transform geometry.AffineTransform
	// Frames records every frame handed out so callers can check they were
	// released
	Frames []*MemoryFrame
	closed bool
}

// NewMemoryDecoder returns a decoder producing the given images in order
func NewMemoryDecoder(frameRate float64, images ...image.Image) *MemoryDecoder {
	return &MemoryDecoder{
		images:    images,
		frameRate: frameRate,
		transform: geometry.IdentityTransform(),
	}
}

// NewBlankDecoder returns a decoder producing n blank frames of the given
// size
func NewBlankDecoder(frameRate float64, n, width, height int) *MemoryDecoder {

	images := make([]image.Image, n)

	for i := range images {
		images[i] = image.NewRGBA(image.Rect(0, 0, width, height))
	}

	return NewMemoryDecoder(frameRate, images...)
}

// SetPreferredTransform sets the transform reported to the Source
func (d *MemoryDecoder) SetPreferredTransform(t geometry.AffineTransform) {
	d.transform = t
}

// Next returns the next image as a frame
func (d *MemoryDecoder) Next() (Frame, bool) {

	if d.closed || d.pos >= len(d.images) {
		return nil, false
	}

	f := NewMemoryFrame(d.pos, d.images[d.pos])
	d.pos++
	d.Frames = append(d.Frames, f)

	return f, true
}

// NominalFrameRate returns the configured frame rate
func (d *MemoryDecoder) NominalFrameRate() float64 {
	return d.frameRate
}

// PreferredTransform returns the configured preferred transform
func (d *MemoryDecoder) PreferredTransform() geometry.AffineTransform {
	return d.transform
}

// Close stops the decoder
func (d *MemoryDecoder) Close() error {
	d.closed = true
	return nil
}

// Closed returns true once Close has been called
func (d *MemoryDecoder) Closed() bool {
	return d.closed
}

// Opener returns an Opener handing out this decoder rewound to the first
// image, so the same stream can be opened more than once in sequence
func (d *MemoryDecoder) Opener() Opener {
	return func(string) (Decoder, error) {
		d.pos = 0
		d.closed = false
		return d, nil
	}
}
