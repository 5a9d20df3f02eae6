package raster

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	bartrack "github.com/swdee/go-bartrack"
	"github.com/swdee/go-bartrack/tracker"
	"github.com/swdee/go-bartrack/video"
	"golang.org/x/image/draw"
)

var (
	background = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	trailColor = color.RGBA{R: 255, G: 255, B: 50, A: 255}
	lostColor  = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	textColor  = color.RGBA{R: 255, G: 0, B: 255, A: 255}
)

// FrameFunc receives each rendered view with its frame number.  The image is
// reused for the next frame so must be copied if retained
type FrameFunc func(img *image.RGBA, index int) error

// Canvas is a bartrack.Renderer drawing the tracking overlay in pure Go,
// for use where OpenCV is not available
type Canvas struct {
	out FrameFunc
	// LineWidth of region outlines and the trajectory
	LineWidth float64
	// PointRadius of the current trajectory point
	PointRadius float64
	img         *image.RGBA
	pen         painter
	pending     bool
	index       int
	written     int
	err         error
	summary     bartrack.Summary
	finished    chan struct{}
	finishOnce  sync.Once
	logger      *slog.Logger
	sync.Mutex
}

// NewCanvas returns a Canvas handing rendered views to out
func NewCanvas(out FrameFunc, logger *slog.Logger) *Canvas {

	if logger == nil {
		logger = slog.Default()
	}

	return &Canvas{
		out:         out,
		LineWidth:   2,
		PointRadius: 4,
		finished:    make(chan struct{}),
		logger:      logger,
	}
}

// DisplayFrame draws the frame letterboxed into the view with its regions
// and trajectory
func (c *Canvas) DisplayFrame(update bartrack.DisplayUpdate) {

	c.Lock()
	defer c.Unlock()

	w := int(math.Round(update.ViewSize.Width))
	h := int(math.Round(update.ViewSize.Height))

	if w <= 0 || h <= 0 {
		return
	}

	if c.img == nil || c.img.Bounds().Dx() != w || c.img.Bounds().Dy() != h {
		c.img = image.NewRGBA(image.Rect(0, 0, w, h))
	}

	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(background), image.Point{},
		draw.Src)

	if f, ok := update.Frame.(video.ImageFrame); ok {
		if src := f.Image(); src != nil {
			drawFrame(c.img, src, update.Transform, update.ImageSize,
				update.FrameGeometry)
		}
	}

	for _, r := range update.Regions {
		if len(r.Outline) < 2 {
			continue
		}

		var clr color.Color = r.Region.Color

		if r.State == tracker.Lost {
			clr = lostColor
		}

		c.pen.polygon(r.Outline, c.LineWidth, r.Region.Style == tracker.Dashed)
		c.pen.paint(c.img, clr)
	}

	c.pen.polyline(update.Trajectory, c.LineWidth)
	c.pen.paint(c.img, trailColor)

	if update.HasTrajectoryPoint && len(update.Regions) > 0 {
		c.pen.disc(update.TrajectoryPoint, c.PointRadius)
		c.pen.paint(c.img, update.Regions[0].Region.Color)
	}

	c.pending = true
	c.index = update.Index

	if update.Index == 0 {
		c.flush()
	}
}

// DisplayFrameCounter writes the frame number in the top left corner and
// hands the view to the output
func (c *Canvas) DisplayFrameCounter(frame int) {

	c.Lock()
	defer c.Unlock()

	if !c.pending {
		return
	}

	text(c.img, fmt.Sprintf("Frame: %d", frame), image.Pt(4, 14), textColor)
	c.index = frame
	c.flush()
}

func (c *Canvas) flush() {

	c.pending = false

	if c.out == nil {
		return
	}

	if err := c.out(c.img, c.index); err != nil {
		if c.err == nil {
			c.err = errors.Wrap(err, "error writing rendered frame")
		}
		c.logger.Error("Error writing rendered frame", "frame", c.index, "error", err)
		return
	}

	c.written++
}

// DidFinishTracking records the session summary
func (c *Canvas) DidFinishTracking(summary bartrack.Summary) {

	c.Lock()
	c.summary = summary
	c.Unlock()

	c.finishOnce.Do(func() { close(c.finished) })
}

// Done is closed once the session has finished
func (c *Canvas) Done() <-chan struct{} {
	return c.finished
}

// Summary returns the finished session's summary
func (c *Canvas) Summary() bartrack.Summary {
	c.Lock()
	defer c.Unlock()
	return c.summary
}

// Written returns the number of views handed to the output
func (c *Canvas) Written() int {
	c.Lock()
	defer c.Unlock()
	return c.written
}

// Err returns the first output error
func (c *Canvas) Err() error {
	c.Lock()
	defer c.Unlock()
	return c.err
}

// PNGDir returns a FrameFunc saving each view as frame_00001.png and so on
// in dir, which is created if missing
func PNGDir(dir string) FrameFunc {
	return func(img *image.RGBA, index int) error {

		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "error creating %s", dir)
		}

		path := filepath.Join(dir, fmt.Sprintf("frame_%05d.png", index))

		f, err := os.Create(path)

		if err != nil {
			return errors.Wrapf(err, "error creating %s", path)
		}

		if err := png.Encode(f, img); err != nil {
			f.Close()
			return errors.Wrapf(err, "error encoding %s", path)
		}

		return f.Close()
	}
}
