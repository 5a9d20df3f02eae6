package render

import (
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"sync"

	"github.com/pkg/errors"
	bartrack "github.com/swdee/go-bartrack"
	"github.com/swdee/go-bartrack/opencv"
	"github.com/swdee/go-bartrack/preprocess"
	"gocv.io/x/gocv"
)

// Sink receives every rendered view, *gocv.VideoWriter satisfies it
type Sink interface {
	Write(img gocv.Mat) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(img gocv.Mat) error

// Write calls f
func (f SinkFunc) Write(img gocv.Mat) error {
	return f(img)
}

// Overlay is a bartrack.Renderer drawing the tracking overlay with gocv.
// Each frame is rotated upright, letterboxed into the view and annotated,
// then written to the sink once its frame counter has been drawn
type Overlay struct {
	sink Sink
	// Font is used for region labels
	Font Font
	// CounterFont is used for the frame counter banner
	CounterFont Font
	// Trail is the trajectory style
	Trail TrailStyle
	// LineThickness of region outlines
	LineThickness int
	// Background fills the letterbox padding
	Background color.RGBA
	resizer    *preprocess.Resizer
	canvas     gocv.Mat
	pending    bool
	written    int
	summary    bartrack.Summary
	err        error
	finished   chan struct{}
	finishOnce sync.Once
	logger     *slog.Logger
	sync.Mutex
}

// NewOverlay returns an Overlay writing rendered views to the sink
func NewOverlay(sink Sink, logger *slog.Logger) *Overlay {

	if logger == nil {
		logger = slog.Default()
	}

	return &Overlay{
		sink:          sink,
		Font:          DefaultFont(),
		CounterFont:   CounterFont(),
		Trail:         DefaultTrailStyle(),
		LineThickness: 2,
		Background:    Black,
		canvas:        gocv.NewMat(),
		finished:      make(chan struct{}),
		logger:        logger,
	}
}

// DisplayFrame draws the frame and its overlay onto the canvas.  The first
// frame preview has no counter and is written straight away
func (o *Overlay) DisplayFrame(update bartrack.DisplayUpdate) {

	o.Lock()
	defer o.Unlock()

	view := image.Pt(int(math.Round(update.ViewSize.Width)),
		int(math.Round(update.ViewSize.Height)))

	if view.X <= 0 || view.Y <= 0 {
		return
	}

	if err := o.drawFrame(update, view); err != nil {
		o.logger.Warn("Error drawing frame, rendering blank view",
			"frame", update.Index, "error", err)
		o.blank(view)
	}

	Regions(&o.canvas, update.Regions, o.Font, o.LineThickness)

	if len(update.Regions) > 0 {
		Trajectory(&o.canvas, update.Trajectory, update.TrajectoryPoint,
			update.HasTrajectoryPoint, update.Regions[0].Region.Color, o.Trail)
	}

	o.pending = true

	if update.Index == 0 {
		o.flush()
	}
}

// drawFrame letterboxes the upright frame onto the canvas
func (o *Overlay) drawFrame(update bartrack.DisplayUpdate, view image.Point) error {

	if update.Frame == nil {
		return errors.New("no frame")
	}

	mat, release, err := opencv.Upright(update.Frame, update.Orientation)

	if err != nil {
		return err
	}

	defer release()

	if mat.Empty() {
		return errors.New("empty frame")
	}

	if o.resizer == nil || !o.resizer.Matches(update.ImageSize, update.ViewSize) {
		if o.resizer != nil {
			o.resizer.Close()
		}
		o.resizer = preprocess.NewResizer(mat.Cols(), mat.Rows(), view.X, view.Y)
	}

	if !o.resizer.Valid() {
		return errors.New("empty frame geometry")
	}

	o.resizer.LetterBoxResize(mat, &o.canvas, o.Background)

	return nil
}

// blank replaces the canvas with an empty view
func (o *Overlay) blank(view image.Point) {
	o.canvas.Close()
	bg := o.Background
	o.canvas = gocv.NewMatWithSizeFromScalar(
		gocv.NewScalar(float64(bg.B), float64(bg.G), float64(bg.R), 0),
		view.Y, view.X, gocv.MatTypeCV8UC3)
}

// DisplayFrameCounter draws the frame counter banner and writes the view to
// the sink
func (o *Overlay) DisplayFrameCounter(frame int) {

	o.Lock()
	defer o.Unlock()

	if !o.pending {
		return
	}

	// blank out background video
	rect := image.Rect(0, 0, o.canvas.Cols(), 22)
	gocv.Rectangle(&o.canvas, rect, Black, -1)

	gocv.PutTextWithParams(&o.canvas, fmt.Sprintf("Frame: %d", frame),
		image.Pt(o.CounterFont.LeftPad, 16), o.CounterFont.Face,
		o.CounterFont.Scale, o.CounterFont.Color, o.CounterFont.Thickness,
		o.CounterFont.LineType, false)

	o.flush()
}

// flush writes the canvas to the sink, the first write error is kept
func (o *Overlay) flush() {

	o.pending = false

	if o.sink == nil {
		return
	}

	if err := o.sink.Write(o.canvas); err != nil {
		if o.err == nil {
			o.err = errors.Wrap(err, "error writing rendered frame")
		}
		o.logger.Error("Error writing rendered frame", "error", err)
		return
	}

	o.written++
}

// DidFinishTracking records the session summary
func (o *Overlay) DidFinishTracking(summary bartrack.Summary) {

	o.Lock()
	o.summary = summary
	o.Unlock()

	o.finishOnce.Do(func() { close(o.finished) })
}

// Done is closed once the session has finished
func (o *Overlay) Done() <-chan struct{} {
	return o.finished
}

// Summary returns the finished session's summary
func (o *Overlay) Summary() bartrack.Summary {
	o.Lock()
	defer o.Unlock()
	return o.summary
}

// Written returns the number of views written to the sink
func (o *Overlay) Written() int {
	o.Lock()
	defer o.Unlock()
	return o.written
}

// Err returns the first sink error
func (o *Overlay) Err() error {
	o.Lock()
	defer o.Unlock()
	return o.err
}

// Close frees the canvas and resizer
func (o *Overlay) Close() error {

	o.Lock()
	defer o.Unlock()

	if o.resizer != nil {
		o.resizer.Close()
		o.resizer = nil
	}

	return o.canvas.Close()
}
