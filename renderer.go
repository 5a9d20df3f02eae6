package bartrack

import (
	"context"

	"github.com/swdee/go-bartrack/geometry"
	"github.com/swdee/go-bartrack/tracker"
	"github.com/swdee/go-bartrack/video"
)

// Renderer draws the tracking overlay.  All coordinates handed to a Renderer
// are in view space unless documented otherwise
type Renderer interface {
	// DisplayFrame is called once per processed frame with the frame and the
	// overlay to draw over it
	DisplayFrame(update DisplayUpdate)
	// DisplayFrameCounter is called after DisplayFrame with the 1 based
	// number of the frame just displayed
	DisplayFrameCounter(frame int)
	// DidFinishTracking is called exactly once when a session ends, whether
	// the video was exhausted or the session was cancelled
	DidFinishTracking(summary Summary)
}

// RegionUpdate is the state of one tracked region on a frame
type RegionUpdate struct {
	Identity   tracker.Identity
	State      tracker.TrackState
	Confidence float32
	// Region is in tracker-normalized space
	Region tracker.Region
	// Outline is the region's corners in view space clipped to the frame
	// geometry, nil if the region lies off the image
	Outline []geometry.Point
}

// DisplayUpdate is everything a Renderer needs to draw one frame.  Regions
// and trajectory are copies owned by the receiver
type DisplayUpdate struct {
	// Index is the 1 based frame number, 0 for the first frame preview
	Index int
	// Frame is only valid for the duration of the DisplayFrame call
	Frame video.Frame
	// Transform maps decode pixels to display pixels
	Transform   geometry.AffineTransform
	Orientation geometry.Orientation
	// ImageSize is the display image size after orientation
	ImageSize geometry.Size
	// ViewSize is the drawing view size
	ViewSize geometry.Size
	// FrameGeometry is the letterboxed image rectangle in the view
	FrameGeometry geometry.Rect
	Regions       []RegionUpdate
	// TrajectoryPoint is the point sampled on this frame in view space, only
	// set when HasTrajectoryPoint is true
	TrajectoryPoint    geometry.Point
	HasTrajectoryPoint bool
	// Trajectory is the drawable trajectory in view space
	Trajectory []geometry.Point
}

// Summary describes a finished session
type Summary struct {
	// RunID correlates the session with its log lines
	RunID string
	// Frames is the number of frames processed
	Frames int
	// Cancelled is true if the session stopped before the video ended
	Cancelled bool
	// TrackingFailed is the sticky flag set when any region was lost on any
	// frame
	TrackingFailed bool
	// LostFrames counts region frames where tracking failed
	LostFrames int
	// OutOfBounds counts region frames whose corners fell outside the unit
	// square
	OutOfBounds int
	// TrajectoryPoints is the number of trajectory samples taken
	TrajectoryPoints int
}

// Dispatcher runs a renderer callback on the consumer's goroutine and returns
// once the callback has completed
type Dispatcher func(fn func())

// Inline is a Dispatcher that runs callbacks on the session goroutine
func Inline(fn func()) {
	fn()
}

// MainQueue marshals callbacks onto the goroutine calling Run, acting as the
// UI thread of an application
type MainQueue struct {
	tasks   chan func()
	stopped chan struct{}
}

// NewMainQueue returns a MainQueue.  Run must be called for dispatched
// callbacks to execute
func NewMainQueue() *MainQueue {
	return &MainQueue{
		tasks:   make(chan func()),
		stopped: make(chan struct{}),
	}
}

// Run executes dispatched callbacks until the context is done
func (q *MainQueue) Run(ctx context.Context) {

	defer close(q.stopped)

	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-q.tasks:
			fn()
		}
	}
}

// Dispatch runs fn on the Run goroutine and waits for it to complete.  Once
// Run has returned callbacks execute on the caller's goroutine
func (q *MainQueue) Dispatch(fn func()) {

	done := make(chan struct{})
	task := func() {
		defer close(done)
		fn()
	}

	select {
	case q.tasks <- task:
		<-done
	case <-q.stopped:
		fn()
	}
}

// EventKind identifies the Renderer callback an Event was produced by
type EventKind int

const (
	EventFrame EventKind = iota
	EventFrameCounter
	EventFinished
)

// Event is a Renderer callback delivered over a channel
type Event struct {
	Kind    EventKind
	Update  DisplayUpdate
	Counter int
	Summary Summary
}

// ChannelRenderer is a Renderer forwarding every callback as an Event to a
// subscriber.  Frames are not forwarded as they are released once
// DisplayFrame returns, Update.Frame is always nil.  The channel stays open
// so the renderer can serve further runs of a session, subscribers stop
// reading at EventFinished
type ChannelRenderer struct {
	events chan Event
}

// NewChannelRenderer returns a ChannelRenderer with the given channel buffer
// size.  Callbacks block while the buffer is full
func NewChannelRenderer(buffer int) *ChannelRenderer {
	return &ChannelRenderer{
		events: make(chan Event, buffer),
	}
}

// Events returns the channel events are delivered on
func (c *ChannelRenderer) Events() <-chan Event {
	return c.events
}

// DisplayFrame forwards the update without its frame
func (c *ChannelRenderer) DisplayFrame(update DisplayUpdate) {
	update.Frame = nil
	c.events <- Event{Kind: EventFrame, Update: update}
}

// DisplayFrameCounter forwards the frame counter
func (c *ChannelRenderer) DisplayFrameCounter(frame int) {
	c.events <- Event{Kind: EventFrameCounter, Counter: frame}
}

// DidFinishTracking forwards the summary
func (c *ChannelRenderer) DidFinishTracking(summary Summary) {
	c.events <- Event{Kind: EventFinished, Summary: summary}
}
