package selector

import (
	"log/slog"
	"math"
	"sync"

	"github.com/pkg/errors"
	"github.com/swdee/go-bartrack/geometry"
	"github.com/swdee/go-bartrack/tracker"
)

// ErrDegenerateSelection is returned when a drag does not enclose any area of
// the image
var ErrDegenerateSelection = errors.New("degenerate selection")

// Rubberband is the drag in progress rectangle in view space
type Rubberband struct {
	Start       geometry.Point
	Translation geometry.Point
}

// Rect returns the view space rectangle spanned by the drag
func (r Rubberband) Rect() geometry.Rect {
	return geometry.RectFromPoints(r.Start, r.Start.Add(r.Translation))
}

// Selector converts drag gestures on the view into tracked regions
type Selector struct {
	mu     sync.Mutex
	mapper geometry.Mapper
	// band is the current drag, nil when no drag is in progress
	band *Rubberband
	// created counts the regions produced, used to pick palette colors
	created int
	logger  *slog.Logger
}

// New returns a Selector.  Logger may be nil
func New(logger *slog.Logger) *Selector {
	return &Selector{logger: logger}
}

// SetMapper sets the coordinate mapper for the current frame geometry.  It
// must be updated whenever the view or image size changes
func (s *Selector) SetMapper(m geometry.Mapper) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mapper = m
}

// SetFrameGeometry recomputes the mapper for an image and view size
func (s *Selector) SetFrameGeometry(imageSize, viewSize geometry.Size) {
	s.SetMapper(geometry.NewMapper(imageSize, viewSize))
}

// FrameGeometry returns the letterboxed image rectangle selections are
// clipped to
func (s *Selector) FrameGeometry() geometry.Rect {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mapper.FrameGeometry()
}

// DragChanged updates the rubberband for a drag in progress
func (s *Selector) DragChanged(start, translation geometry.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.band = &Rubberband{Start: start, Translation: translation}
}

// DragEnded finishes the drag and returns the selected region in
// tracker-normalized space.  The rubberband is discarded either way.
// Selections without area, or entirely off the image, return
// ErrDegenerateSelection
func (s *Selector) DragEnded(start, translation geometry.Point) (tracker.Region, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.band = nil

	band := Rubberband{Start: start, Translation: translation}
	viewRect := band.Rect()

	if viewRect.IsEmpty() {
		s.logDegenerate("no area", viewRect)
		return tracker.Region{}, errors.Wrap(ErrDegenerateSelection, "no area")
	}

	if s.mapper.IsEmpty() {
		s.logDegenerate("no frame geometry", viewRect)
		return tracker.Region{}, errors.Wrap(ErrDegenerateSelection, "no frame geometry")
	}

	clipped := geometry.ClipRect(viewRect, s.mapper.FrameGeometry())

	if clipped.IsEmpty() {
		s.logDegenerate("outside image", viewRect)
		return tracker.Region{}, errors.Wrap(ErrDegenerateSelection, "outside image")
	}

	norm := unitClamp(s.mapper.ToTrackerNormalized(clipped))
	region := tracker.NewRegion(norm, tracker.PaletteColor(s.created))
	s.created++

	if s.logger != nil {
		s.logger.Debug("Region selected", "view", viewRect, "normalized", norm,
			"index", s.created-1)
	}

	return region, nil
}

// Selection returns the current rubberband rectangle while a drag is in
// progress
func (s *Selector) Selection() (geometry.Rect, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.band == nil {
		return geometry.Rect{}, false
	}

	return s.band.Rect(), true
}

// Cancel discards a drag in progress
func (s *Selector) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.band = nil
}

// Contains returns true if a view point lies on the image, ie: a drag may
// start there
func (s *Selector) Contains(p geometry.Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.mapper.Contains(p)
}

// Created returns the number of regions produced so far
func (s *Selector) Created() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.created
}

// Reset restarts palette numbering for a new session
func (s *Selector) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.band = nil
	s.created = 0
}

func (s *Selector) logDegenerate(reason string, r geometry.Rect) {
	if s.logger != nil {
		s.logger.Info("Selection rejected", "reason", reason, "view", r)
	}
}

// unitClamp removes floating error left by clipping at the frame edges so the
// rectangle lies within the unit square
func unitClamp(r geometry.Rect) geometry.Rect {

	x0 := math.Max(0, r.MinX())
	y0 := math.Max(0, r.MinY())
	x1 := math.Min(1, r.MaxX())
	y1 := math.Min(1, r.MaxY())

	return geometry.Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}
