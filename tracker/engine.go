package tracker

import (
	"context"
	"math"
	"strings"

	"github.com/pkg/errors"
	"github.com/swdee/go-bartrack/geometry"
	"github.com/swdee/go-bartrack/video"
)

// ErrEngineInvocation is returned by an Engine when a tracking request could
// not be performed for a frame
var ErrEngineInvocation = errors.New("tracker engine invocation failed")

// TrackingLevel selects the tradeoff between tracking accuracy and speed
type TrackingLevel int

const (
	// LevelAccurate favours accuracy over speed
	LevelAccurate TrackingLevel = iota
	// LevelFast favours speed over accuracy
	LevelFast
)

// String returns the name of the tracking level
func (l TrackingLevel) String() string {
	if l == LevelFast {
		return "fast"
	}
	return "accurate"
}

// ParseTrackingLevel converts "accurate" or "fast" to a TrackingLevel
func ParseTrackingLevel(s string) (TrackingLevel, error) {

	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "accurate":
		return LevelAccurate, nil
	case "fast":
		return LevelFast, nil
	default:
		return LevelAccurate, errors.Errorf("unknown tracking level %q", s)
	}
}

// Observation is a tracker engine result for one identity on one frame
type Observation struct {
	Identity Identity
	// BoundingBox is normalized to the upright frame with the origin at the
	// bottom left
	BoundingBox geometry.Rect
	// Confidence in the range 0 to 1
	Confidence float32
}

// Valid returns false for observations that cannot be applied to a region,
// ie: non finite values or a box without area
func (o Observation) Valid() bool {

	c := float64(o.Confidence)

	return !o.BoundingBox.IsEmpty() && !math.IsNaN(c) && !math.IsInf(c, 0)
}

// Request asks an Engine to follow one identity on the next frame
type Request struct {
	Identity Identity
	// Prior is the last observation for the identity, or the submitted region
	// for a new track
	Prior Observation
	Level TrackingLevel
	// Initial is true the first time an identity is submitted
	Initial bool
}

// Engine is a single object visual tracker.  Track is called once per frame
// with every live request and returns an observation for each identity it
// could follow.  Entries may be omitted, or the whole batch failed with an
// error wrapping ErrEngineInvocation
type Engine interface {
	Track(ctx context.Context, requests []Request, frame video.Frame,
		orientation geometry.Orientation) ([]Observation, error)
}

// Resetter is implemented by engines holding per identity state that must be
// cleared before a new session
type Resetter interface {
	Reset()
}

// EngineFunc adapts a function to the Engine interface
type EngineFunc func(ctx context.Context, requests []Request, frame video.Frame,
	orientation geometry.Orientation) ([]Observation, error)

// Track calls f
func (f EngineFunc) Track(ctx context.Context, requests []Request,
	frame video.Frame, orientation geometry.Orientation) ([]Observation, error) {
	return f(ctx, requests, frame, orientation)
}

// RectangleDetector finds rectangular objects on a frame to seed regions
// with.  Quads are returned in tracker-normalized space with corners ordered
// top left, top right, bottom right, bottom left
type RectangleDetector interface {
	DetectRectangles(frame video.Frame,
		orientation geometry.Orientation) ([][4]geometry.Point, error)
}
