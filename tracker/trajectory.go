package tracker

import (
	"sync"

	"github.com/swdee/go-bartrack/geometry"
)

// sentinel is the coordinate value tracker engines report on an axis when
// nothing was detected
const sentinel = 1.0

// Trajectory is the append only history of midpoints sampled once per
// processed frame, kept in tracker-normalized space
type Trajectory struct {
	// points of the trajectory in the order they were sampled
	points []geometry.Point
	sync.Mutex
}

// NewTrajectory returns an empty trajectory
func NewTrajectory() *Trajectory {
	return &Trajectory{
		points: make([]geometry.Point, 0),
	}
}

// Reset clears all history
func (t *Trajectory) Reset() {
	t.Lock()
	defer t.Unlock()

	t.points = make([]geometry.Point, 0)
}

// Add appends a point to the trajectory
func (t *Trajectory) Add(p geometry.Point) {
	t.Lock()
	defer t.Unlock()

	t.points = append(t.points, p)
}

// Len returns the number of sampled points
func (t *Trajectory) Len() int {
	t.Lock()
	defer t.Unlock()

	return len(t.points)
}

// Last returns the most recently sampled point
func (t *Trajectory) Last() (geometry.Point, bool) {
	t.Lock()
	defer t.Unlock()

	if len(t.points) == 0 {
		return geometry.Point{}, false
	}

	return t.points[len(t.points)-1], true
}

// Points returns a copy of all sampled points, sentinels included
func (t *Trajectory) Points() []geometry.Point {
	t.Lock()
	defer t.Unlock()

	out := make([]geometry.Point, len(t.points))
	copy(out, t.points)

	return out
}

// Drawable returns a copy of the trajectory with sentinel points removed,
// ready for line drawing
func (t *Trajectory) Drawable() []geometry.Point {
	t.Lock()
	defer t.Unlock()

	return FilterSentinels(t.points)
}

// IsSentinel returns true if either coordinate of the point carries the
// no detection value
func IsSentinel(p geometry.Point) bool {
	return p.X == sentinel || p.Y == sentinel
}

// FilterSentinels returns a new slice holding the points that are not
// sentinels.  The input is left unchanged
func FilterSentinels(pts []geometry.Point) []geometry.Point {

	out := make([]geometry.Point, 0, len(pts))

	for _, p := range pts {
		if !IsSentinel(p) {
			out = append(out, p)
		}
	}

	return out
}
