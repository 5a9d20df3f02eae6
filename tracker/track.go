package tracker

// TrackState represents the state of a tracked region
type TrackState int

const (
	// Pending region has been submitted but not yet given to the engine
	Pending TrackState = iota
	// Active region has at least one successful observation
	Active
	// Lost region had no observation, or an engine error, on the last frame
	Lost
)

// String returns the name of the state
func (s TrackState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Active:
		return "active"
	case Lost:
		return "lost"
	default:
		return "unknown"
	}
}

// Track holds the per region tracking state for one identity
type Track struct {
	// id is the identity echoed by the tracker engine
	id Identity
	// region is the current region, frozen while Lost
	region Region
	state  TrackState
	// prior is the last observation passed to the engine on the next request
	prior      Observation
	confidence float32
	// lostFrames is the number of consecutive frames the track was lost
	lostFrames int
	// maxLostFrames excludes the track from further requests once exceeded,
	// zero never excludes
	maxLostFrames int
	excluded      bool
	// observed is set once the engine has returned any observation
	observed bool
}

// NewTrack creates a Pending track for a submitted region
func NewTrack(id Identity, region Region, maxLostFrames int) *Track {
	return &Track{
		id:     id,
		region: region,
		state:  Pending,
		prior: Observation{
			Identity:    id,
			BoundingBox: region.BoundingBox(),
			Confidence:  1,
		},
		confidence:    1,
		maxLostFrames: maxLostFrames,
	}
}

// Identity returns the track identity
func (t *Track) Identity() Identity {
	return t.id
}

// Region returns a copy of the current region
func (t *Track) Region() Region {
	return t.region
}

// State returns the current state
func (t *Track) State() TrackState {
	return t.state
}

// Confidence returns the confidence of the last successful observation
func (t *Track) Confidence() float32 {
	return t.confidence
}

// LostFrames returns the number of consecutive frames the track was lost
func (t *Track) LostFrames() int {
	return t.lostFrames
}

// Excluded returns true if the track has been lost for too long and is no
// longer submitted to the engine
func (t *Track) Excluded() bool {
	return t.excluded
}

// Request builds the engine request for the next frame
func (t *Track) Request(level TrackingLevel) Request {
	return Request{
		Identity: t.id,
		Prior:    t.prior,
		Level:    level,
		Initial:  !t.observed,
	}
}

// Apply updates the track from a successful observation.  The region moves to
// the observed bounding box keeping its color, and the style follows the
// confidence
func (t *Track) Apply(obs Observation) {

	t.region = t.region.WithBox(obs.BoundingBox)
	t.region.Style = StyleFor(obs.Confidence)
	t.confidence = obs.Confidence
	t.prior = obs
	t.prior.Identity = t.id
	t.state = Active
	t.lostFrames = 0
	t.observed = true
}

// MarkLost records that no observation was available this frame.  The region
// is kept frozen at its last known position
func (t *Track) MarkLost() {

	t.state = Lost
	t.lostFrames++

	if t.maxLostFrames > 0 && t.lostFrames > t.maxLostFrames {
		t.excluded = true
	}
}
