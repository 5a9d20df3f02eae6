package opencv

import (
	"context"
	"image"
	"log/slog"
	"math"
	"sync"

	"github.com/pkg/errors"
	"github.com/swdee/go-bartrack/geometry"
	"github.com/swdee/go-bartrack/tracker"
	"github.com/swdee/go-bartrack/video"
	"gocv.io/x/gocv"
	"gocv.io/x/gocv/contrib"
)

// TrackerFactory creates a single object tracker for the tracking level
type TrackerFactory func(level tracker.TrackingLevel) gocv.Tracker

// ContribTrackers uses CSRT for accurate tracking and KCF for fast tracking
func ContribTrackers(level tracker.TrackingLevel) gocv.Tracker {

	if level == tracker.LevelFast {
		return contrib.NewTrackerKCF()
	}

	return contrib.NewTrackerCSRT()
}

// MILTrackers uses the MIL tracker from the core tracking module for both
// levels, for OpenCV builds without contrib
func MILTrackers(tracker.TrackingLevel) gocv.Tracker {
	return gocv.NewTrackerMIL()
}

// identityState is the tracker following one identity
type identityState struct {
	tracker gocv.Tracker
	level   tracker.TrackingLevel
	// template is the appearance of the object when it was initialised, used
	// to score confidence on later frames
	template gocv.Mat
}

func (s *identityState) close() {
	s.tracker.Close()
	s.template.Close()
}

// Engine is a tracker.Engine running one OpenCV tracker per identity.
// Trackers of a batch are updated in parallel on a worker pool
type Engine struct {
	factory TrackerFactory
	pool    *Pool
	states  map[tracker.Identity]*identityState
	logger  *slog.Logger
	sync.Mutex
}

// NewEngine returns an Engine creating trackers with the factory, a nil
// factory uses ContribTrackers.  Workers bounds the number of trackers
// updated in parallel, below 1 uses the number of CPUs
func NewEngine(factory TrackerFactory, workers int, logger *slog.Logger) *Engine {

	if factory == nil {
		factory = ContribTrackers
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		factory: factory,
		pool:    NewPool(workers),
		states:  make(map[tracker.Identity]*identityState),
		logger:  logger,
	}
}

// Track follows every requested identity onto the frame.  New identities,
// and identities resubmitted as initial, have their tracker created on the
// prior box and are reported at the prior with full confidence
func (e *Engine) Track(ctx context.Context, requests []tracker.Request,
	frame video.Frame, orientation geometry.Orientation) ([]tracker.Observation, error) {

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(tracker.ErrEngineInvocation, err.Error())
	}

	e.Lock()
	defer e.Unlock()

	mat, release, err := Upright(frame, orientation)

	if err != nil {
		return nil, errors.Wrap(tracker.ErrEngineInvocation, err.Error())
	}

	defer release()

	if mat.Empty() {
		return nil, errors.Wrap(tracker.ErrEngineInvocation, "empty frame")
	}

	e.prune(requests)

	width := mat.Cols()
	height := mat.Rows()

	results := make([]*tracker.Observation, len(requests))
	jobs := make([]func(), 0, len(requests))

	for i, req := range requests {

		state, ok := e.states[req.Identity]

		if req.Initial || !ok || state.level != req.Level {
			obs, err := e.initialise(mat, req, width, height)

			if err != nil {
				e.logger.Warn("Tracker init failed", "identity", req.Identity,
					"error", err)
				continue
			}

			results[i] = obs
			continue
		}

		i := i
		id := req.Identity

		jobs = append(jobs, func() {
			results[i] = update(mat, id, state, width, height)
		})
	}

	e.pool.Run(jobs)

	observations := make([]tracker.Observation, 0, len(requests))

	for _, obs := range results {
		if obs != nil {
			observations = append(observations, *obs)
		}
	}

	return observations, nil
}

// initialise replaces the identity's tracker with a new one started on the
// prior box
func (e *Engine) initialise(mat gocv.Mat, req tracker.Request, width,
	height int) (*tracker.Observation, error) {

	if old, ok := e.states[req.Identity]; ok {
		old.close()
		delete(e.states, req.Identity)
	}

	box := toPixels(req.Prior.BoundingBox, width, height)

	if box.Empty() {
		return nil, errors.Errorf("prior box %v is outside the frame",
			req.Prior.BoundingBox)
	}

	t := e.factory(req.Level)

	if ok := t.Init(mat, box); !ok {
		t.Close()
		return nil, errors.New("tracker rejected the prior box")
	}

	region := mat.Region(box)
	template := region.Clone()
	region.Close()

	e.states[req.Identity] = &identityState{
		tracker:  t,
		level:    req.Level,
		template: template,
	}

	return &tracker.Observation{
		Identity:    req.Identity,
		BoundingBox: toNormalized(box, width, height),
		Confidence:  1,
	}, nil
}

// update moves an identity's tracker onto the frame, nil if the object was
// lost
func update(mat gocv.Mat, id tracker.Identity, state *identityState, width,
	height int) *tracker.Observation {

	box, ok := state.tracker.Update(mat)

	if !ok {
		return nil
	}

	box = box.Intersect(image.Rect(0, 0, width, height))

	if box.Empty() {
		return nil
	}

	return &tracker.Observation{
		Identity:    id,
		BoundingBox: toNormalized(box, width, height),
		Confidence:  similarity(mat, box, state.template),
	}
}

// similarity scores the frame contents under box against the template using
// normalised cross correlation, clamped to 0..1
func similarity(mat gocv.Mat, box image.Rectangle, template gocv.Mat) float32 {

	if template.Empty() {
		return 0
	}

	region := mat.Region(box)
	defer region.Close()

	patch := gocv.NewMat()
	defer patch.Close()

	gocv.Resize(region, &patch, image.Pt(template.Cols(), template.Rows()), 0, 0,
		gocv.InterpolationLinear)

	res := gocv.NewMat()
	defer res.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(patch, template, &res, gocv.TmCcoeffNormed, mask)

	_, score, _, _ := gocv.MinMaxLoc(res)

	return clampUnit(score)
}

// clampUnit limits a score to 0..1, a non finite score is zero
func clampUnit(v float32) float32 {

	f := float64(v)

	if math.IsNaN(f) || math.IsInf(f, 0) || v < 0 {
		return 0
	}

	if v > 1 {
		return 1
	}

	return v
}

// prune closes trackers of identities no longer requested
func (e *Engine) prune(requests []tracker.Request) {

	live := make(map[tracker.Identity]struct{}, len(requests))

	for _, req := range requests {
		live[req.Identity] = struct{}{}
	}

	for id, state := range e.states {
		if _, ok := live[id]; !ok {
			state.close()
			delete(e.states, id)
		}
	}
}

// Tracking returns the number of identities with a live tracker
func (e *Engine) Tracking() int {
	e.Lock()
	defer e.Unlock()
	return len(e.states)
}

// Reset closes all trackers ready for a new session
func (e *Engine) Reset() {

	e.Lock()
	defer e.Unlock()

	for id, state := range e.states {
		state.close()
		delete(e.states, id)
	}
}

// Close releases all trackers and the worker pool
func (e *Engine) Close() {
	e.Reset()
	e.pool.Close()
}
