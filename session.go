package bartrack

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/swdee/go-bartrack/geometry"
	"github.com/swdee/go-bartrack/tracker"
	"github.com/swdee/go-bartrack/video"
)

// Session drives tracking of regions through a video.  A single goroutine
// pulls frames, invokes the tracker engine once per frame for all live
// regions, samples the trajectory and emits a DisplayUpdate to the Renderer
type Session struct {
	asset  string
	opener video.Opener
	engine tracker.Engine
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	renderer Renderer
	dispatch Dispatcher
	viewSize geometry.Size
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	err      error

	ids        *tracker.IDGenerator
	trajectory *tracker.Trajectory
	// smoothed holds the filtered drawable trajectory when smoothing is on
	smoothed *tracker.Smoother
}

// NewSession creates a session tracking regions through the video asset
// opened with opener.  Logger may be nil
func NewSession(asset string, opener video.Opener, engine tracker.Engine,
	cfg Config, logger *slog.Logger) (*Session, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if engine == nil {
		return nil, errors.New("no tracker engine given")
	}

	s := &Session{
		asset:      asset,
		opener:     opener,
		engine:     engine,
		cfg:        cfg,
		logger:     logger,
		dispatch:   Inline,
		viewSize:   geometry.Sz(float64(cfg.ViewWidth), float64(cfg.ViewHeight)),
		ids:        tracker.NewIDGenerator(),
		trajectory: tracker.NewTrajectory(),
	}

	if cfg.SmoothTrajectory {
		s.smoothed = tracker.NewKalmanFilter(cfg.SmoothPosition,
			cfg.SmoothVelocity).NewSmoother()
	}

	return s, nil
}

// SetRenderer sets the collaborator receiving display updates
func (s *Session) SetRenderer(r Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.renderer = r
}

// SetDispatcher sets how renderer callbacks are marshaled, defaults to Inline
func (s *Session) SetDispatcher(d Dispatcher) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d == nil {
		d = Inline
	}

	s.dispatch = d
}

// SetViewSize updates the drawing view size, the frame geometry is recomputed
// on the next frame.  A zero size uses the display image size
func (s *Session) SetViewSize(size geometry.Size) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.viewSize = size
}

// Trajectory returns a copy of the trajectory sampled by the last session in
// tracker-normalized space
func (s *Session) Trajectory() []geometry.Point {
	return s.trajectory.Points()
}

// Start begins tracking the regions on a background goroutine.  The session
// runs until the video ends, Cancel is called or ctx is done
func (s *Session) Start(ctx context.Context, regions []tracker.Region) error {

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return ErrSessionRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	s.running = true
	s.cancel = cancel
	s.done = done
	s.err = nil

	go func() {
		err := s.run(ctx, regions)
		cancel()

		s.mu.Lock()
		s.err = err
		s.running = false
		s.mu.Unlock()

		close(done)
	}()

	return nil
}

// Run tracks the regions and blocks until the session ends.  It returns
// ErrReaderInit or ErrFirstFrameRead if the video could not be read, and
// ErrObjectTrackingFailed after completion if any region was lost.
// Cancellation is not an error
func (s *Session) Run(ctx context.Context, regions []tracker.Region) error {

	if err := s.Start(ctx, regions); err != nil {
		return err
	}

	return s.Wait()
}

// Wait blocks until the running session ends and returns its result
func (s *Session) Wait() error {

	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return nil
	}

	<-done

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.err
}

// Done returns a channel closed when the running session ends
func (s *Session) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.done == nil {
		c := make(chan struct{})
		close(c)
		return c
	}

	return s.done
}

// Cancel stops the running session within one frame interval.  The renderer
// still receives DidFinishTracking
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
}

// Running returns true while a session is in progress
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// DisplayFirstFrame reads the first frame of the video and emits it to the
// renderer.  If a detector is given, rectangles found on the frame are
// returned as regions with palette colors in detection order
func (s *Session) DisplayFirstFrame(ctx context.Context,
	detector tracker.RectangleDetector) ([]tracker.Region, error) {

	src, err := video.Open(s.asset, s.opener)

	if err != nil {
		s.logError("Error opening video", err)
		return nil, err
	}

	defer src.Close()

	frame, ok := src.Next()

	if !ok {
		return nil, errors.Wrapf(ErrFirstFrameRead, "asset %q", s.asset)
	}

	defer frame.Close()

	var regions []tracker.Region
	var detectErr error

	if detector != nil && ctx.Err() == nil {
		quads, err := detector.DetectRectangles(frame, src.Orientation())

		if err != nil {
			detectErr = err

			if !errors.Is(err, ErrRectangleDetection) {
				detectErr = errors.Wrapf(ErrRectangleDetection, "%v", err)
			}

			s.logError("Error detecting rectangles", err)
		}

		for i, q := range quads {
			if i >= s.cfg.Detector.MaxObservations && s.cfg.Detector.MaxObservations > 0 {
				break
			}
			regions = append(regions, tracker.NewRegionFromCorners(q, tracker.PaletteColor(i)))
		}
	}

	mapper := s.mapper(src.DisplaySize())

	update := DisplayUpdate{
		Index:         0,
		Frame:         frame,
		Transform:     src.OrientationTransform(),
		Orientation:   src.Orientation(),
		ImageSize:     mapper.ImageSize(),
		ViewSize:      mapper.ViewSize(),
		FrameGeometry: mapper.FrameGeometry(),
	}

	for _, r := range regions {
		update.Regions = append(update.Regions, RegionUpdate{
			State:      tracker.Pending,
			Confidence: 1,
			Region:     r,
			Outline:    outline(r, mapper),
		})
	}

	s.emit(func(r Renderer) { r.DisplayFrame(update) })

	return regions, detectErr
}

// run is the session loop
func (s *Session) run(ctx context.Context, regions []tracker.Region) error {

	runID := uuid.New().String()
	log := s.logger

	if log != nil {
		log = log.With("run", runID)
		log.Info("Tracking session started", "asset", s.asset, "regions", len(regions),
			"level", s.cfg.Level().String())
	}

	src, err := video.Open(s.asset, s.opener)

	if err != nil {
		if log != nil {
			log.Error("Error opening video", "error", err)
		}
		return err
	}

	defer src.Close()

	s.trajectory.Reset()
	s.ids.Reset()

	if s.smoothed != nil {
		s.smoothed.Reset()
	}

	if r, ok := s.engine.(tracker.Resetter); ok {
		r.Reset()
	}

	summary := Summary{RunID: runID}

	// seed one track per region, the first region is the primary track that
	// feeds the trajectory
	tracks := make([]*tracker.Track, 0, len(regions))

	for _, r := range regions {
		if err := r.Validate(); err != nil {
			summary.OutOfBounds++
			if log != nil {
				log.Warn("Region outside tracker bounds", "error", err)
			}
		}
		tracks = append(tracks, tracker.NewTrack(s.ids.GetNext(), r, s.cfg.MaxLostFrames))
	}

	interval := src.FrameInterval()

	if !(src.NominalFrameRate() > 0) {
		interval = video.FrameInterval(s.cfg.DefaultFrameRate)
	}

	level := s.cfg.Level()
	failed := false

loop:
	for {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}

		frame, ok := src.Next()

		if !ok {
			break
		}

		frameFailed, cancelled := s.trackFrame(ctx, log, frame, src, tracks, level,
			&summary)

		if cancelled {
			frame.Close()
			summary.Cancelled = true
			break
		}

		if frameFailed {
			failed = true
		}

		summary.Frames++
		s.emitFrame(frame, src, tracks, summary.Frames)
		frame.Close()

		if s.cfg.Pace && !sleep(ctx, interval) {
			summary.Cancelled = true
			break loop
		}
	}

	summary.TrackingFailed = failed
	summary.TrajectoryPoints = s.trajectory.Len()

	s.emit(func(r Renderer) { r.DidFinishTracking(summary) })

	if log != nil {
		log.Info("Tracking session finished", "frames", summary.Frames,
			"cancelled", summary.Cancelled, "failed", summary.TrackingFailed,
			"lost", summary.LostFrames)
	}

	if failed {
		return errors.Wrapf(ErrObjectTrackingFailed, "%d lost region frames",
			summary.LostFrames)
	}

	return nil
}

// trackFrame makes one batched engine call for all live tracks and applies
// the results.  Returns true if any track was lost on this frame, or if the
// session was cancelled during the engine call
func (s *Session) trackFrame(ctx context.Context, log *slog.Logger,
	frame video.Frame, src *video.Source, tracks []*tracker.Track,
	level tracker.TrackingLevel, summary *Summary) (failed, cancelled bool) {

	live := make([]*tracker.Track, 0, len(tracks))
	requests := make([]tracker.Request, 0, len(tracks))

	for _, t := range tracks {
		if t.Excluded() {
			continue
		}
		live = append(live, t)
		requests = append(requests, t.Request(level))
	}

	results := make(map[tracker.Identity]tracker.Observation, len(live))

	if len(requests) > 0 {
		obs, err := s.engine.Track(ctx, requests, frame, src.Orientation())

		if err != nil {
			if ctx.Err() != nil {
				return false, true
			}

			if log != nil {
				log.Warn("Tracker engine failed", "frame", summary.Frames+1, "error", err)
			}
		} else {
			for _, o := range obs {
				if !o.Valid() {
					if log != nil {
						log.Debug("Ignoring malformed observation", "track", o.Identity,
							"frame", summary.Frames+1)
					}
					continue
				}
				results[o.Identity] = o
			}
		}
	}

	for _, t := range live {
		o, ok := results[t.Identity()]

		if !ok {
			t.MarkLost()
			summary.LostFrames++
			failed = true

			if log != nil {
				log.Info("Track lost", "track", t.Identity(), "frame", summary.Frames+1,
					"lostFrames", t.LostFrames(), "excluded", t.Excluded())
			}
			continue
		}

		t.Apply(o)

		if err := t.Region().Validate(); err != nil {
			summary.OutOfBounds++
			if log != nil {
				log.Warn("Region outside tracker bounds", "track", t.Identity(),
					"frame", summary.Frames+1, "error", err)
			}
		}
	}

	// one sample per frame from the primary track
	if len(tracks) > 0 {
		mid := tracks[0].Region().Midpoint()
		s.trajectory.Add(mid)

		if s.smoothed != nil && !tracker.IsSentinel(mid) {
			s.smoothed.Add(mid)
		}
	}

	return failed, false
}

// emitFrame builds the display update for a processed frame and dispatches it
// with the frame counter
func (s *Session) emitFrame(frame video.Frame, src *video.Source,
	tracks []*tracker.Track, index int) {

	mapper := s.mapper(src.DisplaySize())

	update := DisplayUpdate{
		Index:         index,
		Frame:         frame,
		Transform:     src.OrientationTransform(),
		Orientation:   src.Orientation(),
		ImageSize:     mapper.ImageSize(),
		ViewSize:      mapper.ViewSize(),
		FrameGeometry: mapper.FrameGeometry(),
		Regions:       make([]RegionUpdate, 0, len(tracks)),
	}

	for _, t := range tracks {
		r := t.Region()
		update.Regions = append(update.Regions, RegionUpdate{
			Identity:   t.Identity(),
			State:      t.State(),
			Confidence: t.Confidence(),
			Region:     r,
			Outline:    outline(r, mapper),
		})
	}

	if last, ok := s.trajectory.Last(); ok && !tracker.IsSentinel(last) {
		update.TrajectoryPoint = mapper.ToView(last, geometry.TrackerNormalized)
		update.HasTrajectoryPoint = true
	}

	var drawable []geometry.Point

	if s.smoothed != nil {
		drawable = s.smoothed.Points()
	} else {
		drawable = s.trajectory.Drawable()
	}

	update.Trajectory = mapper.PolygonToView(drawable, geometry.TrackerNormalized)

	s.emit(func(r Renderer) { r.DisplayFrame(update) })
	s.emit(func(r Renderer) { r.DisplayFrameCounter(index) })
}

// emit dispatches a renderer callback if a renderer is set
func (s *Session) emit(fn func(r Renderer)) {

	s.mu.Lock()
	r := s.renderer
	dispatch := s.dispatch
	s.mu.Unlock()

	if r == nil {
		return
	}

	dispatch(func() { fn(r) })
}

// mapper returns the coordinate mapper for the current view size
func (s *Session) mapper(imageSize geometry.Size) geometry.Mapper {

	s.mu.Lock()
	view := s.viewSize
	s.mu.Unlock()

	if view.IsEmpty() {
		view = imageSize
	}

	return geometry.NewMapper(imageSize, view)
}

func (s *Session) logError(msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, "asset", s.asset, "error", err)
	}
}

// outline maps a region's corners to view space, clipped to the frame
// geometry when they extend past it
func outline(r tracker.Region, m geometry.Mapper) []geometry.Point {

	if m.IsEmpty() {
		return nil
	}

	pts := m.PolygonToView(r.Corners[:], geometry.TrackerNormalized)
	frame := m.FrameGeometry()

	if frame.ContainsRect(geometry.BoundingRect(pts)) {
		return pts
	}

	return geometry.ClipPolygon(pts, frame)
}

// sleep waits for d, returning false if ctx is done first
func sleep(ctx context.Context, d time.Duration) bool {

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
