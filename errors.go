package bartrack

import (
	"github.com/pkg/errors"
	"github.com/swdee/go-bartrack/selector"
	"github.com/swdee/go-bartrack/tracker"
	"github.com/swdee/go-bartrack/video"
)

var (
	// ErrReaderInit is fatal for a session, the video could not be opened
	ErrReaderInit = video.ErrReaderInit
	// ErrFirstFrameRead is fatal for a session, the first frame could not be
	// read
	ErrFirstFrameRead = video.ErrFirstFrameRead
	// ErrEngineInvocation is recoverable per frame, affected tracks are
	// marked lost
	ErrEngineInvocation = tracker.ErrEngineInvocation
	// ErrDegenerateSelection is recoverable, no region is produced
	ErrDegenerateSelection = selector.ErrDegenerateSelection

	// ErrObjectTrackingFailed is returned once after a session completes if
	// any region was lost on any frame
	ErrObjectTrackingFailed = errors.New("object tracking failed")
	// ErrRectangleDetection is returned when rectangle detection on the first
	// frame fails
	ErrRectangleDetection = errors.New("rectangle detection failed")
	// ErrSessionRunning is returned when starting a session that is already
	// running
	ErrSessionRunning = errors.New("tracking session already running")
	// ErrInvalidConfig is returned by Config.Validate
	ErrInvalidConfig = errors.New("invalid configuration")
)
