package render

import (
	"context"
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	bartrack "github.com/swdee/go-bartrack"
	"github.com/swdee/go-bartrack/geometry"
	"github.com/swdee/go-bartrack/tracker"
	"github.com/swdee/go-bartrack/video"
	"gocv.io/x/gocv"
)

func TestDashSegments(t *testing.T) {

	// dashes of 4 with gaps of 2
	segs := dashSegments(geometry.Pt(0, 0), geometry.Pt(10, 0))

	require.Equal(t, [][2]geometry.Point{
		{{X: 0, Y: 0}, {X: 4, Y: 0}},
		{{X: 6, Y: 0}, {X: 10, Y: 0}},
	}, segs)

	// the pattern does not scale with line thickness and the last dash is
	// cut at the end point
	segs = dashSegments(geometry.Pt(0, 0), geometry.Pt(0, 20))
	require.Equal(t, [][2]geometry.Point{
		{{X: 0, Y: 0}, {X: 0, Y: 4}},
		{{X: 0, Y: 6}, {X: 0, Y: 10}},
		{{X: 0, Y: 12}, {X: 0, Y: 16}},
		{{X: 0, Y: 18}, {X: 0, Y: 20}},
	}, segs)

	require.Empty(t, dashSegments(geometry.Pt(3, 3), geometry.Pt(3, 3)))
}

func TestDashSegmentsCoverage(t *testing.T) {

	a := geometry.Pt(5, 5)
	b := geometry.Pt(95, 65)

	segs := dashSegments(a, b)
	require.NotEmpty(t, segs)

	var drawn float64

	for _, s := range segs {
		d := s[1].Sub(s[0])
		drawn += math.Hypot(d.X, d.Y)
	}

	// two thirds of the line is inked
	length := math.Hypot(90, 60)
	require.InDelta(t, length*2/3, drawn, 8)
	require.Equal(t, a, segs[0][0])
}

// captureSink records the size of every view written
type captureSink struct {
	sizes []image.Point
}

func (c *captureSink) Write(img gocv.Mat) error {
	c.sizes = append(c.sizes, image.Pt(img.Cols(), img.Rows()))
	return nil
}

func TestOverlayWritesOnCounter(t *testing.T) {

	sink := &captureSink{}
	ov := NewOverlay(sink, nil)
	defer ov.Close()

	frame := video.NewMemoryFrame(0, image.NewRGBA(image.Rect(0, 0, 200, 100)))
	region := tracker.NewRegion(geometry.NewRect(0.25, 0.25, 0.5, 0.5),
		tracker.PaletteColor(0))
	region.Style = tracker.Dashed

	mapper := geometry.NewMapper(geometry.Sz(200, 100), geometry.Sz(300, 400))

	update := bartrack.DisplayUpdate{
		Index:         1,
		Frame:         frame,
		Orientation:   geometry.OrientationUp,
		ImageSize:     mapper.ImageSize(),
		ViewSize:      mapper.ViewSize(),
		FrameGeometry: mapper.FrameGeometry(),
		Regions: []bartrack.RegionUpdate{{
			Identity:   1,
			State:      tracker.Active,
			Confidence: 0.3,
			Region:     region,
			Outline:    mapper.PolygonToView(region.Corners[:], geometry.TrackerNormalized),
		}},
		Trajectory: []geometry.Point{{X: 100, Y: 200}, {X: 150, Y: 200}},
	}

	ov.DisplayFrame(update)
	require.Empty(t, sink.sizes)

	ov.DisplayFrameCounter(1)
	require.Equal(t, []image.Point{{X: 300, Y: 400}}, sink.sizes)
	require.Equal(t, 1, ov.Written())

	// a counter without a frame writes nothing
	ov.DisplayFrameCounter(2)
	require.Equal(t, 1, ov.Written())
	require.NoError(t, ov.Err())
}

func TestOverlayFirstFramePreview(t *testing.T) {

	sink := &captureSink{}
	ov := NewOverlay(sink, nil)
	defer ov.Close()

	update := bartrack.DisplayUpdate{
		Index:    0,
		Frame:    nil,
		ViewSize: geometry.Sz(64, 48),
	}

	// a missing frame renders a blank view
	ov.DisplayFrame(update)
	require.Equal(t, []image.Point{{X: 64, Y: 48}}, sink.sizes)
}

func TestOverlaySession(t *testing.T) {

	sink := &captureSink{}
	ov := NewOverlay(sink, nil)
	defer ov.Close()

	decoder := video.NewBlankDecoder(30, 5, 64, 32)

	engine := tracker.EngineFunc(func(ctx context.Context, reqs []tracker.Request,
		frame video.Frame, o geometry.Orientation) ([]tracker.Observation, error) {

		obs := make([]tracker.Observation, len(reqs))

		for i, r := range reqs {
			obs[i] = tracker.Observation{
				Identity:    r.Identity,
				BoundingBox: r.Prior.BoundingBox,
				Confidence:  0.9,
			}
		}

		return obs, nil
	})

	cfg := bartrack.DefaultConfig()
	cfg.Pace = false

	sess, err := bartrack.NewSession("memory", decoder.Opener(), engine, cfg, nil)
	require.NoError(t, err)

	sess.SetRenderer(ov)
	sess.SetViewSize(geometry.Sz(128, 128))

	region := tracker.NewRegion(geometry.NewRect(0.25, 0.25, 0.25, 0.5),
		tracker.PaletteColor(0))

	require.NoError(t, sess.Run(context.Background(), []tracker.Region{region}))

	<-ov.Done()

	require.Equal(t, 5, ov.Written())
	require.Equal(t, 5, ov.Summary().Frames)
	require.False(t, ov.Summary().TrackingFailed)

	for _, s := range sink.sizes {
		require.Equal(t, image.Pt(128, 128), s)
	}
}
