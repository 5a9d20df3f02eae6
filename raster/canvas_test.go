package raster

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	bartrack "github.com/swdee/go-bartrack"
	"github.com/swdee/go-bartrack/geometry"
	"github.com/swdee/go-bartrack/tracker"
	"github.com/swdee/go-bartrack/video"
	"golang.org/x/image/draw"
)

var (
	red  = color.RGBA{R: 255, A: 255}
	blue = color.RGBA{B: 255, A: 255}
)

// solid returns an image filled with one color
func solid(w, h int, clr color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(clr), image.Point{}, draw.Src)
	return img
}

// capture returns a Canvas keeping the last rendered view
func capture(t *testing.T) (*Canvas, **image.RGBA) {

	var last *image.RGBA

	c := NewCanvas(func(img *image.RGBA, index int) error {
		last = img
		return nil
	}, nil)

	return c, &last
}

func TestCanvasLetterbox(t *testing.T) {

	c, last := capture(t)

	frame := video.NewMemoryFrame(0, solid(200, 100, red))
	mapper := geometry.NewMapper(geometry.Sz(200, 100), geometry.Sz(300, 400))

	c.DisplayFrame(bartrack.DisplayUpdate{
		Index:         1,
		Frame:         frame,
		Transform:     geometry.IdentityTransform(),
		ImageSize:     mapper.ImageSize(),
		ViewSize:      mapper.ViewSize(),
		FrameGeometry: mapper.FrameGeometry(),
	})

	// nothing is written until the counter is drawn
	require.Nil(t, *last)

	c.DisplayFrameCounter(1)
	require.NotNil(t, *last)
	require.Equal(t, 1, c.Written())

	img := *last
	require.Equal(t, image.Rect(0, 0, 300, 400), img.Bounds())

	// padding above and below the image
	require.Equal(t, background, img.RGBAAt(150, 100))
	require.Equal(t, background, img.RGBAAt(150, 300))
	require.Equal(t, red, img.RGBAAt(150, 200))
}

func TestCanvasOrientation(t *testing.T) {

	c, last := capture(t)

	// left half red, right half blue
	src := solid(100, 50, blue)
	draw.Draw(src, image.Rect(0, 0, 50, 50), image.NewUniform(red), image.Point{},
		draw.Src)

	// rotated 90 degrees clockwise for display
	transform := geometry.RotationTransform(90).
		Concat(geometry.TranslationTransform(50, 0))

	c.DisplayFrame(bartrack.DisplayUpdate{
		Index:         0,
		Frame:         video.NewMemoryFrame(0, src),
		Transform:     transform,
		Orientation:   geometry.OrientationRight,
		ImageSize:     geometry.Sz(50, 100),
		ViewSize:      geometry.Sz(50, 100),
		FrameGeometry: geometry.NewRect(0, 0, 50, 100),
	})

	// the first frame preview is written without a counter
	img := *last
	require.NotNil(t, img)

	require.Equal(t, red, img.RGBAAt(25, 10))
	require.Equal(t, blue, img.RGBAAt(25, 90))
}

func TestCanvasOutlines(t *testing.T) {

	c, last := capture(t)

	clr := tracker.PaletteColor(0)
	square := []geometry.Point{{X: 50, Y: 50}, {X: 150, Y: 50}, {X: 150, Y: 150}, {X: 50, Y: 150}}

	update := bartrack.DisplayUpdate{
		Index:         0,
		ViewSize:      geometry.Sz(200, 200),
		FrameGeometry: geometry.NewRect(0, 0, 200, 200),
		Regions: []bartrack.RegionUpdate{{
			Identity: 1,
			State:    tracker.Active,
			Region:   tracker.Region{Color: clr, Style: tracker.Solid},
			Outline:  square,
		}},
	}

	c.DisplayFrame(update)
	img := *last

	require.Equal(t, clr, img.RGBAAt(100, 50))
	require.Equal(t, clr, img.RGBAAt(59, 50))
	require.Equal(t, background, img.RGBAAt(100, 100))

	// dashes of 4 with gaps of 2 along the top edge, independent of the
	// line width
	update.Regions[0].Region.Style = tracker.Dashed
	c.DisplayFrame(update)
	img = *last

	require.Equal(t, clr, img.RGBAAt(52, 50))
	require.Equal(t, background, img.RGBAAt(54, 50))
	require.Equal(t, clr, img.RGBAAt(57, 50))
	require.Equal(t, background, img.RGBAAt(60, 50))
	require.Equal(t, clr, img.RGBAAt(63, 50))

	// lost regions are grayed out
	update.Regions[0].State = tracker.Lost
	c.DisplayFrame(update)
	img = *last

	require.Equal(t, lostColor, img.RGBAAt(52, 50))
}

func TestCanvasFrameAllocations(t *testing.T) {

	c := NewCanvas(nil, nil)

	trail := make([]geometry.Point, 300)

	for i := range trail {
		trail[i] = geometry.Pt(float64(100+i*3), float64(200+(i/10)*5))
	}

	update := bartrack.DisplayUpdate{
		Index:         1,
		ViewSize:      geometry.Sz(1280, 720),
		FrameGeometry: geometry.NewRect(0, 0, 1280, 720),
		Regions: []bartrack.RegionUpdate{{
			Identity: 1,
			State:    tracker.Active,
			Region:   tracker.Region{Color: tracker.PaletteColor(0), Style: tracker.Dashed},
			Outline: []geometry.Point{{X: 100, Y: 100}, {X: 1100, Y: 100},
				{X: 1100, Y: 600}, {X: 100, Y: 600}},
		}},
		Trajectory:         trail,
		TrajectoryPoint:    trail[len(trail)-1],
		HasTrajectoryPoint: true,
	}

	// first frame sizes the view and the shape buffers
	c.DisplayFrame(update)

	allocs := testing.AllocsPerRun(10, func() {
		c.DisplayFrame(update)
	})

	// a rasterizer per segment would cost hundreds of allocations
	require.Less(t, allocs, 20.0)

	require.Equal(t, trailColor, c.img.RGBAAt(110, 200))
	require.Equal(t, tracker.PaletteColor(0), c.img.RGBAAt(600, 100))
}

func TestPainterBatch(t *testing.T) {

	img := solid(100, 100, blue)

	var p painter

	p.shape(geometry.Pt(10, 30), geometry.Pt(20, 30), geometry.Pt(20, 40),
		geometry.Pt(10, 40))
	p.shape(geometry.Pt(70, 60), geometry.Pt(90, 60), geometry.Pt(90, 65),
		geometry.Pt(70, 65))
	p.paint(img, red)

	require.Equal(t, red, img.RGBAAt(15, 35))
	require.Equal(t, red, img.RGBAAt(80, 62))
	require.Equal(t, blue, img.RGBAAt(50, 50))
	require.Equal(t, blue, img.RGBAAt(9, 35))
	require.Equal(t, blue, img.RGBAAt(80, 66))

	// the batch is emptied after painting
	require.Empty(t, p.pts)
	require.Empty(t, p.ends)

	// shapes partly outside the image are clipped to it
	p.shape(geometry.Pt(-10, -10), geometry.Pt(5, -10), geometry.Pt(5, 5),
		geometry.Pt(-10, 5))
	p.paint(img, red)

	require.Equal(t, red, img.RGBAAt(0, 0))
	require.Equal(t, red, img.RGBAAt(4, 4))
	require.Equal(t, blue, img.RGBAAt(6, 6))
}

func TestCanvasTrajectory(t *testing.T) {

	c, last := capture(t)

	clr := tracker.PaletteColor(2)

	c.DisplayFrame(bartrack.DisplayUpdate{
		Index:    0,
		ViewSize: geometry.Sz(100, 100),
		Regions: []bartrack.RegionUpdate{{
			Region: tracker.Region{Color: clr},
		}},
		Trajectory:         []geometry.Point{{X: 10, Y: 80}, {X: 90, Y: 80}},
		TrajectoryPoint:    geometry.Pt(50, 20),
		HasTrajectoryPoint: true,
	})

	img := *last

	require.Equal(t, trailColor, img.RGBAAt(30, 80))
	require.Equal(t, clr, img.RGBAAt(50, 20))
	require.Equal(t, background, img.RGBAAt(50, 50))
}

func TestCanvasFinish(t *testing.T) {

	c := NewCanvas(nil, nil)

	c.DidFinishTracking(bartrack.Summary{Frames: 7, Cancelled: true})
	c.DidFinishTracking(bartrack.Summary{Frames: 9})

	select {
	case <-c.Done():
	default:
		t.Fatal("canvas should be done")
	}

	require.Equal(t, 9, c.Summary().Frames)
	require.NoError(t, c.Err())
}

func TestPNGDir(t *testing.T) {

	dir := filepath.Join(t.TempDir(), "frames")

	c := NewCanvas(PNGDir(dir), nil)

	c.DisplayFrame(bartrack.DisplayUpdate{
		Index:    3,
		ViewSize: geometry.Sz(16, 16),
	})
	c.DisplayFrameCounter(3)

	require.NoError(t, c.Err())

	_, err := os.Stat(filepath.Join(dir, "frame_00003.png"))
	require.NoError(t, err)
}
