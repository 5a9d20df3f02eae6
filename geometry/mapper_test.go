package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeFrameGeometry(t *testing.T) {

	tests := []struct {
		name     string
		image    Size
		view     Size
		expected Rect
	}{
		{"wide image in tall view", Sz(1000, 500), Sz(300, 400), NewRect(0, 125, 300, 150)},
		{"tall image in tall view", Sz(500, 1000), Sz(300, 400), NewRect(50, 0, 200, 400)},
		{"square image in square view", Sz(100, 100), Sz(200, 200), NewRect(0, 0, 200, 200)},
		{"wide image in wide view", Sz(400, 100), Sz(1000, 500), NewRect(0, 125, 1000, 250)},
		{"zero image", Sz(0, 0), Sz(300, 400), Rect{}},
		{"zero view", Sz(100, 100), Sz(0, 400), Rect{}},
		{"negative view", Sz(100, 100), Sz(-10, 400), Rect{}},
		{"nan image", Sz(math.NaN(), 100), Sz(300, 400), Rect{}},
		{"infinite view", Sz(100, 100), Sz(math.Inf(1), 400), Rect{}},
	}

	for _, tc := range tests {
		got := ComputeFrameGeometry(tc.image, tc.view)
		require.Equal(t, tc.expected, got, tc.name)
	}
}

func TestComputeFrameGeometryContainedAndCentered(t *testing.T) {

	aspects := []float64{0.1, 0.3333, 0.5625, 1, 1.3333, 1.7777, 2.35, 9}
	views := []Size{Sz(320, 240), Sz(240, 320), Sz(1080, 1920), Sz(1, 1), Sz(777, 333)}

	for _, a := range aspects {
		for _, v := range views {
			img := Sz(1000*a, 1000)
			g := ComputeFrameGeometry(img, v)
			view := NewRect(0, 0, v.Width, v.Height)

			require.True(t, view.ContainsRect(g), "aspect %f view %v geometry %v", a, v, g)

			// one axis spans the view, the other keeps the aspect and is
			// centered within a pixel
			if g.Width == v.Width {
				require.InDelta(t, v.Height-g.MaxY(), g.Y, 1, "aspect %f view %v", a, v)
				require.InDelta(t, g.Width/a, g.Height, 1, "aspect %f view %v", a, v)
			} else {
				require.Equal(t, v.Height, g.Height)
				require.InDelta(t, v.Width-g.MaxX(), g.X, 1, "aspect %f view %v", a, v)
				require.InDelta(t, g.Height*a, g.Width, 1, "aspect %f view %v", a, v)
			}
		}
	}
}

func TestMapperRoundTrip(t *testing.T) {

	m := NewMapper(Sz(1000, 500), Sz(300, 400))
	require.Equal(t, NewRect(0, 125, 300, 150), m.FrameGeometry())

	rects := []Rect{
		NewRect(30, 150, 60, 30),
		NewRect(0, 125, 300, 150),
		NewRect(120.5, 200.25, 10.75, 3.5),
	}

	for _, r := range rects {
		norm := m.ToTrackerNormalized(r)
		back := m.RectToView(norm, TrackerNormalized)

		require.InDelta(t, r.X, back.X, 1e-9)
		require.InDelta(t, r.Y, back.Y, 1e-9)
		require.InDelta(t, r.Width, back.Width, 1e-9)
		require.InDelta(t, r.Height, back.Height, 1e-9)
	}
}

func TestMapperFlipsVerticalAxis(t *testing.T) {

	m := NewMapper(Sz(1000, 500), Sz(300, 400))

	// tracker origin is bottom left of the image
	require.Equal(t, Pt(0, 275), m.ToView(Pt(0, 0), TrackerNormalized))
	require.Equal(t, Pt(300, 125), m.ToView(Pt(1, 1), TrackerNormalized))

	norm := m.ToTrackerNormalized(NewRect(0, 125, 150, 75))
	require.InDelta(t, 0.0, norm.X, 1e-9)
	require.InDelta(t, 0.5, norm.Y, 1e-9)
	require.InDelta(t, 0.5, norm.Width, 1e-9)
	require.InDelta(t, 0.5, norm.Height, 1e-9)

	p := m.PointToTrackerNormalized(Pt(150, 200))
	require.InDelta(t, 0.5, p.X, 1e-9)
	require.InDelta(t, 0.5, p.Y, 1e-9)
}

func TestMapperImagePixels(t *testing.T) {

	m := NewMapper(Sz(1000, 500), Sz(300, 400))

	require.Equal(t, Pt(0, 125), m.ToView(Pt(0, 0), ImagePixels))
	require.Equal(t, Pt(150, 200), m.ToView(Pt(500, 250), ImagePixels))
	require.Equal(t, Pt(300, 275), m.ToView(Pt(1000, 500), ImagePixels))
}

func TestMapperEmptyGeometryIsNoop(t *testing.T) {

	m := NewMapper(Sz(0, 0), Sz(300, 400))

	require.True(t, m.IsEmpty())
	require.Equal(t, Point{}, m.ToView(Pt(0.5, 0.5), TrackerNormalized))
	require.Equal(t, Point{}, m.ToView(Pt(10, 10), ImagePixels))
	require.Equal(t, Rect{}, m.ToTrackerNormalized(NewRect(1, 2, 3, 4)))
	require.Equal(t, Rect{}, m.RectToView(NewRect(0, 0, 1, 1), TrackerNormalized))
	require.False(t, m.Contains(Pt(0, 0)))
}

func TestMapperContains(t *testing.T) {

	m := NewMapper(Sz(1000, 500), Sz(300, 400))

	require.True(t, m.Contains(Pt(150, 200)))
	require.False(t, m.Contains(Pt(150, 100)))
	require.False(t, m.Contains(Pt(150, 300)))
}
