package selector

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-bartrack/geometry"
	"github.com/swdee/go-bartrack/tracker"
)

// newTestSelector returns a selector for a 2:1 image in a 300x400 view,
// giving a frame geometry of (0, 125) 300x150
func newTestSelector() *Selector {
	s := New(nil)
	s.SetFrameGeometry(geometry.Sz(1000, 500), geometry.Sz(300, 400))
	return s
}

func requireRectInDelta(t *testing.T, expected, got geometry.Rect) {
	t.Helper()
	require.InDelta(t, expected.X, got.X, 1e-6)
	require.InDelta(t, expected.Y, got.Y, 1e-6)
	require.InDelta(t, expected.Width, got.Width, 1e-6)
	require.InDelta(t, expected.Height, got.Height, 1e-6)
}

func TestDragEndedNormalizes(t *testing.T) {

	s := newTestSelector()
	require.Equal(t, geometry.NewRect(0, 125, 300, 150), s.FrameGeometry())

	region, err := s.DragEnded(geometry.Pt(30, 150), geometry.Pt(60, 30))
	require.NoError(t, err)

	requireRectInDelta(t, geometry.NewRect(0.1, 1-25.0/150-0.2, 0.2, 0.2),
		region.BoundingBox())
	require.Equal(t, tracker.Solid, region.Style)
	require.Equal(t, tracker.PaletteColor(0), region.Color)
	require.NoError(t, region.Validate())
}

func TestDragEndedReverseDirection(t *testing.T) {

	s := newTestSelector()

	a, err := s.DragEnded(geometry.Pt(30, 150), geometry.Pt(60, 30))
	require.NoError(t, err)

	b, err := s.DragEnded(geometry.Pt(90, 180), geometry.Pt(-60, -30))
	require.NoError(t, err)

	requireRectInDelta(t, a.BoundingBox(), b.BoundingBox())
}

func TestDragEndedClipsToFrame(t *testing.T) {

	s := newTestSelector()

	region, err := s.DragEnded(geometry.Pt(-20, 100), geometry.Pt(70, 75))
	require.NoError(t, err)

	requireRectInDelta(t, geometry.NewRect(0, 2.0/3, 1.0/6, 1.0/3), region.BoundingBox())
	require.NoError(t, region.Validate())

	// whole view selected covers the unit square
	region, err = s.DragEnded(geometry.Pt(0, 0), geometry.Pt(300, 400))
	require.NoError(t, err)
	requireRectInDelta(t, geometry.NewRect(0, 0, 1, 1), region.BoundingBox())
	require.NoError(t, region.Validate())
}

func TestDragEndedDegenerate(t *testing.T) {

	s := newTestSelector()

	tests := []struct {
		name        string
		start       geometry.Point
		translation geometry.Point
	}{
		{"start equals end", geometry.Pt(50, 200), geometry.Pt(0, 0)},
		{"zero width", geometry.Pt(50, 200), geometry.Pt(0, 30)},
		{"zero height", geometry.Pt(50, 200), geometry.Pt(30, 0)},
		{"above image", geometry.Pt(10, 10), geometry.Pt(50, 50)},
		{"below image", geometry.Pt(10, 300), geometry.Pt(50, 50)},
	}

	for _, tc := range tests {
		_, err := s.DragEnded(tc.start, tc.translation)
		require.True(t, errors.Is(err, ErrDegenerateSelection), tc.name)
	}

	// rejected drags do not consume palette colors
	require.Equal(t, 0, s.Created())

	region, err := s.DragEnded(geometry.Pt(30, 150), geometry.Pt(60, 30))
	require.NoError(t, err)
	require.Equal(t, tracker.PaletteColor(0), region.Color)
}

func TestDragEndedWithoutGeometry(t *testing.T) {

	s := New(nil)

	_, err := s.DragEnded(geometry.Pt(30, 150), geometry.Pt(60, 30))
	require.True(t, errors.Is(err, ErrDegenerateSelection))
}

func TestPaletteByCreationOrder(t *testing.T) {

	s := newTestSelector()

	for i := 0; i < 3; i++ {
		region, err := s.DragEnded(geometry.Pt(30, 150), geometry.Pt(60, 30))
		require.NoError(t, err)
		require.Equal(t, tracker.PaletteColor(i), region.Color)
	}

	s.Reset()

	region, err := s.DragEnded(geometry.Pt(30, 150), geometry.Pt(60, 30))
	require.NoError(t, err)
	require.Equal(t, tracker.PaletteColor(0), region.Color)
}

func TestRubberbandLifecycle(t *testing.T) {

	s := newTestSelector()

	_, ok := s.Selection()
	require.False(t, ok)

	s.DragChanged(geometry.Pt(100, 200), geometry.Pt(-20, 10))

	sel, ok := s.Selection()
	require.True(t, ok)
	require.Equal(t, geometry.NewRect(80, 200, 20, 10), sel)

	s.Cancel()
	_, ok = s.Selection()
	require.False(t, ok)

	s.DragChanged(geometry.Pt(100, 200), geometry.Pt(20, 10))
	_, err := s.DragEnded(geometry.Pt(100, 200), geometry.Pt(20, 10))
	require.NoError(t, err)

	_, ok = s.Selection()
	require.False(t, ok)
}

func TestContains(t *testing.T) {

	s := newTestSelector()

	require.True(t, s.Contains(geometry.Pt(150, 200)))
	require.False(t, s.Contains(geometry.Pt(150, 50)))
}
