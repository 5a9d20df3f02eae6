package tracker

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/swdee/go-bartrack/geometry"
)

func TestTrackTransitions(t *testing.T) {

	start := NewRegion(geometry.NewRect(0.4, 0.4, 0.2, 0.2), PaletteColor(1))
	tr := NewTrack(7, start, 0)

	require.Equal(t, Pending, tr.State())

	req := tr.Request(LevelFast)
	require.Equal(t, Identity(7), req.Identity)
	require.True(t, req.Initial)
	require.Equal(t, LevelFast, req.Level)
	require.Equal(t, start.BoundingBox(), req.Prior.BoundingBox)

	// confident observation
	box := geometry.NewRect(0.45, 0.4, 0.2, 0.2)
	tr.Apply(Observation{Identity: 7, BoundingBox: box, Confidence: 0.9})

	require.Equal(t, Active, tr.State())
	require.Equal(t, Solid, tr.Region().Style)
	require.Equal(t, PaletteColor(1), tr.Region().Color)
	require.False(t, tr.Request(LevelFast).Initial)
	require.Equal(t, box, tr.Request(LevelFast).Prior.BoundingBox)

	// low confidence is still active but dashed
	tr.Apply(Observation{Identity: 7, BoundingBox: box, Confidence: 0.5})
	require.Equal(t, Active, tr.State())
	require.Equal(t, Dashed, tr.Region().Style)

	// lost keeps the frozen region
	frozen := tr.Region()
	tr.MarkLost()

	require.Equal(t, Lost, tr.State())
	require.Equal(t, frozen, tr.Region())
	require.Equal(t, 1, tr.LostFrames())
	require.False(t, tr.Excluded())

	// recovers
	tr.Apply(Observation{Identity: 7, BoundingBox: box, Confidence: 0.8})
	require.Equal(t, Active, tr.State())
	require.Equal(t, 0, tr.LostFrames())
}

func TestTrackLostBeforeFirstObservationStaysInitial(t *testing.T) {

	tr := NewTrack(1, NewRegion(geometry.NewRect(0.1, 0.1, 0.2, 0.2), PaletteColor(0)), 0)
	tr.MarkLost()

	require.Equal(t, Lost, tr.State())
	require.True(t, tr.Request(LevelAccurate).Initial)
}

func TestTrackExclusion(t *testing.T) {

	tr := NewTrack(1, NewRegion(geometry.NewRect(0.1, 0.1, 0.2, 0.2), PaletteColor(0)), 2)

	tr.MarkLost()
	tr.MarkLost()
	require.False(t, tr.Excluded())

	tr.MarkLost()
	require.True(t, tr.Excluded())
}

func TestObservationValid(t *testing.T) {

	require.True(t, Observation{BoundingBox: geometry.NewRect(0, 0, 0.1, 0.1), Confidence: 0.3}.Valid())
	require.False(t, Observation{BoundingBox: geometry.NewRect(0, 0, 0, 0.1), Confidence: 0.3}.Valid())
	require.False(t, Observation{BoundingBox: geometry.NewRect(0, 0, -1, 0.1), Confidence: 0.3}.Valid())
}
