package video

import (
	"image"
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-bartrack/geometry"
)

func TestOpenReaderInitError(t *testing.T) {

	failing := func(string) (Decoder, error) {
		return nil, errors.New("no video track")
	}

	_, err := Open("clip.mov", failing)
	require.True(t, errors.Is(err, ErrReaderInit))

	_, err = Open("clip.mov", nil)
	require.True(t, errors.Is(err, ErrReaderInit))
}

func TestOpenFirstFrameError(t *testing.T) {

	dec := NewMemoryDecoder(30)

	_, err := Open("empty.mov", dec.Opener())
	require.True(t, errors.Is(err, ErrFirstFrameRead))
	require.True(t, dec.Closed())

	// a zero sized frame counts as unreadable
	dec = NewMemoryDecoder(30, image.NewRGBA(image.Rect(0, 0, 0, 0)))

	_, err = Open("blank.mov", dec.Opener())
	require.True(t, errors.Is(err, ErrFirstFrameRead))
}

func TestSourceNext(t *testing.T) {

	dec := NewBlankDecoder(25, 3, 64, 48)

	src, err := Open("three.mov", dec.Opener())
	require.NoError(t, err)
	require.Equal(t, geometry.Sz(64, 48), src.DecodedSize())

	for i := 0; i < 3; i++ {
		f, ok := src.Next()
		require.True(t, ok)
		require.Equal(t, i, f.(*MemoryFrame).Index)
		f.Close()
	}

	// exhausted and not restartable
	_, ok := src.Next()
	require.False(t, ok)
	_, ok = src.Next()
	require.False(t, ok)

	require.Equal(t, 3, src.FramesRead())
	require.NoError(t, src.Close())
	require.True(t, dec.Closed())
}

func TestFrameInterval(t *testing.T) {

	tests := []struct {
		fps      float64
		expected time.Duration
	}{
		{25, 40 * time.Millisecond},
		{50, 20 * time.Millisecond},
		{0, time.Second / 30},
		{-5, time.Second / 30},
		{math.NaN(), time.Second / 30},
		{math.Inf(1), time.Second / 30},
	}

	for _, tc := range tests {
		require.Equal(t, tc.expected, FrameInterval(tc.fps), "fps %f", tc.fps)
	}
}

func TestSourceOrientation(t *testing.T) {

	dec := NewBlankDecoder(30, 1, 1920, 1080)

	// portrait phone video, track is rotated 90 degrees clockwise for display
	dec.SetPreferredTransform(geometry.RotationTransform(90).
		Concat(geometry.TranslationTransform(1080, 0)))

	src, err := Open("portrait.mov", dec.Opener())
	require.NoError(t, err)
	defer src.Close()

	require.Equal(t, geometry.OrientationRight, src.Orientation())
	require.Equal(t, geometry.Sz(1080, 1920), src.DisplaySize())

	// decode corners land on the display frame
	tr := src.OrientationTransform()
	require.Equal(t, geometry.Pt(1080, 0), tr.Apply(geometry.Pt(0, 0)))
	require.Equal(t, geometry.Pt(0, 1920), tr.Apply(geometry.Pt(1920, 1080)))
}
