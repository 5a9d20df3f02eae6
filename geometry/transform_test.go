package geometry

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestRotationTransform(t *testing.T) {

	r := RotationTransform(90)
	require.Equal(t, AffineTransform{A: 0, B: 1, C: -1, D: 0}, r)
	require.Equal(t, Pt(0, 1), r.Apply(Pt(1, 0)))

	require.Equal(t, Pt(-1, 0), RotationTransform(180).Apply(Pt(1, 0)))
	require.True(t, RotationTransform(0).IsIdentity())
}

func TestAffineTransformInvert(t *testing.T) {

	tests := []AffineTransform{
		RotationTransform(90),
		RotationTransform(-90),
		RotationTransform(180),
		TranslationTransform(10, -4),
		RotationTransform(90).Concat(TranslationTransform(1080, 0)),
		{A: 2, B: 0, C: 0, D: 0.5, Tx: 3, Ty: 7},
	}

	p := Pt(12.5, -3)

	for _, tr := range tests {
		inv, err := tr.Invert()
		require.NoError(t, err)

		back := inv.Apply(tr.Apply(p))
		require.InDelta(t, p.X, back.X, 1e-9, "transform %+v", tr)
		require.InDelta(t, p.Y, back.Y, 1e-9, "transform %+v", tr)
	}

	inv, err := RotationTransform(90).Invert()
	require.NoError(t, err)
	require.Equal(t, RotationTransform(-90), inv)
}

func TestAffineTransformInvertSingular(t *testing.T) {

	_, err := AffineTransform{A: 1, B: 2, C: 2, D: 4}.Invert()
	require.True(t, errors.Is(err, ErrSingularTransform))
}

func TestOrientationFromTransform(t *testing.T) {

	tests := []struct {
		transform AffineTransform
		expected  Orientation
	}{
		{IdentityTransform(), OrientationUp},
		{RotationTransform(90), OrientationLeft},
		{RotationTransform(-90), OrientationRight},
		{RotationTransform(180), OrientationDown},
		{RotationTransform(-180), OrientationDown},
		{RotationTransform(45), OrientationUp},
		{RotationTransform(90).Concat(TranslationTransform(0, 1920)), OrientationLeft},
	}

	for _, tc := range tests {
		require.Equal(t, tc.expected, OrientationFromTransform(tc.transform),
			"transform %+v", tc.transform)
	}
}

func TestOrientationDisplaySize(t *testing.T) {

	require.Equal(t, Sz(1920, 1080), OrientationUp.DisplaySize(Sz(1920, 1080)))
	require.Equal(t, Sz(1920, 1080), OrientationDown.DisplaySize(Sz(1920, 1080)))
	require.Equal(t, Sz(1080, 1920), OrientationRight.DisplaySize(Sz(1920, 1080)))
	require.Equal(t, Sz(1080, 1920), OrientationLeft.DisplaySize(Sz(1920, 1080)))
	require.Equal(t, "right", OrientationRight.String())
}
