package geometry

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ErrSingularTransform is returned when inverting a transform that has no
// inverse
var ErrSingularTransform = errors.New("affine transform is not invertible")

// AffineTransform is a 2D affine transform laid out as the matrix
//
//	| A  B  0 |
//	| C  D  0 |
//	| Tx Ty 1 |
//
// where a point is mapped as x' = A*x + C*y + Tx, y' = B*x + D*y + Ty
type AffineTransform struct {
	A, B, C, D float64
	Tx, Ty     float64
}

// IdentityTransform returns the transform that maps every point to itself
func IdentityTransform() AffineTransform {
	return AffineTransform{A: 1, D: 1}
}

// RotationTransform returns a transform rotating points counter clockwise
// by the given angle in degrees about the origin
func RotationTransform(degrees float64) AffineTransform {

	rad := degrees * math.Pi / 180
	cos := snap(math.Cos(rad))
	sin := snap(math.Sin(rad))

	return AffineTransform{A: cos, B: sin, C: -sin, D: cos}
}

// TranslationTransform returns a transform that offsets points by tx, ty
func TranslationTransform(tx, ty float64) AffineTransform {
	return AffineTransform{A: 1, D: 1, Tx: tx, Ty: ty}
}

// IsIdentity returns true if the transform leaves all points unchanged
func (t AffineTransform) IsIdentity() bool {
	return t == IdentityTransform()
}

// Apply maps a point through the transform
func (t AffineTransform) Apply(p Point) Point {
	return Point{
		X: t.A*p.X + t.C*p.Y + t.Tx,
		Y: t.B*p.X + t.D*p.Y + t.Ty,
	}
}

// Concat returns the transform that applies t first and then o
func (t AffineTransform) Concat(o AffineTransform) AffineTransform {
	return AffineTransform{
		A:  t.A*o.A + t.B*o.C,
		B:  t.A*o.B + t.B*o.D,
		C:  t.C*o.A + t.D*o.C,
		D:  t.C*o.B + t.D*o.D,
		Tx: t.Tx*o.A + t.Ty*o.C + o.Tx,
		Ty: t.Tx*o.B + t.Ty*o.D + o.Ty,
	}
}

// Invert returns the inverse transform
func (t AffineTransform) Invert() (AffineTransform, error) {

	det := t.A*t.D - t.B*t.C

	if det == 0 || !isFinite(det) {
		return AffineTransform{}, ErrSingularTransform
	}

	m := mat.NewDense(3, 3, []float64{
		t.A, t.B, 0,
		t.C, t.D, 0,
		t.Tx, t.Ty, 1,
	})

	var inv mat.Dense

	if err := inv.Inverse(m); err != nil {
		// an ill conditioned matrix still yields a usable inverse
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return AffineTransform{}, errors.Wrap(ErrSingularTransform, err.Error())
		}
	}

	return AffineTransform{
		A:  snap(inv.At(0, 0)),
		B:  snap(inv.At(0, 1)),
		C:  snap(inv.At(1, 0)),
		D:  snap(inv.At(1, 1)),
		Tx: snap(inv.At(2, 0)),
		Ty: snap(inv.At(2, 1)),
	}, nil
}

// Angle returns the rotation component of the transform in degrees, in
// the range (-180, 180]
func (t AffineTransform) Angle() float64 {
	return math.Atan2(t.B, t.A) * 180 / math.Pi
}

// snap rounds values within floating error of an integer, so that rotations
// by multiples of 90 degrees produce exact matrices
func snap(v float64) float64 {

	r := math.Round(v)

	if math.Abs(v-r) < 1e-12 {
		return r
	}

	return v
}

// Orientation is the display orientation of decoded frames
type Orientation int

const (
	// OrientationUp frames are displayed as decoded
	OrientationUp Orientation = iota
	// OrientationRight frames must be rotated 90 degrees clockwise
	OrientationRight
	// OrientationDown frames must be rotated 180 degrees
	OrientationDown
	// OrientationLeft frames must be rotated 90 degrees counter clockwise
	OrientationLeft
)

// String returns the name of the orientation
func (o Orientation) String() string {
	switch o {
	case OrientationUp:
		return "up"
	case OrientationRight:
		return "right"
	case OrientationDown:
		return "down"
	case OrientationLeft:
		return "left"
	default:
		return "unknown"
	}
}

// OrientationFromTransform derives the display orientation from the angle
// of an orientation transform.  Angles that are not a multiple of 90 degrees
// are treated as up
func OrientationFromTransform(t AffineTransform) Orientation {

	switch math.Round(t.Angle()) {
	case 180, -180:
		return OrientationDown
	case 90:
		return OrientationLeft
	case -90:
		return OrientationRight
	default:
		return OrientationUp
	}
}

// Transposed returns true if the orientation swaps width and height
func (o Orientation) Transposed() bool {
	return o == OrientationRight || o == OrientationLeft
}

// DisplaySize returns the size of a decoded frame once the orientation
// has been applied
func (o Orientation) DisplaySize(decoded Size) Size {

	if o.Transposed() {
		return Size{Width: decoded.Height, Height: decoded.Width}
	}

	return decoded
}
