package tracker

import (
	"github.com/pkg/errors"
	"github.com/swdee/go-bartrack/geometry"
	"gonum.org/v1/gonum/mat"
)

// Measurement represents a 1x2 matrix holding an x, y position
type Measurement []float64

// StateMean represents a 1x4 matrix of position and velocity (x, y, vx, vy)
type StateMean []float64

// StateCov represents a 4x4 matrix
type StateCov struct {
	*mat.Dense
}

// KalmanFilter is a constant velocity Kalman filter over 2D points, used to
// smooth trajectories
type KalmanFilter struct {
	stdWeightPosition float64
	stdWeightVelocity float64
	motionMat         *mat.Dense
	updateMat         *mat.Dense
}

// NewKalmanFilter initializes and returns a new KalmanFilter.  The weights are
// the standard deviations of position and velocity noise in the units of the
// points being filtered
func NewKalmanFilter(stdWeightPosition, stdWeightVelocity float64) *KalmanFilter {

	ndim := 2
	dt := 1.0

	// create identity matrix for motionMat
	motionMat := mat.NewDense(4, 4, nil)

	for i := 0; i < 4; i++ {
		motionMat.Set(i, i, 1.0)
	}

	for i := 0; i < ndim; i++ {
		motionMat.Set(i, ndim+i, dt)
	}

	// updateMat observes the position components only
	updateMat := mat.NewDense(2, 4, nil)

	for i := 0; i < ndim; i++ {
		updateMat.Set(i, i, 1.0)
	}

	return &KalmanFilter{
		stdWeightPosition: stdWeightPosition,
		stdWeightVelocity: stdWeightVelocity,
		motionMat:         motionMat,
		updateMat:         updateMat,
	}
}

// NewStateCov returns a zeroed covariance matrix
func NewStateCov() *StateCov {
	return &StateCov{mat.NewDense(4, 4, nil)}
}

// Initiate initializes the state mean and covariance from the first
// measurement
func (kf *KalmanFilter) Initiate(mean StateMean, covariance *StateCov,
	measurement Measurement) {

	copy(mean[:2], measurement[:2])

	// velocity starts at rest
	mean[2] = 0
	mean[3] = 0

	std := []float64{
		2 * kf.stdWeightPosition,  // x position
		2 * kf.stdWeightPosition,  // y position
		10 * kf.stdWeightVelocity, // x velocity
		10 * kf.stdWeightVelocity, // y velocity
	}

	covariance.Dense = mat.NewDense(4, 4, nil)

	for i, v := range std {
		covariance.Set(i, i, v*v)
	}
}

// Predict advances the state mean and covariance by one frame
func (kf *KalmanFilter) Predict(mean StateMean, covariance *StateCov) {

	std := []float64{
		kf.stdWeightPosition,
		kf.stdWeightPosition,
		kf.stdWeightVelocity,
		kf.stdWeightVelocity,
	}

	// motion covariance with variances on the diagonal
	motionCov := mat.NewDense(4, 4, nil)

	for i, v := range std {
		motionCov.Set(i, i, v*v)
	}

	meanVec := mat.NewVecDense(4, append([]float64(nil), mean...))

	var next mat.VecDense
	next.MulVec(kf.motionMat, meanVec)

	for i := 0; i < 4; i++ {
		mean[i] = next.AtVec(i)
	}

	var tmp, cov mat.Dense
	tmp.Mul(kf.motionMat, covariance.Dense)
	cov.Mul(&tmp, kf.motionMat.T())
	cov.Add(&cov, motionCov)

	covariance.Dense = &cov
}

// Update corrects the state mean and covariance with a new measurement
func (kf *KalmanFilter) Update(mean StateMean, covariance *StateCov,
	measurement Measurement) error {

	// project the state mean and covariance to measurement space
	projectedMean, projectedCov := kf.project(mean, covariance)

	chol := mat.Cholesky{}

	if ok := chol.Factorize(projectedCov); !ok {
		return errors.New("failed to factorize projected covariance")
	}

	// compute the Kalman gain using the Cholesky factorization
	B := mat.NewDense(4, 2, nil)
	B.Mul(covariance.Dense, kf.updateMat.T())

	var kalmanGain mat.Dense

	if err := chol.SolveTo(&kalmanGain, B.T()); err != nil {
		return errors.Wrap(err, "failed to compute kalman gain")
	}

	innovation := mat.NewVecDense(2, []float64{
		measurement[0] - projectedMean[0],
		measurement[1] - projectedMean[1],
	})

	var correction mat.VecDense
	correction.MulVec(kalmanGain.T(), innovation)

	for i := 0; i < 4; i++ {
		mean[i] += correction.AtVec(i)
	}

	// covariance -= K * S * K^T
	var ks, kskt mat.Dense
	ks.Mul(kalmanGain.T(), projectedCov)
	kskt.Mul(&ks, &kalmanGain)

	newCov := mat.NewDense(4, 4, nil)
	newCov.Sub(covariance.Dense, &kskt)

	covariance.Dense = newCov

	return nil
}

// project the state mean and covariance to measurement space
func (kf *KalmanFilter) project(mean StateMean,
	covariance *StateCov) (Measurement, *mat.SymDense) {

	var projected mat.VecDense
	projected.MulVec(kf.updateMat, mat.NewVecDense(4, append([]float64(nil), mean...)))

	var temp, temp2 mat.Dense
	temp.Mul(kf.updateMat, covariance.Dense)
	temp2.Mul(&temp, kf.updateMat.T())

	// add measurement noise to the projected covariance
	noise := kf.stdWeightPosition * kf.stdWeightPosition
	projectedCov := mat.NewSymDense(2, nil)

	for i := 0; i < 2; i++ {
		for j := i; j < 2; j++ {
			v := temp2.At(i, j)
			if i == j {
				v += noise
			}
			projectedCov.SetSym(i, j, v)
		}
	}

	return Measurement{projected.AtVec(0), projected.AtVec(1)}, projectedCov
}

// SmoothPoints runs the filter forward over a sequence of points and returns
// the filtered positions.  The input is left unchanged
func (kf *KalmanFilter) SmoothPoints(pts []geometry.Point) []geometry.Point {

	sm := kf.NewSmoother()

	for _, p := range pts {
		sm.Add(p)
	}

	return sm.Points()
}

// Smoother filters a growing sequence of points one at a time, carrying the
// filter state between calls so each new point costs a single predict and
// update step
type Smoother struct {
	kf     *KalmanFilter
	mean   StateMean
	cov    *StateCov
	points []geometry.Point
}

// NewSmoother returns an empty Smoother using the filter's noise weights
func (kf *KalmanFilter) NewSmoother() *Smoother {
	return &Smoother{
		kf:     kf,
		mean:   make(StateMean, 4),
		cov:    NewStateCov(),
		points: make([]geometry.Point, 0),
	}
}

// Add filters the next point and returns its smoothed position
func (s *Smoother) Add(p geometry.Point) geometry.Point {

	if len(s.points) == 0 {
		s.kf.Initiate(s.mean, s.cov, Measurement{p.X, p.Y})
		s.points = append(s.points, p)
		return p
	}

	s.kf.Predict(s.mean, s.cov)

	if err := s.kf.Update(s.mean, s.cov, Measurement{p.X, p.Y}); err != nil {
		// keep the raw point when the filter diverges
		s.kf.Initiate(s.mean, s.cov, Measurement{p.X, p.Y})
		s.points = append(s.points, p)
		return p
	}

	out := geometry.Point{X: s.mean[0], Y: s.mean[1]}
	s.points = append(s.points, out)

	return out
}

// Points returns a copy of the smoothed positions
func (s *Smoother) Points() []geometry.Point {

	out := make([]geometry.Point, len(s.points))
	copy(out, s.points)

	return out
}

// Len returns the number of points filtered
func (s *Smoother) Len() int {
	return len(s.points)
}

// Reset discards all filter state
func (s *Smoother) Reset() {
	s.points = s.points[:0]

	for i := range s.mean {
		s.mean[i] = 0
	}

	s.cov = NewStateCov()
}
