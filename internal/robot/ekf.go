package robot

import (
	"math"

	"robotmodel-sim/internal/common"

	"gonum.org/v1/gonum/mat"
)

// StateDim is the length of the EKF state (x, y, phi, trans).
const StateDim = 4

// EKFState is the state propagated by Predict. Trans is the most recent
// forward displacement.
type EKFState struct {
	X     float64
	Y     float64
	Phi   float64
	Trans float64
}

// StateFromVec reads an EKFState from the first four elements of v.
func StateFromVec(v mat.Vector) EKFState {
	return EKFState{X: v.AtVec(0), Y: v.AtVec(1), Phi: v.AtVec(2), Trans: v.AtVec(3)}
}

// Vec returns the state as a column vector ordered x, y, phi, trans.
func (s EKFState) Vec() *mat.VecDense {
	return mat.NewVecDense(StateDim, []float64{s.X, s.Y, s.Phi, s.Trans})
}

// NoiseSample is a realized motion noise (turn, forward), not a standard deviation.
type NoiseSample struct {
	Turn    float64
	Forward float64
}

// Prediction is the result of an EKF prediction step.
type Prediction struct {
	Next EKFState
	// Fx is the 4x4 Jacobian of Next with respect to the input state.
	Fx *mat.Dense
	// Fn is the 4x2 Jacobian of Next with respect to the noise sample.
	Fn *mat.Dense
}

// Observation is an estimated measurement and its Jacobian.
type Observation struct {
	// Y holds range then bearing.
	Y *mat.VecDense
	// H is the 2x4 Jacobian of Y with respect to the state.
	H *mat.Dense
}

// Predict propagates state through the turn-and-go model with the given
// command and noise realization. The heading is wrapped into (−π, π] and
// Trans is replaced by the noisy forward displacement. dt is not used by
// this model.
func Predict(state EKFState, cmd Command, noise NoiseSample, dt float64) Prediction {
	phi := common.WrapSigned(state.Phi + cmd.Turn + noise.Turn)
	trans := cmd.Forward + noise.Forward // replaces the previous translation
	sin, cos := math.Sincos(phi)

	next := EKFState{
		X:     state.X + cos*trans,
		Y:     state.Y + sin*trans,
		Phi:   phi,
		Trans: trans,
	}

	// Rows and columns ordered x, y, phi, trans
	fx := mat.NewDense(StateDim, StateDim, []float64{
		1, 0, -sin * trans, 0,
		0, 1, cos * trans, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	})
	// Noise enters through phi and trans only; its effect on x and y is
	// carried by the phi column of Fx
	fn := mat.NewDense(StateDim, 2, []float64{
		0, 0,
		0, 0,
		1, 0,
		0, 1,
	})

	return Prediction{Next: next, Fx: fx, Fn: fn}
}

// SenseLinear returns the range and bearing of (state.X, state.Y) measured
// from the origin, with the Jacobian of both. The caller is expected to have
// expressed the state in the frame of interest. The bearing row divides by
// state.X, so X == 0 yields Inf or NaN entries.
func SenseLinear(state EKFState) Observation {
	px, py := state.X, state.Y
	rng := math.Hypot(px, py)
	bearing := math.Atan2(py, px)

	// d(atan2)/d(px, py) written in terms of t = (py/px)^2 + 1
	t := (py/px)*(py/px) + 1
	h := mat.NewDense(2, StateDim, []float64{
		px / rng, py / rng, 0, 0,
		-py / (px * px * t), 1 / (px * t), 0, 0,
	})

	return Observation{
		Y: mat.NewVecDense(2, []float64{rng, bearing}),
		H: h,
	}
}

// Predict is the EKF prediction step. It does not read the stored command.
func (r *Robot) Predict(state EKFState, cmd Command, noise NoiseSample, dt float64) Prediction {
	return Predict(state, cmd, noise, dt)
}

// SenseLinear is the linearized range/bearing observation of state.
func (r *Robot) SenseLinear(state EKFState) Observation {
	return SenseLinear(state)
}

// Obs is reserved for a landmark-aware observation model.
// It always returns ErrNotImplemented.
func (r *Robot) Obs(state EKFState) (Observation, error) {
	return Observation{}, ErrNotImplemented
}

// Advance is reserved for a velocity-driven motion model with its own
// Jacobians. It always returns ErrNotImplemented.
func (r *Robot) Advance(state EKFState, cmd Command, dt float64, noise NoiseSample) (Prediction, error) {
	return Prediction{}, ErrNotImplemented
}
