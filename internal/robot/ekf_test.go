package robot

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

const jacobianTol = 1e-5

func TestPredictExample(t *testing.T) {
	p := Predict(EKFState{}, Command{Turn: 0, Forward: 2}, NoiseSample{}, 0.1)

	require.Equal(t, EKFState{X: 2, Y: 0, Phi: 0, Trans: 2}, p.Next)
	require.Equal(t, []float64{1, 0, 0, 0}, mat.Row(nil, 0, p.Fx))
	require.Equal(t, []float64{0, 1}, mat.Row(nil, 3, p.Fn))
}

func TestPredictZeroNoise(t *testing.T) {
	for _, tt := range []struct {
		state EKFState
		cmd   Command
	}{
		{state: EKFState{X: 1, Y: 2, Phi: 0.3, Trans: 9}, cmd: Command{Turn: 0.4, Forward: 1.5}},
		{state: EKFState{X: -3, Y: 0, Phi: 3, Trans: 0}, cmd: Command{Turn: 1, Forward: 2}},
		{state: EKFState{X: 0, Y: 5, Phi: -2, Trans: 1}, cmd: Command{Turn: -2, Forward: -1}},
	} {
		p := Predict(tt.state, tt.cmd, NoiseSample{}, 1)
		phi := tt.state.Phi + tt.cmd.Turn
		assert.InDelta(t, tt.state.X+math.Cos(phi)*tt.cmd.Forward, p.Next.X, 1e-12)
		assert.InDelta(t, tt.state.Y+math.Sin(phi)*tt.cmd.Forward, p.Next.Y, 1e-12)
		assert.InDelta(t, tt.cmd.Forward, p.Next.Trans, 1e-12)
		assert.InDelta(t, 0, math.Sin(p.Next.Phi-phi), 1e-12)
		assert.Greater(t, p.Next.Phi, -math.Pi)
		assert.LessOrEqual(t, p.Next.Phi, math.Pi)
	}
}

func TestPredictHeadingRange(t *testing.T) {
	for phi := -12.0; phi < 12; phi += 0.41 {
		for turn := -7.0; turn < 7; turn += 1.3 {
			p := Predict(EKFState{Phi: phi}, Command{Turn: turn, Forward: 1}, NoiseSample{Turn: 0.2}, 0)
			require.Greater(t, p.Next.Phi, -math.Pi)
			require.LessOrEqual(t, p.Next.Phi, math.Pi)
		}
	}
}

func TestPredictIgnoresStoredCommand(t *testing.T) {
	r := newTestRobot(0, 0, 0)
	r.SetMotionCommand(5, 5)
	p := r.Predict(EKFState{}, Command{Forward: 1}, NoiseSample{}, 0)
	require.Equal(t, EKFState{X: 1, Trans: 1}, p.Next)
}

// predictStateFunc flattens Predict for finite differencing over the state.
func predictStateFunc(cmd Command, noise NoiseSample) func(y, x []float64) {
	return func(y, x []float64) {
		p := Predict(EKFState{X: x[0], Y: x[1], Phi: x[2], Trans: x[3]}, cmd, noise, 0)
		copy(y, mat.Col(nil, 0, p.Next.Vec()))
	}
}

func predictNoiseFunc(state EKFState, cmd Command) func(y, x []float64) {
	return func(y, x []float64) {
		p := Predict(state, cmd, NoiseSample{Turn: x[0], Forward: x[1]}, 0)
		copy(y, mat.Col(nil, 0, p.Next.Vec()))
	}
}

func TestPredictJacobians(t *testing.T) {
	settings := &fd.JacobianSettings{Formula: fd.Central}

	for _, state := range []EKFState{
		{X: 0, Y: 0, Phi: 0, Trans: 0},
		{X: 1.5, Y: -2, Phi: 0.7, Trans: 1},
		{X: -4, Y: 3, Phi: -1.9, Trans: 2},
	} {
		for _, cmd := range []Command{{Turn: 0, Forward: 2}, {Turn: 0.5, Forward: -1}, {Turn: -1.1, Forward: 3}} {
			for _, noise := range []NoiseSample{{}, {Turn: 0.05, Forward: -0.2}} {
				p := Predict(state, cmd, noise, 0)

				numFx := mat.NewDense(StateDim, StateDim, nil)
				fd.Jacobian(numFx, predictStateFunc(cmd, noise), mat.Col(nil, 0, state.Vec()), settings)
				for i := 0; i < StateDim; i++ {
					for j := 0; j < StateDim; j++ {
						if i == 3 && j == 3 {
							// trans is overwritten; the model carries a unit entry here
							require.Equal(t, 1.0, p.Fx.At(i, j))
							continue
						}
						require.InDelta(t, numFx.At(i, j), p.Fx.At(i, j), jacobianTol, "Fx[%d][%d] state=%v cmd=%v", i, j, state, cmd)
					}
				}

				numFn := mat.NewDense(StateDim, 2, nil)
				fd.Jacobian(numFn, predictNoiseFunc(state, cmd), []float64{noise.Turn, noise.Forward}, settings)
				for i := 2; i < StateDim; i++ {
					for j := 0; j < 2; j++ {
						require.InDelta(t, numFn.At(i, j), p.Fn.At(i, j), jacobianTol, "Fn[%d][%d]", i, j)
					}
				}
				// noise reaches x and y only through Fx
				require.Equal(t, []float64{0, 0}, mat.Row(nil, 0, p.Fn))
				require.Equal(t, []float64{0, 0}, mat.Row(nil, 1, p.Fn))
			}
		}
	}
}

func TestSenseLinearExample(t *testing.T) {
	obs := SenseLinear(EKFState{X: 3, Y: 4, Phi: 1, Trans: 2})

	assert.InDelta(t, 5.0, obs.Y.AtVec(0), 1e-12)
	assert.InDelta(t, math.Atan2(4, 3), obs.Y.AtVec(1), 1e-12)
	assert.InDeltaSlice(t, []float64{3.0 / 5, 4.0 / 5, 0, 0}, mat.Row(nil, 0, obs.H), 1e-12)
}

func TestSenseLinearJacobian(t *testing.T) {
	settings := &fd.JacobianSettings{Formula: fd.Central}
	f := func(y, x []float64) {
		obs := SenseLinear(EKFState{X: x[0], Y: x[1], Phi: x[2], Trans: x[3]})
		y[0], y[1] = obs.Y.AtVec(0), obs.Y.AtVec(1)
	}

	for _, state := range []EKFState{
		{X: 3, Y: 4},
		{X: 1, Y: -1, Phi: 2, Trans: 3},
		{X: 10, Y: 0.5},
		{X: 2, Y: 7, Phi: -1},
	} {
		obs := SenseLinear(state)
		num := mat.NewDense(2, StateDim, nil)
		fd.Jacobian(num, f, mat.Col(nil, 0, state.Vec()), settings)

		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				require.InDelta(t, num.At(i, j), obs.H.At(i, j), jacobianTol, "H[%d][%d] state=%v", i, j, state)
			}
			require.Equal(t, 0.0, obs.H.At(i, 2))
			require.Equal(t, 0.0, obs.H.At(i, 3))
		}
	}
}

func TestSenseLinearSingular(t *testing.T) {
	obs := SenseLinear(EKFState{X: 0, Y: 2})
	assert.InDelta(t, 2.0, obs.Y.AtVec(0), 1e-12)
	row := mat.Row(nil, 1, obs.H)
	assert.True(t, math.IsNaN(row[0]) || math.IsInf(row[0], 0))
}

func TestUnimplementedSeams(t *testing.T) {
	r := newTestRobot(0, 0, 0)

	_, err := r.Obs(EKFState{X: 1})
	require.ErrorIs(t, err, ErrNotImplemented)

	_, err = r.Advance(EKFState{}, Command{Forward: 1}, 0.1, NoiseSample{})
	require.ErrorIs(t, err, ErrNotImplemented)
}

func TestStateVecRoundTrip(t *testing.T) {
	s := EKFState{X: 1, Y: 2, Phi: 3, Trans: 4}
	require.Equal(t, s, StateFromVec(s.Vec()))
}
