// Package robot models a planar mobile robot with noisy turn-and-go motion
// and range sensing, plus the linearized forms an EKF consumes.
package robot

import (
	"fmt"
	"math"
	"math/rand/v2"

	"robotmodel-sim/internal/common"
	"robotmodel-sim/internal/landmark"

	"gonum.org/v1/gonum/floats"
)

// WorldSize is the nominal side of the simulated world. Positions are never
// wrapped or clamped to it.
const WorldSize = 100.0

// Pose is the robot's position and heading.
type Pose struct {
	X   float64
	Y   float64
	Phi float64
}

// Position returns the (x, y) part of the pose.
func (p Pose) Position() common.Point {
	return common.Point{X: p.X, Y: p.Y}
}

// String returns a string representation of the pose.
func (p Pose) String() string {
	return fmt.Sprintf("[%.3f, %.3f, %.3f]", p.X, p.Y, p.Phi)
}

// Command is a motion command: a heading increment followed by a forward displacement.
type Command struct {
	Turn    float64
	Forward float64
}

// Noise holds the standard deviations applied to motion and sensing.
type Noise struct {
	Turn    float64 `yaml:"turn"`
	Forward float64 `yaml:"forward"`
	Sense   float64 `yaml:"sense"`
}

// Robot is the ground-truth robot of a simulation run.
type Robot struct {
	pose    Pose
	cmd     Command
	noise   Noise
	sampler sampler
}

// Option configures a Robot.
type Option func(*Robot)

// WithSource gives the robot its own random stream instead of the shared one.
func WithSource(src rand.Source) Option {
	return func(r *Robot) {
		r.sampler = newSampler(src)
	}
}

// WithNoise sets the initial noise parameters.
func WithNoise(n Noise) Option {
	return func(r *Robot) {
		r.noise = n
	}
}

// New creates a robot at (x, y) with heading phi. Noise and command start at zero.
func New(x, y, phi float64, opts ...Option) *Robot {
	r := &Robot{
		pose:    Pose{X: x, Y: y, Phi: phi},
		sampler: newSampler(sharedSource),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewFromPose creates a robot at the given pose.
func NewFromPose(p Pose, opts ...Option) *Robot {
	return New(p.X, p.Y, p.Phi, opts...)
}

// Pose returns the current pose.
func (r *Robot) Pose() Pose {
	return r.pose
}

// SetPose overwrites the current pose.
func (r *Robot) SetPose(p Pose) {
	r.pose = p
}

// ConfigureNoise sets the turn, forward and sense standard deviations.
// Values are not validated; a negative value flips the sign of its draws.
func (r *Robot) ConfigureNoise(turn, forward, sense float64) {
	r.noise = Noise{Turn: turn, Forward: forward, Sense: sense}
}

// Noise returns the configured noise parameters.
func (r *Robot) Noise() Noise {
	return r.noise
}

// SetMotionCommand stores the command used by Move and MotionUpdate.
func (r *Robot) SetMotionCommand(turn, forward float64) {
	r.cmd = Command{Turn: turn, Forward: forward}
}

// MotionCommand returns the stored motion command.
func (r *Robot) MotionCommand() Command {
	return r.cmd
}

// Move turns then drives forward, perturbing both with Gaussian noise, and
// stores the resulting pose. The heading is kept in [0, 2π).
func (r *Robot) Move(turn, forward float64) {
	r.SetMotionCommand(turn, forward)

	// Turn first: phi' = phi + turn + N(0,1)*turnNoise, kept in [0, 2π)
	phi := r.pose.Phi + r.cmd.Turn + r.sampler.draw()*r.noise.Turn
	phi = common.WrapUnsigned(phi)
	// Then drive along the new heading: delta = forward + N(0,1)*forwardNoise
	delta := r.cmd.Forward + r.sampler.draw()*r.noise.Forward

	// No world wrap, the plane is unbounded
	r.pose = Pose{
		X:   r.pose.X + math.Cos(phi)*delta,
		Y:   r.pose.Y + math.Sin(phi)*delta,
		Phi: phi,
	}
}

// MotionBatch is a set of poses stored column-wise, as used by particle ensembles.
type MotionBatch struct {
	X   []float64
	Y   []float64
	Phi []float64
}

// MotionUpdate applies the stored command to every element of x, y and phi,
// drawing independent noise per element. The inputs are left untouched and
// the moved poses are returned.
func (r *Robot) MotionUpdate(x, y, phi []float64) (MotionBatch, error) {
	n := len(phi)
	if len(x) != n || len(y) != n {
		return MotionBatch{}, fmt.Errorf("lengths %d, %d, %d: %w", len(x), len(y), n, ErrShapeMismatch)
	}

	// Work on a copy so the caller's ensemble is not modified
	phiNext := make([]float64, n)
	copy(phiNext, phi)
	floats.AddConst(r.cmd.Turn, phiNext)
	floats.AddScaled(phiNext, r.noise.Turn, r.sampler.drawN(n)) // one turn draw per element
	for i, v := range phiNext {
		phiNext[i] = common.WrapUnsigned(v)
	}

	// delta_i = forward + N(0,1)_i * forwardNoise
	delta := r.sampler.drawN(n)
	floats.Scale(r.noise.Forward, delta)
	floats.AddConst(r.cmd.Forward, delta)

	batch := MotionBatch{
		X:   make([]float64, n),
		Y:   make([]float64, n),
		Phi: phiNext,
	}
	for i := range phiNext {
		batch.X[i] = x[i] + math.Cos(phiNext[i])*delta[i]
		batch.Y[i] = y[i] + math.Sin(phiNext[i])*delta[i]
	}
	return batch, nil
}

// Sense returns the noisy range from the robot to every landmark in m,
// in map order. Each range gets its own noise draw.
func (r *Robot) Sense(m *landmark.Map) []float64 {
	// Both columns come from one read of the map, so their lengths agree
	xs, ys := m.Columns()
	ranges := make([]float64, len(xs))
	for i := range xs {
		ranges[i] = math.Hypot(xs[i]-r.pose.X, ys[i]-r.pose.Y)
	}
	// Independent sense noise for every landmark
	floats.AddScaled(ranges, r.noise.Sense, r.sampler.drawN(len(ranges)))
	return ranges
}

// String returns a string representation of the robot.
func (r *Robot) String() string {
	return fmt.Sprintf("Robot Pose: %s Noise: [%.3f, %.3f, %.3f]", r.pose, r.noise.Turn, r.noise.Forward, r.noise.Sense)
}
