// Package simulation runs ground-truth robots against a shared landmark map.
package simulation

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"sync"

	"robotmodel-sim/internal/common"
	"robotmodel-sim/internal/config"
	"robotmodel-sim/internal/landmark"
	"robotmodel-sim/internal/multilateration"
	"robotmodel-sim/internal/robot"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Environment errors
var (
	ErrRobotNotFound = errors.New("robot not found")
	ErrNoReading     = errors.New("robot has not sensed yet")
)

// Reading is a robot's true pose, the ranges it sensed from there and the
// landmarks those ranges were measured against, in the same order.
type Reading struct {
	Pose      robot.Pose
	Ranges    []float64
	Landmarks []common.Point
}

// Environment owns the landmark map every robot in it senses against.
// The map is replaced only through SetLandmarks so all robots see the same set.
type Environment struct {
	mu        sync.Mutex
	landmarks *landmark.Map
	robots    map[string]*robot.Robot
	last      map[string]Reading
	steps     int
	logger    *zap.Logger
}

// Option configures an Environment.
type Option func(*Environment)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Environment) {
		e.logger = l
	}
}

// NewEnvironment creates an environment around m. A nil map gets the default landmarks.
// The environment takes ownership of m; later changes go through SetLandmarks.
func NewEnvironment(m *landmark.Map, opts ...Option) *Environment {
	if m == nil {
		m = landmark.NewMap()
	}
	e := &Environment{
		landmarks: m,
		robots:    make(map[string]*robot.Robot),
		last:      make(map[string]Reading),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewEnvironmentFromConfig builds the configured map and adds the configured robot.
// It returns the environment and the id of that robot.
func NewEnvironmentFromConfig(cfg *config.Config, opts ...Option) (*Environment, string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	m := &landmark.Map{}
	if err := m.SetPairs(cfg.Landmarks); err != nil {
		return nil, "", fmt.Errorf("config landmarks: %w", err)
	}
	e := NewEnvironment(m, opts...)
	id := e.AddRobot(cfg.NewRobot())
	return e, id, nil
}

// Landmarks returns a copy of the current landmarks.
func (e *Environment) Landmarks() []common.Point {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.landmarks.Points()
}

// SetLandmarks replaces every landmark. Robots see the new set on their next sense.
func (e *Environment) SetLandmarks(points []common.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.landmarks.Set(points)
	e.logger.Info("landmarks replaced", zap.Int("count", len(points)))
}

// AddRandomLandmarks appends n landmarks drawn uniformly inside bounds.
func (e *Environment) AddRandomLandmarks(r *rand.Rand, n int, bounds []float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	// keep the existing landmarks and their order, new ones go last
	points := e.landmarks.Points()
	for i := 0; i < n; i++ {
		p, err := common.NewRandomPoint(r, bounds)
		if err != nil {
			return fmt.Errorf("failed to generate random landmark: %w", err)
		}
		points = append(points, p)
	}
	e.landmarks.Set(points)
	e.logger.Info("random landmarks added", zap.Int("added", n), zap.Int("count", len(points)))
	return nil
}

// AddRobot registers r and returns its id.
func (e *Environment) AddRobot(r *robot.Robot) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	id := fmt.Sprintf("robot-%s", uuid.NewString()[:8])
	e.robots[id] = r
	e.logger.Debug("robot added", zap.String("id", id), zap.Stringer("pose", r.Pose()))
	return id
}

// Robot returns the robot registered under id.
func (e *Environment) Robot(id string) (*robot.Robot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.robots[id]
	return r, ok
}

// IDs returns every robot id in sorted order.
func (e *Environment) IDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sortedIDs()
}

func (e *Environment) sortedIDs() []string {
	ids := make([]string, 0, len(e.robots))
	for id := range e.robots {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Steps returns the number of Step calls so far.
func (e *Environment) Steps() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.steps
}

// Step moves every robot with cmd, in id order, then senses the landmarks from
// the new pose.
func (e *Environment) Step(cmd robot.Command) map[string]Reading {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.steps++

	// Every robot senses the same snapshot, which is also stored with each
	// reading so a later fix pairs ranges with the landmarks they came from.
	points := e.landmarks.Points()
	snapshot := landmark.NewMapFromPoints(points)

	readings := make(map[string]Reading, len(e.robots))
	for _, id := range e.sortedIDs() {
		r := e.robots[id]
		r.Move(cmd.Turn, cmd.Forward) // ground truth moves first
		reading := Reading{Pose: r.Pose(), Ranges: r.Sense(snapshot), Landmarks: slices.Clone(points)}
		readings[id] = reading
		e.last[id] = reading

		e.logger.Debug("robot stepped",
			zap.Int("step", e.steps),
			zap.String("id", id),
			zap.Stringer("pose", reading.Pose),
			zap.Float64s("ranges", reading.Ranges),
		)
	}
	return readings
}

// LastReading returns the most recent reading of a robot.
func (e *Environment) LastReading(id string) (Reading, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	reading, ok := e.last[id]
	return reading, ok
}

// Fix estimates a robot's position from its last ranges by multilateration.
// The ranges are solved against the landmarks of the step that produced them,
// so replacing the map afterwards does not change the fix.
func (e *Environment) Fix(id string) (multilateration.Solution, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sol, _, err := e.fix(id)
	return sol, err
}

// FixError is the distance between a robot's multilateration fix and its true
// position at the time of its last reading.
func (e *Environment) FixError(id string) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	sol, reading, err := e.fix(id)
	if err != nil {
		return 0, err
	}
	errDist := multilateration.LocalizationError(reading.Pose.Position(), sol.Position)
	e.logger.Debug("localization error",
		zap.String("id", id),
		zap.Stringer("true", reading.Pose.Position()),
		zap.Stringer("estimate", sol.Position),
		zap.Float64("error", errDist),
		zap.Float64("residual", sol.ResidualError),
	)
	return errDist, nil
}

// fix must be called with e.mu held.
func (e *Environment) fix(id string) (multilateration.Solution, Reading, error) {
	if _, ok := e.robots[id]; !ok {
		return multilateration.Solution{}, Reading{}, fmt.Errorf("%s: %w", id, ErrRobotNotFound)
	}
	reading, ok := e.last[id]
	if !ok {
		return multilateration.Solution{}, Reading{}, fmt.Errorf("%s: %w", id, ErrNoReading)
	}

	// pair each range with the landmark it was measured against
	ms, err := multilateration.FromRanges(reading.Landmarks, reading.Ranges)
	if err != nil {
		return multilateration.Solution{}, Reading{}, fmt.Errorf("%s: %w", id, err)
	}
	sol, err := multilateration.SolveLeastSquares(ms)
	if err != nil {
		e.logger.Warn("localization failed", zap.String("id", id), zap.Error(err))
		return multilateration.Solution{}, Reading{}, err
	}
	return sol, reading, nil
}
