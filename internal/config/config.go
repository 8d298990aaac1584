// Package config loads simulation settings from YAML.
package config

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"robotmodel-sim/internal/common"
	"robotmodel-sim/internal/robot"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned when a decoded config fails validation.
var ErrInvalidConfig = errors.New("invalid simulation configuration")

// Config describes one simulation run.
type Config struct {
	// Seed, when non-zero, seeds a dedicated generator for the configured robot.
	Seed      uint64      `yaml:"seed"`
	Pose      Pose        `yaml:"pose"`
	Noise     robot.Noise `yaml:"noise"`
	Landmarks [][]float64 `yaml:"landmarks"`
	// Bounds is [minX, maxX, minY, maxY], used for random landmark placement.
	Bounds []float64 `yaml:"bounds"`
}

// Pose is the initial robot pose.
type Pose struct {
	X   float64 `yaml:"x"`
	Y   float64 `yaml:"y"`
	Phi float64 `yaml:"phi"`
}

// Default returns the configuration used when a field is left out: the
// origin pose, no noise and the two default landmarks.
func Default() *Config {
	return &Config{
		Landmarks: [][]float64{{0, 0}, {1, 1}},
		Bounds:    []float64{-robot.WorldSize / 2, robot.WorldSize / 2, -robot.WorldSize / 2, robot.WorldSize / 2},
	}
}

// Load decodes a YAML document on top of Default and validates it.
func Load(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFile reads the config at path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Validate checks landmark and bounds shapes. Noise values are not checked.
func (c *Config) Validate() error {
	for i, l := range c.Landmarks {
		if len(l) != 2 {
			return fmt.Errorf("landmark %d has %d coordinates: %w", i, len(l), ErrInvalidConfig)
		}
	}
	if len(c.Bounds) != 4 {
		return fmt.Errorf("bounds length must be 4, got %d: %w", len(c.Bounds), ErrInvalidConfig)
	}
	if c.Bounds[0] > c.Bounds[1] || c.Bounds[2] > c.Bounds[3] {
		return fmt.Errorf("bounds %v are inverted: %w", c.Bounds, ErrInvalidConfig)
	}
	return nil
}

// LandmarkPoints returns the configured landmarks as points.
func (c *Config) LandmarkPoints() []common.Point {
	points := make([]common.Point, len(c.Landmarks))
	for i, l := range c.Landmarks {
		points[i] = common.Point{X: l[0], Y: l[1]}
	}
	return points
}

// NewRobot builds a robot at the configured pose with the configured noise.
// When Seed is set the robot gets its own generator seeded from it and the
// shared generator is left alone; otherwise it draws from the shared one.
func (c *Config) NewRobot(opts ...robot.Option) *robot.Robot {
	base := []robot.Option{robot.WithNoise(c.Noise)}
	if c.Seed != 0 {
		base = append(base, robot.WithSource(rand.NewPCG(c.Seed, c.Seed)))
	}
	// caller options apply last and may override the source
	opts = append(base, opts...)
	return robot.New(c.Pose.X, c.Pose.Y, c.Pose.Phi, opts...)
}
