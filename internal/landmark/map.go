// Package landmark holds the set of fixed points robots range against.
package landmark

import (
	"errors"
	"fmt"
	"sync"

	"robotmodel-sim/internal/common"

	"gonum.org/v1/gonum/mat"
)

// ErrInvalidShape is returned when landmark input cannot be read as (x, y) pairs.
var ErrInvalidShape = errors.New("landmarks must be (x, y) pairs")

// Map is an ordered set of landmarks stored as an N x 2 matrix.
// The count is the row count of the stored matrix, so a replacement swaps
// both at once. Map is safe for one writer and any number of readers.
type Map struct {
	mu   sync.RWMutex
	data *mat.Dense // nil when empty
}

// NewMap returns a map holding the two default landmarks (0, 0) and (1, 1).
func NewMap() *Map {
	return &Map{data: mat.NewDense(2, 2, []float64{0, 0, 1, 1})}
}

// NewMapFromPoints returns a map holding the given landmarks.
func NewMapFromPoints(points []common.Point) *Map {
	m := &Map{}
	m.Set(points)
	return m
}

// Set replaces every landmark with points.
func (m *Map) Set(points []common.Point) {
	flat := make([]float64, 0, 2*len(points))
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	m.replace(flat)
}

// SetPairs replaces every landmark from nested [x, y] pairs.
func (m *Map) SetPairs(pairs [][]float64) error {
	flat := make([]float64, 0, 2*len(pairs))
	for i, pair := range pairs {
		if len(pair) != 2 {
			return fmt.Errorf("landmark %d has %d coordinates: %w", i, len(pair), ErrInvalidShape)
		}
		flat = append(flat, pair...)
	}
	m.replace(flat)
	return nil
}

// SetFlat replaces every landmark from a flat x0, y0, x1, y1, ... sequence.
func (m *Map) SetFlat(coords []float64) error {
	if len(coords)%2 != 0 {
		return fmt.Errorf("odd coordinate count %d: %w", len(coords), ErrInvalidShape)
	}
	flat := make([]float64, len(coords))
	copy(flat, coords)
	m.replace(flat)
	return nil
}

func (m *Map) replace(flat []float64) {
	var data *mat.Dense
	if len(flat) > 0 {
		data = mat.NewDense(len(flat)/2, 2, flat)
	}
	m.mu.Lock()
	m.data = data
	m.mu.Unlock()
}

// Len returns the number of landmarks.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return 0
	}
	r, _ := m.data.Dims()
	return r
}

// At returns landmark i. It panics unless 0 <= i < Len().
func (m *Map) At(i int) common.Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	if m.data != nil {
		n, _ = m.data.Dims()
	}
	if i < 0 || i >= n {
		panic(fmt.Sprintf("landmark: index %d out of range [0, %d)", i, n))
	}
	return common.Point{X: m.data.At(i, 0), Y: m.data.At(i, 1)}
}

// Points returns a copy of every landmark in order.
func (m *Map) Points() []common.Point {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return nil
	}
	r, _ := m.data.Dims()
	points := make([]common.Point, r)
	for i := range points {
		points[i] = common.Point{X: m.data.At(i, 0), Y: m.data.At(i, 1)}
	}
	return points
}

// Columns returns copies of the x and y coordinate columns.
func (m *Map) Columns() (xs, ys []float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return nil, nil
	}
	return mat.Col(nil, 0, m.data), mat.Col(nil, 1, m.data)
}
