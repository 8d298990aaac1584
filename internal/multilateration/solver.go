package multilateration

import (
	"errors"
	"fmt"
	"math"

	"robotmodel-sim/internal/common"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// MinMeasurements is the number of ranges needed for a planar fix.
const MinMeasurements = 3

// ErrInsufficientMeasurements is returned when fewer than MinMeasurements ranges are given.
var ErrInsufficientMeasurements = errors.New("insufficient range measurements")

// Measurement is a range from a known landmark.
type Measurement struct {
	Landmark common.Point
	Range    float64
}

// Solution contains the estimated position and a measure of the solution quality.
type Solution struct {
	Position      common.Point
	ResidualError float64 // ||Ax - b|| / sqrt(m), lower is better
}

// FromRanges pairs landmarks with the ranges sensed to them, in order.
func FromRanges(landmarks []common.Point, ranges []float64) ([]Measurement, error) {
	if len(landmarks) != len(ranges) {
		return nil, fmt.Errorf("got %d ranges for %d landmarks", len(ranges), len(landmarks))
	}
	out := make([]Measurement, len(ranges))
	for i := range ranges {
		out[i] = Measurement{Landmark: landmarks[i], Range: ranges[i]}
	}
	return out, nil
}

// SolveLeastSquares estimates the position that best explains the ranges.
// The last measurement is the reference the others are differenced against,
// which turns the circle equations into a linear system solved by QR.
func SolveLeastSquares(measurements []Measurement) (Solution, error) {
	m := len(measurements)
	if m < MinMeasurements {
		return Solution{}, fmt.Errorf("got %d, need %d: %w", m, MinMeasurements, ErrInsufficientMeasurements)
	}

	ref := measurements[m-1]
	refDist := math.Max(ref.Range, 0)
	refDistSq := refDist * refDist
	refNormSq := ref.Landmark.NormSq()

	rows := m - 1
	aData := make([]float64, rows*2)
	bData := make([]float64, rows)
	for i := 0; i < rows; i++ {
		meas := measurements[i]
		dist := math.Max(meas.Range, 0)

		// 2 * (L_k - L_i)
		diff := ref.Landmark.Sub(meas.Landmark).Scale(2)
		aData[i*2] = diff.X
		aData[i*2+1] = diff.Y

		// d_i^2 - d_k^2 - ||L_i||^2 + ||L_k||^2
		bData[i] = dist*dist - refDistSq - meas.Landmark.NormSq() + refNormSq
	}

	A := mat.NewDense(rows, 2, aData)
	b := mat.NewVecDense(rows, bData)

	var qr mat.QR
	qr.Factorize(A)

	var x mat.VecDense
	if err := qr.SolveVecTo(&x, false, b); err != nil {
		// collinear landmarks leave A rank deficient
		return Solution{}, fmt.Errorf("QR least squares solve failed: %w", err)
	}

	var residual mat.VecDense
	residual.MulVec(A, &x)
	residual.SubVec(b, &residual)
	norm := blas64.Nrm2(residual.RawVector())

	return Solution{
		Position:      common.Point{X: x.AtVec(0), Y: x.AtVec(1)},
		ResidualError: norm / math.Sqrt(float64(rows)),
	}, nil
}

// LocalizationError is the distance between the true and estimated positions.
func LocalizationError(truePosition, estimated common.Point) float64 {
	return truePosition.Distance(estimated)
}
