package robot

import "errors"

var (
	// ErrShapeMismatch is returned by MotionUpdate when x, y and phi differ in length.
	ErrShapeMismatch = errors.New("x, y and phi must have equal length")
	// ErrNotImplemented is returned by the Obs and Advance extension points.
	ErrNotImplemented = errors.New("not implemented for this motion model")
)
