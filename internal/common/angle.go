package common

import "math"

// TwoPi is the width of every heading interval used in the model.
const TwoPi = 2 * math.Pi

// WrapUnsigned folds an angle into [0, 2π).
func WrapUnsigned(phi float64) float64 {
	phi = math.Mod(phi, TwoPi)
	if phi < 0 {
		phi += TwoPi
	}
	// -tiny + 2π rounds to exactly 2π.
	if phi >= TwoPi {
		phi = 0
	}
	return phi
}

// WrapSigned folds an angle into (−π, π] using ((phi + π) mod 2π) − π.
// The single point the formula sends to −π is reported as π instead.
func WrapSigned(phi float64) float64 {
	phi = WrapUnsigned(phi+math.Pi) - math.Pi
	if phi <= -math.Pi {
		phi = math.Pi
	}
	return phi
}
