// Package analysis quantifies the stability of computed trajectories.
//
// Lyapunov exponents are estimated by propagating a basis of tangent
// vectors under the drift matrix alongside the nonlinear classical
// trajectory, with periodic QR re-orthonormalization of the basis:
//
//	spec, err := analysis.Spectrum(ctx, sys, analysis.DefaultOptions())
//	if spec[0] > 0 {
//	    // trajectory is chaotic
//	}
//
// The sign of the maximal exponent is the quantity most consumers
// extract: negative means the trajectory contracts onto a fixed point
// or limit cycle, positive means exponential sensitivity to initial
// conditions.
package analysis
