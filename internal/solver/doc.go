// Package solver advances classical mode amplitudes and the quadrature
// covariance matrix through time.
//
// The combined real state concatenates Re/Im parts of every mode with
// the row-major flattened covariance matrix; its derivative is
//
//	[ f(α, t), (A·C + C·Aᵀ + D).flatten() ]
//
// where A and D are re-evaluated from the current classical amplitudes
// at every right-hand-side call. Systems that never instantiate a
// covariance matrix (nonlinear lattices) integrate the mode block alone.
//
// Two steppers are provided:
//
//   - [MethodBDF] (default): adaptive variable-order backward
//     differentiation formulas, orders 1–5, with a Newton corrector.
//     Decay rates in these systems span many orders of magnitude, so a
//     stiff-capable implicit method is the only safe default.
//   - [MethodRK45]: adaptive Dormand–Prince, adequate for the mildly
//     stiff lattice models and cheap for tangent-space propagation.
//
// Identical inputs reproduce identical trajectories; there is no
// sampled noise anywhere in the core.
package solver
