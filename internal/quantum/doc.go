// Package quantum provides core primitives for linearized
// continuous-variable simulations.
//
// The package defines the fundamental types shared by the solver,
// steady-state and stability layers:
//
//   - [Modes]: complex mean-field amplitudes, one per bosonic mode
//   - [System]: classical mode dynamics (dα/dt = f(α, t))
//   - [Linearized]: systems that additionally evolve a quadrature
//     covariance matrix through dC/dt = A·C + C·Aᵀ + D
//   - [OccupancyModel]: systems whose fixed points reduce to a real
//     polynomial in the mean occupancy
//
// # Quadrature ordering
//
// Real matrices are indexed by quadrature pairs (q₀, p₀, q₁, p₁, ...),
// so a system with n modes carries 2n×2n drift, noise and covariance
// matrices. A vacuum mode has ⟨δq²⟩ = ⟨δp²⟩ = 1/2 in these units.
//
// # Thread safety
//
// Systems are immutable after construction and safe to share between
// concurrent runs; all mutable buffers are owned by the caller.
package quantum
