// Package physics provides the optomechanical and electromechanical
// model providers.
//
// Each model implements [quantum.System], and where the linearized
// fluctuation description applies, [quantum.Linearized]:
//
//   - [Cavity]: driven single cavity with a mechanical mirror, the
//     canonical bistable system (supplies the occupancy cubic)
//   - [Modulated]: amplitude-modulated driving of a cavity-mirror
//     system, time-periodic drift
//   - [Coupled]: two optomechanical oscillators with mechanical
//     coupling, used for synchronization studies
//   - [LCMech]: optical + mechanical + LC-circuit hybrid, constant
//     drift
//   - [Lattice]: mode-only nonlinear soliton lattice with
//     nearest-neighbor tunneling, no covariance
//
// All models also implement [quantum.Configurable] so sweeps can
// rebuild them point by point. Parameters are normalized to the
// reference mechanical frequency unless noted otherwise.
package physics
