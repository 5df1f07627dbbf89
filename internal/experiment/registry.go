package experiment

import (
	"fmt"
	"sort"

	"github.com/rai-v/cvdyn/internal/physics"
	"github.com/rai-v/cvdyn/internal/quantum"
)

// Registry maps system names to constructors. Constructors return fresh
// instances so that sweeps can adjust one parameter per grid point
// without touching any shared state.
type Registry struct {
	systems map[string]func() quantum.System
}

func NewRegistry() *Registry {
	r := &Registry{systems: make(map[string]func() quantum.System)}

	r.systems["cavity"] = func() quantum.System { return physics.NewCavity() }
	r.systems["modulated"] = func() quantum.System { return physics.NewModulated() }
	r.systems["coupled"] = func() quantum.System { return physics.NewCoupled() }
	r.systems["lcmech"] = func() quantum.System { return physics.NewLCMech() }
	r.systems["lattice"] = func() quantum.System { return physics.NewLattice() }

	return r
}

// Build returns a fresh system with parameter overrides applied.
func (r *Registry) Build(name string, params map[string]float64) (quantum.System, error) {
	fn, ok := r.systems[name]
	if !ok {
		return nil, fmt.Errorf("unknown system: %s", name)
	}
	sys := fn()
	if len(params) > 0 {
		cfg, ok := sys.(quantum.Configurable)
		if !ok {
			return nil, fmt.Errorf("system %s does not accept parameters", name)
		}
		for k, v := range params {
			if err := cfg.SetParam(k, v); err != nil {
				return nil, err
			}
		}
	}
	return sys, nil
}

// List returns the registered system names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.systems))
	for name := range r.systems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
