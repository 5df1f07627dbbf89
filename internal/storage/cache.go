package storage

import (
	"context"

	"github.com/rai-v/cvdyn/internal/quantum"
	"github.com/rai-v/cvdyn/internal/solver"
)

// Cache wraps solver.Solve with a disk-backed lookup keyed by the run
// configuration. Misses fall through to the solver and persist the
// result; load or save problems never fail the run.
type Cache struct {
	store *Store
}

func NewCache(store *Store) *Cache {
	return &Cache{store: store}
}

// Solve returns the cached trajectory for this configuration when one
// exists, otherwise solves and stores. The second return reports a
// cache hit.
func (c *Cache) Solve(ctx context.Context, sys quantum.System, params map[string]float64, opts solver.Options) (*solver.Trajectory, bool, error) {
	// A corrupt entry reads like a miss; it gets overwritten below.
	id := Key(sys.Name(), params, opts)
	if traj, _, err := c.store.Load(id); err == nil {
		return traj, true, nil
	}

	traj, err := solver.Solve(ctx, sys, opts)
	if err != nil {
		return nil, false, err
	}
	if err := c.store.Init(); err == nil {
		_ = c.store.Save(id, sys.Name(), opts, traj)
	}
	return traj, false, nil
}
