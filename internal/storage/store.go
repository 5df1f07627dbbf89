// Package storage persists trajectories as csv + json metadata and
// offers a cache decorator around the solver. The core stays
// cache-oblivious; callers opt in per run.
package storage

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/rai-v/cvdyn/internal/quantum"
	"github.com/rai-v/cvdyn/internal/solver"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string    `json:"id"`
	System    string    `json:"system"`
	Timestamp time.Time `json:"timestamp"`
	Method    string    `json:"method"`
	TMin      float64   `json:"t_min"`
	TMax      float64   `json:"t_max"`
	TDim      int       `json:"t_dim"`
	NumModes  int       `json:"num_modes"`
	HasCorrs  bool      `json:"has_corrs"`
}

// Key derives a deterministic run identifier from the system name, its
// parameters and the solver options, so identical configurations hit
// the same cache entry.
func Key(system string, params any, opts solver.Options) string {
	payload, _ := json.Marshal(struct {
		System string
		Params any
		Opts   solver.Options
	}{system, params, opts})
	sum := sha256.Sum256(payload)
	return system + "_" + hex.EncodeToString(sum[:8])
}

// Save writes one trajectory under the given run ID, overwriting any
// previous run with the same ID.
func (s *Store) Save(id, system string, opts solver.Options, traj *solver.Trajectory) error {
	runDir := filepath.Join(s.baseDir, id)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return err
	}

	n := len(traj.Modes[0])
	meta := RunMetadata{
		ID:        id,
		System:    system,
		Timestamp: time.Now(),
		Method:    opts.Method,
		TMin:      opts.TMin,
		TMax:      opts.TMax,
		TDim:      opts.TDim,
		NumModes:  n,
		HasCorrs:  traj.Corrs != nil,
	}
	metaFile, err := os.Create(filepath.Join(runDir, "metadata.json"))
	if err != nil {
		return err
	}
	defer metaFile.Close()
	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}

	csvFile, err := os.Create(filepath.Join(runDir, "trajectory.csv"))
	if err != nil {
		return err
	}
	defer csvFile.Close()
	w := csv.NewWriter(csvFile)
	defer w.Flush()

	header := []string{"time"}
	for i := 0; i < n; i++ {
		header = append(header, fmt.Sprintf("re_a%d", i), fmt.Sprintf("im_a%d", i))
	}
	d := 2 * n
	if traj.Corrs != nil {
		for i := 0; i < d; i++ {
			for j := 0; j < d; j++ {
				header = append(header, fmt.Sprintf("c%d_%d", i, j))
			}
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for k := range traj.Times {
		row := make([]string, 0, len(header))
		row = append(row, ftoa(traj.Times[k]))
		for _, v := range traj.Modes[k] {
			row = append(row, ftoa(real(v)), ftoa(imag(v)))
		}
		if traj.Corrs != nil {
			data := traj.Corrs[k].RawMatrix().Data
			for _, v := range data {
				row = append(row, ftoa(v))
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a stored trajectory back; os.IsNotExist errors signal a
// cache miss.
func (s *Store) Load(id string) (*solver.Trajectory, *RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, id, "metadata.json"))
	if err != nil {
		return nil, nil, err
	}
	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.baseDir, id, "trajectory.csv"))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("storage: run %s has no snapshots", id)
	}

	n := meta.NumModes
	d := 2 * n
	traj := &solver.Trajectory{}
	if meta.HasCorrs {
		traj.Corrs = make([]*mat.Dense, 0, len(records)-1)
	}
	for _, rec := range records[1:] {
		vals := make([]float64, len(rec))
		for i, cell := range rec {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: run %s: %w", id, err)
			}
			vals[i] = v
		}
		traj.Times = append(traj.Times, vals[0])
		modes := make(quantum.Modes, n)
		for i := 0; i < n; i++ {
			modes[i] = complex(vals[1+2*i], vals[2+2*i])
		}
		traj.Modes = append(traj.Modes, modes)
		if meta.HasCorrs {
			c := mat.NewDense(d, d, nil)
			copy(c.RawMatrix().Data, vals[1+2*n:1+2*n+d*d])
			traj.Corrs = append(traj.Corrs, c)
		}
	}
	return traj, &meta, nil
}

// List returns metadata for every stored run.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}
	runs := make([]RunMetadata, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.baseDir, entry.Name(), "metadata.json"))
		if err != nil {
			continue
		}
		var meta RunMetadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}
		runs = append(runs, meta)
	}
	return runs, nil
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', 17, 64)
}
