// Package layout arranges the graph with a force-directed simulation whose
// global time step adapts to keep the integration stable while the graph
// keeps growing underneath it.
package layout

import (
	"context"
	"log/slog"
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SimonMacLean/Website-Display/internal/graph"
	"gonum.org/v1/gonum/spatial/r2"
)

// Config holds the simulation constants.
type Config struct {
	Dt       float64 // initial step
	MaxDt    float64 // initial step ceiling
	Cutoff   float64 // repulsion range for unconnected pairs
	Drag     float64 // quadratic damping coefficient ρ
	Spring   float64 // spring constant k
	Friction float64 // linear velocity decay per unit time
	Workers  int     // parallelism of the force phase; <= 0 uses GOMAXPROCS
	Jitter   float64 // radial noise amplitude for Seed; 0 disables
}

// DefaultConfig returns the stock simulation constants.
func DefaultConfig() Config {
	return Config{
		Dt:       0.1,
		MaxDt:    0.3,
		Cutoff:   100,
		Drag:     0.2,
		Spring:   1,
		Friction: 0.25,
	}
}

// Engine runs layout ticks over a graph store.
type Engine struct {
	cfg    Config
	logger *slog.Logger
	jitter Jitter

	mu    sync.Mutex
	dt    float64
	maxDt float64

	paused atomic.Bool
	busy   atomic.Bool
	ticks  atomic.Uint64
}

// New creates an engine. A nil logger uses slog.Default().
func New(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	e := &Engine{
		cfg:    cfg,
		logger: logger,
		dt:     cfg.Dt,
		maxDt:  cfg.MaxDt,
	}
	if cfg.Jitter > 0 {
		e.jitter = NoiseJitter(time.Now().UnixNano(), cfg.Jitter)
	}
	return e
}

// Dt returns the current global step.
func (e *Engine) Dt() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dt
}

// MaxDt returns the current step ceiling.
func (e *Engine) MaxDt() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.maxDt
}

// Ticks returns the number of completed ticks.
func (e *Engine) Ticks() uint64 { return e.ticks.Load() }

// Pause makes Tick a no-op until Resume.
func (e *Engine) Pause() { e.paused.Store(true) }

// Resume lets ticks run again.
func (e *Engine) Resume() { e.paused.Store(false) }

// Paused reports whether ticks are currently skipped.
func (e *Engine) Paused() bool { return e.paused.Load() }

// TogglePause flips the paused state and returns the new value.
func (e *Engine) TogglePause() bool {
	for {
		old := e.paused.Load()
		if e.paused.CompareAndSwap(old, !old) {
			return !old
		}
	}
}

// Tick runs one step over the store unless the engine is paused or a
// previous tick is still in flight, in which case the tick is dropped.
// It reports whether a step ran.
func (e *Engine) Tick(s *graph.Store) bool {
	if e.paused.Load() || !e.busy.CompareAndSwap(false, true) {
		return false
	}
	defer e.busy.Store(false)
	s.Do(func(tx *graph.Tx) { e.Step(tx) })
	return true
}

// Run ticks the store every interval until ctx is done.
func (e *Engine) Run(ctx context.Context, s *graph.Store, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	e.logger.Info("layout started", "interval", interval, "workers", e.cfg.Workers)
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("layout stopped", "ticks", e.ticks.Load(), "dt", e.Dt(), "max_dt", e.MaxDt())
			return ctx.Err()
		case <-t.C:
			e.Tick(s)
		}
	}
}

// Step advances the simulation by one tick. It must be called inside the
// store's exclusive section. Forces for every node are computed before any
// node moves. Step reports whether any node tripped a stability guard.
func (e *Engine) Step(tx *graph.Tx) bool {
	nodes := tx.Nodes()
	if len(nodes) == 0 {
		return false
	}
	e.computeForces(nodes)

	e.mu.Lock()
	defer e.mu.Unlock()
	unstable := false
	for _, n := range nodes {
		if e.integrate(n) {
			unstable = true
		}
	}
	if unstable {
		e.maxDt *= 0.99
		e.logger.Debug("layout unstable", "dt", e.dt, "max_dt", e.maxDt, "nodes", len(nodes))
	} else {
		e.dt = math.Min(e.dt*1.01, e.maxDt)
	}
	e.ticks.Add(1)
	return unstable
}

// integrate moves n by one step. Both guards shrink the shared step, so a
// single runaway node slows the whole simulation down. Callers hold e.mu.
func (e *Engine) integrate(n *graph.Node) bool {
	n.Vel = r2.Scale(1-e.dt*e.cfg.Friction, n.Vel)
	unstable := false
	if peak(n.Acc) > 1000/e.dt {
		e.dt *= 0.9
		n.Acc = r2.Vec{}
		unstable = true
	}
	n.Vel = r2.Add(n.Vel, r2.Scale(e.dt, n.Acc))
	if !unstable && peak(n.Acc) > 5/e.dt {
		e.dt *= 0.9
		n.Vel = r2.Scale(0.1, n.Vel)
		unstable = true
	}
	n.Pos = r2.Add(n.Pos, r2.Scale(e.dt, n.Vel))
	return unstable
}

// Seed lays the component containing root out radially around the origin.
// Depths are recomputed from root first.
func (e *Engine) Seed(tx *graph.Tx, root *graph.Node) {
	if !tx.Contains(root) {
		return
	}
	tx.ResetDepths()
	root.AssignDepth(0)
	tx.ResetVisited()
	mult := math.Max(1, math.Log(float64(tx.Len())))
	Place(root, 0, 2*math.Pi, mult, e.jitter)
	tx.ResetVisited()
	e.logger.Debug("layout seeded", "root", root.ID(), "nodes", tx.Len(), "multiplier", mult)
}

func peak(v r2.Vec) float64 {
	return math.Max(math.Abs(v.X), math.Abs(v.Y))
}
