package decay

import (
	"context"
	"sync"
	"time"

	"github.com/synton-db/syntondb/internal/graph"
)

// Config carries the Memory Manager's tuning knobs (spec §4.4).
type Config struct {
	Model              Model
	ScaleDays          float64 // Exponential S
	Alpha              float64 // PowerLaw alpha
	LinearHorizonDays  float64 // Linear T
	Boost              float64 // Touch boost, default 0.5
	RetentionThreshold float64 // default 0.1, compared against score/10
}

// DefaultConfig mirrors spec §4.4's defaults.
func DefaultConfig() Config {
	return Config{
		Model:              Exponential,
		ScaleDays:          20,
		Alpha:              0.5,
		LinearHorizonDays:  60,
		Boost:              0.5,
		RetentionThreshold: 0.1,
	}
}

func (c Config) calculator() Calculator {
	switch c.Model {
	case PowerLaw:
		return NewPowerLawCalculator(c.Alpha)
	case Linear:
		return NewLinearCalculator(c.LinearHorizonDays)
	default:
		return NewExponentialCalculator(c.ScaleDays)
	}
}

// Manager implements the three Memory Manager operations (touch, decay,
// retain?) over a Tensor-Graph store. Decay is computed lazily on read
// by default (ScoreAt); Sweep performs the periodic, interruptible
// rewrite variant spec §4.4 also requires.
//
// Decay parameters are the one piece of engine configuration that may
// change after construction (hot-updated through the metadata column
// family); mu guards cfg/calc against a concurrent SetConfig.
type Manager struct {
	store *graph.Store
	mu    sync.RWMutex
	cfg   Config
	calc  Calculator
	now   func() time.Time
}

// Option customizes a Manager at construction.
type Option func(*Manager)

// WithClock overrides the wall clock, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager builds a Memory Manager over store with cfg's tuning.
func NewManager(store *graph.Store, cfg Config, opts ...Option) *Manager {
	m := &Manager{store: store, cfg: cfg, calc: cfg.calculator(), now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetConfig swaps the manager's decay tuning at runtime. In-flight
// reads finish against the old curve; everything after sees the new one.
func (m *Manager) SetConfig(cfg Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = cfg
	m.calc = cfg.calculator()
}

// Config returns the manager's current tuning.
func (m *Manager) Config() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Touch records that a node was surfaced by retrieval: access_score is
// incremented by Boost (clamped to [0, 10]) and accessed_at set to now
// (spec §4.4 step 1).
func (m *Manager) Touch(ctx context.Context, id graph.ID) error {
	m.mu.RLock()
	boost := m.cfg.Boost
	m.mu.RUnlock()
	return m.store.Touch(ctx, id, boost)
}

// ScoreAt computes n's decayed access_score as of `at`, without
// mutating the stored node — the preferred "lazy on read" path (spec
// §4.4). Elapsed time is measured from AccessedAt if the node has ever
// been touched, otherwise from CreatedAt.
func (m *Manager) ScoreAt(n *graph.Node, at time.Time) float64 {
	m.mu.RLock()
	calc := m.calc
	m.mu.RUnlock()
	last := n.Meta.CreatedAt
	if n.Meta.AccessedAt != nil {
		last = *n.Meta.AccessedAt
	}
	elapsedDays := at.Sub(last).Hours() / 24
	return graph.ClampAccessScore(calc.Decay(n.Meta.AccessScore, elapsedDays))
}

// Score is ScoreAt evaluated at the manager's current clock time.
func (m *Manager) Score(n *graph.Node) float64 {
	return m.ScoreAt(n, m.now())
}

// Retain reports whether a decayed score still clears the retention bar:
// score' >= retention_threshold * 10 (spec §4.4 step 3).
func (m *Manager) Retain(score float64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return score >= m.cfg.RetentionThreshold*10
}

// SweepResult summarizes one Sweep invocation.
type SweepResult struct {
	Scanned            int
	Rewritten          int
	EvictionCandidates []graph.ID
}

// Sweep enumerates every node, recomputes its decayed score as of now,
// and rewrites stale access_score/accessed_at fields. Advancing
// accessed_at alongside the score is what keeps Sweep idempotent: the
// stored score is always "the score as of accessed_at", so a lazy read
// or a second sweep picks up decaying from now rather than re-applying
// the elapsed interval to an already-decayed value. Nodes whose decayed
// score fails Retain are reported as eviction candidates; spec §4.4 is
// explicit that sweep never deletes — eviction is a separate,
// operator-invoked step.
//
// Sweep is interruptible: ctx cancellation is checked between nodes (via
// graph.Store.ScanNodes) so a long sweep never blocks readers beyond the
// single-node critical section currently being rewritten.
func (m *Manager) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	now := m.now()

	err := m.store.ScanNodes(ctx, func(n *graph.Node) error {
		result.Scanned++
		decayed := m.ScoreAt(n, now)
		if decayed != n.Meta.AccessScore {
			n.Meta.AccessScore = decayed
			n.Meta.AccessedAt = &now
			if err := m.store.PutNodeRaw(n); err != nil {
				return err
			}
			result.Rewritten++
		}
		if !m.Retain(decayed) {
			result.EvictionCandidates = append(result.EvictionCandidates, n.ID)
		}
		return nil
	})
	if err != nil {
		return result, err
	}
	return result, nil
}
