// Package async provides background processing infrastructure for
// SYNTON-DB's periodic memory-decay sweep (spec §4.4's "a periodic sweep
// job may run... interruptible; can be cancelled mid-scan").
package async

import (
	"sync"
	"time"
)

// SweepStatus represents the overall state of the background sweeper.
type SweepStatus string

const (
	// StatusIdle indicates no sweep is currently running.
	StatusIdle SweepStatus = "idle"
	// StatusSweeping indicates a decay sweep is in progress.
	StatusSweeping SweepStatus = "sweeping"
	// StatusError indicates the last sweep failed with an error.
	StatusError SweepStatus = "error"
)

// SweepProgressSnapshot is an immutable snapshot of sweep progress.
type SweepProgressSnapshot struct {
	Status             string   `json:"status"`
	NodesScanned       int      `json:"nodes_scanned"`
	NodesRewritten     int      `json:"nodes_rewritten"`
	EvictionCandidates int      `json:"eviction_candidates"`
	ElapsedSeconds     int      `json:"elapsed_seconds"`
	LastRunAt          string   `json:"last_run_at,omitempty"`
	ErrorMessage       string   `json:"error_message,omitempty"`
}

// SweepProgress provides thread-safe tracking of one sweep's progress.
type SweepProgress struct {
	mu sync.RWMutex

	status             SweepStatus
	nodesScanned       int
	nodesRewritten     int
	evictionCandidates int
	startTime          time.Time
	lastRunAt          time.Time
	errorMessage       string
}

// NewSweepProgress creates a new progress tracker initialized to idle.
func NewSweepProgress() *SweepProgress {
	return &SweepProgress{status: StatusIdle}
}

// Begin marks the tracker as actively sweeping and resets its counters.
func (p *SweepProgress) Begin() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusSweeping
	p.startTime = time.Now()
	p.nodesScanned = 0
	p.nodesRewritten = 0
	p.evictionCandidates = 0
	p.errorMessage = ""
}

// UpdateScanned records incremental progress as Sweep walks the node
// scan (spec §4.4's interruptible sweep reports scanned/rewritten counts
// as it goes, not only at completion).
func (p *SweepProgress) UpdateScanned(scanned, rewritten, evictionCandidates int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nodesScanned = scanned
	p.nodesRewritten = rewritten
	p.evictionCandidates = evictionCandidates
}

// SetError marks the sweep as failed with an error message.
func (p *SweepProgress) SetError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusError
	p.errorMessage = message
	p.lastRunAt = time.Now()
}

// SetDone marks the sweep as complete and idle again.
func (p *SweepProgress) SetDone() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status = StatusIdle
	p.lastRunAt = time.Now()
}

// IsSweeping returns true if a sweep is currently in progress.
func (p *SweepProgress) IsSweeping() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.status == StatusSweeping
}

// Snapshot returns an immutable copy of the current progress state.
func (p *SweepProgress) Snapshot() SweepProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snap := SweepProgressSnapshot{
		Status:             string(p.status),
		NodesScanned:       p.nodesScanned,
		NodesRewritten:     p.nodesRewritten,
		EvictionCandidates: p.evictionCandidates,
		ErrorMessage:       p.errorMessage,
	}
	if p.status == StatusSweeping {
		snap.ElapsedSeconds = int(time.Since(p.startTime).Seconds())
	}
	if !p.lastRunAt.IsZero() {
		snap.LastRunAt = p.lastRunAt.Format(time.RFC3339)
	}
	return snap
}
