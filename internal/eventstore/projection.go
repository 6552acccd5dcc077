// Package eventstore journals publish and cleanup runs in SQLite and
// projects them into a run history.
package eventstore

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Run status values.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunSummary is the read model of a single run.
type RunSummary struct {
	RunID         string        `json:"run_id"`
	Command       string        `json:"command"`
	Repository    string        `json:"repository"`
	Site          string        `json:"site"`
	Commit        string        `json:"commit,omitempty"`
	DryRun        bool          `json:"dry_run,omitempty"`
	Status        string        `json:"status"`
	StartedAt     time.Time     `json:"started_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	Duration      time.Duration `json:"duration,omitempty"`
	Created       int           `json:"created"`
	Updated       int           `json:"updated"`
	Unchanged     int           `json:"unchanged"`
	Deleted       int           `json:"deleted"`
	Skipped       int           `json:"skipped"`
	ErrorCategory string        `json:"error_category,omitempty"`
	ErrorMessage  string        `json:"error_message,omitempty"`
}

// RunHistoryProjection keeps a bounded, newest-first view of runs rebuilt
// from the journal.
type RunHistoryProjection struct {
	mu      sync.RWMutex
	store   Store
	runs    map[string]*RunSummary
	history []*RunSummary
	maxSize int
}

// NewRunHistoryProjection creates a projection over store. maxSize <= 0
// keeps 100 runs.
func NewRunHistoryProjection(store Store, maxSize int) *RunHistoryProjection {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &RunHistoryProjection{
		store:   store,
		runs:    make(map[string]*RunSummary),
		maxSize: maxSize,
	}
}

// Rebuild replays every journaled event.
func (p *RunHistoryProjection) Rebuild(ctx context.Context) error {
	events, err := p.store.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.runs = make(map[string]*RunSummary)
	p.history = nil
	for _, e := range events {
		p.applyLocked(e)
	}
	p.trimLocked()
	return nil
}

// Apply folds a single event into the projection.
func (p *RunHistoryProjection) Apply(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.applyLocked(e)
	p.trimLocked()
}

func (p *RunHistoryProjection) applyLocked(e Event) {
	runID := e.RunID()
	if runID == "" {
		return
	}
	summary, ok := p.runs[runID]
	if !ok {
		summary = &RunSummary{RunID: runID, Status: StatusRunning, StartedAt: e.Timestamp()}
		p.runs[runID] = summary
		p.history = append(p.history, summary)
	}

	switch e.Type() {
	case TypeRunStarted:
		if meta, err := Decode[RunStartedMeta](e); err == nil {
			summary.Command = meta.Command
			summary.Repository = meta.Repository
			summary.Site = meta.Site
			summary.Commit = meta.Commit
			summary.DryRun = meta.DryRun
		}
		summary.StartedAt = e.Timestamp()

	case TypePageSynced:
		if change, err := Decode[PageChange](e); err == nil {
			switch change.Operation {
			case "create":
				summary.Created++
			case "update":
				summary.Updated++
			case "keep":
				summary.Unchanged++
			}
		}

	case TypePageDeleted:
		summary.Deleted++

	case TypeRunCompleted:
		p.finishLocked(summary, e.Timestamp(), StatusCompleted)
		if counts, err := Decode[RunCounts](e); err == nil {
			summary.Skipped = counts.Skipped
		}

	case TypeRunFailed:
		p.finishLocked(summary, e.Timestamp(), StatusFailed)
		if failure, err := Decode[RunFailure](e); err == nil {
			summary.ErrorCategory = failure.Category
			summary.ErrorMessage = failure.Error
		}
	}
}

func (p *RunHistoryProjection) finishLocked(summary *RunSummary, at time.Time, status string) {
	summary.CompletedAt = &at
	summary.Duration = at.Sub(summary.StartedAt)
	summary.Status = status
}

// trimLocked orders history newest first and drops finished runs beyond
// the size bound. Running runs are never dropped.
func (p *RunHistoryProjection) trimLocked() {
	sort.SliceStable(p.history, func(i, j int) bool {
		return p.history[i].StartedAt.After(p.history[j].StartedAt)
	})
	if len(p.history) <= p.maxSize {
		return
	}
	kept := p.history[:0]
	for i, s := range p.history {
		if i < p.maxSize || s.Status == StatusRunning {
			kept = append(kept, s)
			continue
		}
		delete(p.runs, s.RunID)
	}
	p.history = kept
}

// History returns copies of the known runs, newest first.
func (p *RunHistoryProjection) History() []RunSummary {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]RunSummary, len(p.history))
	for i, s := range p.history {
		out[i] = *s
	}
	return out
}

// Run returns the summary of one run.
func (p *RunHistoryProjection) Run(runID string) (RunSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s, ok := p.runs[runID]
	if !ok {
		return RunSummary{}, false
	}
	return *s, true
}

// LastCompleted returns the newest run that finished, successfully or not.
func (p *RunHistoryProjection) LastCompleted() (RunSummary, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, s := range p.history {
		if s.Status != StatusRunning {
			return *s, true
		}
	}
	return RunSummary{}, false
}
