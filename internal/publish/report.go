package publish

import (
	"fmt"
	"sync"

	"git.home.luguber.info/inful/docpublisher/internal/pagetree"
)

// Operation is what a run did to one remote page.
type Operation string

const (
	OpCreate Operation = "create"
	OpUpdate Operation = "update"
	OpKeep   Operation = "keep"
	OpDelete Operation = "delete"
)

// PageResult records the outcome for one page.
type PageResult struct {
	Operation Operation
	Title     string
	Path      string
	ID        string
	ParentID  string
}

// Report summarises a publish or cleanup run.
type Report struct {
	RootID  string
	Results []PageResult
	Skipped []pagetree.Skipped
	// NothingToClean is set by Cleanup when no published root exists.
	NothingToClean bool

	mu sync.Mutex
}

func (r *Report) add(res PageResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Results = append(r.Results, res)
}

// Count returns the number of results with the given operation.
func (r *Report) Count(op Operation) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, res := range r.Results {
		if res.Operation == op {
			n++
		}
	}
	return n
}

// Published is the number of pages present remotely after a publish run.
func (r *Report) Published() int {
	return r.Count(OpCreate) + r.Count(OpUpdate) + r.Count(OpKeep)
}

// Summary renders a one-line human readable summary.
func (r *Report) Summary() string {
	if r.NothingToClean {
		return "nothing to clean"
	}
	return fmt.Sprintf("%d created, %d updated, %d unchanged, %d deleted, %d skipped",
		r.Count(OpCreate), r.Count(OpUpdate), r.Count(OpKeep), r.Count(OpDelete), len(r.Skipped))
}
