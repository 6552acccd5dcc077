package eventstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
)

func at(t *testing.T, e Event, err error, ts time.Time) Event {
	t.Helper()
	require.NoError(t, err)
	base := e.(*BaseEvent)
	base.EventTimestamp = ts
	return base
}

func TestProjection_CompletedRun(t *testing.T) {
	p := NewRunHistoryProjection(newMemoryStore(t), 10)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	e, err := NewRunStarted("r1", RunStartedMeta{Command: "publish", Repository: "github.com/acme/docs", Site: "Docs", Commit: "abc"})
	p.Apply(at(t, e, err, start))
	for _, op := range []string{"create", "create", "update", "keep"} {
		e, err = NewPageSynced("r1", PageChange{Operation: op, Title: "T", PageID: "1"})
		p.Apply(at(t, e, err, start))
	}
	e, err = NewPageDeleted("r1", PageChange{Operation: "delete", Title: "Old", PageID: "2"})
	p.Apply(at(t, e, err, start))

	active, ok := p.Run("r1")
	require.True(t, ok)
	require.Equal(t, StatusRunning, active.Status)
	_, ok = p.LastCompleted()
	require.False(t, ok)

	e, err = NewRunCompleted("r1", RunCounts{Created: 2, Updated: 1, Unchanged: 1, Deleted: 1, Skipped: 3})
	p.Apply(at(t, e, err, start.Add(5*time.Second)))

	run, ok := p.LastCompleted()
	require.True(t, ok)
	require.Equal(t, StatusCompleted, run.Status)
	require.Equal(t, "publish", run.Command)
	require.Equal(t, "abc", run.Commit)
	require.Equal(t, 2, run.Created)
	require.Equal(t, 1, run.Updated)
	require.Equal(t, 1, run.Unchanged)
	require.Equal(t, 1, run.Deleted)
	require.Equal(t, 3, run.Skipped)
	require.Equal(t, 5*time.Second, run.Duration)
}

func TestProjection_FailedRun(t *testing.T) {
	p := NewRunHistoryProjection(newMemoryStore(t), 10)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	e, err := NewRunStarted("r1", RunStartedMeta{Command: "cleanup"})
	p.Apply(at(t, e, err, start))
	cause := errors.ConflictError("page title belongs to a different repository").Build()
	e, err = NewRunFailed("r1", cause, time.Second)
	p.Apply(at(t, e, err, start.Add(time.Second)))

	run, ok := p.Run("r1")
	require.True(t, ok)
	require.Equal(t, StatusFailed, run.Status)
	require.Equal(t, string(errors.CategoryConflict), run.ErrorCategory)
	require.Contains(t, run.ErrorMessage, "different repository")
}

func TestProjection_HistoryIsNewestFirstAndBounded(t *testing.T) {
	p := NewRunHistoryProjection(newMemoryStore(t), 2)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"r1", "r2", "r3"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		e, err := NewRunStarted(id, RunStartedMeta{Command: "publish"})
		p.Apply(at(t, e, err, ts))
		e, err = NewRunCompleted(id, RunCounts{})
		p.Apply(at(t, e, err, ts.Add(time.Second)))
	}

	history := p.History()
	require.Len(t, history, 2)
	require.Equal(t, "r3", history[0].RunID)
	require.Equal(t, "r2", history[1].RunID)
	_, ok := p.Run("r1")
	require.False(t, ok)
}

func TestProjection_RebuildFromJournal(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()

	e, err := NewRunStarted("r1", RunStartedMeta{Command: "publish", Site: "Docs"})
	require.NoError(t, err)
	require.NoError(t, Record(ctx, store, e))
	e, err = NewPageSynced("r1", PageChange{Operation: "create", Title: "Docs", PageID: "1"})
	require.NoError(t, err)
	require.NoError(t, Record(ctx, store, e))
	e, err = NewRunCompleted("r1", RunCounts{Created: 1})
	require.NoError(t, err)
	require.NoError(t, Record(ctx, store, e))

	p := NewRunHistoryProjection(store, 0)
	require.NoError(t, p.Rebuild(ctx))
	history := p.History()
	require.Len(t, history, 1)
	require.Equal(t, "Docs", history[0].Site)
	require.Equal(t, 1, history[0].Created)
	require.Equal(t, StatusCompleted, history[0].Status)
}
