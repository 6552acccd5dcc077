package eventstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
)

func newMemoryStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_AppendAndGetByRunID(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()

	require.NoError(t, store.Append(ctx, "run-1", "Custom", []byte(`{"a":1}`), map[string]string{"k": "v"}))
	require.NoError(t, store.Append(ctx, "run-2", "Custom", nil, nil))
	require.NoError(t, store.Append(ctx, "run-1", "Other", nil, nil))

	events, err := store.GetByRunID(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "Custom", events[0].Type())
	require.JSONEq(t, `{"a":1}`, string(events[0].Payload()))
	require.Equal(t, "v", events[0].Metadata()["k"])
	require.Equal(t, "Other", events[1].Type())
	require.JSONEq(t, `{}`, string(events[1].Payload()))
	require.Less(t, events[0].ID(), events[1].ID())
}

func TestSQLiteStore_GetRange(t *testing.T) {
	store := newMemoryStore(t)
	ctx := t.Context()
	require.NoError(t, store.Append(ctx, "run-1", "Custom", nil, nil))

	events, err := store.GetRange(ctx, time.Now().Add(-time.Minute), time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, events, 1)

	events, err = store.GetRange(ctx, time.Now().Add(time.Hour), time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestSQLiteStore_PersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "journal.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Append(t.Context(), "run-1", TypeRunStarted, nil, nil))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	events, err := reopened.GetByRunID(t.Context(), "run-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestSQLiteStore_ClosedStoreFails(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Append(t.Context(), "run-1", "Custom", nil, nil)
	require.ErrorIs(t, err, ErrEventAppendFailed)
	require.True(t, errors.HasCategory(err, errors.CategoryEventStore))
}

func TestRecord(t *testing.T) {
	store := newMemoryStore(t)
	e, err := NewPageSynced("run-1", PageChange{Operation: "create", Title: "Intro", PageID: "7"})
	require.NoError(t, err)
	require.NoError(t, Record(t.Context(), store, e))

	events, err := store.GetByRunID(t.Context(), "run-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, TypePageSynced, events[0].Type())
	require.JSONEq(t, `{"operation":"create","title":"Intro","page_id":"7"}`, string(events[0].Payload()))
}

func TestDecode(t *testing.T) {
	e, err := NewPageSynced("run-1", PageChange{Operation: "update", Title: "Intro", PageID: "7"})
	require.NoError(t, err)
	change, err := Decode[PageChange](e)
	require.NoError(t, err)
	require.Equal(t, "Intro", change.Title)
	require.Equal(t, "7", change.PageID)

	_, err = Decode[PageChange](&BaseEvent{EventPayload: []byte("not json")})
	require.ErrorIs(t, err, ErrEventQueryFailed)

	empty, err := Decode[RunCounts](&BaseEvent{})
	require.NoError(t, err)
	require.Zero(t, empty.Created)
}
