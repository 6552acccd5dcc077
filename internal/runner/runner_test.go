package runner

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpublisher/internal/config"
	"git.home.luguber.info/inful/docpublisher/internal/eventstore"
	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublisher/internal/git"
	"git.home.luguber.info/inful/docpublisher/internal/metrics"
	"git.home.luguber.info/inful/docpublisher/internal/notify"
	"git.home.luguber.info/inful/docpublisher/internal/remote"
	"git.home.luguber.info/inful/docpublisher/internal/testutil/testutils"
)

const testRepo = "github.com/acme/handbook"

var quietLogger = testutils.QuietLogger

// writeSite lays out an mkdocs project and returns its directory.
func writeSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"mkdocs.yml": `site_name: Handbook
nav:
  - Home: index.md
  - Guides:
      - Intro: guides/intro.md
  - Gone: gone.md
`,
		"docs/index.md":         "Welcome\n",
		"docs/guides/README.md": "Guides\n",
		"docs/guides/intro.md":  "Intro\n",
	})
	return dir
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte("source:\n  dir: .\n"))
	require.NoError(t, err)
	return cfg
}

func fakeInspector(info git.Info, err error) Inspector {
	return func(string) (git.Info, error) { return info, err }
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.RunEvent
}

func (n *recordingNotifier) Notify(_ context.Context, ev notify.RunEvent) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
	return nil
}

type harness struct {
	svc      *DefaultService
	store    *remote.MemoryStore
	journal  *eventstore.SQLiteStore
	notifier *recordingNotifier
	dir      string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	journal, err := eventstore.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = journal.Close() })

	h := &harness{
		store:    remote.NewMemoryStore(),
		journal:  journal,
		notifier: &recordingNotifier{},
		dir:      writeSite(t),
	}
	h.svc = NewService(quietLogger()).
		WithStoreFactory(func(*config.Config, *slog.Logger) (remote.Store, error) { return h.store, nil }).
		WithInspector(fakeInspector(git.Info{Repository: testRepo, Commit: "abc123"}, nil)).
		WithMetrics(metrics.NewPrometheusRecorder(nil)).
		WithJournal(journal).
		WithNotifier(h.notifier)
	return h
}

func (h *harness) run(t *testing.T, cfg *config.Config, cmd Command, dryRun bool) (*Result, error) {
	t.Helper()
	return h.svc.Run(t.Context(), Request{Config: cfg, ConfigDir: h.dir, Command: cmd, DryRun: dryRun})
}

func TestRun_PublishThenCleanup(t *testing.T) {
	h := newHarness(t)
	cfg := testConfig(t)
	cfg.Metrics.Textfile = filepath.Join(t.TempDir(), "docpublisher.prom")

	res, err := h.run(t, cfg, CommandPublish, false)
	require.NoError(t, err)
	require.Equal(t, StatusSuccess, res.Status)
	require.Equal(t, testRepo, res.Site.Repository)
	require.Equal(t, "abc123", res.Site.Commit)
	require.Equal(t, 3, h.store.Len(), "home, Guides and Intro")
	require.Len(t, res.Report.Skipped, 1)

	home, ok := h.store.ByTitle("Handbook")
	require.True(t, ok)
	require.Contains(t, h.store.Content(home.ID), "Welcome")

	prom, err := os.ReadFile(cfg.Metrics.Textfile)
	require.NoError(t, err)
	require.Contains(t, string(prom), `docpublisher_published_pages 3`)
	require.Contains(t, string(prom), `docpublisher_run_outcomes_total{command="publish",outcome="success"} 1`)

	res, err = h.run(t, cfg, CommandCleanup, false)
	require.NoError(t, err)
	require.Zero(t, h.store.Len())
	require.Nil(t, res.Site.Tree, "cleanup works from the site identity alone")

	history := eventstore.NewRunHistoryProjection(h.journal, 10)
	require.NoError(t, history.Rebuild(t.Context()))
	first, ok := history.Run(h.notifier.events[0].RunID)
	require.True(t, ok)
	require.Equal(t, eventstore.StatusCompleted, first.Status)
	require.Equal(t, "publish", first.Command)
	require.Equal(t, 3, first.Created)
	require.Equal(t, 1, first.Skipped)
	second, ok := history.Run(res.RunID)
	require.True(t, ok)
	require.Equal(t, "cleanup", second.Command)
	require.Equal(t, 2, second.Deleted, "Guides, then the home page")

	require.Len(t, h.notifier.events, 2)
	require.Equal(t, "success", h.notifier.events[1].Status)
	require.Equal(t, "Handbook", h.notifier.events[1].Site)
}

func TestRun_DryRunDoesNotMutate(t *testing.T) {
	h := newHarness(t)
	res, err := h.run(t, testConfig(t), CommandPublish, true)
	require.NoError(t, err)
	require.Zero(t, h.store.Len())
	require.Len(t, res.Planned, 3)
	require.Empty(t, h.notifier.events)
}

func TestRun_ConflictIsJournaledAsFailure(t *testing.T) {
	h := newHarness(t)
	h.store.Seed(remote.Page{Title: "Handbook", Source: remote.SourceMeta{Repo: "github.com/other/site"}}, "")

	res, err := h.run(t, testConfig(t), CommandPublish, false)
	require.True(t, errors.HasCategory(err, errors.CategoryConflict))
	require.Equal(t, StatusFailed, res.Status)

	history := eventstore.NewRunHistoryProjection(h.journal, 10)
	require.NoError(t, history.Rebuild(t.Context()))
	run, ok := history.Run(res.RunID)
	require.True(t, ok)
	require.Equal(t, eventstore.StatusFailed, run.Status)
	require.Equal(t, string(errors.CategoryConflict), run.ErrorCategory)

	require.Len(t, h.notifier.events, 1)
	require.Equal(t, "failed", h.notifier.events[0].Status)
	require.NotEmpty(t, h.notifier.events[0].Error)
}

func TestRun_CanceledContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	res, err := h.svc.Run(ctx, Request{Config: testConfig(t), ConfigDir: h.dir, Command: CommandPublish})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StatusCanceled, res.Status)
}

func TestRun_LoadFailureIsJournaled(t *testing.T) {
	h := newHarness(t)
	cfg := testConfig(t)
	cfg.Source.MkDocsFile = "missing.yml"

	res, err := h.run(t, cfg, CommandPublish, false)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
	require.Nil(t, res.Site)

	events, err := h.journal.GetByRunID(t.Context(), res.RunID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, eventstore.TypeRunStarted, events[0].Type())
	require.Equal(t, eventstore.TypeRunFailed, events[1].Type())
}

func TestRun_RejectsUnknownCommand(t *testing.T) {
	h := newHarness(t)
	_, err := h.run(t, testConfig(t), Command("sync"), false)
	require.True(t, errors.HasCategory(err, errors.CategoryValidation))
}

func TestConfluenceStore_ValidatesConfig(t *testing.T) {
	_, err := ConfluenceStore(testConfig(t), quietLogger())
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}
