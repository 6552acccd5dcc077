package commands

import (
	"bytes"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpublisher/internal/eventstore"
	"git.home.luguber.info/inful/docpublisher/internal/nav"
	"git.home.luguber.info/inful/docpublisher/internal/pagetree"
	"git.home.luguber.info/inful/docpublisher/internal/publish"
	"git.home.luguber.info/inful/docpublisher/internal/remote"
	"git.home.luguber.info/inful/docpublisher/internal/runner"
)

func parse(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Vars{"version": "test"},
		kong.Bind(&Global{}),
		kong.Exit(func(int) { t.Fatal("unexpected exit") }),
	)
	require.NoError(t, err)
	ctx, err := parser.Parse(args)
	require.NoError(t, err)
	return &cli, ctx
}

func TestCLI_Parse(t *testing.T) {
	cli, ctx := parse(t, "-c", "site/docpublisher.yaml", "publish", "--dry-run")
	require.Equal(t, "publish", ctx.Command())
	require.True(t, cli.Publish.DryRun)
	require.True(t, filepath.IsAbs(cli.Config))

	cli, ctx = parse(t, "history", "-n", "5", "--json")
	require.Equal(t, "history", ctx.Command())
	require.Equal(t, 5, cli.History.Limit)
	require.True(t, cli.History.JSON)

	cli, _ = parse(t, "cleanup")
	require.Equal(t, "docpublisher.yaml", filepath.Base(cli.Config))
}

func TestWriteTree(t *testing.T) {
	files := fstest.MapFS{
		"index.md":         {Data: []byte("home")},
		"guides/README.md": {Data: []byte("g")},
		"guides/intro.md":  {Data: []byte("i")},
		"a.md":             {Data: []byte("a")},
		"x/b.md":           {Data: []byte("b")},
		"y/c.md":           {Data: []byte("c")},
	}
	entries, err := nav.ParseBytes([]byte(`
- Home: index.md
- A: a.md
- Guides:
    - Intro: guides/intro.md
- Misc:
    - B: x/b.md
    - C: y/c.md
- Gone: gone.md
`))
	require.NoError(t, err)
	tree, err := pagetree.Build(entries, files, pagetree.Options{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)

	var buf bytes.Buffer
	writeTree(&buf, &runner.Site{Name: "Handbook", Tree: tree}, "[HB]")
	require.Equal(t, `[HB] Handbook  [index.md]
  [HB] A  [a.md]
  [HB] Guides  [guides/README.md, inferred]
    [HB] Intro  [guides/intro.md]
  (Misc: no page)
  [HB] B  [x/b.md]
  [HB] C  [y/c.md]
Skipped:
  Gone  [gone.md, missing_file]
`, buf.String())
}

func TestWriteResult(t *testing.T) {
	var buf bytes.Buffer
	writeResult(&buf, &runner.Result{Planned: []remote.PlannedAction{
		{Op: remote.OpCreate, Title: "Handbook"},
		{Op: remote.OpCreate, Title: "Intro", ParentID: "planned-1"},
		{Op: remote.OpDelete, ID: "42"},
	}}, true)
	out := buf.String()
	require.Contains(t, out, "Dry run: 3 planned change(s)")
	require.Contains(t, out, "Intro (parent planned-1)")
	require.Contains(t, out, "page 42")

	buf.Reset()
	report := &publish.Report{Skipped: []pagetree.Skipped{{Title: "Gone", Path: "gone.md", Reason: pagetree.SkipMissingFile}}}
	writeResult(&buf, &runner.Result{Command: runner.CommandPublish, Status: runner.StatusSuccess, Report: report}, false)
	require.Equal(t, "Skipped \"Gone\" (gone.md): missing_file\npublish success: 0 created, 0 updated, 0 unchanged, 0 deleted, 1 skipped\n", buf.String())
}

func TestWriteHistory(t *testing.T) {
	var buf bytes.Buffer
	writeHistory(&buf, nil)
	require.Equal(t, "No runs recorded.\n", buf.String())

	buf.Reset()
	writeHistory(&buf, []eventstore.RunSummary{{
		RunID:         "r1",
		Command:       "publish",
		Status:        eventstore.StatusFailed,
		ErrorCategory: "conflict",
		StartedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Created:       2,
		Duration:      1500 * time.Millisecond,
	}})
	out := buf.String()
	require.Contains(t, out, "STARTED")
	require.Contains(t, out, "failed (conflict)")
	require.Contains(t, out, "1.5s")
	require.Contains(t, out, "r1")
}
