package commands

import (
	"fmt"
	"io"
	"os"

	"git.home.luguber.info/inful/docpublisher/internal/runner"
)

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	DryRun bool `name:"dry-run" help:"Print the planned changes without modifying Confluence"`
}

func (p *PublishCmd) Run(g *Global, root *CLI) error {
	return execute(g, root, runner.CommandPublish, p.DryRun)
}

// CleanupCmd implements the 'cleanup' command.
type CleanupCmd struct {
	DryRun bool `name:"dry-run" help:"Print the pages that would be deleted"`
}

func (c *CleanupCmd) Run(g *Global, root *CLI) error {
	return execute(g, root, runner.CommandCleanup, c.DryRun)
}

func execute(g *Global, root *CLI, cmd runner.Command, dryRun bool) error {
	sess, err := openSession(g, root)
	if err != nil {
		return err
	}
	defer sess.Close()

	svc, err := sess.service()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	res, err := svc.Run(ctx, runner.Request{
		Config:    sess.cfg,
		ConfigDir: sess.configDir,
		Command:   cmd,
		DryRun:    dryRun,
	})
	if res != nil {
		writeResult(os.Stdout, res, dryRun)
	}
	return err
}

// writeResult prints the user-facing outcome of a run.
func writeResult(w io.Writer, res *runner.Result, dryRun bool) {
	if dryRun {
		_, _ = fmt.Fprintf(w, "Dry run: %d planned change(s)\n", len(res.Planned))
		for _, a := range res.Planned {
			switch {
			case a.ParentID != "":
				_, _ = fmt.Fprintf(w, "  %-7s %s (parent %s)\n", a.Op, a.Title, a.ParentID)
			case a.Title != "":
				_, _ = fmt.Fprintf(w, "  %-7s %s\n", a.Op, a.Title)
			default:
				_, _ = fmt.Fprintf(w, "  %-7s page %s\n", a.Op, a.ID)
			}
		}
		return
	}
	if res.Report == nil {
		return
	}
	for _, s := range res.Report.Skipped {
		_, _ = fmt.Fprintf(w, "Skipped %q (%s): %s\n", s.Title, s.Path, s.Reason)
	}
	_, _ = fmt.Fprintf(w, "%s %s: %s\n", res.Command, res.Status, res.Report.Summary())
}
