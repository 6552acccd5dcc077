package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/docpublisher/internal/eventstore"
	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int  `short:"n" help:"Number of runs to show" default:"20"`
	JSON  bool `name:"json" help:"Print runs as JSON"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	sess, err := openSession(g, root)
	if err != nil {
		return err
	}
	defer sess.Close()
	if sess.cfg.Journal.Path == "" {
		return errors.ConfigError("history requires journal.path to be configured").Build()
	}
	journal, err := sess.openJournal()
	if err != nil {
		return err
	}

	projection := eventstore.NewRunHistoryProjection(journal, h.Limit)
	if err := projection.Rebuild(context.Background()); err != nil {
		return err
	}
	runs := projection.History()
	if h.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	writeHistory(os.Stdout, runs)
	return nil
}

func writeHistory(w io.Writer, runs []eventstore.RunSummary) {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "No runs recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tCOMMAND\tSTATUS\tCREATED\tUPDATED\tUNCHANGED\tDELETED\tDURATION\tRUN")
	for _, r := range runs {
		command := r.Command
		if r.DryRun {
			command += " (dry)"
		}
		status := r.Status
		if r.ErrorCategory != "" {
			status += " (" + r.ErrorCategory + ")"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime), command, status,
			r.Created, r.Updated, r.Unchanged, r.Deleted,
			r.Duration.Round(time.Millisecond), r.RunID)
	}
	_ = tw.Flush()
}
