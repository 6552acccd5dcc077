package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"git.home.luguber.info/inful/docpublisher/internal/pagetree"
	"git.home.luguber.info/inful/docpublisher/internal/runner"
)

// TreeCmd implements the 'tree' command.
type TreeCmd struct{}

func (t *TreeCmd) Run(g *Global, root *CLI) error {
	sess, err := openSession(g, root)
	if err != nil {
		return err
	}
	site, err := runner.LoadSite(sess.cfg, sess.configDir, nil, sess.logger)
	if err != nil {
		return err
	}
	writeTree(os.Stdout, site, sess.cfg.Confluence.TitlePrefix)
	return nil
}

// writeTree prints the remote titles the site would publish, nested the way
// the pages will be, followed by the skipped navigation entries.
func writeTree(w io.Writer, site *runner.Site, prefix string) {
	tree := site.Tree
	home := "(children list)"
	if tree.Home != nil {
		home = tree.Home.Path
	}
	_, _ = fmt.Fprintf(w, "%s  [%s]\n", pagetree.RemoteTitle(prefix, site.Name), home)
	writeLevel(w, tree, prefix, pagetree.RootSection, 1)

	if len(tree.Skipped) > 0 {
		_, _ = fmt.Fprintln(w, "Skipped:")
		for _, s := range tree.Skipped {
			_, _ = fmt.Fprintf(w, "  %s  [%s, %s]\n", s.Title, s.Path, s.Reason)
		}
	}
}

func writeLevel(w io.Writer, tree *pagetree.Tree, prefix string, section pagetree.SectionID, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, page := range tree.Pages {
		if page.Section == section && !page.IsRepresentative() {
			_, _ = fmt.Fprintf(w, "%s%s  [%s]\n", indent, pagetree.RemoteTitle(prefix, page.Title), page.Path)
		}
	}
	for _, sec := range tree.Hierarchy.Children(section) {
		if rep, ok := tree.Representative(sec.ID); ok {
			note := rep.Path
			if rep.Inferred {
				note += ", inferred"
			}
			_, _ = fmt.Fprintf(w, "%s%s  [%s]\n", indent, pagetree.RemoteTitle(prefix, sec.Title), note)
			writeLevel(w, tree, prefix, sec.ID, depth+1)
			continue
		}
		// Without a page the section's children are published one level up.
		_, _ = fmt.Fprintf(w, "%s(%s: no page)\n", indent, sec.Title)
		writeLevel(w, tree, prefix, sec.ID, depth)
	}
}
