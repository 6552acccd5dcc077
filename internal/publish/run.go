package publish

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublisher/internal/logfields"
	"git.home.luguber.info/inful/docpublisher/internal/pagetree"
	"git.home.luguber.info/inful/docpublisher/internal/remote"
)

// run holds the per-run state of one Publish or Cleanup call.
type run struct {
	p      *Publisher
	tree   *pagetree.Tree
	report *Report
	index  *syncedIndex
	// levels groups pages by the section whose page they are published
	// under. Pages of a section without a page of its own move up to the
	// nearest ancestor that has one, or to the root.
	levels map[pagetree.SectionID][]pagetree.LocalPage
}

func newRun(p *Publisher, tree *pagetree.Tree, report *Report) *run {
	r := &run{p: p, tree: tree, report: report, levels: make(map[pagetree.SectionID][]pagetree.LocalPage)}
	if tree == nil {
		return r
	}

	represented := make(map[pagetree.SectionID]bool)
	for _, page := range tree.Pages {
		if page.IsRepresentative() {
			represented[page.Represents] = true
		}
	}
	for _, page := range tree.Pages {
		parent := page.Section
		for parent != pagetree.RootSection && !represented[parent] {
			parent = tree.Hierarchy.Parent(parent)
		}
		r.levels[parent] = append(r.levels[parent], page)
	}
	return r
}

// checkTitles rejects trees that would publish two pages under one title,
// which the remote store cannot hold, or two pages with one path in the
// same level, which could not be told apart.
func (r *run) checkTitles() error {
	titles := make(map[string]string)
	claim := func(title, path string) error {
		remoteTitle := r.p.remoteTitle(title)
		if other, ok := titles[remoteTitle]; ok {
			return errors.ConfigError("duplicate page title").
				WithContext("title", remoteTitle).
				WithContext("path", path).
				WithContext("other_path", other).
				Build()
		}
		titles[remoteTitle] = path
		return nil
	}

	homePath := ""
	if r.tree.Home != nil {
		homePath = r.tree.Home.Path
	}
	if err := claim(r.p.opts.SiteName, homePath); err != nil {
		return err
	}
	for _, page := range r.tree.Pages {
		if err := claim(page.Title, page.Path); err != nil {
			return err
		}
	}

	for section, pages := range r.levels {
		paths := make(map[string]bool, len(pages))
		for _, page := range pages {
			if paths[page.Path] {
				return errors.ConfigError("duplicate page path within one level").
					WithContext("path", page.Path).
					WithContext("section", section.String()).
					Build()
			}
			paths[page.Path] = true
		}
	}
	return nil
}

// processLevel syncs the pages published under section and then descends
// into the sections they represent, one at a time.
func (r *run) processLevel(ctx context.Context, section pagetree.SectionID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	parentID, ok := r.index.get(section)
	if !ok {
		return errors.InternalError("section has no synced page").
			WithContext("section", section.String()).
			Build()
	}

	pages := r.levels[section]
	children, err := r.p.opts.Store.GetChildPages(ctx, parentID)
	if err != nil {
		return err
	}
	pairings, candidates := pair(pages, children)

	pairings, candidates, err = r.resolve(ctx, pairings, candidates)
	if err != nil {
		return err
	}
	// Matched pages move first so none is still inside a subtree being
	// deleted, and renames free their old titles before any create.
	matched, unmatched := splitPairings(pairings)
	if err := r.syncAll(ctx, matched, parentID); err != nil {
		return err
	}
	if err := r.deleteAll(ctx, candidates); err != nil {
		return err
	}
	if err := r.syncAll(ctx, unmatched, parentID); err != nil {
		return err
	}

	r.p.recorder.ObserveLevelDuration(section.Depth(), time.Since(start))
	r.p.logger.Debug("Level synced",
		logfields.Level(section.String()),
		logfields.ParentID(parentID),
		logfields.Count(len(pages)),
		logfields.DurationMS(float64(time.Since(start).Milliseconds())))

	for _, page := range pages {
		if !page.IsRepresentative() {
			continue
		}
		if err := r.processLevel(ctx, page.Represents); err != nil {
			return err
		}
	}
	return nil
}

// resolve finishes pairing before anything is written: unmatched pages are
// looked up by title so a page moved or renamed on disk keeps its remote
// page, and every pairing is checked for ownership. A remote page already
// paired by source path is never adopted a second time; its title is freed
// when that pairing is updated. Adopted remote pages stop being deletion
// candidates.
func (r *run) resolve(ctx context.Context, pairings []Pairing, candidates []remote.Page) ([]Pairing, []remote.Page, error) {
	claimed := make(map[string]bool)
	for _, pr := range pairings {
		if m, ok := pr.(Matched); ok {
			claimed[m.Remote.ID] = true
		}
	}

	resolved := make([]Pairing, len(pairings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.p.opts.Concurrency)
	for i, pr := range pairings {
		g.Go(func() error {
			switch pr := pr.(type) {
			case Matched:
				if err := r.checkOwner(pr.Page.Title, pr.Page.Path, pr.Remote); err != nil {
					return err
				}
				resolved[i] = pr
			case Unmatched:
				existing, err := r.p.opts.Store.FindPageByTitle(gctx, r.p.remoteTitle(pr.Page.Title))
				if err != nil {
					return err
				}
				if existing == nil || claimed[existing.ID] {
					resolved[i] = pr
					return nil
				}
				if err := r.checkOwner(pr.Page.Title, pr.Page.Path, *existing); err != nil {
					return err
				}
				resolved[i] = Matched{Page: pr.Page, Remote: *existing}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	adopted := make(map[string]bool)
	for _, pr := range resolved {
		if m, ok := pr.(Matched); ok {
			adopted[m.Remote.ID] = true
		}
	}
	remaining := make([]remote.Page, 0, len(candidates))
	for _, c := range candidates {
		if !adopted[c.ID] {
			remaining = append(remaining, c)
		}
	}
	return resolved, remaining, nil
}

// splitPairings separates matched from unmatched pairings, keeping order.
func splitPairings(pairings []Pairing) (matched, unmatched []Pairing) {
	for _, pr := range pairings {
		if _, ok := pr.(Matched); ok {
			matched = append(matched, pr)
			continue
		}
		unmatched = append(unmatched, pr)
	}
	return matched, unmatched
}

func (r *run) syncAll(ctx context.Context, pairings []Pairing, parentID string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.p.opts.Concurrency)
	for _, pr := range pairings {
		g.Go(func() error {
			res, err := r.syncPage(gctx, pr, parentID)
			if err != nil {
				return err
			}
			if page := pr.Local(); page.IsRepresentative() {
				return r.index.set(page.Represents, res.ID)
			}
			return nil
		})
	}
	return g.Wait()
}

func (r *run) deleteAll(ctx context.Context, candidates []remote.Page) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.p.opts.Concurrency)
	for _, page := range candidates {
		g.Go(func() error { return r.deleteTree(gctx, page) })
	}
	return g.Wait()
}

// deleteTree deletes page. When the store does not cascade deletes the
// descendants are removed first, bottom-up.
func (r *run) deleteTree(ctx context.Context, page remote.Page) error {
	store := r.p.opts.Store
	if !store.CascadesDeletes() {
		children, err := store.GetChildPages(ctx, page.ID)
		if err != nil {
			return err
		}
		for _, child := range sortedChildren(children) {
			if err := r.deleteTree(ctx, child); err != nil {
				return err
			}
		}
	}

	if err := store.DeletePage(ctx, page.ID); err != nil {
		return err
	}
	r.record(PageResult{
		Operation: OpDelete,
		Title:     page.Title,
		Path:      page.Source.Path,
		ID:        page.ID,
		ParentID:  page.ParentID,
	})
	return nil
}

func sortedChildren(children map[string]remote.Page) []remote.Page {
	out := make([]remote.Page, 0, len(children))
	for _, c := range children {
		out = append(out, c)
	}
	sortPages(out)
	return out
}

func (r *run) record(res PageResult) {
	r.report.add(res)
	r.p.recorder.IncPageOperation(string(res.Operation))

	attrs := []any{
		logfields.Operation(string(res.Operation)),
		logfields.Title(res.Title),
		logfields.PageID(res.ID),
	}
	if res.Path != "" {
		attrs = append(attrs, logfields.Path(res.Path))
	}
	if res.Operation == OpKeep {
		r.p.logger.Debug("Page unchanged", attrs...)
		return
	}
	r.p.logger.Info("Page "+string(res.Operation)+"d", attrs...)
}
