package publish

import (
	"context"

	"git.home.luguber.info/inful/docpublisher/internal/logfields"
)

// Cleanup removes the published tree: every child of the home page, then
// the home page itself. A missing home page means there is nothing to
// clean and is not an error. The first failed delete aborts the sweep.
func (p *Publisher) Cleanup(ctx context.Context) (*Report, error) {
	report := &Report{}
	r := &run{p: p, report: report}
	title := p.HomeTitle()

	root, err := p.opts.Store.FindPageByTitle(ctx, title)
	if err != nil {
		return report, err
	}
	if root == nil {
		report.NothingToClean = true
		p.logger.Info("Nothing to clean", logfields.Title(title))
		return report, nil
	}
	if err := r.checkOwner(p.opts.SiteName, root.Source.Path, *root); err != nil {
		return report, err
	}
	report.RootID = root.ID

	children, err := p.opts.Store.GetChildPages(ctx, root.ID)
	if err != nil {
		return report, err
	}
	for _, child := range sortedChildren(children) {
		if err := r.deleteTree(ctx, child); err != nil {
			return report, err
		}
	}
	if err := r.deleteTree(ctx, *root); err != nil {
		return report, err
	}

	p.logger.Info("Cleanup complete", logfields.Title(title), logfields.Count(report.Count(OpDelete)))
	return report, nil
}
