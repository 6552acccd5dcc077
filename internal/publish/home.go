package publish

import (
	"context"

	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublisher/internal/logfields"
	"git.home.luguber.info/inful/docpublisher/internal/pagetree"
	"git.home.luguber.info/inful/docpublisher/internal/render"
)

// syncHome publishes the home page under the site name and returns its id.
// Without a home document the page lists its children.
func (r *run) syncHome(ctx context.Context) (string, error) {
	page := pagetree.LocalPage{Title: r.p.opts.SiteName}
	if r.tree.Home != nil {
		page.Path = r.tree.Home.Path
		rendered, err := r.p.opts.Renderer.Render(*r.tree.Home)
		if err != nil {
			return "", err
		}
		page.Content, page.Fingerprint = rendered.Body, rendered.Fingerprint
	} else {
		page.Content = render.ChildrenMacro()
		page.Fingerprint = render.Fingerprint(nil, page.Content)
	}

	store := r.p.opts.Store
	parentID := ""
	if title := r.p.opts.AncestorTitle; title != "" {
		ancestor, err := store.FindPageByTitle(ctx, title)
		if err != nil {
			return "", err
		}
		if ancestor == nil {
			return "", errors.ConfigError("configured parent page does not exist").
				WithContext("title", title).
				Build()
		}
		parentID = ancestor.ID
	}

	var pr Pairing = Unmatched{Page: page}
	existing, err := store.FindPageByTitle(ctx, r.p.HomeTitle())
	if err != nil {
		return "", err
	}
	if existing != nil {
		if err := r.checkOwner(page.Title, page.Path, *existing); err != nil {
			return "", err
		}
		pr = Matched{Page: page, Remote: *existing}
		// Without a configured parent the home page stays where it is.
		if r.p.opts.AncestorTitle == "" {
			parentID = existing.ParentID
		}
	}

	res, err := r.apply(ctx, pr, parentID)
	if err != nil {
		return "", err
	}
	r.p.logger.Debug("Home page synced",
		logfields.Title(res.Title),
		logfields.PageID(res.ID),
		logfields.ParentID(parentID))
	return res.ID, nil
}
