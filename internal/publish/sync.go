package publish

import (
	"context"

	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublisher/internal/pagetree"
	"git.home.luguber.info/inful/docpublisher/internal/remote"
)

// syncPage renders the page of pr and makes the store reflect it under
// parentID.
func (r *run) syncPage(ctx context.Context, pr Pairing, parentID string) (PageResult, error) {
	page := pr.Local()
	rendered, err := r.p.opts.Renderer.Render(page)
	if err != nil {
		return PageResult{}, err
	}
	page.Content = rendered.Body
	page.Fingerprint = rendered.Fingerprint
	return r.apply(ctx, withPage(pr, page), parentID)
}

// apply creates an unmatched page, or updates a matched one when its title,
// parent or content differ. An unchanged matched page costs no store call.
func (r *run) apply(ctx context.Context, pr Pairing, parentID string) (PageResult, error) {
	store := r.p.opts.Store
	in := r.input(pr.Local(), parentID)

	switch pr := pr.(type) {
	case Unmatched:
		created, err := store.CreatePage(ctx, in)
		if err != nil {
			return PageResult{}, err
		}
		return r.result(OpCreate, pr.Page, created.ID, parentID), nil

	case Matched:
		if err := r.checkOwner(pr.Page.Title, pr.Page.Path, pr.Remote); err != nil {
			return PageResult{}, err
		}
		if unchanged(pr.Remote, in) {
			return r.result(OpKeep, pr.Page, pr.Remote.ID, parentID), nil
		}
		updated, err := store.UpdatePage(ctx, pr.Remote.ID, in)
		if err != nil {
			return PageResult{}, err
		}
		return r.result(OpUpdate, pr.Page, updated.ID, parentID), nil
	}
	return PageResult{}, errors.InternalError("unknown pairing").Build()
}

func (r *run) input(page pagetree.LocalPage, parentID string) remote.PageInput {
	return remote.PageInput{
		Title:    r.p.remoteTitle(page.Title),
		ParentID: parentID,
		Content:  page.Content,
		Source: remote.SourceMeta{
			Repo:        r.p.opts.Repository,
			Path:        page.Path,
			Fingerprint: page.Fingerprint,
		},
	}
}

func (r *run) result(op Operation, page pagetree.LocalPage, id, parentID string) PageResult {
	res := PageResult{
		Operation: op,
		Title:     r.p.remoteTitle(page.Title),
		Path:      page.Path,
		ID:        id,
		ParentID:  parentID,
	}
	r.record(res)
	return res
}

// checkOwner fails when rp was published from another repository.
func (r *run) checkOwner(title, path string, rp remote.Page) error {
	if rp.Source.Repo == r.p.opts.Repository {
		return nil
	}
	owner := rp.Source.Repo
	if owner == "" {
		owner = "<none>"
	}
	return errors.ConflictError("page title belongs to a different repository").
		WithContext("title", r.p.remoteTitle(title)).
		WithContext("path", path).
		WithContext("page_id", rp.ID).
		WithContext("owner", owner).
		Build()
}

func unchanged(rp remote.Page, in remote.PageInput) bool {
	return rp.Title == in.Title && rp.ParentID == in.ParentID && rp.Source == in.Source
}

func withPage(pr Pairing, page pagetree.LocalPage) Pairing {
	if m, ok := pr.(Matched); ok {
		m.Page = page
		return m
	}
	return Unmatched{Page: page}
}
