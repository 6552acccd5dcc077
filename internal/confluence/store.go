package confluence

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublisher/internal/remote"
)

const expandPage = "version,ancestors,metadata.properties." + PropertyKey

var _ remote.Store = (*Client)(nil)

// FindPageByTitle implements remote.Store.
func (c *Client) FindPageByTitle(ctx context.Context, title string) (*remote.Page, error) {
	query := url.Values{
		"spaceKey": {c.spaceKey},
		"title":    {title},
		"type":     {"page"},
		"expand":   {expandPage},
	}
	var list contentList
	if err := c.call(ctx, "find_page", http.MethodGet, "content", query, nil, &list); err != nil {
		return nil, err
	}
	for _, item := range list.Results {
		if item.Title == title {
			page := item.toPage()
			return &page, nil
		}
	}
	return nil, nil
}

// GetChildPages implements remote.Store, following pagination until the
// last page of results.
func (c *Client) GetChildPages(ctx context.Context, parentID string) (map[string]remote.Page, error) {
	var pages []remote.Page
	for start := 0; ; {
		query := url.Values{
			"expand": {expandPage},
			"limit":  {strconv.Itoa(c.pageSize)},
			"start":  {strconv.Itoa(start)},
		}
		var list contentList
		if err := c.call(ctx, "child_pages", http.MethodGet, "content/"+parentID+"/child/page", query, nil, &list); err != nil {
			return nil, err
		}
		for _, item := range list.Results {
			page := item.toPage()
			page.ParentID = parentID
			pages = append(pages, page)
		}
		if len(list.Results) == 0 || (list.Links.Next == "" && len(list.Results) < c.pageSize) {
			break
		}
		start += len(list.Results)
	}
	return remote.IndexChildren(pages), nil
}

// CreatePage implements remote.Store.
func (c *Client) CreatePage(ctx context.Context, in remote.PageInput) (remote.Page, error) {
	payload := content{
		Type:      "page",
		Title:     in.Title,
		Space:     &spaceRef{Key: c.spaceKey},
		Ancestors: ancestors(in.ParentID),
		Body:      storageBody(in.Content),
		Metadata: &metadata{Properties: map[string]property{
			PropertyKey: {Key: PropertyKey, Value: in.Source},
		}},
	}
	var created content
	if err := c.call(ctx, "create_page", http.MethodPost, "content", nil, payload, &created); err != nil {
		return remote.Page{}, err
	}
	page := created.toPage()
	page.ParentID = in.ParentID
	page.Source = in.Source
	return page, nil
}

// UpdatePage implements remote.Store. The page body and parent are written
// first, then the provenance property.
func (c *Client) UpdatePage(ctx context.Context, id string, in remote.PageInput) (remote.Page, error) {
	var current content
	query := url.Values{"expand": {expandPage}}
	if err := c.call(ctx, "get_page", http.MethodGet, "content/"+id, query, nil, &current); err != nil {
		return remote.Page{}, err
	}
	next := 1
	if current.Version != nil {
		next = current.Version.Number + 1
	}

	payload := content{
		ID:        id,
		Type:      "page",
		Title:     in.Title,
		Version:   &version{Number: next},
		Ancestors: ancestors(in.ParentID),
		Body:      storageBody(in.Content),
	}
	var updated content
	if err := c.call(ctx, "update_page", http.MethodPut, "content/"+id, nil, payload, &updated); err != nil {
		return remote.Page{}, err
	}

	if err := c.writeProperty(ctx, id, current, in.Source); err != nil {
		return remote.Page{}, err
	}

	page := updated.toPage()
	page.ParentID = in.ParentID
	page.Source = in.Source
	return page, nil
}

func (c *Client) writeProperty(ctx context.Context, id string, current content, meta remote.SourceMeta) error {
	prop, ok := current.property()
	if !ok || prop.Version == nil {
		payload := property{Key: PropertyKey, Value: meta}
		return c.call(ctx, "create_property", http.MethodPost, "content/"+id+"/property", nil, payload, nil)
	}
	if prop.Value == meta {
		return nil
	}
	payload := property{Key: PropertyKey, Value: meta, Version: &version{Number: prop.Version.Number + 1}}
	return c.call(ctx, "update_property", http.MethodPut, "content/"+id+"/property/"+PropertyKey, nil, payload, nil)
}

// DeletePage implements remote.Store. A page that is already gone counts as
// deleted.
func (c *Client) DeletePage(ctx context.Context, id string) error {
	err := c.call(ctx, "delete_page", http.MethodDelete, "content/"+id, nil, nil, nil)
	if errors.HasCategory(err, errors.CategoryNotFound) {
		return nil
	}
	return err
}

// CascadesDeletes implements remote.Store. Confluence moves the children of
// a deleted page to its parent instead of removing them.
func (c *Client) CascadesDeletes() bool { return false }

func ancestors(parentID string) []ancestor {
	if parentID == "" {
		return nil
	}
	return []ancestor{{ID: parentID}}
}

func storageBody(value string) *body {
	return &body{Storage: storage{Value: value, Representation: "storage"}}
}
