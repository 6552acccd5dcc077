// Package remote defines the page store the publisher reconciles against
// and two in-process implementations of it.
package remote

import "context"

// SourceMeta is the provenance recorded on every published page.
type SourceMeta struct {
	Repo        string `json:"repo"`
	Path        string `json:"path"`
	Fingerprint string `json:"fingerprint,omitempty"`
}

// IsZero reports whether no provenance was recorded.
func (m SourceMeta) IsZero() bool { return m.Repo == "" && m.Path == "" }

// Page is a page present in the remote store.
type Page struct {
	ID       string
	Title    string
	ParentID string
	Version  int
	Source   SourceMeta
}

// PageInput carries the fields written on create and update.
type PageInput struct {
	Title    string
	ParentID string
	Content  string
	Source   SourceMeta
}

// Store is the remote page service.
type Store interface {
	// FindPageByTitle returns nil and no error when no page has the title.
	FindPageByTitle(ctx context.Context, title string) (*Page, error)
	// GetChildPages returns the direct children of parentID keyed by
	// ChildKey. A parent without children yields an empty map.
	GetChildPages(ctx context.Context, parentID string) (map[string]Page, error)
	CreatePage(ctx context.Context, in PageInput) (Page, error)
	UpdatePage(ctx context.Context, id string, in PageInput) (Page, error)
	DeletePage(ctx context.Context, id string) error
	// CascadesDeletes reports whether deleting a page removes its
	// descendants as well.
	CascadesDeletes() bool
}

// ChildKey is the key under which GetChildPages returns p. Pages without
// recorded provenance are keyed by id so they never match a local path.
func ChildKey(p Page) string {
	if p.Source.Path == "" {
		return "id:" + p.ID
	}
	return p.Source.Path
}

// IndexChildren keys pages with ChildKey. When several pages claim the same
// source path only the first keeps it; the others are keyed by id.
func IndexChildren(pages []Page) map[string]Page {
	out := make(map[string]Page, len(pages))
	for _, p := range pages {
		key := ChildKey(p)
		if _, dup := out[key]; dup {
			key = "id:" + p.ID
		}
		out[key] = p
	}
	return out
}
