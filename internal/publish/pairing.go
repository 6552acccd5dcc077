package publish

import (
	"maps"
	"sort"

	"git.home.luguber.info/inful/docpublisher/internal/pagetree"
	"git.home.luguber.info/inful/docpublisher/internal/remote"
)

// Pairing associates a local page with its remote counterpart, if any.
// It is either Unmatched or Matched.
type Pairing interface {
	Local() pagetree.LocalPage
	isPairing()
}

// Unmatched is a local page with no remote counterpart; syncing creates it.
type Unmatched struct {
	Page pagetree.LocalPage
}

// Matched is a local page paired with an existing remote page.
type Matched struct {
	Page   pagetree.LocalPage
	Remote remote.Page
}

func (u Unmatched) Local() pagetree.LocalPage { return u.Page }
func (m Matched) Local() pagetree.LocalPage   { return m.Page }
func (Unmatched) isPairing()                  {}
func (Matched) isPairing()                    {}

// pair matches local pages against remote children by source path. Remote
// children nothing claims are returned as deletion candidates, ordered by id.
func pair(pages []pagetree.LocalPage, children map[string]remote.Page) ([]Pairing, []remote.Page) {
	remaining := maps.Clone(children)
	pairings := make([]Pairing, 0, len(pages))
	for _, page := range pages {
		if rp, ok := remaining[page.Path]; ok {
			pairings = append(pairings, Matched{Page: page, Remote: rp})
			delete(remaining, page.Path)
			continue
		}
		pairings = append(pairings, Unmatched{Page: page})
	}

	candidates := make([]remote.Page, 0, len(remaining))
	for _, rp := range remaining {
		candidates = append(candidates, rp)
	}
	sortPages(candidates)
	return pairings, candidates
}

func sortPages(pages []remote.Page) {
	sort.Slice(pages, func(i, j int) bool {
		if len(pages[i].ID) != len(pages[j].ID) {
			return len(pages[i].ID) < len(pages[j].ID)
		}
		return pages[i].ID < pages[j].ID
	})
}
