package publish

import (
	"sync"

	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublisher/internal/pagetree"
)

// syncedIndex maps sections to the remote id of the page representing them.
// Each key is written once; the root is seeded with the home page id.
type syncedIndex struct {
	mu  sync.Mutex
	ids map[pagetree.SectionID]string
}

func newSyncedIndex(homeID string) *syncedIndex {
	return &syncedIndex{ids: map[pagetree.SectionID]string{pagetree.RootSection: homeID}}
}

func (i *syncedIndex) set(section pagetree.SectionID, id string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if existing, ok := i.ids[section]; ok {
		return errors.InternalError("section synced twice").
			WithContext("section", section.String()).
			WithContext("first_id", existing).
			WithContext("second_id", id).
			Build()
	}
	i.ids[section] = id
	return nil
}

func (i *syncedIndex) get(section pagetree.SectionID) (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	id, ok := i.ids[section]
	return id, ok
}
