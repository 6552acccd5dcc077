package remote

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
)

// Op names a store operation.
type Op string

const (
	OpFind     Op = "find"
	OpChildren Op = "children"
	OpCreate   Op = "create"
	OpUpdate   Op = "update"
	OpDelete   Op = "delete"
)

// MemoryStore is an in-process Store. Titles are unique across the store,
// as they are within a Confluence space.
type MemoryStore struct {
	mu      sync.Mutex
	cascade bool
	nextID  int
	pages   map[string]Page
	content map[string]string
	calls   map[Op]int
	log     []Call

	// FailOn, when set, is consulted before every operation; a non-nil
	// result is returned in place of performing it.
	FailOn func(op Op, key string) error
}

// Call is one mutating operation recorded by MemoryStore.
type Call struct {
	Op    Op
	ID    string
	Title string
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithCascade makes deletes remove descendants.
func WithCascade(cascade bool) MemoryOption {
	return func(s *MemoryStore) { s.cascade = cascade }
}

// NewMemoryStore returns an empty store that cascades deletes by default.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		cascade: true,
		pages:   make(map[string]Page),
		content: make(map[string]string),
		calls:   make(map[Op]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Seed inserts a page as if it had been published earlier. An empty ID is
// assigned.
func (s *MemoryStore) Seed(p Page, content string) Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.ID == "" {
		p.ID = s.allocID()
	}
	if p.Version == 0 {
		p.Version = 1
	}
	s.pages[p.ID] = p
	s.content[p.ID] = content
	return p
}

func (s *MemoryStore) allocID() string {
	s.nextID++
	return strconv.Itoa(1000 + s.nextID)
}

func (s *MemoryStore) enter(op Op, key string) error {
	s.calls[op]++
	if s.FailOn != nil {
		return s.FailOn(op, key)
	}
	return nil
}

// FindPageByTitle implements Store.
func (s *MemoryStore) FindPageByTitle(_ context.Context, title string) (*Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpFind, title); err != nil {
		return nil, err
	}
	for _, p := range s.pages {
		if p.Title == title {
			found := p
			return &found, nil
		}
	}
	return nil, nil
}

// GetChildPages implements Store.
func (s *MemoryStore) GetChildPages(_ context.Context, parentID string) (map[string]Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpChildren, parentID); err != nil {
		return nil, err
	}
	return IndexChildren(s.childrenLocked(parentID)), nil
}

func (s *MemoryStore) childrenLocked(parentID string) []Page {
	var out []Page
	for _, p := range s.pages {
		if p.ParentID == parentID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CreatePage implements Store.
func (s *MemoryStore) CreatePage(_ context.Context, in PageInput) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpCreate, in.Title); err != nil {
		return Page{}, err
	}
	if err := s.checkTitleLocked(in.Title, ""); err != nil {
		return Page{}, err
	}
	if err := s.checkParentLocked(in.ParentID); err != nil {
		return Page{}, err
	}
	p := Page{ID: s.allocID(), Title: in.Title, ParentID: in.ParentID, Version: 1, Source: in.Source}
	s.pages[p.ID] = p
	s.content[p.ID] = in.Content
	s.log = append(s.log, Call{Op: OpCreate, ID: p.ID, Title: p.Title})
	return p, nil
}

// UpdatePage implements Store.
func (s *MemoryStore) UpdatePage(_ context.Context, id string, in PageInput) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpUpdate, id); err != nil {
		return Page{}, err
	}
	p, ok := s.pages[id]
	if !ok {
		return Page{}, errors.NewError(errors.CategoryNotFound, "page not found").WithContext("id", id).Build()
	}
	if err := s.checkTitleLocked(in.Title, id); err != nil {
		return Page{}, err
	}
	if err := s.checkParentLocked(in.ParentID); err != nil {
		return Page{}, err
	}
	p.Title = in.Title
	p.ParentID = in.ParentID
	p.Source = in.Source
	p.Version++
	s.pages[id] = p
	s.content[id] = in.Content
	s.log = append(s.log, Call{Op: OpUpdate, ID: id, Title: p.Title})
	return p, nil
}

// DeletePage implements Store.
func (s *MemoryStore) DeletePage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enter(OpDelete, id); err != nil {
		return err
	}
	p, ok := s.pages[id]
	if !ok {
		return errors.NewError(errors.CategoryNotFound, "page not found").WithContext("id", id).Build()
	}
	s.log = append(s.log, Call{Op: OpDelete, ID: id, Title: p.Title})
	s.deleteLocked(id)
	return nil
}

func (s *MemoryStore) deleteLocked(id string) {
	if s.cascade {
		for _, child := range s.childrenLocked(id) {
			s.deleteLocked(child.ID)
		}
	}
	delete(s.pages, id)
	delete(s.content, id)
}

func (s *MemoryStore) checkTitleLocked(title, self string) error {
	for _, p := range s.pages {
		if p.Title == title && p.ID != self {
			return errors.RemoteError("a page with this title already exists").
				WithContext("title", title).
				Build()
		}
	}
	return nil
}

func (s *MemoryStore) checkParentLocked(parentID string) error {
	if parentID == "" {
		return nil
	}
	if _, ok := s.pages[parentID]; !ok {
		return errors.RemoteError("parent page does not exist").WithContext("parent_id", parentID).Build()
	}
	return nil
}

// CascadesDeletes implements Store.
func (s *MemoryStore) CascadesDeletes() bool { return s.cascade }

// Get returns the page with the given id.
func (s *MemoryStore) Get(id string) (Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pages[id]
	return p, ok
}

// ByTitle returns the page with the given title.
func (s *MemoryStore) ByTitle(title string) (Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pages {
		if p.Title == title {
			return p, true
		}
	}
	return Page{}, false
}

// Content returns the stored body of a page.
func (s *MemoryStore) Content(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content[id]
}

// Len returns the number of stored pages.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pages)
}

// Count returns how often op was invoked.
func (s *MemoryStore) Count(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Calls returns the mutating operations in the order they were applied.
func (s *MemoryStore) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.log...)
}

// ResetCounts clears call counters and the call log.
func (s *MemoryStore) ResetCounts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[Op]int)
	s.log = nil
}
