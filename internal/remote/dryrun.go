package remote

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// PlannedAction is a mutation DryRunStore recorded instead of applying.
type PlannedAction struct {
	Op       Op
	ID       string
	Title    string
	ParentID string
}

const plannedPrefix = "planned-"

// DryRunStore reads through to an underlying store and records every
// mutation without performing it. Reads reflect the plan so far: planned
// creates and updates are visible, planned deletes are hidden (with their
// descendants when the underlying store cascades).
type DryRunStore struct {
	inner Store

	mu      sync.Mutex
	next    int
	actions []PlannedAction
	// overlay holds pages as the plan leaves them.
	overlay map[string]Page
	deleted map[string]bool
	// parents remembers the parent of every page read so far.
	parents map[string]string
}

// NewDryRunStore wraps inner.
func NewDryRunStore(inner Store) *DryRunStore {
	return &DryRunStore{
		inner:   inner,
		overlay: make(map[string]Page),
		deleted: make(map[string]bool),
		parents: make(map[string]string),
	}
}

// FindPageByTitle implements Store.
func (d *DryRunStore) FindPageByTitle(ctx context.Context, title string) (*Page, error) {
	d.mu.Lock()
	for _, id := range slices.Sorted(maps.Keys(d.overlay)) {
		if p := d.overlay[id]; p.Title == title && d.visibleLocked(p.ID) {
			d.mu.Unlock()
			return &p, nil
		}
	}
	d.mu.Unlock()

	found, err := d.inner.FindPageByTitle(ctx, title)
	if err != nil || found == nil {
		return found, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.rememberLocked(*found)
	if _, planned := d.overlay[found.ID]; planned || !d.visibleLocked(found.ID) {
		// Renamed away or deleted by the plan.
		return nil, nil
	}
	return found, nil
}

// GetChildPages implements Store. Pages planned for creation have only the
// children the plan gives them.
func (d *DryRunStore) GetChildPages(ctx context.Context, parentID string) (map[string]Page, error) {
	var base map[string]Page
	if !strings.HasPrefix(parentID, plannedPrefix) {
		var err error
		if base, err = d.inner.GetChildPages(ctx, parentID); err != nil {
			return nil, err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	var pages []Page
	listed := make(map[string]bool, len(base))
	for _, p := range base {
		d.rememberLocked(p)
		if planned, ok := d.overlay[p.ID]; ok {
			p = planned
		}
		if p.ParentID == parentID && d.visibleLocked(p.ID) {
			pages = append(pages, p)
			listed[p.ID] = true
		}
	}
	for _, id := range slices.Sorted(maps.Keys(d.overlay)) {
		p := d.overlay[id]
		if listed[id] || p.ParentID != parentID || !d.visibleLocked(id) {
			continue
		}
		pages = append(pages, p)
	}
	slices.SortFunc(pages, func(a, b Page) int { return strings.Compare(a.ID, b.ID) })
	return IndexChildren(pages), nil
}

// CreatePage implements Store.
func (d *DryRunStore) CreatePage(_ context.Context, in PageInput) (Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.next++
	p := Page{ID: plannedPrefix + strconv.Itoa(d.next), Title: in.Title, ParentID: in.ParentID, Source: in.Source}
	d.plan(p)
	d.actions = append(d.actions, PlannedAction{Op: OpCreate, ID: p.ID, Title: p.Title, ParentID: p.ParentID})
	return p, nil
}

// UpdatePage implements Store.
func (d *DryRunStore) UpdatePage(_ context.Context, id string, in PageInput) (Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := Page{ID: id, Title: in.Title, ParentID: in.ParentID, Source: in.Source}
	d.plan(p)
	d.actions = append(d.actions, PlannedAction{Op: OpUpdate, ID: id, Title: in.Title, ParentID: in.ParentID})
	return p, nil
}

// DeletePage implements Store.
func (d *DryRunStore) DeletePage(_ context.Context, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deleted[id] = true
	d.actions = append(d.actions, PlannedAction{Op: OpDelete, ID: id})
	return nil
}

// CascadesDeletes implements Store.
func (d *DryRunStore) CascadesDeletes() bool { return d.inner.CascadesDeletes() }

// Actions returns the recorded plan.
func (d *DryRunStore) Actions() []PlannedAction {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]PlannedAction(nil), d.actions...)
}

func (d *DryRunStore) plan(p Page) {
	d.overlay[p.ID] = p
	d.parents[p.ID] = p.ParentID
}

func (d *DryRunStore) rememberLocked(p Page) {
	if _, planned := d.overlay[p.ID]; !planned {
		d.parents[p.ID] = p.ParentID
	}
}

// visibleLocked reports whether id survives the planned deletes. Ancestors
// are only followed as far as pages have been read.
func (d *DryRunStore) visibleLocked(id string) bool {
	if d.deleted[id] {
		return false
	}
	if !d.inner.CascadesDeletes() {
		return true
	}
	seen := map[string]bool{id: true}
	for parent, ok := d.parents[id]; ok && parent != ""; parent, ok = d.parents[parent] {
		if d.deleted[parent] {
			return false
		}
		if seen[parent] {
			break
		}
		seen[parent] = true
	}
	return true
}
