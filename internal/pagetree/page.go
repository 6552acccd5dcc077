// Package pagetree turns a navigation description into the ordered set of
// local pages and the section hierarchy the publisher walks.
package pagetree

import "strings"

// SectionID identifies a section by the escaped title path from the root.
// Two sections share an ID only when they have the same title under the
// same parent, so a section never collides with a same-named ordinary page.
type SectionID string

// RootSection is the enclosing section of top-level pages.
const RootSection SectionID = ""

var titleEscaper = strings.NewReplacer("%", "%25", "/", "%2F")

// Child returns the ID of the section titled title below id.
func (id SectionID) Child(title string) SectionID {
	escaped := titleEscaper.Replace(title)
	if id == RootSection {
		return SectionID(escaped)
	}
	return id + "/" + SectionID(escaped)
}

// IsRoot reports whether id is the root.
func (id SectionID) IsRoot() bool { return id == RootSection }

// Depth is the number of sections between the root and id.
func (id SectionID) Depth() int {
	if id == RootSection {
		return 0
	}
	return strings.Count(string(id), "/") + 1
}

func (id SectionID) String() string {
	if id == RootSection {
		return "<root>"
	}
	return string(id)
}

// LocalPage is one page of the local documentation tree.
type LocalPage struct {
	Title string
	// Path is the slash-separated file path relative to the docs directory.
	// It is the identity used to match remote pages within a parent scope.
	Path string
	// Section is the enclosing section, RootSection for top-level pages.
	Section SectionID
	// Represents is the section this page stands for, RootSection for
	// ordinary pages.
	Represents SectionID
	// Inferred marks pages synthesized from an index file.
	Inferred bool

	// Content and Fingerprint are filled by the publisher right before sync.
	Content     string
	Fingerprint string
}

// IsRepresentative reports whether the page stands for a section.
func (p LocalPage) IsRepresentative() bool { return p.Represents != RootSection }

// Section is one node of the hierarchy.
type Section struct {
	ID     SectionID
	Title  string
	Parent SectionID
}

// Hierarchy maps sections to their parents in navigation order.
// It is read-only once Build returns.
type Hierarchy struct {
	order    []SectionID
	sections map[SectionID]Section
}

func newHierarchy() *Hierarchy {
	return &Hierarchy{sections: make(map[SectionID]Section)}
}

// record stores s the first time its ID is seen.
func (h *Hierarchy) record(s Section) {
	if _, ok := h.sections[s.ID]; ok {
		return
	}
	h.order = append(h.order, s.ID)
	h.sections[s.ID] = s
}

// Get returns the section with the given ID.
func (h *Hierarchy) Get(id SectionID) (Section, bool) {
	s, ok := h.sections[id]
	return s, ok
}

// Parent returns the parent of id. The root is its own parent.
func (h *Hierarchy) Parent(id SectionID) SectionID {
	return h.sections[id].Parent
}

// Sections returns all sections in the order they were first encountered.
func (h *Hierarchy) Sections() []Section {
	out := make([]Section, 0, len(h.order))
	for _, id := range h.order {
		out = append(out, h.sections[id])
	}
	return out
}

// Children returns the direct subsections of parent.
func (h *Hierarchy) Children(parent SectionID) []Section {
	var out []Section
	for _, id := range h.order {
		if s := h.sections[id]; s.Parent == parent {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of sections.
func (h *Hierarchy) Len() int { return len(h.order) }
