package pagetree

import (
	stderrors "errors"
	"io/fs"
	"log/slog"
	"path"
	"strings"

	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublisher/internal/logfields"
	"git.home.luguber.info/inful/docpublisher/internal/nav"
)

// DefaultIndexFiles are looked up, in order, when inferring a section page.
var DefaultIndexFiles = []string{"README.md", "index.md"}

// DefaultHomeFiles are root-level documents that become the home page.
var DefaultHomeFiles = []string{"index.md", "README.md"}

// Options tune Build.
type Options struct {
	IndexFiles []string
	HomeFiles  []string
	Logger     *slog.Logger
}

// SkipReason explains why a navigation leaf produced no page.
type SkipReason string

const (
	SkipMissingFile SkipReason = "missing_file"
	SkipExternal    SkipReason = "external_link"
)

// Skipped is a navigation leaf that produced no page.
type Skipped struct {
	Title   string
	Path    string
	Section SectionID
	Reason  SkipReason
}

// Tree is the local model of one publish run.
type Tree struct {
	Pages     []LocalPage
	Hierarchy *Hierarchy
	// Home is the root document lifted out of the navigation, nil when the
	// navigation has none.
	Home    *LocalPage
	Skipped []Skipped
}

// Representative returns the page standing for section id.
func (t *Tree) Representative(id SectionID) (LocalPage, bool) {
	for _, p := range t.Pages {
		if p.Represents == id && p.IsRepresentative() {
			return p, true
		}
	}
	return LocalPage{}, false
}

type builder struct {
	fsys   fs.FS
	opts   Options
	logger *slog.Logger
	tree   *Tree
	// leaves holds every file leaf, including missing ones, for directory
	// inference.
	leaves []LocalPage
}

// Build walks the navigation entries depth-first and resolves every leaf
// against fsys, which is rooted at the docs directory.
func Build(entries []nav.Entry, fsys fs.FS, opts Options) (*Tree, error) {
	if len(opts.IndexFiles) == 0 {
		opts.IndexFiles = DefaultIndexFiles
	}
	if len(opts.HomeFiles) == 0 {
		opts.HomeFiles = DefaultHomeFiles
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	b := &builder{
		fsys:   fsys,
		opts:   opts,
		logger: logger,
		tree:   &Tree{Hierarchy: newHierarchy()},
	}
	if err := b.walk(entries, RootSection); err != nil {
		return nil, err
	}
	b.liftHome()
	b.resolveRepresentatives()
	return b.tree, nil
}

func (b *builder) walk(entries []nav.Entry, section SectionID) error {
	for _, entry := range entries {
		title := NormalizeTitle(entry.Title)
		if title == "" {
			// Placeholders are stripped, so "{{ version }}" has no title left.
			return errors.ConfigError("missing title for entry").
				WithContext("title", entry.Title).
				WithContext("section", section.String()).
				Build()
		}
		if entry.Section {
			id := section.Child(title)
			b.tree.Hierarchy.record(Section{ID: id, Title: title, Parent: section})
			if err := b.walk(entry.Children, id); err != nil {
				return err
			}
			continue
		}
		b.leaf(title, entry.Path, section)
	}
	return nil
}

func (b *builder) leaf(title, rawPath string, section SectionID) {
	if isExternal(rawPath) {
		b.logger.Debug("Skipping external navigation link",
			logfields.Title(title), logfields.URL(rawPath))
		b.skip(title, rawPath, section, SkipExternal)
		return
	}

	p := cleanPath(rawPath)
	b.leaves = append(b.leaves, LocalPage{Title: title, Path: p, Section: section})
	if !b.exists(p) {
		b.logger.Warn("Navigation entry refers to a missing file, skipping",
			logfields.Title(title), logfields.Path(p), logfields.Section(section.String()))
		b.skip(title, p, section, SkipMissingFile)
		return
	}
	b.tree.Pages = append(b.tree.Pages, LocalPage{Title: title, Path: p, Section: section})
}

func (b *builder) skip(title, p string, section SectionID, reason SkipReason) {
	b.tree.Skipped = append(b.tree.Skipped, Skipped{Title: title, Path: p, Section: section, Reason: reason})
}

// liftHome moves the first top-level home document out of the page list.
func (b *builder) liftHome() {
	for i, page := range b.tree.Pages {
		if page.Section != RootSection || !contains(b.opts.HomeFiles, page.Path) {
			continue
		}
		home := page
		b.tree.Home = &home
		b.tree.Pages = append(b.tree.Pages[:i:i], b.tree.Pages[i+1:]...)
		return
	}
}

func (b *builder) resolveRepresentatives() {
	for _, section := range b.tree.Hierarchy.Sections() {
		if b.claimExplicit(section) {
			continue
		}
		dir, ok := b.commonDir(section.ID)
		if !ok {
			continue
		}
		index, ok := b.findIndex(dir)
		if !ok {
			continue
		}
		b.tree.Pages = append(b.tree.Pages, LocalPage{
			Title:      section.Title,
			Path:       index,
			Section:    section.Parent,
			Represents: section.ID,
			Inferred:   true,
		})
	}
}

// claimExplicit marks a leaf whose title equals the section title as the
// section's representative. A leaf at the section's parent level is
// preferred; otherwise a direct leaf of the section itself is lifted to the
// parent level.
func (b *builder) claimExplicit(section Section) bool {
	for i := range b.tree.Pages {
		page := &b.tree.Pages[i]
		if page.Section == section.Parent && page.Title == section.Title && !page.IsRepresentative() {
			page.Represents = section.ID
			return true
		}
	}
	for i := range b.tree.Pages {
		page := &b.tree.Pages[i]
		if page.Section == section.ID && page.Title == section.Title && !page.IsRepresentative() {
			page.Section = section.Parent
			page.Represents = section.ID
			return true
		}
	}
	return false
}

// commonDir computes the longest directory shared by the section's direct
// leaves. Leaves sharing only the docs root have no common dir.
func (b *builder) commonDir(id SectionID) (string, bool) {
	var dirs []string
	for _, leaf := range b.leaves {
		if leaf.Section == id {
			dirs = append(dirs, path.Dir(leaf.Path))
		}
	}
	if len(dirs) == 0 {
		return "", false
	}

	prefix := dirs[0]
	for _, dir := range dirs[1:] {
		for !isDirPrefix(prefix, dir) {
			prefix = path.Dir(prefix)
		}
	}
	if prefix == "." {
		return "", false
	}
	return prefix, true
}

func (b *builder) findIndex(dir string) (string, bool) {
	for _, name := range b.opts.IndexFiles {
		candidate := path.Join(dir, name)
		if b.exists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func (b *builder) exists(p string) bool {
	info, err := fs.Stat(b.fsys, p)
	if err != nil {
		if !stderrors.Is(err, fs.ErrNotExist) {
			b.logger.Warn("Failed to stat navigation file", logfields.Path(p), logfields.Error(err))
		}
		return false
	}
	return !info.IsDir()
}

func isDirPrefix(prefix, dir string) bool {
	if prefix == "." || prefix == dir {
		return true
	}
	return strings.HasPrefix(dir, prefix+"/")
}

func isExternal(p string) bool {
	return strings.Contains(p, "://") || strings.HasPrefix(p, "mailto:")
}

func cleanPath(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
