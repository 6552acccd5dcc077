package pagetree

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	placeholderPattern = regexp.MustCompile(`\{\{.*?\}\}`)
	spacePattern       = regexp.MustCompile(`\s+`)
)

// NormalizeTitle removes template placeholders, folds whitespace runs into
// single spaces and returns the NFC form of the result.
func NormalizeTitle(title string) string {
	title = placeholderPattern.ReplaceAllString(title, "")
	title = spacePattern.ReplaceAllString(title, " ")
	return norm.NFC.String(strings.TrimSpace(title))
}

// Identity maps source paths to the titles their pages carry remotely.
type Identity struct {
	prefix string
	titles map[string]string
}

// NewIdentity indexes pages by path. The home document, when present, is
// registered under homeTitle. The first page registered for a path wins.
func NewIdentity(tree *Tree, prefix, homeTitle string) *Identity {
	id := &Identity{prefix: prefix, titles: make(map[string]string, len(tree.Pages)+1)}
	if tree.Home != nil {
		home := *tree.Home
		home.Title = homeTitle
		id.add(home)
	}
	for _, page := range tree.Pages {
		id.add(page)
	}
	return id
}

func (i *Identity) add(page LocalPage) {
	if _, ok := i.titles[page.Path]; ok {
		return
	}
	i.titles[page.Path] = i.RemoteTitle(page.Title)
}

// RemoteTitle applies the configured prefix to a local title.
func (i *Identity) RemoteTitle(title string) string {
	return RemoteTitle(i.prefix, title)
}

// Title returns the remote title of the page at p.
func (i *Identity) Title(p string) (string, bool) {
	t, ok := i.titles[cleanPath(p)]
	return t, ok
}

// Len returns the number of indexed paths.
func (i *Identity) Len() int { return len(i.titles) }

// RemoteTitle joins prefix and title.
func RemoteTitle(prefix, title string) string {
	title = NormalizeTitle(title)
	if prefix == "" {
		return title
	}
	return NormalizeTitle(prefix + " " + title)
}
