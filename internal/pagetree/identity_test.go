package pagetree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeTitle(t *testing.T) {
	cases := map[string]string{
		"  Getting   Started ":       "Getting Started",
		"Release {{ version }} notes": "Release notes",
		"{{ site_name }}":             "",
		"Cafe\u0301":                 "Caf\u00e9",
		"Tabs\tand\nnewlines":         "Tabs and newlines",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeTitle(in), in)
	}
}

func TestRemoteTitle(t *testing.T) {
	require.Equal(t, "Intro", RemoteTitle("", "Intro"))
	require.Equal(t, "[Docs] Intro", RemoteTitle("[Docs]", " Intro "))
}

func TestIdentity_MapsPathsToRemoteTitles(t *testing.T) {
	tree := &Tree{
		Home: &LocalPage{Title: "Welcome", Path: "index.md"},
		Pages: []LocalPage{
			{Title: "Intro", Path: "guides/intro.md"},
			{Title: "Guides", Path: "guides/README.md", Represents: RootSection.Child("Guides")},
			{Title: "Duplicate", Path: "guides/intro.md"},
		},
	}
	id := NewIdentity(tree, "ACME", "My Site")

	require.Equal(t, 3, id.Len())
	title, ok := id.Title("guides/intro.md")
	require.True(t, ok)
	require.Equal(t, "ACME Intro", title)

	title, ok = id.Title("./index.md")
	require.True(t, ok)
	require.Equal(t, "ACME My Site", title)

	_, ok = id.Title("missing.md")
	require.False(t, ok)
}
