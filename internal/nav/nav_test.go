package nav

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
)

func TestParseBytes_PagesAndSections(t *testing.T) {
	entries, err := ParseBytes([]byte(`
- Home: index.md
- Guides:
    - Intro: guides/intro.md
    - Advanced:
        - Tuning: guides/advanced/tuning.md
`))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, Entry{Title: "Home", Path: "index.md"}, entries[0])

	guides := entries[1]
	require.True(t, guides.Section)
	require.Equal(t, "Guides", guides.Title)
	require.Len(t, guides.Children, 2)
	require.Equal(t, "guides/intro.md", guides.Children[0].Path)
	require.True(t, guides.Children[1].Section)
	require.Equal(t, "Tuning", guides.Children[1].Children[0].Title)
}

func TestParseBytes_BareStringIsMissingTitle(t *testing.T) {
	_, err := ParseBytes([]byte("- index.md\n"))
	require.Error(t, err)
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))

	ce, ok := errors.AsClassified(err)
	require.True(t, ok)
	require.Equal(t, "missing title for entry", ce.Message())
	entry, _ := ce.Context().GetString("entry")
	require.Equal(t, "index.md", entry)
}

func TestParseBytes_NestedBareStringFails(t *testing.T) {
	_, err := ParseBytes([]byte("- Guides:\n    - guides/intro.md\n"))
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestParseBytes_InvalidShapes(t *testing.T) {
	cases := map[string]string{
		"not a sequence":  "Home: index.md\n",
		"empty":           "[]\n",
		"two keys":        "- {A: a.md, B: b.md}\n",
		"mapping value":   "- A: {x: y}\n",
		"empty path":      "- A: \"\"\n",
		"nested sequence": "- [a.md]\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBytes([]byte(input))
			require.Error(t, err)
			require.True(t, errors.HasCategory(err, errors.CategoryConfig))
		})
	}
}

func TestParseMkDocs(t *testing.T) {
	project, err := ParseMkDocs([]byte(`
site_name: Team Handbook
theme:
  name: material
markdown_extensions:
  - admonition
nav:
  - Home: index.md
`))
	require.NoError(t, err)
	require.Equal(t, "Team Handbook", project.SiteName)
	require.Equal(t, "docs", project.DocsDir)
	require.Len(t, project.Nav, 1)
}

func TestParseMkDocs_MissingNav(t *testing.T) {
	_, err := ParseMkDocs([]byte("site_name: x\n"))
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}

func TestLoadMkDocs(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "mkdocs.yml")
	require.NoError(t, os.WriteFile(p, []byte("site_name: S\ndocs_dir: content\nnav:\n  - A: a.md\n"), 0o600))

	project, err := LoadMkDocs(p)
	require.NoError(t, err)
	require.Equal(t, "content", project.DocsDir)

	_, err = LoadMkDocs(filepath.Join(dir, "missing.yml"))
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}
