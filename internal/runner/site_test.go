package runner

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublisher/internal/git"
	"git.home.luguber.info/inful/docpublisher/internal/testutil/testutils"
)

func TestLoadSite_UsesGitIdentity(t *testing.T) {
	dir := writeSite(t)
	site, err := LoadSite(testConfig(t), dir, fakeInspector(git.Info{Repository: testRepo, Commit: "c1"}, nil), quietLogger())
	require.NoError(t, err)
	require.Equal(t, dir, site.Root)
	require.Equal(t, filepath.Join(dir, "docs"), site.DocsDir)
	require.Equal(t, "Handbook", site.Name)
	require.Equal(t, testRepo, site.Repository)
	require.Equal(t, "c1", site.Commit)
	require.NotNil(t, site.Tree.Home)
	require.Equal(t, "index.md", site.Tree.Home.Path)
}

func TestLoadSite_ConfiguredIdentityWins(t *testing.T) {
	dir := writeSite(t)
	cfg := testConfig(t)
	cfg.Repository = "git.example.com/docs/handbook"
	cfg.SiteName = "Team Handbook"

	gitErr := errors.GitError("not a repository").Build()
	site, err := LoadSite(cfg, dir, fakeInspector(git.Info{}, gitErr), quietLogger())
	require.NoError(t, err)
	require.Equal(t, "git.example.com/docs/handbook", site.Repository)
	require.Equal(t, "Team Handbook", site.Name)
	require.Empty(t, site.Commit)
}

func TestLoadSite_GitErrorWithoutConfiguredIdentity(t *testing.T) {
	gitErr := errors.GitError("not a repository").Build()
	_, err := LoadSite(testConfig(t), writeSite(t), fakeInspector(git.Info{}, gitErr), quietLogger())
	require.ErrorIs(t, err, gitErr)
}

func TestLoadSite_MissingDocsDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Source.DocsDir = "nowhere"
	_, err := LoadSite(cfg, writeSite(t), fakeInspector(git.Info{Repository: testRepo}, nil), quietLogger())
	require.True(t, errors.HasCategory(err, errors.CategoryFileSystem))
}

func TestLoadSite_RequiresSiteName(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFile(t, filepath.Join(dir, "mkdocs.yml"), "nav:\n  - A: a.md\n")
	testutils.WriteFile(t, filepath.Join(dir, "docs", "a.md"), "A\n")
	_, err := LoadSite(testConfig(t), dir, fakeInspector(git.Info{Repository: testRepo}, nil), quietLogger())
	require.True(t, errors.HasCategory(err, errors.CategoryConfig))
}
