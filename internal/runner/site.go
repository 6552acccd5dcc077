package runner

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/docpublisher/internal/config"
	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublisher/internal/git"
	"git.home.luguber.info/inful/docpublisher/internal/logfields"
	"git.home.luguber.info/inful/docpublisher/internal/nav"
	"git.home.luguber.info/inful/docpublisher/internal/pagetree"
)

// Inspector reads the identity of the checkout containing dir.
type Inspector func(dir string) (git.Info, error)

// Site is a loaded documentation source.
type Site struct {
	// Root is the absolute source directory.
	Root string
	// DocsDir is the absolute directory nav paths are relative to.
	DocsDir    string
	Name       string
	Repository string
	Commit     string
	Tree       *pagetree.Tree
}

// LoadSite reads the navigation file and builds the local page tree.
// Repository identity comes from configuration, falling back to the git
// origin of the source directory.
func LoadSite(cfg *config.Config, configDir string, inspect Inspector, logger *slog.Logger) (*Site, error) {
	return loadSite(cfg, configDir, inspect, logger, true)
}

// loadSite leaves Tree nil unless withTree is set; cleanup only needs the
// site's identity.
func loadSite(cfg *config.Config, configDir string, inspect Inspector, logger *slog.Logger, withTree bool) (*Site, error) {
	if err := cfg.ValidateSource(); err != nil {
		return nil, err
	}
	if inspect == nil {
		inspect = git.Inspect
	}
	if logger == nil {
		logger = slog.Default()
	}

	root := SourceRoot(cfg, configDir)
	project, err := nav.LoadMkDocs(filepath.Join(root, cfg.Source.MkDocsFile))
	if err != nil {
		return nil, err
	}

	docsDir := cfg.Source.DocsDir
	if docsDir == "" {
		docsDir = project.DocsDir
	}
	if !filepath.IsAbs(docsDir) {
		docsDir = filepath.Join(root, docsDir)
	}
	if fi, statErr := os.Stat(docsDir); statErr != nil || !fi.IsDir() {
		return nil, errors.FileSystemError("docs directory not found").
			WithCause(statErr).
			WithContext("path", docsDir).
			Build()
	}

	site := &Site{Root: root, DocsDir: docsDir, Name: strings.TrimSpace(cfg.SiteName)}
	if site.Name == "" {
		site.Name = strings.TrimSpace(project.SiteName)
	}
	if site.Name == "" {
		return nil, errors.ConfigError("site name is required (site_name in the config or mkdocs.yml)").Build()
	}

	info, inspectErr := inspect(root)
	site.Repository = strings.TrimSpace(cfg.Repository)
	switch {
	case site.Repository != "":
		if inspectErr != nil {
			logger.Debug("Git metadata unavailable", logfields.Error(inspectErr))
		}
	case inspectErr != nil:
		return nil, inspectErr
	default:
		site.Repository = info.Repository
	}
	site.Commit = info.Commit
	if !withTree {
		return site, nil
	}

	site.Tree, err = pagetree.Build(project.Nav, os.DirFS(docsDir), pagetree.Options{
		IndexFiles: cfg.Source.IndexFiles,
		HomeFiles:  cfg.Source.HomeFiles,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return site, nil
}

// SourceRoot resolves source.dir against configDir.
func SourceRoot(cfg *config.Config, configDir string) string {
	root := cfg.Source.Dir
	if !filepath.IsAbs(root) {
		root = filepath.Join(configDir, root)
	}
	return filepath.Clean(root)
}
