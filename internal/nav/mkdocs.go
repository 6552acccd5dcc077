package nav

import (
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
)

// Project holds the parts of mkdocs.yml the publisher reads.
type Project struct {
	SiteName string
	DocsDir  string
	Nav      []Entry
}

// mkdocsFile decodes only the keys we need; theme and plugin settings are
// ignored.
type mkdocsFile struct {
	SiteName string    `yaml:"site_name"`
	DocsDir  string    `yaml:"docs_dir"`
	Nav      yaml.Node `yaml:"nav"`
}

// LoadMkDocs reads an mkdocs.yml file.
func LoadMkDocs(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ConfigError("failed to read navigation file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	project, err := ParseMkDocs(data)
	if err != nil {
		if classified, ok := errors.AsClassified(err); ok {
			return nil, classified.WithContext("path", path)
		}
		return nil, err
	}
	return project, nil
}

// ParseMkDocs decodes mkdocs.yml content.
func ParseMkDocs(data []byte) (*Project, error) {
	var file mkdocsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.ConfigError("navigation file is not valid YAML").WithCause(err).Build()
	}

	entries, err := Parse(&file.Nav)
	if err != nil {
		return nil, err
	}

	docsDir := file.DocsDir
	if docsDir == "" {
		docsDir = "docs"
	}
	return &Project{SiteName: file.SiteName, DocsDir: docsDir, Nav: entries}, nil
}
