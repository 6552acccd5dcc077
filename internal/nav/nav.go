// Package nav reads the navigation description of an MkDocs project.
//
// A navigation description is an ordered sequence whose elements are either
// `{title: path}` (a page) or `{title: [elements]}` (a section).
package nav

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
)

// Entry is one element of the navigation description.
type Entry struct {
	Title    string
	Path     string  // set for pages
	Children []Entry // set for sections
	Section  bool
}

// Parse converts a YAML sequence node into navigation entries.
func Parse(node *yaml.Node) ([]Entry, error) {
	if node == nil || node.Kind == 0 {
		return nil, errors.ConfigError("navigation description is missing").Build()
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) == 1 {
		node = node.Content[0]
	}
	if node.Kind != yaml.SequenceNode {
		return nil, errors.ConfigError("navigation description must be a sequence").
			WithContext("line", node.Line).
			Build()
	}
	if len(node.Content) == 0 {
		return nil, errors.ConfigError("navigation description is empty").
			WithContext("line", node.Line).
			Build()
	}
	return parseSequence(node)
}

// ParseBytes parses a standalone YAML navigation document.
func ParseBytes(data []byte) ([]Entry, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.ConfigError("navigation description is not valid YAML").WithCause(err).Build()
	}
	return Parse(&doc)
}

func parseSequence(seq *yaml.Node) ([]Entry, error) {
	entries := make([]Entry, 0, len(seq.Content))
	for _, item := range seq.Content {
		entry, err := parseEntry(item)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseEntry(item *yaml.Node) (Entry, error) {
	switch item.Kind {
	case yaml.ScalarNode:
		return Entry{}, errors.ConfigError("missing title for entry").
			WithContext("entry", item.Value).
			WithContext("line", item.Line).
			Build()
	case yaml.MappingNode:
	default:
		return Entry{}, errors.ConfigError("navigation entry must be a mapping").
			WithContext("line", item.Line).
			Build()
	}

	if len(item.Content) != 2 {
		return Entry{}, errors.ConfigError("navigation entry must have exactly one title").
			WithContext("line", item.Line).
			Build()
	}

	key, value := item.Content[0], item.Content[1]
	title := strings.TrimSpace(key.Value)
	if title == "" {
		return Entry{}, errors.ConfigError("missing title for entry").
			WithContext("line", key.Line).
			Build()
	}

	switch value.Kind {
	case yaml.ScalarNode:
		if strings.TrimSpace(value.Value) == "" {
			return Entry{}, errors.ConfigError("missing path for entry").
				WithContext("title", title).
				WithContext("line", value.Line).
				Build()
		}
		return Entry{Title: title, Path: strings.TrimSpace(value.Value)}, nil
	case yaml.SequenceNode:
		children, err := parseSequence(value)
		if err != nil {
			return Entry{}, err
		}
		return Entry{Title: title, Children: children, Section: true}, nil
	default:
		return Entry{}, errors.ConfigError("navigation entry value must be a path or a list").
			WithContext("title", title).
			WithContext("line", value.Line).
			Build()
	}
}

// String renders the entry for debugging.
func (e Entry) String() string {
	if e.Section {
		return fmt.Sprintf("%s/ (%d)", e.Title, len(e.Children))
	}
	return fmt.Sprintf("%s: %s", e.Title, e.Path)
}
