package confluence

import "git.home.luguber.info/inful/docpublisher/internal/remote"

type contentList struct {
	Results []content `json:"results"`
	Start   int       `json:"start"`
	Limit   int       `json:"limit"`
	Size    int       `json:"size"`
	Links   struct {
		Next string `json:"next"`
	} `json:"_links"`
}

type content struct {
	ID        string     `json:"id,omitempty"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Space     *spaceRef  `json:"space,omitempty"`
	Version   *version   `json:"version,omitempty"`
	Ancestors []ancestor `json:"ancestors,omitempty"`
	Body      *body      `json:"body,omitempty"`
	Metadata  *metadata  `json:"metadata,omitempty"`
}

type spaceRef struct {
	Key string `json:"key"`
}

type version struct {
	Number int `json:"number"`
}

type ancestor struct {
	ID string `json:"id"`
}

type body struct {
	Storage storage `json:"storage"`
}

type storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type metadata struct {
	Properties map[string]property `json:"properties,omitempty"`
}

type property struct {
	Key     string            `json:"key"`
	Value   remote.SourceMeta `json:"value"`
	Version *version          `json:"version,omitempty"`
}

func (c content) toPage() remote.Page {
	p := remote.Page{ID: c.ID, Title: c.Title}
	if c.Version != nil {
		p.Version = c.Version.Number
	}
	if n := len(c.Ancestors); n > 0 {
		p.ParentID = c.Ancestors[n-1].ID
	}
	if prop, ok := c.property(); ok {
		p.Source = prop.Value
	}
	return p
}

func (c content) property() (property, bool) {
	if c.Metadata == nil {
		return property{}, false
	}
	prop, ok := c.Metadata.Properties[PropertyKey]
	return prop, ok
}
