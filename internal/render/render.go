// Package render converts markdown pages into Confluence storage format.
package render

import (
	"bytes"
	"io/fs"
	"strings"

	"github.com/inful/mdfp"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/docpublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/docpublisher/internal/frontmatter"
	"git.home.luguber.info/inful/docpublisher/internal/pagetree"
)

// TitleResolver maps a docs-relative path to the remote title of its page.
type TitleResolver interface {
	Title(path string) (string, bool)
}

// Rendered is a page body ready for upload.
type Rendered struct {
	Body        string
	Fingerprint string
}

// Renderer reads sources from a docs filesystem and renders them.
type Renderer struct {
	fsys   fs.FS
	titles TitleResolver
	md     goldmark.Markdown
}

// New returns a Renderer reading from fsys. titles may be nil, in which
// case internal links are left untouched.
func New(fsys fs.FS, titles TitleResolver) *Renderer {
	return &Renderer{
		fsys:   fsys,
		titles: titles,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithXHTML()),
		),
	}
}

// Render reads and renders the page's source file.
func (r *Renderer) Render(page pagetree.LocalPage) (Rendered, error) {
	src, err := fs.ReadFile(r.fsys, page.Path)
	if err != nil {
		return Rendered{}, errors.FileSystemError("failed to read page source").
			WithCause(err).
			WithContext("path", page.Path).
			Build()
	}
	return r.RenderSource(page.Path, src)
}

// RenderSource renders markdown that lives at pagePath.
func (r *Renderer) RenderSource(pagePath string, src []byte) (Rendered, error) {
	doc, err := frontmatter.Parse(src)
	if err != nil {
		return Rendered{}, errors.RenderError("invalid front matter").
			WithCause(err).
			WithContext("path", pagePath).
			Build()
	}

	var buf bytes.Buffer
	if err := r.md.Convert(doc.Body, &buf); err != nil {
		return Rendered{}, errors.RenderError("markdown conversion failed").
			WithCause(err).
			WithContext("path", pagePath).
			Build()
	}

	body, err := toStorage(buf.String(), pagePath, r.titles)
	if err != nil {
		return Rendered{}, errors.RenderError("storage conversion failed").
			WithCause(err).
			WithContext("path", pagePath).
			Build()
	}
	return Rendered{Body: body, Fingerprint: Fingerprint(doc.Raw, body)}, nil
}

// Fingerprint identifies rendered content together with its front matter.
func Fingerprint(rawFrontmatter []byte, body string) string {
	fm := strings.TrimSuffix(string(rawFrontmatter), "\n")
	return mdfp.CalculateFingerprintFromParts(fm, body)
}

// ChildrenMacro lists a page's children. It is the body of pages that have
// no source document of their own.
func ChildrenMacro() string {
	return `<ac:structured-macro ac:name="children"><ac:parameter ac:name="all">true</ac:parameter></ac:structured-macro>`
}
