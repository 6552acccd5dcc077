package render

import (
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// toStorage rewrites goldmark XHTML into Confluence storage markup:
// internal page links become ac:link elements, fenced code becomes the code
// macro and images become ac:image.
func toStorage(xhtml, pagePath string, titles TitleResolver) (string, error) {
	parent := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(xhtml), parent)
	if err != nil {
		return "", err
	}

	c := converter{pagePath: pagePath, titles: titles}
	var out strings.Builder
	for _, n := range nodes {
		n = c.convert(n)
		if err := html.Render(&out, n); err != nil {
			return "", err
		}
	}
	return out.String(), nil
}

type converter struct {
	pagePath string
	titles   TitleResolver
}

// convert returns the replacement for n after converting its subtree.
func (c converter) convert(n *html.Node) *html.Node {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Pre:
			if macro := codeMacro(n); macro != nil {
				return macro
			}
		case atom.A:
			if link := c.pageLink(n); link != nil {
				return link
			}
		case atom.Img:
			return image(n)
		}
	}

	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		if replacement := c.convert(child); replacement != child {
			n.InsertBefore(replacement, child)
			n.RemoveChild(child)
		}
		child = next
	}
	return n
}

func (c converter) pageLink(a *html.Node) *html.Node {
	if c.titles == nil {
		return nil
	}
	href := attr(a, "href")
	target, anchor, ok := resolveInternal(c.pagePath, href)
	if !ok {
		return nil
	}
	title, ok := c.titles.Title(target)
	if !ok {
		return nil
	}

	link := element("ac:link")
	if anchor != "" {
		link.Attr = append(link.Attr, html.Attribute{Key: "ac:anchor", Val: anchor})
	}
	page := element("ri:page", html.Attribute{Key: "ri:content-title", Val: title})
	link.AppendChild(page)

	body := element("ac:link-body")
	for child := a.FirstChild; child != nil; {
		next := child.NextSibling
		a.RemoveChild(child)
		body.AppendChild(child)
		child = next
	}
	link.AppendChild(body)
	return link
}

// resolveInternal resolves a relative markdown link against the linking
// page. External URLs and pure fragments are not internal.
func resolveInternal(pagePath, href string) (target, anchor string, ok bool) {
	if href == "" || strings.HasPrefix(href, "#") {
		return "", "", false
	}
	u, err := url.Parse(href)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", "", false
	}
	p := u.Path
	if !strings.HasSuffix(strings.ToLower(p), ".md") {
		return "", "", false
	}
	if strings.HasPrefix(p, "/") {
		p = strings.TrimPrefix(path.Clean(p), "/")
	} else {
		p = path.Join(path.Dir(pagePath), p)
	}
	return p, u.Fragment, true
}

func codeMacro(pre *html.Node) *html.Node {
	code := pre.FirstChild
	if code == nil || code.Type != html.ElementNode || code.DataAtom != atom.Code {
		return nil
	}

	macro := element("ac:structured-macro", html.Attribute{Key: "ac:name", Val: "code"})
	for _, class := range strings.Fields(attr(code, "class")) {
		if lang, ok := strings.CutPrefix(class, "language-"); ok {
			param := element("ac:parameter", html.Attribute{Key: "ac:name", Val: "language"})
			param.AppendChild(&html.Node{Type: html.TextNode, Data: lang})
			macro.AppendChild(param)
			break
		}
	}

	body := element("ac:plain-text-body")
	body.AppendChild(&html.Node{Type: html.RawNode, Data: cdata(textContent(code))})
	macro.AppendChild(body)
	return macro
}

func image(img *html.Node) *html.Node {
	src := attr(img, "src")
	out := element("ac:image")
	if alt := attr(img, "alt"); alt != "" {
		out.Attr = append(out.Attr, html.Attribute{Key: "ac:alt", Val: alt})
	}
	if u, err := url.Parse(src); err == nil && u.Scheme != "" {
		out.AppendChild(element("ri:url", html.Attribute{Key: "ri:value", Val: src}))
	} else {
		out.AppendChild(element("ri:attachment", html.Attribute{Key: "ri:filename", Val: path.Base(src)}))
	}
	return out
}

func cdata(s string) string {
	return "<![CDATA[" + strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>") + "]]>"
}

func element(name string, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: name, Attr: attrs}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
