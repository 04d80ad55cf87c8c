package scrape

import (
	"bytes"
	"mime"
	"net/url"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/text/encoding/htmlindex"
)

var metaCharsetRe = regexp.MustCompile(`(?i)<meta[^>]+charset=["']?([a-zA-Z0-9_\-]+)`)

// decodeBody converts body to UTF-8 using the charset from the Content-Type
// header or, failing that, a <meta charset> in the first kilobyte.
// Unknown charsets leave the body untouched.
func decodeBody(body []byte, contentType string) []byte {
	var name string
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		name = params["charset"]
	}
	if name == "" {
		if m := metaCharsetRe.FindSubmatch(body[:min(len(body), 1024)]); m != nil {
			name = string(m[1])
		}
	}
	if name == "" {
		return body
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return body
	}
	if canonical, _ := htmlindex.Name(enc); canonical == "utf-8" {
		return body
	}
	out, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return body
	}
	return out
}

// skipped elements never contribute text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Head:     true,
}

// chrome elements are dropped from ContentText only.
var chrome = map[atom.Atom]bool{
	atom.Nav:    true,
	atom.Footer: true,
	atom.Header: true,
	atom.Aside:  true,
}

// parsePage parses an HTML document fetched from base.
func parsePage(base *url.URL, body []byte) (*Page, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "scrape: parse html")
	}

	var text, content textBuilder
	page := &Page{URL: base.String(), Title: findTitle(doc)}

	var walk func(n *html.Node, inChrome bool)
	walk = func(n *html.Node, inChrome bool) {
		switch n.Type {
		case html.TextNode:
			text.add(n.Data)
			if !inChrome {
				content.add(n.Data)
			}
			return
		case html.ElementNode:
			if skipped[n.DataAtom] {
				return
			}
			if n.DataAtom == atom.A {
				if link, ok := anchor(base, n); ok {
					page.Links = append(page.Links, link)
				}
			}
			inChrome = inChrome || chrome[n.DataAtom]
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inChrome)
		}
	}
	walk(doc, false)

	page.Text = text.String()
	page.ContentText = content.String()
	return page, nil
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.DataAtom == atom.Title {
		return collapse(nodeText(n))
	}
	if n.Type == html.ElementNode && n.DataAtom == atom.Svg {
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

// anchor resolves an <a href> against base. Fragment-only, javascript,
// mailto and tel links are ignored.
func anchor(base *url.URL, n *html.Node) (Link, bool) {
	var href string
	for _, a := range n.Attr {
		if a.Key == "href" {
			href = strings.TrimSpace(a.Val)
			break
		}
	}
	if href == "" || strings.HasPrefix(href, "#") {
		return Link{}, false
	}
	u, err := base.Parse(href)
	if err != nil {
		return Link{}, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Link{}, false
	}
	u.Fragment = ""
	return Link{Href: u.String(), Text: collapse(nodeText(n))}, true
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// textBuilder joins text fragments with single spaces.
type textBuilder struct {
	sb strings.Builder
}

func (b *textBuilder) add(s string) {
	for _, f := range strings.Fields(s) {
		if b.sb.Len() > 0 {
			b.sb.WriteByte(' ')
		}
		b.sb.WriteString(f)
	}
}

func (b *textBuilder) String() string { return b.sb.String() }

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
