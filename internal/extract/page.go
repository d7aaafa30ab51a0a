// Package extract turns raw HTML into chapter text. Selector rules are CSS
// by default; rules prefixed with "xpath:" are evaluated as XPath.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

const xpathPrefix = "xpath:"

var (
	ErrNoMatch   = errors.New("selector matched nothing")
	ErrEmptyRule = errors.New("empty selector")

	reNumber  = regexp.MustCompile(`\d+`)
	reChapter = regexp.MustCompile(`(?i)(?:^|[^a-z])(?:chapter|chap|ch)[.\s_\-]*0*(\d+)`)
)

// ParseError reports markup that could not be parsed or a selector that
// found nothing where the source requires a match.
type ParseError struct {
	URL  string
	Rule string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Rule != "" {
		return fmt.Sprintf("parse %s: %q: %v", e.URL, e.Rule, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type Page struct {
	URL  string
	Raw  []byte
	Root *html.Node
	Doc  *goquery.Document
}

func Parse(raw []byte, pageURL string) (*Page, error) {
	root, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, &ParseError{URL: pageURL, Err: err}
	}

	return &Page{
		URL:  pageURL,
		Raw:  raw,
		Root: root,
		Doc:  goquery.NewDocumentFromNode(root),
	}, nil
}

// Select evaluates rule against the whole document.
func (p *Page) Select(rule string) (*goquery.Selection, error) {
	return p.SelectIn(p.Doc.Selection, rule)
}

// SelectIn evaluates rule relative to scope. XPath rules are evaluated on
// the document and restricted to descendants of scope.
func (p *Page) SelectIn(scope *goquery.Selection, rule string) (*goquery.Selection, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil, p.fail(rule, ErrEmptyRule)
	}

	if expr, ok := strings.CutPrefix(rule, xpathPrefix); ok {
		var nodes []*html.Node
		for _, n := range scope.Nodes {
			found, err := htmlquery.QueryAll(n, strings.TrimSpace(expr))
			if err != nil {
				return nil, p.fail(rule, err)
			}
			nodes = append(nodes, found...)
		}
		return scope.FindNodes(nodes...), nil
	}

	return scope.Find(rule), nil
}

func (p *Page) fail(rule string, err error) error {
	return &ParseError{URL: p.URL, Rule: rule, Err: err}
}

func (p *Page) first(rule string) (*goquery.Selection, error) {
	sel, err := p.Select(rule)
	if err != nil {
		return nil, err
	}
	if sel.Length() == 0 {
		return nil, p.fail(rule, ErrNoMatch)
	}
	return sel.First(), nil
}

// Text returns the collapsed text of the first match.
func (p *Page) Text(rule string) (string, error) {
	sel, err := p.first(rule)
	if err != nil {
		return "", err
	}

	text := CleanText(sel.Text())
	if text == "" {
		return "", p.fail(rule, ErrNoMatch)
	}
	return text, nil
}

// Texts returns the non-empty texts of every match.
func (p *Page) Texts(rule string) ([]string, error) {
	sel, err := p.Select(rule)
	if err != nil {
		return nil, err
	}

	var out []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if t := CleanText(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out, nil
}

// Attr returns attribute name of the first match. src and href values are
// resolved against the page URL.
func (p *Page) Attr(rule, name string) (string, error) {
	sel, err := p.first(rule)
	if err != nil {
		return "", err
	}

	v, ok := sel.Attr(name)
	v = strings.TrimSpace(v)
	if !ok || v == "" {
		return "", p.fail(rule, fmt.Errorf("attribute %q missing", name))
	}

	if name == "src" || name == "href" || strings.HasPrefix(name, "data-") {
		return Resolve(p.URL, v), nil
	}
	return v, nil
}

// Paragraphs returns the outer HTML of every match that carries text.
func (p *Page) Paragraphs(rule string) ([]string, error) {
	return p.ParagraphsIn(p.Doc.Selection, rule)
}

func (p *Page) ParagraphsIn(scope *goquery.Selection, rule string) ([]string, error) {
	sel, err := p.SelectIn(scope, rule)
	if err != nil {
		return nil, err
	}

	var out []string
	var renderErr error
	sel.Each(func(_ int, s *goquery.Selection) {
		if renderErr != nil || CleanText(s.Text()) == "" {
			return
		}
		frag, err := goquery.OuterHtml(s)
		if err != nil {
			renderErr = err
			return
		}
		out = append(out, strings.TrimSpace(frag))
	})
	if renderErr != nil {
		return nil, p.fail(rule, renderErr)
	}

	return out, nil
}

func CleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ChapterNumber returns the number following "chapter" / "ch" in s, else
// the first integer in s, or -1. "Volume 2 Chapter 15" yields 15.
func ChapterNumber(s string) int {
	m := ""
	if sub := reChapter.FindStringSubmatch(s); sub != nil {
		m = sub[1]
	} else {
		m = reNumber.FindString(s)
	}
	if m == "" {
		return -1
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return -1
	}
	return n
}

func Resolve(base, raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	if u.IsAbs() {
		return u.String()
	}

	b, err := url.Parse(base)
	if err != nil {
		return raw
	}
	return b.ResolveReference(u).String()
}
