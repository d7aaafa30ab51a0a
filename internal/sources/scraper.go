package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/brogergvhs/novelscraper/internal/book"
	"github.com/brogergvhs/novelscraper/internal/chapters"
	"github.com/brogergvhs/novelscraper/internal/extract"
	"github.com/brogergvhs/novelscraper/internal/fetch"

	"github.com/PuerkitoBio/goquery"
)

// maxTOCPages bounds open-ended walks over paginated tables of contents.
const maxTOCPages = 500

type Logger interface {
	Debugf(string, ...any)
	Warnf(string, ...any)
}

type Scraper struct {
	desc    Descriptor
	fetcher fetch.Fetcher
	log     Logger
}

func NewScraper(desc Descriptor, f fetch.Fetcher, log Logger) *Scraper {
	return &Scraper{desc: desc, fetcher: f, log: log}
}

func (s *Scraper) Descriptor() Descriptor {
	return s.desc
}

func (s *Scraper) page(ctx context.Context, target string) (*extract.Page, error) {
	raw, err := s.fetcher.Fetch(ctx, target)
	if err != nil {
		return nil, err
	}
	return extract.Parse(raw, target)
}

func (s *Scraper) checkURL(novelURL string) error {
	if !s.desc.Supports(novelURL) {
		return fmt.Errorf("%w: %s scraper does not support %q", ErrUnsupportedURL, s.desc.Name, novelURL)
	}
	return nil
}

// Novel scrapes the novel's landing page. Only the title is mandatory; a
// missing author, description or cover is logged and left empty.
func (s *Scraper) Novel(ctx context.Context, novelURL string) (book.Metadata, error) {
	if err := s.checkURL(novelURL); err != nil {
		return book.Metadata{}, err
	}

	p, err := s.page(ctx, novelURL)
	if err != nil {
		return book.Metadata{}, err
	}

	rules := s.desc.Novel
	title, err := p.Text(rules.Title)
	if err != nil {
		return book.Metadata{}, err
	}

	meta := book.Metadata{
		Title:      title,
		Language:   s.desc.Language,
		Source:     s.desc.Name,
		URL:        novelURL,
		Identifier: "urn:novelscraper:" + s.desc.Name + ":" + chapters.Sanitize(lastSegment(novelURL)),
	}

	if rules.Author != "" {
		if meta.Author, err = p.Text(rules.Author); err != nil {
			s.log.Warnf("Author not found: %v", err)
		}
	}

	if rules.Description != "" {
		lines, err := p.Texts(rules.Description)
		if err != nil {
			s.log.Warnf("Description not found: %v", err)
		}
		meta.Description = strings.Join(lines, "\n")
	}

	if rules.Cover != "" {
		meta.Cover = s.cover(ctx, p)
	}

	return meta, nil
}

func (s *Scraper) cover(ctx context.Context, p *extract.Page) []byte {
	src, err := p.Attr(s.desc.Novel.Cover, s.desc.coverAttr())
	if err != nil {
		s.log.Warnf("Cover not found: %v", err)
		return nil
	}

	img, err := s.fetcher.Fetch(ctx, src)
	if err != nil {
		s.log.Warnf("Cover download failed: %v", err)
		return nil
	}
	return img
}

// Chapters lists the selected chapters in table-of-contents order.
func (s *Scraper) Chapters(ctx context.Context, novelURL string, sel chapters.Selection) ([]chapters.Ref, error) {
	if err := s.checkURL(novelURL); err != nil {
		return nil, err
	}
	if err := sel.Validate(); err != nil {
		return nil, err
	}

	if s.desc.TOC.Mode == ModePattern {
		return s.patternRefs(novelURL, sel)
	}

	all, err := s.listRefs(ctx, novelURL, sel)
	if err != nil {
		return nil, err
	}
	return chapters.Filter(all, sel), nil
}

func (s *Scraper) patternRefs(novelURL string, sel chapters.Selection) ([]chapters.Ref, error) {
	numbers := sel.List
	if len(numbers) == 0 {
		if sel.End == 0 {
			return nil, fmt.Errorf("%w: %s needs an end chapter", chapters.ErrInvalidSelection, s.desc.Name)
		}
		for n := sel.Start; n <= sel.End; n++ {
			numbers = append(numbers, n)
		}
	}

	refs := make([]chapters.Ref, 0, len(numbers))
	for i, n := range numbers {
		refs = append(refs, chapters.Ref{
			Order:  i,
			Number: n,
			Title:  fmt.Sprintf("Chapter %d", n),
			URL:    s.desc.ChapterURL(novelURL, n),
		})
	}
	return refs, nil
}

func (s *Scraper) listRefs(ctx context.Context, novelURL string, sel chapters.Selection) ([]chapters.Ref, error) {
	toc := s.desc.TOC
	if toc.PerPage <= 0 {
		return s.scanTOCPage(ctx, novelURL, nil, 0)
	}

	low, high := sel.Bounds()
	if high > 0 {
		var refs []chapters.Ref
		pages := chapters.TOCPages(low, high, toc.PerPage)
		for _, n := range pages {
			s.log.Debugf("Scraping TOC page %d", n)
			more, err := s.scanTOCPage(ctx, s.desc.PageURL(novelURL, n), refs, len(refs))
			if pastLastPage(err, n, pages[0]) {
				s.log.Debugf("TOC page %d does not exist, stopping", n)
				break
			}
			if err != nil {
				return nil, err
			}
			refs = more
		}
		return refs, nil
	}

	// Open range: walk pages until one adds nothing new.
	var refs []chapters.Ref
	first := chapters.TOCPages(low, low, toc.PerPage)[0]
	for n := first; n < first+maxTOCPages; n++ {
		s.log.Debugf("Scraping TOC page %d", n)
		more, err := s.scanTOCPage(ctx, s.desc.PageURL(novelURL, n), refs, len(refs))
		if pastLastPage(err, n, first) {
			s.log.Debugf("TOC page %d does not exist, stopping", n)
			break
		}
		if err != nil {
			return nil, err
		}
		if len(more) == len(refs) {
			break
		}
		refs = more
	}
	return refs, nil
}

// pastLastPage reports a 404 for a TOC page after the first one, which
// some sites answer instead of an empty listing.
func pastLastPage(err error, page, first int) bool {
	var nerr *fetch.NetworkError
	return page > first && errors.As(err, &nerr) && nerr.Status == http.StatusNotFound
}

// scanTOCPage appends the chapter links of one TOC page to refs, skipping
// URLs already present. Orders continue from offset.
func (s *Scraper) scanTOCPage(ctx context.Context, pageURL string, refs []chapters.Ref, offset int) ([]chapters.Ref, error) {
	p, err := s.page(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	links, err := p.Select(s.desc.TOC.Link)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(refs))
	for _, r := range refs {
		seen[r.URL] = true
	}

	order := offset
	links.Each(func(_ int, a *goquery.Selection) {
		href, ok := a.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		u := extract.Resolve(pageURL, href)
		if seen[u] {
			return
		}
		seen[u] = true

		title := extract.CleanText(a.Text())
		if attr := s.desc.TOC.TitleAttr; attr != "" {
			if v, ok := a.Attr(attr); ok && strings.TrimSpace(v) != "" {
				title = extract.CleanText(v)
			}
		}

		refs = append(refs, chapters.Ref{
			Order:  order,
			Number: extract.ChapterNumber(title),
			Title:  title,
			URL:    u,
		})
		order++
	})

	return refs, nil
}

// Chapter fetches and extracts one chapter. When the content selector
// finds at most one paragraph the readability and whole-page fallbacks are
// tried, if the descriptor enables them.
func (s *Scraper) Chapter(ctx context.Context, ref chapters.Ref) (book.Chapter, error) {
	p, err := s.page(ctx, ref.URL)
	if err != nil {
		return book.Chapter{}, err
	}

	rules := s.desc.Chapter
	title := ""
	if rules.Title != "" {
		if title, err = p.Text(rules.Title); err != nil {
			s.log.Debugf("Chapter title selector missed on %s, using TOC title", ref.URL)
		}
	}

	paras, err := p.Paragraphs(rules.Content)
	if err != nil {
		return book.Chapter{}, err
	}

	if len(paras) <= 1 {
		if body, ok := s.fallbackBody(p, ref); ok {
			return book.FromRef(ref, title, body), nil
		}
	}

	if len(paras) == 0 {
		return book.Chapter{}, &extract.ParseError{URL: ref.URL, Rule: rules.Content, Err: ErrNoContent}
	}

	return book.FromRef(ref, title, strings.Join(paras, "\n")), nil
}

func (s *Scraper) fallbackBody(p *extract.Page, ref chapters.Ref) (string, bool) {
	rules := s.desc.Chapter
	if !rules.Readability && !rules.PageFallback {
		return "", false
	}

	s.log.Warnf("Chapter %q has no content, looking outside the content container", ref.Title)

	if rules.Readability {
		content, _, err := p.Readability()
		if err == nil {
			return content, true
		}
		s.log.Debugf("Readability fallback failed: %v", err)
	}

	if rules.PageFallback {
		if paras, err := p.Paragraphs("p"); err == nil && len(paras) > 1 {
			return strings.Join(paras, "\n"), true
		}
	}

	return "", false
}

func lastSegment(u string) string {
	u = strings.TrimRight(u, "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return u
}
