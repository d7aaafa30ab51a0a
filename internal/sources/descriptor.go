// Package sources describes novel sites and scrapes them. A Descriptor is
// plain data (YAML friendly) so new sites can be added without code.
package sources

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	ModeList    = "list"
	ModePattern = "pattern"
)

var (
	ErrUnsupportedURL = errors.New("unsupported url")
	ErrUnknownSource  = errors.New("unknown source")
	ErrNoContent      = errors.New("chapter has no content")
)

type Descriptor struct {
	Name     string       `yaml:"name"`
	Domain   string       `yaml:"domain"`
	Language string       `yaml:"language,omitempty"`
	Novel    NovelRules   `yaml:"novel"`
	TOC      TOCRules     `yaml:"toc"`
	Chapter  ChapterRules `yaml:"chapter"`
}

type NovelRules struct {
	Title       string `yaml:"title"`
	Author      string `yaml:"author,omitempty"`
	Description string `yaml:"description,omitempty"`
	Cover       string `yaml:"cover,omitempty"`
	CoverAttr   string `yaml:"cover_attr,omitempty"`
}

// TOCRules locate chapters. In list mode anchors matching Link are read
// from the novel page, optionally paginated with ?PageParam=N holding
// PerPage chapters each. In pattern mode chapter URLs are built from
// Pattern, where {url} is the novel URL, {slug} its last path segment and
// {n} the chapter number.
type TOCRules struct {
	Mode      string `yaml:"mode"`
	Link      string `yaml:"link,omitempty"`
	TitleAttr string `yaml:"title_attr,omitempty"`
	PageParam string `yaml:"page_param,omitempty"`
	PerPage   int    `yaml:"per_page,omitempty"`
	Pattern   string `yaml:"pattern,omitempty"`
}

type ChapterRules struct {
	Title        string `yaml:"title,omitempty"`
	Content      string `yaml:"content"`
	Readability  bool   `yaml:"readability,omitempty"`
	PageFallback bool   `yaml:"page_fallback,omitempty"`
}

func (d Descriptor) Validate() error {
	var problems []string

	if strings.TrimSpace(d.Name) == "" {
		problems = append(problems, "name is required")
	}
	if u, err := url.Parse(d.Domain); err != nil || u.Host == "" {
		problems = append(problems, fmt.Sprintf("domain %q is not an absolute URL", d.Domain))
	}
	if d.Novel.Title == "" {
		problems = append(problems, "novel.title selector is required")
	}
	if d.Chapter.Content == "" {
		problems = append(problems, "chapter.content selector is required")
	}

	switch d.TOC.Mode {
	case ModeList:
		if d.TOC.Link == "" {
			problems = append(problems, "toc.link selector is required in list mode")
		}
		if d.TOC.PerPage > 0 && d.TOC.PageParam == "" {
			problems = append(problems, "toc.page_param is required when toc.per_page is set")
		}
	case ModePattern:
		if !strings.Contains(d.TOC.Pattern, "{n}") {
			problems = append(problems, "toc.pattern must contain {n}")
		}
	default:
		problems = append(problems, fmt.Sprintf("toc.mode %q must be %q or %q", d.TOC.Mode, ModeList, ModePattern))
	}

	if len(problems) > 0 {
		return fmt.Errorf("source %q: %s", d.Name, strings.Join(problems, "; "))
	}
	return nil
}

// Supports reports whether novelURL lives on the descriptor's site.
// A leading "www." is ignored on both sides.
func (d Descriptor) Supports(novelURL string) bool {
	want, err := url.Parse(d.Domain)
	if err != nil {
		return false
	}
	got, err := url.Parse(novelURL)
	if err != nil || got.Host == "" {
		return false
	}

	return trimWWW(got.Hostname()) == trimWWW(want.Hostname())
}

func trimWWW(host string) string {
	return strings.TrimPrefix(strings.ToLower(host), "www.")
}

// ChapterURL expands the pattern for chapter n.
func (d Descriptor) ChapterURL(novelURL string, n int) string {
	r := strings.NewReplacer(
		"{url}", strings.TrimRight(novelURL, "/"),
		"{slug}", lastSegment(novelURL),
		"{n}", fmt.Sprintf("%d", n),
	)
	return r.Replace(d.TOC.Pattern)
}

// PageURL returns the TOC page URL for page n.
func (d Descriptor) PageURL(novelURL string, n int) string {
	if d.TOC.PageParam == "" {
		return novelURL
	}

	u, err := url.Parse(novelURL)
	if err != nil {
		return novelURL
	}
	q := u.Query()
	q.Set(d.TOC.PageParam, fmt.Sprintf("%d", n))
	u.RawQuery = q.Encode()
	return u.String()
}

func (d Descriptor) coverAttr() string {
	if d.Novel.CoverAttr == "" {
		return "src"
	}
	return d.Novel.CoverAttr
}
