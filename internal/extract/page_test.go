package extract

import (
	"errors"
	"strings"
	"testing"
)

const novelPage = `<html><head><title>Test</title></head><body>
<div class="novel-body"><h2>  The   Long Road </h2></div>
<img class="img-thumbnail" src="/covers/road.png">
<dl><dt>Author:</dt><dd>Jane Doe</dd></dl>
<h3>Synopsis</h3>
<div><p>First line.</p><p></p><p>Second line.</p></div>
<div id="chapter-outer">
  <h4>Chapter 12: Rain</h4>
  <div id="chapter-content"><p>One.</p><p>  </p><p>Two <b>bold</b>.</p></div>
</div>
</body></html>`

func mustParse(t *testing.T) *Page {
	t.Helper()
	p, err := Parse([]byte(novelPage), "https://example.com/novel/long-road")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return p
}

func TestPageText(t *testing.T) {
	p := mustParse(t)

	tests := []struct {
		name string
		rule string
		want string
	}{
		{"css", "div.novel-body h2", "The Long Road"},
		{"adjacent sibling", `dt:contains("Author:") + dd`, "Jane Doe"},
		{"xpath", "xpath://div[@id='chapter-outer']/h4", "Chapter 12: Rain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Text(tt.rule)
			if err != nil {
				t.Fatalf("Text(%q): %v", tt.rule, err)
			}
			if got != tt.want {
				t.Fatalf("Text(%q) = %q, want %q", tt.rule, got, tt.want)
			}
		})
	}
}

func TestPageTextMissingIsParseError(t *testing.T) {
	p := mustParse(t)

	_, err := p.Text("h1.missing")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError, got %T (%v)", err, err)
	}
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("expected ErrNoMatch, got %v", err)
	}
	if perr.Rule != "h1.missing" || perr.URL != "https://example.com/novel/long-road" {
		t.Fatalf("unexpected error fields %+v", perr)
	}
}

func TestPageBadXPath(t *testing.T) {
	p := mustParse(t)

	_, err := p.Select("xpath://div[")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *ParseError for malformed xpath, got %v", err)
	}
}

func TestPageAttrResolvesURL(t *testing.T) {
	p := mustParse(t)

	got, err := p.Attr("img.img-thumbnail", "src")
	if err != nil {
		t.Fatalf("Attr: %v", err)
	}
	if got != "https://example.com/covers/road.png" {
		t.Fatalf("Attr = %q", got)
	}
}

func TestPageTexts(t *testing.T) {
	p := mustParse(t)

	got, err := p.Texts(`h3:contains("Synopsis") + div p`)
	if err != nil {
		t.Fatalf("Texts: %v", err)
	}
	if strings.Join(got, "|") != "First line.|Second line." {
		t.Fatalf("Texts = %q", got)
	}
}

func TestPageParagraphsSkipEmpty(t *testing.T) {
	p := mustParse(t)

	for _, rule := range []string{"#chapter-content p", "xpath://div[@id='chapter-content']/p"} {
		got, err := p.Paragraphs(rule)
		if err != nil {
			t.Fatalf("Paragraphs(%q): %v", rule, err)
		}
		if len(got) != 2 {
			t.Fatalf("Paragraphs(%q) = %q, want 2 entries", rule, got)
		}
		if got[0] != "<p>One.</p>" || got[1] != "<p>Two <b>bold</b>.</p>" {
			t.Fatalf("Paragraphs(%q) = %q", rule, got)
		}
	}
}

func TestSelectInRestrictsScope(t *testing.T) {
	p := mustParse(t)

	outer, err := p.Select("#chapter-outer")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	sel, err := p.SelectIn(outer, "xpath://p")
	if err != nil {
		t.Fatalf("SelectIn: %v", err)
	}
	if sel.Length() != 3 {
		t.Fatalf("expected 3 paragraphs inside #chapter-outer, got %d", sel.Length())
	}
}

func TestChapterNumber(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"Chapter 12: Rain", 12},
		{"Chapter 007 - Side 2", 7},
		{"https://www.wuxiaworld.com/novel/x/x-chapter-45", 45},
		{"Volume 2 Chapter 15", 15},
		{"Vol.3 Ch.4 Dawn", 4},
		{"Teacher 5", 5},
		{"Prologue", -1},
		{"", -1},
	}

	for _, tt := range tests {
		if got := ChapterNumber(tt.in); got != tt.want {
			t.Errorf("ChapterNumber(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		base, raw, want string
	}{
		{"https://novelfull.com/a-novel.html", "/a-novel/chapter-1.html", "https://novelfull.com/a-novel/chapter-1.html"},
		{"https://novelfull.com/a-novel.html", "https://cdn.example.com/c.jpg", "https://cdn.example.com/c.jpg"},
		{"https://example.com/novel/", "chapter-2", "https://example.com/novel/chapter-2"},
	}

	for _, tt := range tests {
		if got := Resolve(tt.base, tt.raw); got != tt.want {
			t.Errorf("Resolve(%q, %q) = %q, want %q", tt.base, tt.raw, got, tt.want)
		}
	}
}

func TestReadabilityFallback(t *testing.T) {
	para := strings.Repeat("The caravan moved slowly across the endless dunes, and every traveller kept an eye on the horizon. ", 6)
	raw := `<html><head><title>Chapter 3: Dunes</title></head><body>
<nav><a href="/">Home</a><a href="/list">List</a></nav>
<article><h1>Chapter 3: Dunes</h1>
<p>` + para + `</p><p>` + para + `</p><p>` + para + `</p><p>` + para + `</p>
</article>
<footer>Copyright</footer></body></html>`

	p, err := Parse([]byte(raw), "https://example.com/novel/chapter-3")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	content, _, err := p.Readability()
	if err != nil {
		t.Fatalf("Readability: %v", err)
	}
	if !strings.Contains(content, "caravan moved slowly") {
		t.Fatalf("expected article text in content, got %q", content)
	}
}
