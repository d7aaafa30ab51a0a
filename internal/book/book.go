// Package book holds the in-memory novel and writes it out as EPUB.
package book

import (
	"fmt"
	"sort"
	"sync"

	"github.com/brogergvhs/novelscraper/internal/chapters"
)

type Metadata struct {
	Title       string
	Author      string
	Description string
	Language    string
	Identifier  string
	Source      string
	URL         string
	Cover       []byte
}

// Chapter is one extracted chapter. Body is an XHTML fragment.
type Chapter struct {
	Order  int
	Number int
	Title  string
	Body   string
	URL    string
}

// FromRef copies the TOC position of ref onto a chapter.
func FromRef(ref chapters.Ref, title, body string) Chapter {
	if title == "" {
		title = ref.Title
	}
	return Chapter{
		Order:  ref.Order,
		Number: ref.Number,
		Title:  title,
		Body:   body,
		URL:    ref.URL,
	}
}

// Book is append-only: chapters can be added but never removed or replaced.
type Book struct {
	Meta Metadata

	mu       sync.Mutex
	chapters []Chapter
	orders   map[int]bool
}

func New(meta Metadata) *Book {
	if meta.Language == "" {
		meta.Language = "en"
	}
	return &Book{Meta: meta, orders: map[int]bool{}}
}

func (b *Book) Add(ch Chapter) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.orders[ch.Order] {
		return fmt.Errorf("chapter at position %d already added", ch.Order)
	}
	b.orders[ch.Order] = true
	b.chapters = append(b.chapters, ch)
	return nil
}

func (b *Book) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.chapters)
}

// Chapters returns a copy sorted by TOC position.
func (b *Book) Chapters() []Chapter {
	b.mu.Lock()
	out := make([]Chapter, len(b.chapters))
	copy(out, b.chapters)
	b.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// NumberRange reports the lowest and highest numbered chapter, or -1, -1
// when no chapter carries a number.
func (b *Book) NumberRange() (low, high int) {
	found := false
	for _, ch := range b.Chapters() {
		if ch.Number < 0 {
			continue
		}
		if !found || ch.Number < low {
			low = ch.Number
		}
		if !found || ch.Number > high {
			high = ch.Number
		}
		found = true
	}
	if !found {
		return -1, -1
	}
	return low, high
}

// FileName follows the "Title_Words.Chapters1-50.epub" convention.
func FileName(title string, start, end int) string {
	name := chapters.Sanitize(title)
	if name == "" {
		name = "novel"
	}
	return fmt.Sprintf("%s.Chapters%d-%d.epub", name, start, end)
}
