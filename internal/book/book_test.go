package book

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/brogergvhs/novelscraper/internal/chapters"
	"github.com/brogergvhs/novelscraper/internal/util"
)

func TestChaptersSortedByOrder(t *testing.T) {
	b := New(Metadata{Title: "Road"})
	for _, ch := range []Chapter{
		{Order: 2, Number: 3, Title: "Three"},
		{Order: 0, Number: -1, Title: "Prologue"},
		{Order: 1, Number: 1, Title: "One"},
	} {
		if err := b.Add(ch); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}

	var titles []string
	for _, ch := range b.Chapters() {
		titles = append(titles, ch.Title)
	}
	if strings.Join(titles, ",") != "Prologue,One,Three" {
		t.Fatalf("Chapters order = %v", titles)
	}
	if lo, hi := b.NumberRange(); lo != 1 || hi != 3 {
		t.Fatalf("NumberRange = %d-%d", lo, hi)
	}
}

func TestAddRejectsDuplicatePosition(t *testing.T) {
	b := New(Metadata{Title: "Road"})
	if err := b.Add(Chapter{Order: 0, Title: "First"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := b.Add(Chapter{Order: 0, Title: "Impostor"}); err == nil {
		t.Fatalf("expected duplicate position error")
	}
	if got := b.Chapters(); len(got) != 1 || got[0].Title != "First" {
		t.Fatalf("existing chapter must be untouched, got %+v", got)
	}
}

func TestFromRefFallsBackToLinkTitle(t *testing.T) {
	ref := chapters.Ref{Order: 3, Number: 4, Title: "Chapter 4", URL: "https://x/4"}
	ch := FromRef(ref, "", "<p>x</p>")
	if ch.Title != "Chapter 4" || ch.Order != 3 || ch.Number != 4 || ch.URL != "https://x/4" {
		t.Fatalf("FromRef = %+v", ch)
	}
}

func TestFileName(t *testing.T) {
	if got := FileName("The Long Road", 1, 50); got != "The_Long_Road.Chapters1-50.epub" {
		t.Fatalf("FileName = %q", got)
	}
	if got := FileName("???", 2, 3); got != "novel.Chapters2-3.epub" {
		t.Fatalf("FileName = %q", got)
	}
}

func TestWriteEPUBEmptyBook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.epub")
	err := New(Metadata{Title: "Nothing"}).WriteEPUB(path)

	var serr *SerializationError
	if !errors.As(err, &serr) || !errors.Is(err, ErrEmptyBook) {
		t.Fatalf("expected SerializationError wrapping ErrEmptyBook, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("no file should be written for an empty book")
	}
}

func TestWriteEPUB(t *testing.T) {
	b := New(Metadata{
		Title:       "The Long Road",
		Author:      "Jane Doe",
		Description: "A walk.",
		Identifier:  "urn:novelscraper:test",
	})
	_ = b.Add(Chapter{Order: 1, Number: 2, Title: "Chapter 2: Hills", Body: "<p>Up and down.</p>"})
	_ = b.Add(Chapter{Order: 0, Number: 1, Title: "Chapter 1: Start & End", Body: "<p>Off we go.</p>"})

	dir := t.TempDir()
	path := filepath.Join(dir, FileName(b.Meta.Title, 1, 2))
	if err := b.WriteEPUB(path); err != nil {
		t.Fatalf("WriteEPUB: %v", err)
	}
	if _, err := os.Stat(path + util.PartialSuffix); !os.IsNotExist(err) {
		t.Fatalf("partial file should be renamed away")
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open epub: %v", err)
	}
	defer zr.Close()

	files := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		files[f.Name] = string(data)
	}

	if files["mimetype"] != "application/epub+zip" {
		t.Fatalf("mimetype = %q", files["mimetype"])
	}

	var sections []string
	for name := range files {
		if strings.HasSuffix(name, ".xhtml") && strings.Contains(name, "chapter_") {
			sections = append(sections, name)
		}
	}
	sort.Strings(sections)
	if len(sections) != 2 {
		t.Fatalf("expected 2 chapter sections, got %v", sections)
	}
	if !strings.Contains(files[sections[0]], "Chapter 1: Start &amp; End") || !strings.Contains(files[sections[0]], "Off we go.") {
		t.Fatalf("first section should be chapter 1, got %q", files[sections[0]])
	}
	if !strings.Contains(files[sections[1]], "Up and down.") {
		t.Fatalf("second section should be chapter 2, got %q", files[sections[1]])
	}
}

func TestNumberRange(t *testing.T) {
	tests := []struct {
		name      string
		numbers   []int
		low, high int
	}{
		{"chapter zero counts", []int{0, 1, 2}, 0, 2},
		{"unnumbered ignored", []int{-1, 5, 3}, 3, 5},
		{"nothing numbered", []int{-1, -1}, -1, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New(Metadata{Title: "Road"})
			for i, n := range tt.numbers {
				if err := b.Add(Chapter{Order: i, Number: n, Title: "x"}); err != nil {
					t.Fatalf("Add: %v", err)
				}
			}
			if low, high := b.NumberRange(); low != tt.low || high != tt.high {
				t.Fatalf("NumberRange = %d-%d, want %d-%d", low, high, tt.low, tt.high)
			}
		})
	}
}
