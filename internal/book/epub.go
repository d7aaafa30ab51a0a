package book

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"os"
	"path/filepath"

	"github.com/brogergvhs/novelscraper/internal/util"

	"github.com/go-shiori/go-epub"
)

var ErrEmptyBook = errors.New("book has no chapters")

// SerializationError wraps I/O and format failures while writing a book.
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("write epub %s: %v", e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

const chapterCSS = `body { font-family: serif; line-height: 1.5; }
h1 { text-align: center; margin: 1em 0; }
p { text-indent: 1.5em; margin: 0 0 0.6em 0; }
`

// WriteEPUB serializes the book to path. The file is written next to the
// target with a ".part" suffix and renamed once complete.
func (b *Book) WriteEPUB(path string) error {
	fail := func(err error) error {
		return &SerializationError{Path: path, Err: err}
	}

	chs := b.Chapters()
	if len(chs) == 0 {
		return fail(ErrEmptyBook)
	}

	e, err := epub.NewEpub(b.Meta.Title)
	if err != nil {
		return fail(err)
	}
	if b.Meta.Author != "" {
		e.SetAuthor(b.Meta.Author)
	}
	if b.Meta.Description != "" {
		e.SetDescription(b.Meta.Description)
	}
	if b.Meta.Identifier != "" {
		e.SetIdentifier(b.Meta.Identifier)
	}
	e.SetLang(b.Meta.Language)

	tmpDir, err := os.MkdirTemp("", "novelscraper-epub-")
	if err != nil {
		return fail(err)
	}
	defer func() {
		_ = os.RemoveAll(tmpDir)
	}()

	cssPath, err := addTempFile(tmpDir, "chapter.css", []byte(chapterCSS), e.AddCSS)
	if err != nil {
		return fail(fmt.Errorf("add css: %w", err))
	}

	if len(b.Meta.Cover) > 0 {
		if err := b.addCover(e, tmpDir); err != nil {
			return fail(fmt.Errorf("add cover: %w", err))
		}
	}

	for i, ch := range chs {
		name := fmt.Sprintf("chapter_%05d.xhtml", i+1)
		if _, err := e.AddSection(sectionBody(ch), ch.Title, name, cssPath); err != nil {
			return fail(fmt.Errorf("add chapter %q: %w", ch.Title, err))
		}
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fail(err)
		}
	}

	partial := path + util.PartialSuffix
	if err := e.Write(partial); err != nil {
		_ = os.Remove(partial)
		return fail(err)
	}
	if err := os.Rename(partial, path); err != nil {
		_ = os.Remove(partial)
		return fail(err)
	}

	return nil
}

func (b *Book) addCover(e *epub.Epub, tmpDir string) error {
	name := "cover" + imageExt(b.Meta.Cover)
	imgPath, err := addTempFile(tmpDir, name, b.Meta.Cover, e.AddImage)
	if err != nil {
		return err
	}
	return e.SetCover(imgPath, "")
}

func addTempFile(dir, name string, data []byte, add func(source, name string) (string, error)) (string, error) {
	src := filepath.Join(dir, name)
	if err := os.WriteFile(src, data, 0644); err != nil {
		return "", err
	}
	return add(src, name)
}

func imageExt(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

func sectionBody(ch Chapter) string {
	return fmt.Sprintf("<h1>%s</h1>\n%s", html.EscapeString(ch.Title), ch.Body)
}
