package downloader

import (
	"context"
	"fmt"
	"sync"

	"github.com/brogergvhs/novelscraper/internal/book"
	"github.com/brogergvhs/novelscraper/internal/chapters"
	"github.com/brogergvhs/novelscraper/internal/ui"
)

const (
	DefaultWorkers = 4

	// BrokenChapterText fills chapters that could not be scraped when
	// SkipBroken is set.
	BrokenChapterText = "novelscraper failed to scrape the contents of this chapter."
)

type ChapterSource interface {
	Chapter(ctx context.Context, ref chapters.Ref) (book.Chapter, error)
}

type Progress interface {
	Update(done, total int, bytes int64)
	MarkDone()
}

type Logger interface {
	Debugf(string, ...any)
	Errorf(string, ...any)
}

type Options struct {
	Workers    int
	SkipBroken bool
	Logger     Logger
	Stats      *ui.Stats
}

type Downloader struct {
	source     ChapterSource
	workers    int
	skipBroken bool
	log        Logger
	stats      *ui.Stats
}

func New(src ChapterSource, opts Options) *Downloader {
	workers := opts.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}

	stats := opts.Stats
	if stats == nil {
		stats = &ui.Stats{}
	}

	log := opts.Logger
	if log == nil {
		log = discard{}
	}

	return &Downloader{
		source:     src,
		workers:    workers,
		skipBroken: opts.SkipBroken,
		log:        log,
		stats:      stats,
	}
}

type runState struct {
	mu    sync.Mutex
	done  int
	total int
	bytes int64
}

// Run scrapes refs concurrently. The result keeps the order of refs no
// matter which worker finishes first. Without SkipBroken the first failure
// stops the run and is returned with no chapters.
func (d *Downloader) Run(ctx context.Context, refs []chapters.Ref, ph Progress) ([]book.Chapter, error) {
	if ph == nil {
		ph = nopProgress{}
	}

	st := &runState{total: len(refs)}
	out := make([]book.Chapter, len(refs))
	ph.Update(0, st.total, 0)

	step := func(n int64) {
		st.mu.Lock()
		st.done++
		st.bytes += n
		ph.Update(st.done, st.total, st.bytes)
		st.mu.Unlock()
	}

	err := runPool(ctx, d.workers, len(refs), func(ctx context.Context, i int) error {
		ref := refs[i]
		d.log.Debugf("Scraping chapter %s: %s", ref.Label(), ref.URL)

		ch, err := d.source.Chapter(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !d.skipBroken {
				return fmt.Errorf("chapter %s (%s): %w", ref.Label(), ref.URL, err)
			}

			d.log.Errorf("Chapter %s failed, inserting placeholder: %v", ref.Label(), err)
			d.stats.FailedChapters.Add(1)
			ch = Placeholder(ref)
		}

		out[i] = ch
		d.stats.TotalChapters.Add(1)
		d.stats.TotalBytes.Add(int64(len(ch.Body)))
		step(int64(len(ch.Body)))
		return nil
	})

	ph.MarkDone()

	if err != nil {
		return nil, err
	}
	return out, nil
}

// Placeholder stands in for a chapter that could not be scraped.
func Placeholder(ref chapters.Ref) book.Chapter {
	return book.FromRef(ref, "", "<p>"+BrokenChapterText+"</p>")
}

type nopProgress struct{}

func (nopProgress) Update(int, int, int64) {}
func (nopProgress) MarkDone()              {}

type discard struct{}

func (discard) Debugf(string, ...any) {}
func (discard) Errorf(string, ...any) {}
