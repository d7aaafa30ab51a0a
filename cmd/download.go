package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/brogergvhs/novelscraper/internal/book"
	"github.com/brogergvhs/novelscraper/internal/chapters"
	"github.com/brogergvhs/novelscraper/internal/config"
	"github.com/brogergvhs/novelscraper/internal/downloader"
	"github.com/brogergvhs/novelscraper/internal/fetch"
	"github.com/brogergvhs/novelscraper/internal/sources"
	"github.com/brogergvhs/novelscraper/internal/ui"
	"github.com/brogergvhs/novelscraper/internal/util"

	"github.com/spf13/cobra"
)

var (
	// selection
	flagURL    string
	flagSource string
	flagStart  int
	flagEnd    int
	flagRange  string
	flagList   string

	// runtime
	flagOutput     string
	flagWorkers    int
	flagFetcher    string
	flagRetries    int
	flagDryRun     bool
	flagSkipBroken bool
	flagSourceFile string

	// headers/auth
	flagCookie     string
	flagCookieFile string
	flagUserAgent  string
)

func init() {
	downloadCmd := &cobra.Command{
		Use:   "download",
		Short: "Download novel chapters into an EPUB. Uses the defaults from the selected config, overwritten by CLI flags",
		RunE:  runDownload,
	}

	// selection
	downloadCmd.Flags().StringVar(&flagURL, "url", "", "novel page URL")
	downloadCmd.Flags().StringVar(&flagSource, "source", "", "source descriptor name (default: matched from the URL)")
	downloadCmd.Flags().IntVar(&flagStart, "start", 0, "first chapter number")
	downloadCmd.Flags().IntVar(&flagEnd, "end", 0, "last chapter number (default: until the last one)")
	downloadCmd.Flags().StringVar(&flagRange, "range", "", "chapter range, e.g. 5-12 or 5-")
	downloadCmd.Flags().StringVar(&flagList, "list", "", "specific chapter numbers, e.g. 1,3,5")

	// runtime
	downloadCmd.Flags().StringVar(&flagOutput, "output", "", "output folder for the EPUB")
	downloadCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parallel chapter downloads")
	downloadCmd.Flags().StringVar(&flagFetcher, "fetcher", "", "fetch backend: http, colly or browser")
	downloadCmd.Flags().IntVar(&flagRetries, "retries", 0, "extra attempts for failed requests")
	downloadCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "list the selected chapters, don't download")
	downloadCmd.Flags().BoolVar(&flagSkipBroken, "skip-broken", false, "replace failed chapters with a placeholder instead of aborting")
	downloadCmd.Flags().StringVar(&flagSourceFile, "source-file", "", "load an extra source descriptor from a YAML file")

	// headers/auth
	downloadCmd.Flags().StringVar(&flagCookie, "cookie", "", "cookie string, e.g. \"key=value; other=123\"")
	downloadCmd.Flags().StringVar(&flagCookieFile, "cookie-file", "", "path to a text file with cookies (one header line)")
	downloadCmd.Flags().StringVar(&flagUserAgent, "user-agent", "", "override User-Agent")

	rootCmd.AddCommand(downloadCmd)
}

func runDownload(cmd *cobra.Command, _ []string) error {
	start, end := flagStart, flagEnd
	if cmd.Flags().Changed("start") && start < 1 {
		return fmt.Errorf("%w: --start must be greater than 0", chapters.ErrInvalidSelection)
	}
	if flagRange != "" {
		var err error
		if start, end, err = chapters.ParseRange(flagRange); err != nil {
			return err
		}
	}

	cfg, usedPath, err := config.LoadMerged(config.Options{
		IgnoreConfig:   flagIgnoreConfig,
		Debug:          flagDebug,
		Verbosity:      flagVerbose,
		Output:         flagOutput,
		ChapterWorkers: flagWorkers,
		Fetcher:        flagFetcher,
		Retries:        flagRetries,
		DefaultURL:     flagURL,
		DefaultSource:  flagSource,
		DefaultStart:   start,
		DefaultEnd:     end,
		DefaultList:    flagList,
		Cookie:         flagCookie,
		CookieFile:     flagCookieFile,
		UserAgent:      flagUserAgent,
		SkipBroken:     flagSkipBroken,
	})
	if err != nil {
		return err
	}

	logSvc := ui.NewLoggerTo(os.Stderr, cfg.Debug, cfg.Verbosity)
	logSvc.Debugf("Config file: %s", usedPath)
	if logSvc.Debug {
		cfg.Print(os.Stderr)
	}

	if cfg.DefaultURL == "" {
		return fmt.Errorf("missing --url and no default_url in config")
	}

	sel, err := selection(cfg)
	if err != nil {
		return err
	}

	registry, err := loadRegistry(cfg, flagSourceFile, logSvc)
	if err != nil {
		return err
	}

	desc, err := resolveSource(registry, cfg.DefaultSource, cfg.DefaultURL)
	if err != nil {
		return err
	}
	logSvc.Infof("Using source %s", desc.Name)

	f, err := fetch.New(fetch.Options{
		Backend:          cfg.Fetcher,
		Timeout:          cfg.Timeout,
		UserAgent:        cfg.UserAgent,
		Cookie:           cfg.Cookie,
		CookieFile:       cfg.CookieFile,
		Retries:          cfg.Retries,
		RetryBackoff:     cfg.RetryBackoff,
		RequestInterval:  cfg.RequestInterval,
		Parallelism:      cfg.ChapterWorkers,
		CloudflareBypass: cfg.CloudflareBypass,
		DebugLogger:      logSvc,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logSvc.Warnf("Closing fetcher: %v", cerr)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	scr := sources.NewScraper(desc, f, logSvc)

	meta, err := scr.Novel(ctx, cfg.DefaultURL)
	if err != nil {
		return fmt.Errorf("scraping novel page: %w", err)
	}
	if meta.Language == "" {
		meta.Language = cfg.Language
	}
	logSvc.Infof("Novel: %s", meta.Title)

	refs, err := scr.Chapters(ctx, cfg.DefaultURL, sel)
	if err != nil {
		return fmt.Errorf("listing chapters: %w", err)
	}
	if len(refs) == 0 {
		return fmt.Errorf("no chapters selected")
	}

	if flagDryRun {
		printDryRun(cmd.OutOrStdout(), meta, refs)
		return nil
	}

	if err := os.MkdirAll(cfg.Output, 0755); err != nil {
		return fmt.Errorf("cannot create output folder: %w", err)
	}
	util.SetupInterruptHandler(cfg.Output)

	pm := ui.NewProgressManager(os.Stderr)
	prevOut := logSvc.SetOutput(pm)
	handle := pm.Register(meta.Title)
	handle.SetTotal(len(refs))

	stats := &ui.Stats{}
	dl := downloader.New(scr, downloader.Options{
		Workers:    cfg.ChapterWorkers,
		SkipBroken: cfg.SkipBroken,
		Logger:     logSvc,
		Stats:      stats,
	})
	began := time.Now()

	scraped, err := dl.Run(ctx, refs, handle)
	pm.Close()
	logSvc.SetOutput(prevOut)
	if err != nil {
		if !cfg.SkipBroken {
			logSvc.Infof("Use --skip-broken to continue past failed chapters")
		}
		return err
	}

	b := book.New(meta)
	for _, ch := range scraped {
		if err := b.Add(ch); err != nil {
			return err
		}
	}

	low, high := b.NumberRange()
	if low < 0 {
		low, high = 1, b.Len()
	}
	out := filepath.Join(cfg.Output, book.FileName(meta.Title, low, high))

	if err := b.WriteEPUB(out); err != nil {
		var serr *book.SerializationError
		if errors.As(err, &serr) {
			return fmt.Errorf("writing EPUB: %w", err)
		}
		return err
	}

	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Download Summary:")
	fmt.Fprintf(os.Stderr, "Chapters: %d\n", stats.TotalChapters.Load())
	if failed := stats.FailedChapters.Load(); failed > 0 {
		fmt.Fprintf(os.Stderr, "Failed:   %d (placeholders inserted)\n", failed)
	}
	fmt.Fprintf(os.Stderr, "Text:     %s\n", util.Human(stats.TotalBytes.Load()))
	fmt.Fprintf(os.Stderr, "Time:     %s\n", time.Since(began).Round(time.Second))
	logSvc.Successf("Saved %s", out)

	return nil
}

func selection(cfg *config.Config) (chapters.Selection, error) {
	sel := chapters.Selection{Start: cfg.DefaultStart, End: cfg.DefaultEnd}
	if cfg.DefaultList != "" {
		list, err := chapters.ParseList(cfg.DefaultList)
		if err != nil {
			return sel, err
		}
		sel.List = list
	}
	return sel, sel.Validate()
}

func loadRegistry(cfg *config.Config, extra string, log *ui.Logger) (*sources.Registry, error) {
	registry := sources.Builtin()

	loaded, err := registry.LoadDir(cfg.SourcesDir)
	if err != nil {
		return nil, fmt.Errorf("loading sources from %s: %w", cfg.SourcesDir, err)
	}
	for _, d := range loaded {
		log.Debugf("Loaded source %s from %s", d.Name, cfg.SourcesDir)
	}

	if extra != "" {
		d, err := registry.LoadFile(extra)
		if err != nil {
			return nil, err
		}
		log.Debugf("Loaded source %s from %s", d.Name, extra)
	}

	return registry, nil
}

func resolveSource(r *sources.Registry, name, novelURL string) (sources.Descriptor, error) {
	if name != "" {
		return r.Lookup(name)
	}
	return r.Match(novelURL)
}

func printDryRun(w io.Writer, meta book.Metadata, refs []chapters.Ref) {
	fmt.Fprintf(w, "Dry-run: %s, %d chapters selected.\n\n", meta.Title, len(refs))
	for i, r := range refs {
		fmt.Fprintf(w, "%3d) %s  [%s]\n    %s\n", i+1, r.Title, r.Label(), r.URL)
	}
}
