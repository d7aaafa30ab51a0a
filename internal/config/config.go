package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvUserAgent = "NOVELSCRAPER_USER_AGENT"
	EnvCookie    = "NOVELSCRAPER_COOKIE"
	EnvOutput    = "NOVELSCRAPER_OUTPUT"
)

type Config struct {
	Output           string        `yaml:"output"`
	ChapterWorkers   int           `yaml:"chapter_workers"`
	Fetcher          string        `yaml:"fetcher"`
	Retries          int           `yaml:"retries"`
	RetryBackoff     time.Duration `yaml:"retry_backoff"`
	RequestInterval  time.Duration `yaml:"request_interval"`
	Timeout          time.Duration `yaml:"timeout"`
	CloudflareBypass bool          `yaml:"cloudflare_bypass"`
	Language         string        `yaml:"language"`
	Debug            bool          `yaml:"debug"`
	Verbosity        int           `yaml:"verbosity"`

	DefaultURL    string `yaml:"default_url"`
	DefaultSource string `yaml:"default_source"`
	DefaultStart  int    `yaml:"default_start"`
	DefaultEnd    int    `yaml:"default_end"`
	DefaultList   string `yaml:"default_list"`

	Cookie     string `yaml:"cookie"`
	CookieFile string `yaml:"cookie_file"`
	UserAgent  string `yaml:"user_agent"`

	SkipBroken bool   `yaml:"skip_broken"`
	SourcesDir string `yaml:"sources_dir"`
}

// Options carries command line values. Zero values leave the config
// untouched.
type Options struct {
	IgnoreConfig   bool
	Debug          bool
	Verbosity      int
	Output         string
	ChapterWorkers int
	Fetcher        string
	Retries        int
	DefaultURL     string
	DefaultSource  string
	DefaultStart   int
	DefaultEnd     int
	DefaultList    string
	Cookie         string
	CookieFile     string
	UserAgent      string
	SkipBroken     bool
}

func DefaultConfig() *Config {
	return &Config{
		Output:          ".",
		ChapterWorkers:  4,
		Fetcher:         "http",
		Retries:         0,
		RetryBackoff:    500 * time.Millisecond,
		RequestInterval: 0,
		Timeout:         30 * time.Second,
		Language:        "en",
		DefaultStart:    1,
	}
}

func SaveYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func loadYAML(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := DefaultConfig()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}

	return c, nil
}

// LoadMerged resolves the effective config: the active profile (or the
// defaults), then NOVELSCRAPER_* environment variables, then flags. The
// second return value describes where the profile came from.
func LoadMerged(opts Options) (*Config, string, error) {
	if opts.IgnoreConfig {
		cfg := DefaultConfig()
		applyEnv(cfg)
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(ignored config)", nil
	}

	activePath, err := ActiveConfigPath()
	if err == ErrNoConfig || activePath == "" {
		cfg := DefaultConfig()
		applyEnv(cfg)
		mergeConfig(cfg, opts)
		normalizeDefaults(cfg)
		return cfg, "(default config in memory)\nRun `novelscraper config init` to create an actual config\n", nil
	}
	if err != nil {
		return nil, "", err
	}

	cfg, err := loadYAML(activePath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config %s: %w", activePath, err)
	}

	applyEnv(cfg)
	mergeConfig(cfg, opts)
	normalizeDefaults(cfg)

	return cfg, activePath, nil
}

func applyEnv(c *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvUserAgent)); v != "" {
		c.UserAgent = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCookie)); v != "" {
		c.Cookie = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvOutput)); v != "" {
		c.Output = v
	}
}

func mergeConfig(c *Config, o Options) {
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.ChapterWorkers != 0 {
		c.ChapterWorkers = o.ChapterWorkers
	}
	if o.Fetcher != "" {
		c.Fetcher = o.Fetcher
	}
	if o.Retries != 0 {
		c.Retries = o.Retries
	}
	if o.Debug {
		c.Debug = true
	}
	if o.Verbosity > c.Verbosity {
		c.Verbosity = o.Verbosity
	}
	if o.DefaultURL != "" {
		c.DefaultURL = o.DefaultURL
	}
	if o.DefaultSource != "" {
		c.DefaultSource = o.DefaultSource
	}
	if o.DefaultStart != 0 {
		c.DefaultStart = o.DefaultStart
	}
	if o.DefaultEnd != 0 {
		c.DefaultEnd = o.DefaultEnd
	}
	if o.DefaultList != "" {
		c.DefaultList = o.DefaultList
	}
	if o.Cookie != "" {
		c.Cookie = o.Cookie
	}
	if o.CookieFile != "" {
		c.CookieFile = o.CookieFile
	}
	if o.UserAgent != "" {
		c.UserAgent = o.UserAgent
	}
	if o.SkipBroken {
		c.SkipBroken = true
	}
}

func normalizeDefaults(c *Config) {
	if c.Output == "" {
		c.Output = "."
	}
	if c.ChapterWorkers <= 0 {
		c.ChapterWorkers = 4
	}
	if c.Fetcher == "" {
		c.Fetcher = "http"
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Language == "" {
		c.Language = "en"
	}
	if c.DefaultStart <= 0 {
		c.DefaultStart = 1
	}
	if c.SourcesDir == "" {
		c.SourcesDir = filepath.Join(ConfigRoot(), "sources")
	}
}

func (c *Config) Print(w io.Writer) {
	fmt.Fprintf(w, " -output: %s\n", c.Output)
	fmt.Fprintf(w, " -chapter_workers: %d\n", c.ChapterWorkers)
	fmt.Fprintf(w, " -fetcher: %s\n", c.Fetcher)
	if c.Retries > 0 {
		fmt.Fprintf(w, " -retries: %d (backoff %s)\n", c.Retries, c.RetryBackoff)
	}
	if c.RequestInterval > 0 {
		fmt.Fprintf(w, " -request_interval: %s\n", c.RequestInterval)
	}
	fmt.Fprintf(w, " -timeout: %s\n", c.Timeout)
	if c.CloudflareBypass {
		fmt.Fprintf(w, " -cloudflare_bypass: %t\n", c.CloudflareBypass)
	}
	fmt.Fprintf(w, " -language: %s\n", c.Language)
	if c.Debug {
		fmt.Fprintf(w, " -debug: %t\n", c.Debug)
	}
	if c.Verbosity > 0 {
		fmt.Fprintf(w, " -verbosity: %d\n", c.Verbosity)
	}
	if c.DefaultURL != "" {
		fmt.Fprintf(w, " -url: %s\n", c.DefaultURL)
	}
	if c.DefaultSource != "" {
		fmt.Fprintf(w, " -source: %s\n", c.DefaultSource)
	}
	if c.DefaultStart > 1 {
		fmt.Fprintf(w, " -start: %d\n", c.DefaultStart)
	}
	if c.DefaultEnd > 0 {
		fmt.Fprintf(w, " -end: %d\n", c.DefaultEnd)
	}
	if c.DefaultList != "" {
		fmt.Fprintf(w, " -list: %s\n", c.DefaultList)
	}
	if c.CookieFile != "" {
		fmt.Fprintf(w, " -cookie_file: %s\n", c.CookieFile)
	}
	if c.UserAgent != "" {
		fmt.Fprintf(w, " -user_agent: %s\n", c.UserAgent)
	}
	if c.SkipBroken {
		fmt.Fprintf(w, " -skip_broken: %t\n", c.SkipBroken)
	}
	fmt.Fprintf(w, " -sources_dir: %s\n", c.SourcesDir)
}
