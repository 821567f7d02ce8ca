package cfg

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Source configuration
	SheetAPIURL string `long:"sheet-api-url" env:"SHEET_API_URL" description:"Sheet web app endpoint serving the posts (required)"`
	SheetName   string `long:"sheet-name" env:"SHEET_NAME" default:"Posts" description:"Sheet name added as ?sheet= when the URL has none"`
	Timeout     int    `long:"timeout" env:"FETCH_TIMEOUT" default:"15" description:"Fetch timeout in seconds"`
	UserAgent   string `long:"user-agent" env:"USER_AGENT" default:"Sheet-Blog/1.0" description:"User agent string for HTTP requests"`

	// Site configuration
	SiteBase     string `long:"site-base" env:"SITE_BASE" default:"https://sindikatstudio83.me" description:"Public base URL used for canonical links"`
	LocalePath   string `long:"locale-path" env:"LOCALE_PATH" default:"sr-me" description:"Language-region path segment in front of /blog"`
	OutDir       string `long:"out-dir" env:"OUT_DIR" default:"./Pages/sr-me/blog" description:"Directory receiving the listing and post pages"`
	TemplatePath string `long:"template" env:"TEMPLATE_PATH" description:"Post page template (default: <out-dir>/_templates/post.template.html)"`
	SiteConfig   string `long:"site-config" env:"SITE_CONFIG" default:"./site.yml" description:"Optional YAML site configuration"`
	WorkerCount  int    `long:"worker-count" env:"WORKER_COUNT" default:"1" description:"Number of pages rendered and written in parallel"`

	// Sitemap configuration
	SitemapRoot string `long:"sitemap-root" env:"SITEMAP_ROOT" description:"Page tree to scan for sitemap.xml (disabled when empty)"`
	SitemapBase string `long:"sitemap-base" env:"SITEMAP_BASE" description:"Base URL for sitemap entries (default: --site-base)"`

	// Serve mode
	Serve             bool   `long:"serve" env:"SERVE" description:"Keep running: serve the output and rebuild on demand"`
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"0" description:"Rebuild interval in seconds in serve mode (0 disables)"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	WatchTemplate     bool   `long:"watch-template" env:"WATCH_TEMPLATE" description:"Rebuild when the page template changes in serve mode"`

	Debug bool `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	return LoadArgs(os.Args[1:])
}

// LoadArgs parses flags and environment. It returns nil, nil when help was
// requested.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	sheetURL := strings.TrimSpace(raw.SheetAPIURL)
	if sheetURL == "" {
		return nil, &ConfigurationError{Setting: "SHEET_API_URL", Reason: "is required"}
	}
	if raw.Timeout <= 0 {
		return nil, &ConfigurationError{Setting: "FETCH_TIMEOUT", Reason: "must be positive"}
	}
	if raw.SchedulerInterval < 0 {
		return nil, &ConfigurationError{Setting: "SCHEDULER_INTERVAL", Reason: "must be non-negative"}
	}

	cfg := &Cfg{
		SheetAPIURL:       sheetURL,
		SheetName:         raw.SheetName,
		Timeout:           time.Duration(raw.Timeout) * time.Second,
		UserAgent:         raw.UserAgent,
		SiteBase:          strings.TrimRight(raw.SiteBase, "/"),
		LocalePath:        strings.Trim(raw.LocalePath, "/"),
		OutDir:            raw.OutDir,
		TemplatePath:      raw.TemplatePath,
		SiteConfig:        raw.SiteConfig,
		WorkerCount:       max(raw.WorkerCount, 1),
		SitemapRoot:       raw.SitemapRoot,
		SitemapBase:       cmp.Or(strings.TrimRight(raw.SitemapBase, "/"), strings.TrimRight(raw.SiteBase, "/")),
		Serve:             raw.Serve,
		Port:              raw.Port,
		SchedulerInterval: time.Duration(raw.SchedulerInterval) * time.Second,
		APIAccessKey:      raw.APIAccessKey,
		WatchTemplate:     raw.WatchTemplate,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if cfg.TemplatePath == "" {
		cfg.TemplatePath = filepath.Join(cfg.OutDir, "_templates", "post.template.html")
	}

	return cfg, nil
}
