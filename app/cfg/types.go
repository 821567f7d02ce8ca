package cfg

import "time"

type Cfg struct {
	// Source
	SheetAPIURL string
	SheetName   string
	Timeout     time.Duration
	UserAgent   string

	// Site
	SiteBase     string
	LocalePath   string
	OutDir       string
	TemplatePath string
	SiteConfig   string
	WorkerCount  int

	// Sitemap
	SitemapRoot string
	SitemapBase string

	// Serve mode
	Serve             bool
	Port              string
	SchedulerInterval time.Duration
	APIAccessKey      string
	WatchTemplate     bool

	// Application metadata
	Debug   bool
	Version string
}

// ConfigurationError reports a missing or malformed required setting.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Setting + " " + e.Reason
}
