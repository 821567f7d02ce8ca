package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/lysyi3m/sheet-blog/app/post"
	"github.com/lysyi3m/sheet-blog/app/sheet"
	"gopkg.in/yaml.v3"
)

// Loader handles loading and validation of the site configuration
type Loader struct {
	path string
}

// NewLoader creates a new configuration loader. An empty path means defaults only.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load reads the YAML file, applies defaults and validates the result. A
// missing file yields the defaults.
func (l *Loader) Load() (*SiteConfig, error) {
	config := &SiteConfig{}

	if l.path != "" {
		data, err := os.ReadFile(l.path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			slog.Debug("Site configuration not found, using defaults", "path", l.path)
		case err != nil:
			return nil, fmt.Errorf("failed to read file: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse YAML: %w", err)
			}
			slog.Debug("Site configuration loaded", "path", l.path)
		}
	}

	l.setDefaults(config)

	if err := l.validate(config); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", l.path, err)
	}

	return config, nil
}

// setDefaults applies default values to configuration
func (l *Loader) setDefaults(config *SiteConfig) {
	if config.Site.Title == "" {
		config.Site.Title = "Blog"
	}
	if config.Site.Language == "" {
		config.Site.Language = "sr-ME"
	}
	if len(config.Source.Collections) == 0 {
		config.Source.Collections = sheet.DefaultCollections
	}
	if len(config.Source.Columns) == 0 {
		config.Source.Columns = post.DefaultColumns
	}
	if len(config.Source.PublishedAliases) == 0 {
		config.Source.PublishedAliases = post.DefaultPublishedAliases
	}
	if config.Output.ListingFile == "" {
		config.Output.ListingFile = "posts.json"
	}
	if config.Output.PageFile == "" {
		config.Output.PageFile = "index.html"
	}
	if config.Output.FeedFile == "" {
		config.Output.FeedFile = "feed.xml"
	}
}

// validate validates the configuration
func (l *Loader) validate(config *SiteConfig) error {
	seen := make(map[string]bool, len(config.Source.Columns))
	for i, column := range config.Source.Columns {
		if strings.TrimSpace(column) == "" {
			return fmt.Errorf("empty column name at index %d", i)
		}
		if seen[column] {
			return fmt.Errorf("duplicate column %q", column)
		}
		seen[column] = true
	}
	if !seen["slug"] || !seen["title"] || !seen["status"] {
		return fmt.Errorf("columns must include slug, title and status")
	}

	for i, key := range config.Source.Collections {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("empty collection key at index %d", i)
		}
	}

	files := map[string]string{
		"listing_file": config.Output.ListingFile,
		"page_file":    config.Output.PageFile,
	}
	if config.Output.FeedEnabled() {
		files["feed_file"] = config.Output.FeedFile
	}
	for field, name := range files {
		if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
			return fmt.Errorf("%s must be a plain file name, got %q", field, name)
		}
	}

	return nil
}
