// Package sitemap builds a sitemaps.org URL list from a rendered page tree.
package sitemap

import (
	"bytes"
	"encoding/xml"
	"io/fs"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

type Entry struct {
	Loc     string
	LastMod string
}

var skipDirs = map[string]bool{
	".git":         true,
	".github":      true,
	"node_modules": true,
	"tools":        true,
	"_templates":   true,
}

var skipFiles = map[string]bool{
	"404.html": true,
}

type Builder struct {
	root    string
	baseURL string
}

func NewBuilder(root, baseURL string) *Builder {
	return &Builder{
		root:    root,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Run walks the tree and returns one entry per folder-style page, sorted by
// URL. lastmod is the page file's modification date in UTC.
func (b *Builder) Run() ([]Entry, error) {
	seen := make(map[string]bool)
	var entries []Entry

	err := filepath.WalkDir(b.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if p != b.root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || !strings.HasSuffix(strings.ToLower(d.Name()), ".html") || skipFiles[d.Name()] {
			return nil
		}

		rel, err := filepath.Rel(b.root, p)
		if err != nil {
			return err
		}

		loc := b.toURL(filepath.ToSlash(rel))
		if shouldSkip(loc) || seen[loc] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		seen[loc] = true
		entries = append(entries, Entry{
			Loc:     loc,
			LastMod: info.ModTime().UTC().Format("2006-01-02"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(entries, func(a, b Entry) int {
		return strings.Compare(a.Loc, b.Loc)
	})

	return entries, nil
}

func (b *Builder) toURL(rel string) string {
	lower := strings.ToLower(rel)
	switch {
	case lower == "index.html":
		rel = ""
	case strings.HasSuffix(lower, "/index.html"):
		rel = rel[:len(rel)-len("index.html")]
	}
	return b.baseURL + "/" + rel
}

func shouldSkip(loc string) bool {
	if strings.Contains(loc, "<slug>") || strings.Contains(loc, "%3Cslug%3E") {
		return true
	}
	if strings.Contains(loc, "/_templates/") || strings.Contains(loc, "/test/") {
		return true
	}
	// Only folder-style URLs are listed; anything still carrying an extension
	// is a legacy or stub page.
	return path.Ext(loc) != "" && !strings.HasSuffix(loc, "/")
}

// Render serializes entries as a sitemaps.org urlset document.
func Render(entries []Entry) []byte {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	buf.WriteString("\n")

	for _, e := range entries {
		buf.WriteString("  <url>\n    <loc>")
		xml.EscapeText(&buf, []byte(e.Loc))
		buf.WriteString("</loc>\n")
		if e.LastMod != "" {
			buf.WriteString("    <lastmod>")
			buf.WriteString(e.LastMod)
			buf.WriteString("</lastmod>\n")
		}
		buf.WriteString("  </url>\n")
	}

	buf.WriteString("</urlset>\n")

	return buf.Bytes()
}
