package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/lysyi3m/sheet-blog/app/post"
)

var placeholder = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	`"`, "&quot;",
	"<", "&lt;",
	">", "&gt;",
)

// Computed holds values derived from a post and the site rather than read
// from the sheet.
type Computed struct {
	Canonical  string
	TagsJSON   string
	OGImage    string
	CoverImage string
	CoverAlt   string
}

type Site struct {
	Base         string
	LocalePath   string
	DefaultImage string
}

type Renderer struct {
	template string
	site     Site
}

func NewRenderer(template string, site Site) *Renderer {
	site.Base = strings.TrimRight(site.Base, "/")
	site.LocalePath = strings.Trim(site.LocalePath, "/")

	return &Renderer{
		template: template,
		site:     site,
	}
}

func (r *Renderer) Run(p post.Post) string {
	return Render(r.template, p, r.Compute(p))
}

func (r *Renderer) Compute(p post.Post) Computed {
	return Computed{
		Canonical:  r.CanonicalURL(p.Slug),
		TagsJSON:   TagsJSON(p.Tags),
		OGImage:    firstNonEmpty(p.OGImage, r.site.DefaultImage),
		CoverImage: firstNonEmpty(p.CoverImage, r.site.DefaultImage),
		CoverAlt:   firstNonEmpty(p.CoverAlt, p.Title),
	}
}

// CanonicalURL is <base>/<locale>/blog/<slug>/.
func (r *Renderer) CanonicalURL(slug string) string {
	return fmt.Sprintf("%s/%s/blog/%s/", r.site.Base, r.site.LocalePath, url.PathEscape(slug))
}

// BlogURL is the listing page URL the canonical URLs hang off.
func (r *Renderer) BlogURL() string {
	return fmt.Sprintf("%s/%s/blog/", r.site.Base, r.site.LocalePath)
}

// Render substitutes {{name}} placeholders in one pass. Unknown placeholders
// are kept as they are. Every value except content_html and tags_json is
// escaped for attribute and text context.
func Render(tmpl string, p post.Post, c Computed) string {
	values := map[string]string{
		"title":          Escape(p.Title),
		"description":    Escape(p.Description),
		"excerpt":        Escape(p.Excerpt),
		"canonical":      Escape(c.Canonical),
		"og_image":       Escape(c.OGImage),
		"og_alt":         Escape(p.OGAlt),
		"cover_image":    Escape(c.CoverImage),
		"cover_alt":      Escape(c.CoverAlt),
		"date":           Escape(p.Date),
		"category":       Escape(p.Category),
		"category_label": Escape(p.CategoryLabel),
		"slug":           Escape(p.Slug),
		"tags_json":      c.TagsJSON,
		"content_html":   p.ContentHTML,
	}

	return placeholder.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[2 : len(match)-2]
		if value, ok := values[name]; ok {
			return value
		}
		return match
	})
}

func Escape(s string) string {
	return attrEscaper.Replace(s)
}

// TagsJSON encodes tags as a JSON array literal. <, > and & are emitted as
// \u escapes so the literal is safe inside a script element.
func TagsJSON(tags []string) string {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// Listing serializes the listing projection of posts as indented JSON.
func Listing(posts []post.Post) ([]byte, error) {
	entries := make([]post.ListingEntry, 0, len(posts))
	for _, p := range posts {
		entries = append(entries, p.Listing())
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("failed to encode listing: %w", err)
	}

	return buf.Bytes(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
