package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/lysyi3m/sheet-blog/app/post"
)

// Channel describes the blog-level metadata of the generated feed.
type Channel struct {
	Title       string
	Link        string
	Description string
	Language    string
	SelfURL     string
	Generator   string
}

// Linker resolves the public URL of a post.
type Linker interface {
	CanonicalURL(slug string) string
}

type Generator struct {
	linker Linker
}

func NewGenerator(linker Linker) *Generator {
	return &Generator{linker: linker}
}

// Run renders an RSS 2.0 document for posts in the given order. Output
// depends only on its input: lastBuildDate is taken from the newest dated
// post instead of the wall clock.
func (g *Generator) Run(channel Channel, posts []post.Post) string {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", channel.Title, 4)
	g.writeElement(&buf, "link", channel.Link, 4)
	description := channel.Description
	if description == "" {
		description = channel.Title
	}
	g.writeElement(&buf, "description", description, 4)

	if channel.SelfURL != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(channel.SelfURL)))
	}

	if newest, ok := newestDate(posts); ok {
		g.writeElement(&buf, "lastBuildDate", newest.Format(time.RFC1123Z), 4)
	}
	g.writeElement(&buf, "generator", channel.Generator, 4)
	g.writeElement(&buf, "language", channel.Language, 4)

	for _, p := range posts {
		g.writeItem(&buf, p)
	}

	buf.WriteString("  </channel>\n</rss>\n")

	return buf.String()
}

func (g *Generator) writeItem(buf *bytes.Buffer, p post.Post) {
	link := g.linker.CanonicalURL(p.Slug)

	buf.WriteString("    <item>\n")

	buf.WriteString("      <guid isPermaLink=\"true\">")
	xml.EscapeText(buf, []byte(link))
	buf.WriteString("</guid>\n")

	g.writeElement(buf, "title", p.Title, 6)
	g.writeElement(buf, "link", link, 6)
	g.writeElement(buf, "description", p.Description, 6)

	if p.ContentHTML != "" {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(cdata(p.ContentHTML))
		buf.WriteString("]]></content:encoded>\n")
	}

	if published, ok := parseDate(p.Date); ok {
		g.writeElement(buf, "pubDate", published.Format(time.RFC1123Z), 6)
	}

	g.writeElement(buf, "category", p.Category, 6)
	for _, tag := range p.Tags {
		g.writeElement(buf, "category", tag, 6)
	}

	if p.OGImage != "" {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"%s\" />\n",
			html.EscapeString(p.OGImage),
			imageType(p.OGImage)))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func newestDate(posts []post.Post) (time.Time, bool) {
	var newest time.Time
	found := false
	for _, p := range posts {
		if t, ok := parseDate(p.Date); ok && (!found || t.After(newest)) {
			newest = t
			found = true
		}
	}
	return newest, found
}

// cdata splits any "]]>" so the body cannot terminate the section early.
func cdata(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}

func imageType(url string) string {
	url = strings.ToLower(url)
	switch {
	case strings.HasSuffix(url, ".png"):
		return "image/png"
	case strings.HasSuffix(url, ".webp"):
		return "image/webp"
	case strings.HasSuffix(url, ".gif"):
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
