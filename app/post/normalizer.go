package post

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lysyi3m/sheet-blog/app/sheet"
)

type Normalizer struct {
	columns   []string
	published map[string]struct{}
}

func NewNormalizer(columns, publishedAliases []string) *Normalizer {
	if len(columns) == 0 {
		columns = DefaultColumns
	}
	if len(publishedAliases) == 0 {
		publishedAliases = DefaultPublishedAliases
	}

	published := make(map[string]struct{}, len(publishedAliases))
	for _, alias := range publishedAliases {
		published[strings.ToLower(strings.TrimSpace(alias))] = struct{}{}
	}

	return &Normalizer{
		columns:   columns,
		published: published,
	}
}

func (n *Normalizer) Run(records []sheet.Record) []Post {
	posts := make([]Post, 0, len(records))
	for _, record := range records {
		posts = append(posts, n.Normalize(record))
	}
	return posts
}

// Normalize never fails: malformed or missing fields fall back to empty
// values and the post is dropped later by the Filterer.
func (n *Normalizer) Normalize(record sheet.Record) Post {
	fields := record.Fields
	if record.IsPositional() {
		fields = n.named(record.Values)
	}
	if fields == nil {
		fields = map[string]any{}
	}

	title := text(fields["title"])
	excerpt := firstText(fields, "excerpt", "description")
	coverImage := text(fields["cover_image"])
	coverAlt := firstNonEmpty(text(fields["cover_alt"]), title)

	return Post{
		Slug:          Slugify(text(fields["slug"])),
		Title:         title,
		Excerpt:       excerpt,
		Description:   firstNonEmpty(excerpt, title),
		Status:        n.status(fields["status"]),
		Category:      strings.ToLower(text(fields["category"])),
		CategoryLabel: text(fields["category_label"]),
		Date:          text(fields["date"]),
		CoverImage:    coverImage,
		CoverAlt:      coverAlt,
		OGImage:       firstNonEmpty(text(fields["og_image"]), coverImage),
		OGAlt:         firstNonEmpty(text(fields["og_alt"]), coverAlt),
		Tags:          tags(fields["tags"]),
		ContentHTML:   firstText(fields, "content_html", "content"),
	}
}

func (n *Normalizer) named(values []any) map[string]any {
	fields := make(map[string]any, len(n.columns))
	for i, column := range n.columns {
		if i < len(values) {
			fields[column] = values[i]
		} else {
			fields[column] = ""
		}
	}
	return fields
}

func (n *Normalizer) status(v any) Status {
	s := strings.ToLower(text(v))
	if s == "" {
		return StatusDraft
	}
	if _, ok := n.published[s]; ok {
		return StatusPublished
	}
	return Status(s)
}

func text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case int, int64, int32, uint, uint64, uint32:
		return fmt.Sprint(val)
	default:
		return ""
	}
}

func firstText(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := text(fields[key]); s != "" {
			return s
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func tags(v any) []string {
	result := []string{}

	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s := text(item); s != "" {
				result = append(result, s)
			}
		}
	case []string:
		for _, item := range val {
			if s := strings.TrimSpace(item); s != "" {
				result = append(result, s)
			}
		}
	default:
		for _, item := range strings.Split(text(val), ",") {
			if s := strings.TrimSpace(item); s != "" {
				result = append(result, s)
			}
		}
	}

	return result
}
