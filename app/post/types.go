package post

type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

// Post is the canonical record every later stage works on. All fields are
// always defined; missing input yields empty text, never an error.
type Post struct {
	Slug          string
	Title         string
	Excerpt       string
	Description   string
	Status        Status
	Category      string
	CategoryLabel string
	Date          string
	CoverImage    string
	CoverAlt      string
	OGImage       string
	OGAlt         string
	Tags          []string
	ContentHTML   string
}

// ListingEntry is the projection written to the listing file. The body is
// left out to keep the listing small.
type ListingEntry struct {
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Excerpt     string   `json:"excerpt"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Category    string   `json:"category"`
	Date        string   `json:"date"`
	CoverImage  string   `json:"cover_image"`
	CoverAlt    string   `json:"cover_alt"`
	Tags        []string `json:"tags"`
	OGImage     string   `json:"og_image"`
}

func (p Post) Listing() ListingEntry {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}

	return ListingEntry{
		Slug:        p.Slug,
		Title:       p.Title,
		Excerpt:     p.Excerpt,
		Description: p.Description,
		Status:      p.Status,
		Category:    p.Category,
		Date:        p.Date,
		CoverImage:  p.CoverImage,
		CoverAlt:    p.CoverAlt,
		Tags:        tags,
		OGImage:     p.OGImage,
	}
}

// DefaultColumns is the column order of the Posts sheet, used for rows that
// arrive without field names.
var DefaultColumns = []string{
	"slug",
	"status",
	"category",
	"category_label",
	"title",
	"excerpt",
	"tags",
	"cover_image",
	"cover_alt",
	"og_image",
	"og_alt",
	"content_html",
}

var DefaultPublishedAliases = []string{"published", "publish", "live", "public"}
