package post

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Unicode spaces (NBSP, thin, ideographic), vertical tab and BOM
	// separate words like ASCII whitespace does.
	separatorRun = regexp.MustCompile(`[\s\v\p{Z}\x{feff}_]+`)
	disallowed   = regexp.MustCompile(`[^a-z0-9-]`)
	dashRun      = regexp.MustCompile(`-+`)

	// Letters that carry no combining mark under NFD.
	transliterate = strings.NewReplacer(
		"đ", "d",
		"ł", "l",
		"ø", "o",
		"æ", "ae",
		"œ", "oe",
		"ß", "ss",
		"þ", "th",
	)
)

// Slugify turns free text into a URL-safe identity token. The result only
// contains [a-z0-9-], so Slugify(Slugify(s)) == Slugify(s).
func Slugify(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = stripMarks(s)
	s = transliterate.Replace(s)
	s = separatorRun.ReplaceAllString(s, "-")
	s = disallowed.ReplaceAllString(s, "")
	s = dashRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
