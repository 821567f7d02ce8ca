package post

import (
	"slices"
	"strings"
)

type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Run keeps publishable posts and orders them newest first. Dates are
// compared as plain text; equal dates keep their input order and empty
// dates sort last.
func (f *Filterer) Run(posts []Post) []Post {
	selected := make([]Post, 0, len(posts))
	for _, p := range posts {
		if f.IsPublishable(p) {
			selected = append(selected, p)
		}
	}

	slices.SortStableFunc(selected, func(a, b Post) int {
		return strings.Compare(b.Date, a.Date)
	})

	return selected
}

func (f *Filterer) IsPublishable(p Post) bool {
	return p.Slug != "" && p.Title != "" && p.Status == StatusPublished
}

// Collisions returns slugs shared by more than one post with their counts.
// Pages for such slugs are overwritten by whichever post is written last.
func (f *Filterer) Collisions(posts []Post) map[string]int {
	counts := make(map[string]int, len(posts))
	for _, p := range posts {
		counts[p.Slug]++
	}

	collisions := make(map[string]int)
	for slug, count := range counts {
		if count > 1 {
			collisions[slug] = count
		}
	}
	return collisions
}
