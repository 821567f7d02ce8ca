package config

import (
	"fmt"
	"strings"
)

// FeedEnabled reports whether an RSS file should be written. Setting
// feed_file to "-" turns the feed off.
func (o *OutputSettings) FeedEnabled() bool {
	return o.FeedFile != "-"
}

// DefaultImageFor returns the configured share image or the conventional
// assets/og-cover.jpg under the locale path.
func (s *SiteInfo) DefaultImageFor(siteBase, localePath string) string {
	if s.DefaultImage != "" {
		return s.DefaultImage
	}
	return fmt.Sprintf("%s/%s/assets/og-cover.jpg", strings.TrimRight(siteBase, "/"), strings.Trim(localePath, "/"))
}
