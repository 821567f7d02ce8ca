package config

// SiteConfig is the optional YAML description of the blog and of the sheet
// layout. Every field has a default, so an absent file is valid.
type SiteConfig struct {
	Site   SiteInfo       `yaml:"site"`
	Source SourceSettings `yaml:"source"`
	Output OutputSettings `yaml:"output"`
}

// SiteInfo feeds the RSS channel and the default share image.
type SiteInfo struct {
	Title        string `yaml:"title"`
	Description  string `yaml:"description"`
	Language     string `yaml:"language"`
	DefaultImage string `yaml:"default_image"`
}

// SourceSettings describes how rows are read from the sheet.
type SourceSettings struct {
	Collections      []string `yaml:"collections"`
	Columns          []string `yaml:"columns"`
	PublishedAliases []string `yaml:"published_aliases"`
}

// OutputSettings names the generated files inside the output directory.
type OutputSettings struct {
	ListingFile string `yaml:"listing_file"`
	PageFile    string `yaml:"page_file"`
	FeedFile    string `yaml:"feed_file"`
}
