// Package article defines the shared article record exchanged between the
// crawl, enrichment, and export stages.
package article

// Article holds the fields extracted for a single article. The same struct
// serves as the listing preview and as the enriched record: enrichment
// overwrites fields in place when a better source is found, so a failed
// article fetch simply leaves the preview values untouched.
type Article struct {
	Title      string `json:"title"`
	Subtitle   string `json:"subtitle"`
	Descriptor string `json:"descriptor"`
	URL        string `json:"url"`
	// PublishedAt is kept in whatever format the source page carried (ISO
	// timestamp, relative date, bare date). Normalizing to time.Time would
	// lose formats we cannot parse; the exports reproduce the value verbatim.
	PublishedAt string `json:"publishedAt"`
	Author      string `json:"author"`
}
