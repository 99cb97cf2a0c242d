// Package enrich replaces listing-preview fields with values extracted from
// the fetched article pages. Every field follows an ordered fallback chain
// (structured data, page metadata, heuristic markup, original preview) and
// articles whose resolved byline does not match the requested author are
// dropped from the result.
package enrich

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/pevans/bylines/article"
	"github.com/pevans/bylines/author"
	"github.com/pevans/bylines/fetch"
	"github.com/pevans/bylines/markup"
)

// Class-name fragments marking field blocks on article pages.
var (
	subtitleHints   = []string{"subtitle", "entradilla", "resumen", "sumario"}
	descriptorHints = []string{"descriptor", "antetitulo", "kicker", "volanta", "seccion"}
	authorHints     = []string{"author", "autor", "firma"}
)

// Config holds the enrichment bounds.
type Config struct {
	// Articles fetched concurrently per batch; a batch fully drains before
	// the next starts
	Concurrency int
	// Timeout per article fetch
	FetchTimeout time.Duration
}

// DefaultConfig returns the deployed enrichment bounds.
func DefaultConfig() *Config {
	return &Config{
		Concurrency:  6,
		FetchTimeout: 12 * time.Second,
	}
}

// Enricher fetches article pages and upgrades preview records in place.
type Enricher struct {
	config *Config
	client *fetch.Client
	logger *log.Logger
}

// NewEnricher creates an enricher. Nil arguments get defaults, matching
// NewCrawler's conventions.
func NewEnricher(config *Config, client *fetch.Client, logger *log.Logger) *Enricher {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if client == nil {
		client = fetch.NewClient(config.FetchTimeout)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Enricher{config: config, client: client, logger: logger}
}

// Enrich fetches each preview's article page in bounded concurrent batches
// and returns the upgraded, author-filtered records. A failed article fetch
// keeps the preview unchanged; only a cancelled context aborts the run.
func (e *Enricher) Enrich(
	ctx context.Context,
	previews []article.Article,
	fallbackAuthor string,
	actx *author.Context,
) ([]article.Article, error) {
	type outcome struct {
		record article.Article
		keep   bool
	}
	outcomes := make([]outcome, len(previews))

	// Fixed-size batches: a WaitGroup drains each batch completely before
	// the next starts, bounding peak outbound connections while overlapping
	// latency within the batch.
	for start := 0; start < len(previews); start += e.config.Concurrency {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := min(start+e.config.Concurrency, len(previews))

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				record, keep := e.enrichOne(ctx, previews[i], fallbackAuthor, actx)
				outcomes[i] = outcome{record: record, keep: keep}
			}(i)
		}
		wg.Wait()
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	enriched := make([]article.Article, 0, len(previews))
	for _, o := range outcomes {
		if o.keep {
			enriched = append(enriched, o.record)
		}
	}

	e.logger.Printf("INFO: Enriched %d of %d articles for %s", len(enriched), len(previews), actx.Slug)
	return enriched, nil
}

// enrichOne fetches and enriches a single preview. The returned bool is
// false only when the resolved author fails the identity match; fetch and
// parse failures keep the preview as-is.
func (e *Enricher) enrichOne(
	ctx context.Context,
	preview article.Article,
	fallbackAuthor string,
	actx *author.Context,
) (article.Article, bool) {
	body, err := e.client.Get(ctx, preview.URL)
	if err != nil {
		e.logger.Printf("WARN: Keeping preview for %s: %v", preview.URL, err)
		return preview, true
	}

	doc, err := markup.Parse(bytes.NewReader(body))
	if err != nil {
		e.logger.Printf("WARN: Keeping preview for %s: %v", preview.URL, err)
		return preview, true
	}

	sd := findStructuredData(doc)

	// Each field is an ordered chain of extractors; the first non-empty
	// result wins and later sources are never consulted.
	enriched := preview
	enriched.Title = firstNonEmpty(
		func() string { return sd.str("headline", "name") },
		func() string { return doc.Meta("og:title") },
		func() string { return doc.FirstText("h1") },
		func() string { return doc.FirstText("title") },
		func() string { return preview.Title },
	)
	enriched.Subtitle = firstNonEmpty(
		func() string { return sd.str("description") },
		func() string { return doc.Meta("og:description") },
		func() string { return doc.Meta("description") },
		func() string { return classHint(doc, subtitleHints) },
		func() string { return preview.Subtitle },
	)
	enriched.Descriptor = firstNonEmpty(
		func() string { return sd.str("articleSection") },
		func() string { return doc.Meta("article:section") },
		func() string { return classHint(doc, descriptorHints) },
		func() string { return preview.Descriptor },
	)
	enriched.PublishedAt = firstNonEmpty(
		func() string { return sd.str("datePublished") },
		func() string { return doc.Meta("article:published_time") },
		func() string { return doc.FirstAttr("time", "datetime") },
		func() string { return preview.PublishedAt },
	)
	enriched.Author = firstNonEmpty(
		func() string { return sd.authorName() },
		func() string { return doc.Meta("author") },
		func() string { return doc.Meta("article:author") },
		func() string { return classHint(doc, authorHints) },
		func() string { return preview.Author },
		func() string { return fallbackAuthor },
	)

	if !authorMatches(enriched.Author, actx) {
		e.logger.Printf("INFO: Dropping %s: byline %q does not match %s", preview.URL, enriched.Author, actx.Slug)
		return article.Article{}, false
	}
	return enriched, true
}

// firstNonEmpty runs extractors in order and returns the first non-empty
// result, tag-stripped.
func firstNonEmpty(extractors ...func() string) string {
	for _, extract := range extractors {
		if v := markup.StripTags(extract()); v != "" {
			return v
		}
	}
	return ""
}

// classHint returns the first class-hinted block text in the page.
func classHint(doc *markup.Document, hints []string) string {
	for _, block := range doc.BlocksByClassHint(hints...) {
		if text := block.Text(); text != "" {
			return text
		}
	}
	return ""
}

// authorMatches applies the identity filter: a non-empty normalized byline
// must equal the context slug or contain it (or be contained by it). The
// containment rule is deliberately permissive so co-authored bylines like
// "john doe y ana garcia" keep the article.
func authorMatches(resolved string, actx *author.Context) bool {
	normalized := author.Normalize(resolved)
	if normalized == "" || normalized == actx.Slug {
		return true
	}
	return strings.Contains(normalized, actx.Slug) || strings.Contains(actx.Slug, normalized)
}
