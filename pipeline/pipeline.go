// Package pipeline composes the full export cycle: resolve the author
// context, collect previews, enrich, and encode. It owns the two
// empty-result failures that callers must distinguish from validation
// errors.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/pevans/bylines/author"
	"github.com/pevans/bylines/crawl"
	"github.com/pevans/bylines/enrich"
	"github.com/pevans/bylines/export"
)

// Empty-result failures, distinct from the author package's validation
// errors: the request was valid but the crawl found nothing usable.
var (
	ErrNoArticles = errors.New("no articles found for author")
	ErrNoEnriched = errors.New("no articles survived enrichment")
)

// Pipeline wires the pipeline stages together. All stages are request-scoped
// internally, so one Pipeline serves concurrent requests.
type Pipeline struct {
	resolver *author.Resolver
	crawler  *crawl.Crawler
	enricher *enrich.Enricher
	logger   *log.Logger
}

// New creates a pipeline. A nil resolver accepts the default domain family;
// nil crawler and enricher get default configurations; a nil logger
// discards output.
func New(resolver *author.Resolver, crawler *crawl.Crawler, enricher *enrich.Enricher, logger *log.Logger) *Pipeline {
	if resolver == nil {
		resolver = author.NewResolver(nil)
	}
	if crawler == nil {
		crawler = crawl.NewCrawler(nil, nil, logger)
	}
	if enricher == nil {
		enricher = enrich.NewEnricher(nil, nil, logger)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Pipeline{resolver: resolver, crawler: crawler, enricher: enricher, logger: logger}
}

// Stats summarizes one export cycle for the admin run record.
type Stats struct {
	AuthorSlug       string
	AuthorName       string
	ListingURL       string
	Format           string
	PagesVisited     int
	ArticlesFound    int
	ArticlesEnriched int
}

// Export runs one full cycle for a raw author URL and a format token.
// Validation errors from resolution and format parsing pass through
// untouched; empty results surface as ErrNoArticles or ErrNoEnriched. The
// stats are returned even alongside an error once resolution has succeeded.
func (p *Pipeline) Export(ctx context.Context, rawURL, formatToken string) (*export.Payload, *Stats, error) {
	actx, err := p.resolver.Resolve(rawURL)
	if err != nil {
		return nil, nil, err
	}

	format, err := export.ParseFormat(formatToken)
	if err != nil {
		return nil, nil, err
	}

	stats := &Stats{
		AuthorSlug: actx.Slug,
		AuthorName: actx.Name,
		ListingURL: actx.ListingURL,
		Format:     string(format),
	}

	result, err := p.crawler.Collect(ctx, actx)
	if err != nil {
		return nil, stats, fmt.Errorf("crawl failed: %w", err)
	}
	stats.PagesVisited = result.PagesVisited
	stats.ArticlesFound = len(result.Previews)
	if len(result.Previews) == 0 {
		return nil, stats, fmt.Errorf("%w: %s", ErrNoArticles, actx.Slug)
	}

	enriched, err := p.enricher.Enrich(ctx, result.Previews, actx.Name, actx)
	if err != nil {
		return nil, stats, fmt.Errorf("enrichment failed: %w", err)
	}
	stats.ArticlesEnriched = len(enriched)
	if len(enriched) == 0 {
		return nil, stats, fmt.Errorf("%w: %s", ErrNoEnriched, actx.Slug)
	}

	payload, err := export.Encode(enriched, format)
	if err != nil {
		return nil, stats, err
	}

	p.logger.Printf("INFO: Exported %d articles for %s as %s", len(enriched), actx.Slug, format)
	return payload, stats, nil
}

// Previews runs only the resolve-and-collect half of the cycle. The trends
// endpoint scores against previews without paying for enrichment.
func (p *Pipeline) Previews(ctx context.Context, rawURL string) (*crawl.Result, *author.Context, error) {
	actx, err := p.resolver.Resolve(rawURL)
	if err != nil {
		return nil, nil, err
	}
	result, err := p.crawler.Collect(ctx, actx)
	if err != nil {
		return nil, actx, err
	}
	return result, actx, nil
}
