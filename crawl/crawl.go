// Package crawl discovers an author's articles by walking candidate
// listing-page URLs: seeded pagination variants plus pages, feeds, and
// endpoints discovered along the way. The traversal is a bounded,
// deterministic breadth-first loop over an owned frontier; no single page
// failure aborts a crawl.
package crawl

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/url"
	"sort"
	"time"

	"github.com/pevans/bylines/article"
	"github.com/pevans/bylines/author"
	"github.com/pevans/bylines/fetch"
	"github.com/pevans/bylines/markup"
)

// Config holds the crawl bounds.
type Config struct {
	// Maximum listing pages fetched per crawl
	MaxPages int
	// Maximum preview records collected per crawl
	MaxArticles int
	// Highest page number generated by up-front seeding
	MaxSeedPages int
	// Aggregate bound on URLs ever enqueued, seeds included
	FrontierLimit int
	// Timeout per page fetch
	FetchTimeout time.Duration
}

// DefaultConfig returns the deployed crawl bounds.
func DefaultConfig() *Config {
	return &Config{
		MaxPages:      35,
		MaxArticles:   60,
		MaxSeedPages:  30,
		FrontierLimit: 500,
		FetchTimeout:  12 * time.Second,
	}
}

// Crawler collects article previews for one author context. A Crawler is
// safe for concurrent use: all crawl state is owned by the Collect call.
type Crawler struct {
	config *Config
	client *fetch.Client
	logger *log.Logger
}

// NewCrawler creates a crawler. A nil config uses DefaultConfig, a nil
// client gets a fresh one with the configured timeout, and a nil logger
// discards log output.
func NewCrawler(config *Config, client *fetch.Client, logger *log.Logger) *Crawler {
	if config == nil {
		config = DefaultConfig()
	}
	if client == nil {
		client = fetch.NewClient(config.FetchTimeout)
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Crawler{config: config, client: client, logger: logger}
}

// Result is the outcome of one crawl.
type Result struct {
	// Previews in first-discovered order, at most MaxArticles of them
	Previews []article.Article
	// Listing pages actually fetched
	PagesVisited int
	// Feed URLs fetched after the page loop
	FeedsFetched int
}

// Collect walks candidate listing pages for the author and returns the
// collected previews. Individual page failures are skipped; the only error
// returned is context cancellation, which aborts the whole crawl.
func (c *Crawler) Collect(ctx context.Context, actx *author.Context) (*Result, error) {
	front := newFrontier(c.config.FrontierLimit)
	collected := newCollection(c.config.MaxArticles)
	feeds := newFeedSet()

	// Seed every pagination convention up front. The canonical listing page
	// goes first so page-one cards win dedup against later variants.
	front.enqueue(actx.ListingURL)
	for _, seed := range seedPages(actx, c.config.MaxSeedPages) {
		front.enqueue(seed)
	}
	for _, guess := range feedGuesses(actx) {
		feeds.add(guess)
	}

	result := &Result{}

	for front.visitedCount() < c.config.MaxPages && !collected.full() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pageURL, ok := front.next()
		if !ok {
			break
		}
		// Feed-looking URLs are handled after the page loop and do not
		// consume a page visit.
		if looksLikeFeed(pageURL) {
			feeds.add(pageURL)
			continue
		}
		if !front.visit(pageURL) {
			continue
		}

		if err := c.crawlPage(ctx, pageURL, actx, front, collected, feeds); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Printf("WARN: Skipping page %s: %v", pageURL, err)
		}
	}

	// Feed pass: whatever article budget remains goes to the collected feed
	// URLs, guessed and discovered alike.
	for _, feedURL := range feeds.urls() {
		if collected.full() {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result.FeedsFetched++
		if err := c.collectFeed(ctx, feedURL, actx, collected); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Printf("WARN: Skipping feed %s: %v", feedURL, err)
		}
	}

	result.Previews = collected.articles()
	result.PagesVisited = front.visitedCount()

	c.logger.Printf("INFO: Crawl for %s finished: %d previews from %d pages and %d feeds",
		actx.Slug, len(result.Previews), result.PagesVisited, result.FeedsFetched)
	return result, nil
}

// crawlPage fetches one listing page, extracts its preview cards, and feeds
// its discovery signals back into the frontier and feed set.
func (c *Crawler) crawlPage(
	ctx context.Context,
	pageURL string,
	actx *author.Context,
	front *frontier,
	collected *collection,
	feeds *feedSet,
) error {
	body, err := c.client.Get(ctx, pageURL)
	if err != nil {
		return err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return err
	}

	add := func(a article.Article) {
		collected.add(a)
	}
	enqueue := func(raw string) {
		front.enqueue(raw)
	}

	// Listing endpoints answer either HTML or a JSON envelope whose string
	// values embed rendered card fragments and further URLs.
	if payload, ok := decodeJSON(body); ok {
		walkJSON(payload, func(fragment string) {
			doc, err := markup.ParseString(fragment)
			if err != nil {
				return
			}
			extractCards(doc, base, add)
		}, func(raw string) {
			abs := absolutize(base, raw)
			if abs == "" {
				return
			}
			if looksLikeFeed(abs) {
				feeds.add(abs)
			} else if relevantListing(abs, actx) {
				enqueue(abs)
			}
		})
		return nil
	}

	doc, err := markup.Parse(bytes.NewReader(body))
	if err != nil {
		return err
	}
	extractCards(doc, base, add)
	discoverLinks(doc, base, actx, enqueue, feeds.add)
	return nil
}

// decodeJSON attempts to decode a response body as JSON. Listing endpoints
// are not reliable about Content-Type, so the body itself decides.
func decodeJSON(body []byte) (any, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, false
	}
	var payload any
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, false
	}
	return payload, true
}

// walkJSON recursively visits every string in a decoded JSON tree, routing
// HTML-looking values to onHTML and URL-looking values to onURL.
func walkJSON(value any, onHTML, onURL func(string)) {
	switch v := value.(type) {
	case string:
		if markup.LooksLikeHTML(v) {
			onHTML(v)
		} else if looksLikeURL(v) {
			onURL(v)
		}
	case []any:
		for _, item := range v {
			walkJSON(item, onHTML, onURL)
		}
	case map[string]any:
		// Sorted keys keep discovery order deterministic across runs.
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walkJSON(v[k], onHTML, onURL)
		}
	}
}

// feedSet is the deduplicated, insertion-ordered set of feed URLs collected
// during a crawl. Feeds never enter the page frontier.
type feedSet struct {
	seen  map[string]struct{}
	order []string
}

func newFeedSet() *feedSet {
	return &feedSet{seen: make(map[string]struct{})}
}

func (f *feedSet) add(raw string) {
	key := normalizeKey(raw)
	if key == "" {
		return
	}
	if _, ok := f.seen[key]; ok {
		return
	}
	f.seen[key] = struct{}{}
	f.order = append(f.order, raw)
}

func (f *feedSet) urls() []string {
	return f.order
}
