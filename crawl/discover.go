package crawl

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/pevans/bylines/author"
	"github.com/pevans/bylines/markup"
)

// Attributes the sites use to carry pagination endpoints on links, buttons,
// and lazy-load containers.
var discoveryAttrs = []string{
	"href", "data-url", "data-next", "data-href", "data-endpoint", "data-api-url",
}

var (
	// scriptURLPattern finds absolute URLs embedded in inline scripts.
	scriptURLPattern = regexp.MustCompile(`https?://[^\s"'<>\\]+`)
	// scriptAuthorPathPattern finds quoted site-relative author paths.
	scriptAuthorPathPattern = regexp.MustCompile(`["'](/[^"']*?/autor/[^"']*?)["']`)
	// scriptPageHintPattern finds numeric page hints next to pagination
	// tokens, e.g. "page": 3 or pagina=2.
	scriptPageHintPattern = regexp.MustCompile(`(?i)\b(page|pagina|_page|offset)\b["']?\s*[:=]\s*["']?(\d{1,4})`)
)

// discoverLinks scans a listing page for further candidate pages and feed
// URLs. Candidates are absolutized and classified here; enqueueing (with its
// dedup and bounds) is the frontier's job, reached through enqueue.
func discoverLinks(doc *markup.Document, base *url.URL, actx *author.Context, enqueue, addFeed func(raw string)) {
	consider := func(raw string) {
		abs := absolutize(base, raw)
		if abs == "" {
			return
		}
		if looksLikeFeed(abs) {
			addFeed(abs)
			return
		}
		if relevantListing(abs, actx) {
			enqueue(abs)
		}
	}

	// Pagination-looking attribute values anywhere in the page.
	for _, attr := range discoveryAttrs {
		doc.EachAttr(attr, func(value string) {
			if looksLikePagination(value) || looksLikeFeed(value) {
				consider(value)
			}
		})
	}

	// Author "show more" buttons: data-page plus the journalist identity.
	// When the identity matches the context, the page number maps onto the
	// path-rewrite pagination shapes.
	doc.EachBlockWithAttr("data-page", func(b *markup.Block) {
		page, err := strconv.Atoi(b.Attr("data-page"))
		if err != nil || page < 1 {
			return
		}
		if !journalistMatches(b, actx) {
			return
		}
		canonical, err := url.Parse(actx.ListingURL)
		if err != nil {
			return
		}
		for _, candidate := range pathPageVariants(canonical, page) {
			consider(candidate)
		}
	})

	// Inline scripts: absolute URLs, quoted author paths, and numeric page
	// hints near pagination tokens.
	for _, script := range doc.ScriptTexts("") {
		for _, raw := range scriptURLPattern.FindAllString(script, -1) {
			consider(strings.TrimRight(raw, ".,;)"))
		}
		for _, m := range scriptAuthorPathPattern.FindAllStringSubmatch(script, -1) {
			consider(m[1])
		}
		discoverPageHints(script, actx, consider)
	}

	// <link rel="next"> is the cheapest pagination signal when present.
	for _, href := range doc.Links("link", "rel", "next") {
		consider(href)
	}

	// Declared syndication feeds.
	for _, href := range doc.Links(`link[type="application/rss+xml"]`, "", "") {
		if abs := absolutize(base, href); abs != "" {
			addFeed(abs)
		}
	}
	for _, href := range doc.Links(`link[type="application/atom+xml"]`, "", "") {
		if abs := absolutize(base, href); abs != "" {
			addFeed(abs)
		}
	}
}

// discoverPageHints maps numeric page hints found in script text onto the
// query-parameter pagination shapes of the canonical listing URL. An offset
// hint is translated back into a page number at ten articles per page.
func discoverPageHints(script string, actx *author.Context, consider func(string)) {
	canonical, err := url.Parse(actx.ListingURL)
	if err != nil {
		return
	}
	for _, m := range scriptPageHintPattern.FindAllStringSubmatch(script, -1) {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		page := n
		if strings.EqualFold(m[1], "offset") {
			page = n/10 + 1
		}
		if page < 2 || page > 100 {
			continue
		}
		for _, candidate := range queryPageVariants(canonical, page) {
			consider(candidate)
		}
	}
}

// journalistMatches checks a show-more button's journalist identity against
// the author context, by numeric id first and normalized name second.
func journalistMatches(b *markup.Block, actx *author.Context) bool {
	if id := b.Attr("data-journalists-id"); id != "" && id == actx.ID {
		return true
	}
	if name := b.Attr("data-journalists-name"); name != "" {
		normalized := author.Normalize(name)
		if normalized != "" && strings.Contains(normalized, actx.Slug) {
			return true
		}
	}
	return false
}
