package crawl

import (
	"net/url"
	"strings"

	"github.com/pevans/bylines/author"
)

// paginationTokens are the URL substrings that mark a discovered link as a
// plausible listing-pagination endpoint. Spanish listing pages mix query
// styles, AJAX loaders, and "siguiente" links; any one token qualifies.
var paginationTokens = []string{
	"page=", "pagina=", "_page=", "offset=",
	"load", "more", "ajax", "siguiente", "next",
}

// looksLikePagination reports whether a raw attribute value plausibly loads
// more of an author listing: it must mention the author area and carry one
// pagination token.
func looksLikePagination(raw string) bool {
	lower := strings.ToLower(raw)
	if !strings.Contains(lower, "autor") {
		return false
	}
	for _, token := range paginationTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

// looksLikeFeed reports whether a URL points at a syndication feed rather
// than a listing page. Feed URLs are collected separately and never enter
// the page frontier.
func looksLikeFeed(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	lower := strings.ToLower(raw)
	return strings.Contains(lower, "rss") ||
		strings.Contains(lower, "feed") ||
		strings.HasSuffix(strings.ToLower(u.Path), ".xml")
}

// relevantListing decides whether a discovered absolute URL belongs in the
// page frontier for this author: same allowed site family, an /autor/ path,
// and either the canonical author path or the author slug present in it.
func relevantListing(raw string, actx *author.Context) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return false
	}
	if !actx.AllowsHost(u.Hostname()) {
		return false
	}
	if !strings.Contains(u.Path, "/autor/") {
		return false
	}
	if base := canonicalAuthorPath(actx); base != "" && strings.Contains(u.Path, base) {
		return true
	}
	return strings.Contains(author.Normalize(u.Path), actx.Slug)
}

// plausibleArticle decides whether a URL discovered in a feed or JSON
// response plausibly points at an article: same site family, not an author
// listing, and a content-looking path.
func plausibleArticle(raw string, actx *author.Context) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return false
	}
	if !actx.AllowsHost(u.Hostname()) {
		return false
	}
	if strings.Contains(u.Path, "/autor/") {
		return false
	}
	path := strings.ToLower(u.Path)
	if strings.HasSuffix(path, ".html") {
		return true
	}
	// Extension-less article URLs still have a section plus a slug.
	return strings.Count(strings.Trim(path, "/"), "/") >= 1
}

// canonicalAuthorPath returns the listing URL's path with any .html suffix
// removed, so pagination variants like /autor/john-doe-527/2.html still
// contain it.
func canonicalAuthorPath(actx *author.Context) string {
	u, err := url.Parse(actx.ListingURL)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(u.Path, ".html")
}

// absolutize resolves href against base and returns an absolute http(s) URL
// with any fragment dropped, or "" when the reference is unusable.
func absolutize(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	abs := ref
	if base != nil {
		abs = base.ResolveReference(ref)
	}
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	if abs.Hostname() == "" {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}

// looksLikeURL reports whether a JSON string value should be treated as a
// discovery candidate.
func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") ||
		strings.HasPrefix(s, "https://") ||
		(strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") && len(s) > 1)
}
