package crawl

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/pevans/bylines/author"
)

// seedPages generates the up-front candidate listing URLs for pages 2
// through maxPage. The sites in the family disagree about pagination
// conventions, so every convention is tried simultaneously: three query
// parameters, an offset parameter, and two path-rewrite shapes. The frontier
// deduplicates, so overlap between conventions is harmless.
func seedPages(actx *author.Context, maxPage int) []string {
	base, err := url.Parse(actx.ListingURL)
	if err != nil {
		return nil
	}

	var seeds []string
	for page := 2; page <= maxPage; page++ {
		seeds = append(seeds, queryPageVariants(base, page)...)
		seeds = append(seeds, pathPageVariants(base, page)...)
	}
	return seeds
}

// queryPageVariants returns the query-parameter pagination shapes for one
// page number: ?page=N, ?pagina=N, ?_page=N, and ?offset=(N-1)*10.
func queryPageVariants(base *url.URL, page int) []string {
	variants := make([]string, 0, 4)
	for _, param := range []string{"page", "pagina", "_page"} {
		variants = append(variants, withQuery(base, param, strconv.Itoa(page)))
	}
	variants = append(variants, withQuery(base, "offset", strconv.Itoa((page-1)*10)))
	return variants
}

// pathPageVariants returns the path-rewrite pagination shapes for one page
// number: the /N.html and /pagina-N.html segments inserted before the
// listing page's extension.
func pathPageVariants(base *url.URL, page int) []string {
	stem := strings.TrimSuffix(base.Path, ".html")
	return []string{
		withPath(base, fmt.Sprintf("%s/%d.html", stem, page)),
		withPath(base, fmt.Sprintf("%s/pagina-%d.html", stem, page)),
	}
}

// feedGuesses returns RSS-style endpoint guesses for the author. Only
// attempted when the numeric author id is known; the sites expose per-author
// feeds keyed by id, not by slug.
func feedGuesses(actx *author.Context) []string {
	if actx.ID == "" {
		return nil
	}
	base, err := url.Parse(actx.ListingURL)
	if err != nil {
		return nil
	}
	return []string{
		withPath(base, fmt.Sprintf("/rss/autor/%s.xml", actx.ID)),
		withPath(base, fmt.Sprintf("/rss/2.0/autor/%s", actx.ID)),
		withPath(base, fmt.Sprintf("/feed/autor/%s-%s", actx.Slug, actx.ID)),
	}
}

func withQuery(base *url.URL, key, value string) string {
	u := *base
	q := u.Query()
	q.Set(key, value)
	u.RawQuery = q.Encode()
	return u.String()
}

func withPath(base *url.URL, path string) string {
	u := *base
	u.Path = path
	u.RawQuery = ""
	return u.String()
}
