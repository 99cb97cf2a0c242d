package crawl

import (
	"net/url"
	"strings"

	"github.com/pevans/bylines/article"
)

// frontier owns the crawl's page-URL state: a FIFO queue, the set of every
// URL ever enqueued, and the set of URLs already fetched. The enqueue-once
// and size-bound invariants live here so discovery sites never re-check them.
type frontier struct {
	queue   []string
	queued  map[string]struct{}
	visited map[string]struct{}
	limit   int
}

func newFrontier(limit int) *frontier {
	return &frontier{
		queued:  make(map[string]struct{}),
		visited: make(map[string]struct{}),
		limit:   limit,
	}
}

// enqueue adds a URL to the queue unless its normalized form was ever
// enqueued before or the aggregate frontier bound is reached. Returns true
// when the URL was actually added.
func (f *frontier) enqueue(raw string) bool {
	key := normalizeKey(raw)
	if key == "" {
		return false
	}
	if _, seen := f.queued[key]; seen {
		return false
	}
	if len(f.queued) >= f.limit {
		return false
	}
	f.queued[key] = struct{}{}
	f.queue = append(f.queue, raw)
	return true
}

// next dequeues the oldest URL. Returns false when the queue is empty.
func (f *frontier) next() (string, bool) {
	if len(f.queue) == 0 {
		return "", false
	}
	raw := f.queue[0]
	f.queue = f.queue[1:]
	return raw, true
}

// visit marks a URL as fetched. Returns false when it was already visited,
// in which case the caller skips it.
func (f *frontier) visit(raw string) bool {
	key := normalizeKey(raw)
	if _, done := f.visited[key]; done {
		return false
	}
	f.visited[key] = struct{}{}
	return true
}

func (f *frontier) visitedCount() int {
	return len(f.visited)
}

// collection is the insertion-ordered set of preview records, keyed by
// normalized article URL. First-discovered wins on duplicates and the cap is
// enforced on add.
type collection struct {
	byURL map[string]article.Article
	order []string
	cap   int
}

func newCollection(cap int) *collection {
	return &collection{
		byURL: make(map[string]article.Article),
		cap:   cap,
	}
}

// add records a preview unless its URL was already collected or the article
// cap is reached. Returns true when the preview was added.
func (c *collection) add(a article.Article) bool {
	key := normalizeKey(a.URL)
	if key == "" {
		return false
	}
	if _, seen := c.byURL[key]; seen {
		return false
	}
	if c.full() {
		return false
	}
	c.byURL[key] = a
	c.order = append(c.order, key)
	return true
}

func (c *collection) full() bool {
	return len(c.order) >= c.cap
}

// articles returns the collected previews in first-discovered order.
func (c *collection) articles() []article.Article {
	out := make([]article.Article, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.byURL[key])
	}
	return out
}

// normalizeKey produces the dedup key for a URL: scheme dropped, host
// lowercased with a leading www. stripped, fragment removed. Returns "" for
// unusable URLs.
func normalizeKey(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	key := host + u.Path
	if u.RawQuery != "" {
		key += "?" + u.RawQuery
	}
	return key
}
